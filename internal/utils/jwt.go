package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	TokenTypeSession     = "session"
	TokenTypeLoginTicket = "login_ticket"
)

// JWTManager signs the opaque identifiers carried in browser cookies so a
// tampered cookie is rejected before any store lookup.
type JWTManager struct {
	Secret []byte
	Issuer string
}

type CookieClaims struct {
	ID   string `json:"sid"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (m JWTManager) Issue(id string, tokenType string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidToken
	}
	now := time.Now()
	claims := CookieClaims{
		ID:   id,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.Secret)
}

func (m JWTManager) Parse(tokenString string, tokenType string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &CookieClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*CookieClaims)
	if !ok || !parsed.Valid || claims.Type != tokenType || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
