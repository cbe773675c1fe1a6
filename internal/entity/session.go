package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the local half of a platform login: the bearer credential the
// platform issued, kept server side and referenced by a signed cookie.
type Session struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AccessToken string `gorm:"type:text;not null" json:"access_token"`
	TokenType   string `gorm:"type:varchar(32);not null" json:"token_type"`

	Email     string  `gorm:"type:varchar(255);index" json:"email"`
	IPAddress *string `gorm:"type:varchar(45)" json:"ip_address,omitempty"`

	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// TTL is the remaining lifetime, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
