package remote

import (
	"encoding/json"
	"strings"
)

const (
	msgCodeNotRegistered = "code_not_registered"
	msgLoginNotPassed    = "login_not_passed"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t Token) Authorization() string {
	tokenType := strings.TrimSpace(t.TokenType)
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	return tokenType + " " + t.AccessToken
}

// LoginOutcome is one of NeedsRegistration, NeedsVerification or Authenticated.
type LoginOutcome interface {
	loginOutcome()
}

// NeedsRegistration means the account has no authenticator yet; the QR code
// and shared secret must be shown before a code can be verified.
type NeedsRegistration struct {
	QRCodeURL string
	Secret    string
}

// NeedsVerification means the password was accepted and a 2FA code is due.
type NeedsVerification struct{}

type Authenticated struct {
	Token Token
}

func (NeedsRegistration) loginOutcome() {}
func (NeedsVerification) loginOutcome() {}
func (Authenticated) loginOutcome()     {}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	QRCodeURL   string `json:"qr_code_url"`
	Secret      string `json:"secret"`
}

func (r loginResponse) token() Token {
	return Token{AccessToken: r.AccessToken, TokenType: r.TokenType, ExpiresIn: r.ExpiresIn}
}

func (r loginResponse) outcome() (LoginOutcome, bool) {
	if r.AccessToken != "" {
		return Authenticated{Token: r.token()}, true
	}
	switch r.Msg {
	case msgCodeNotRegistered:
		return NeedsRegistration{QRCodeURL: r.QRCodeURL, Secret: r.Secret}, true
	case msgLoginNotPassed:
		return NeedsVerification{}, true
	}
	return nil, false
}

// Page mirrors the platform's length-aware paginator.
type Page struct {
	CurrentPage int               `json:"current_page"`
	LastPage    int               `json:"last_page"`
	PerPage     int               `json:"per_page"`
	Total       int               `json:"total"`
	NextPageURL *string           `json:"next_page_url"`
	PrevPageURL *string           `json:"prev_page_url"`
	Data        []json.RawMessage `json:"data"`
}

type DashboardMetrics struct {
	Users         int64   `json:"users"`
	Agents        int64   `json:"agents"`
	ActivePlayers int64   `json:"active_players"`
	Wins          float64 `json:"wins"`
	Losses        float64 `json:"losses"`
	GGR           float64 `json:"ggr"`
}
