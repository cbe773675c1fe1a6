package dto

import (
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TwoFactorRequest struct {
	Code string `json:"code"`
}

// LoginStepResponse tells the client which screen of the login flow to show.
type LoginStepResponse struct {
	Step       service.Step      `json:"step"`
	QRImageURL string            `json:"qr_image_url,omitempty"`
	Secret     string            `json:"secret,omitempty"`
	Message    string            `json:"message,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Session    *SessionResponse  `json:"session,omitempty"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func SessionResponseFromEntity(session *entity.Session) *SessionResponse {
	if session == nil {
		return nil
	}
	return &SessionResponse{
		ID:        session.ID.String(),
		Email:     session.Email,
		TokenType: session.TokenType,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}
}

// LoginStepFromState never exposes retained credentials, only what the
// current screen renders.
func LoginStepFromState(state service.State) LoginStepResponse {
	if state == nil {
		return LoginStepResponse{Step: service.StepCredentials}
	}
	response := LoginStepResponse{Step: state.Step()}
	switch s := state.(type) {
	case service.QRRegistrationState:
		response.QRImageURL = s.Challenge.QRImageURL
		response.Secret = s.Challenge.Secret
	case service.DoneState:
		response.Session = SessionResponseFromEntity(s.Session)
	}
	return response
}
