package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"
	"github.com/fillipgms/admin-playfiver-sub001/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	defaultSessionTTL = time.Hour
	// maxSessionTTL caps expires_in so the conversion to a Duration cannot
	// overflow.
	maxSessionTTL = 365 * 24 * time.Hour
)

// AuthService drives the login flow against the platform API and owns the
// local sessions that result from it.
type AuthService struct {
	api          AuthAPI
	sessions     repository.SessionStore
	securityLogs repository.SecurityLogRepository
	qr           QRRenderer
	validate     *validator.Validate
	logger       *logrus.Logger
	clock        Clock
	config       AuthConfig
}

func NewAuthService(
	api AuthAPI,
	sessions repository.SessionStore,
	securityLogs repository.SecurityLogRepository,
	qr QRRenderer,
	validate *validator.Validate,
	logger *logrus.Logger,
	clock Clock,
	config AuthConfig,
) *AuthService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		api:          api,
		sessions:     sessions,
		securityLogs: securityLogs,
		qr:           qr,
		validate:     validate,
		logger:       logger,
		clock:        clock,
		config:       config,
	}
}

// SubmitCredentials is step one. It returns the next state: QR registration,
// code verification, or done with a freshly created session.
func (s *AuthService) SubmitCredentials(ctx context.Context, email string, password string, clientIP *string) (State, error) {
	credentials := Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validateStruct(s.validate, credentials); err != nil {
		return CredentialsState{}, err
	}

	outcome, err := s.api.Login(ctx, credentials.Email, credentials.Password, clientIP)
	if err != nil {
		_ = s.logSecurity(ctx, credentials.Email, nil, clientIP, entity.LoginFailed, nil)
		return CredentialsState{}, s.loginError(err)
	}

	switch result := outcome.(type) {
	case remote.NeedsRegistration:
		challenge := s.renderChallenge(TwoFactorChallenge{QRImageURL: result.QRCodeURL, Secret: result.Secret})
		_ = s.logSecurity(ctx, credentials.Email, nil, clientIP, entity.TwoFactorRegistering, nil)
		return QRRegistrationState{Credentials: credentials, Challenge: challenge}, nil
	case remote.NeedsVerification:
		_ = s.logSecurity(ctx, credentials.Email, nil, clientIP, entity.TwoFactorRequired, nil)
		return VerifyTwoFactorState{Credentials: credentials}, nil
	case remote.Authenticated:
		session, err := s.createSession(ctx, result.Token, credentials.Email, clientIP)
		if err != nil {
			return CredentialsState{}, err
		}
		return DoneState{Session: session}, nil
	}
	return CredentialsState{}, ErrUnexpectedResponse
}

// ContinueToVerification moves from the QR screen to the code screen.
func (s *AuthService) ContinueToVerification(state State) State {
	if qr, ok := state.(QRRegistrationState); ok {
		return VerifyTwoFactorState{Credentials: qr.Credentials}
	}
	return state
}

// VerifyTwoFactor is the last step. Without retained credentials the flow
// restarts at the credentials step; a rejected code keeps the caller on the
// verification step so it can retry.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, state State, code string, clientIP *string) (State, error) {
	credentials, ok := retainedCredentials(state)
	if !ok {
		return CredentialsState{}, ErrLostStepState
	}
	current := VerifyTwoFactorState{Credentials: credentials}

	code = strings.TrimSpace(code)
	if err := validateStruct(s.validate, twoFactorCode{Code: code}); err != nil {
		return current, err
	}

	token, err := s.api.VerifyTwoFactor(ctx, code, credentials.Email, credentials.Password)
	if err != nil {
		err = s.verifyError(err)
		if errors.Is(err, ErrInvalidTwoFactorCode) {
			_ = s.logSecurity(ctx, credentials.Email, nil, clientIP, entity.TwoFactorFailed, nil)
		}
		return current, err
	}
	if token.AccessToken == "" {
		return current, ErrUnexpectedResponse
	}

	session, err := s.createSession(ctx, token, credentials.Email, clientIP)
	if err != nil {
		return current, err
	}
	return DoneState{Session: session}, nil
}

// ResetLogin drops whatever was retained and returns to step one.
func (s *AuthService) ResetLogin() State {
	return CredentialsState{}
}

// Logout ends the platform session. A 401 from the platform means the token
// is already dead there, so the local session is removed all the same.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID, clientIP *string) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	err = s.api.Logout(ctx, tokenOf(session), clientIP)
	switch {
	case err == nil:
	case remote.IsUnauthorized(err):
		s.logger.WithField("session_id", session.ID.String()).Info("platform session already invalid, clearing local session")
	case errors.Is(err, remote.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	default:
		return err
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, session.Email, &session.ID, clientIP, entity.Logout, nil)
	return nil
}

func (s *AuthService) Session(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *AuthService) createSession(ctx context.Context, token remote.Token, email string, clientIP *string) (*entity.Session, error) {
	now := s.now()
	ttl := sessionTTL(token.ExpiresIn, s.defaultSessionTTL())
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}

	session := &entity.Session{
		ID:          uuid.New(),
		AccessToken: token.AccessToken,
		TokenType:   tokenType,
		Email:       email,
		IPAddress:   clientIP,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	_ = s.logSecurity(ctx, email, &session.ID, clientIP, entity.LoginSuccess, map[string]any{"expires_in": int64(ttl.Seconds())})
	return session, nil
}

func (s *AuthService) renderChallenge(challenge TwoFactorChallenge) TwoFactorChallenge {
	if s.qr == nil {
		return challenge
	}
	rendered, err := s.qr.Render(challenge)
	if err != nil {
		s.logger.WithError(err).Warn("qr code left as received")
		return challenge
	}
	return rendered
}

func (s *AuthService) loginError(err error) error {
	var apiErr *remote.APIError
	switch {
	case errors.Is(err, remote.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	case errors.Is(err, remote.ErrUnexpectedResponse):
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	case remote.IsUnprocessable(err), remote.IsUnauthorized(err):
		errors.As(err, &apiErr)
		fields := map[string]string{}
		for _, field := range []string{"email", "password"} {
			if message := apiErr.FieldMessage(field); message != "" {
				fields[field] = message
			}
		}
		return &RejectedError{Cause: ErrInvalidCredentials, Message: apiErr.Message, Fields: fields}
	}
	return err
}

func (s *AuthService) verifyError(err error) error {
	var apiErr *remote.APIError
	switch {
	case errors.Is(err, remote.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	case errors.Is(err, remote.ErrUnexpectedResponse):
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	case errors.As(err, &apiErr) && rejectsCode(apiErr.StatusCode):
		return &RejectedError{Cause: ErrInvalidTwoFactorCode, Message: apiErr.Message}
	}
	return err
}

// rejectsCode reports whether a verify answer judged the code. A 200 without
// a token counts as a rejection; server errors do not.
func rejectsCode(status int) bool {
	switch status {
	case http.StatusOK, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func (s *AuthService) logSecurity(
	ctx context.Context,
	email string,
	sessionID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	entry := s.logger.WithFields(logrus.Fields{"email": email, "action": string(action)})
	if ipAddress != nil {
		entry = entry.WithField("ip", *ipAddress)
	}
	entry.Info("auth event")

	if s.securityLogs == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		SessionID: sessionID,
		Email:     email,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := s.securityLogs.Log(ctx, log); err != nil {
		s.logger.WithError(err).Warn("security log not written")
		return err
	}
	return nil
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) defaultSessionTTL() time.Duration {
	if s.config.DefaultSessionTTL > 0 {
		return s.config.DefaultSessionTTL
	}
	return defaultSessionTTL
}

func tokenOf(session *entity.Session) remote.Token {
	return remote.Token{AccessToken: session.AccessToken, TokenType: session.TokenType}
}

// sessionTTL converts expires_in seconds, falling back when it is missing and
// capping it at maxSessionTTL.
func sessionTTL(expiresIn int64, fallback time.Duration) time.Duration {
	switch {
	case expiresIn <= 0:
		return fallback
	case expiresIn >= int64(maxSessionTTL/time.Second):
		return maxSessionTTL
	}
	return time.Duration(expiresIn) * time.Second
}
