package service

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"
	"github.com/fillipgms/admin-playfiver-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, email string, password string, clientIP *string) (remote.LoginOutcome, error) {
	args := m.Called(ctx, email, password, clientIP)
	outcome, _ := args.Get(0).(remote.LoginOutcome)
	return outcome, args.Error(1)
}

func (m *MockAuthAPI) VerifyTwoFactor(ctx context.Context, code string, email string, password string) (remote.Token, error) {
	args := m.Called(ctx, code, email, password)
	return args.Get(0).(remote.Token), args.Error(1)
}

func (m *MockAuthAPI) Logout(ctx context.Context, token remote.Token, clientIP *string) error {
	args := m.Called(ctx, token, clientIP)
	return args.Error(0)
}

type countingStore struct {
	repository.SessionStore
	created int
}

func (s *countingStore) Create(ctx context.Context, session *entity.Session) error {
	s.created++
	return s.SessionStore.Create(ctx, session)
}

type securityLogSpy struct {
	actions []entity.SecurityAction
}

func (s *securityLogSpy) Log(_ context.Context, log *entity.SecurityLog) error {
	s.actions = append(s.actions, log.Action)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type AuthServiceTestSuite struct {
	suite.Suite
	api      *MockAuthAPI
	sessions *countingStore
	audit    *securityLogSpy
	clock    fixedClock
	service  *AuthService
	ctx      context.Context
	ip       *string
}

func (s *AuthServiceTestSuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.api = new(MockAuthAPI)
	s.sessions = &countingStore{SessionStore: repository.NewMemorySessionStore()}
	s.audit = &securityLogSpy{}
	s.clock = fixedClock{now: time.Now()}
	s.ctx = context.Background()
	ip := "203.0.113.9"
	s.ip = &ip

	s.service = NewAuthService(s.api, s.sessions, s.audit, NewTOTPQRRenderer(), nil, logger, s.clock, AuthConfig{})
}

func (s *AuthServiceTestSuite) TestInvalidEmailNeverCallsPlatform() {
	for _, email := range []string{"", "not-an-email", "a@"} {
		state, err := s.service.SubmitCredentials(s.ctx, email, "secret", s.ip)

		var validationErr *ValidationError
		s.Require().ErrorAs(err, &validationErr)
		s.Contains(validationErr.Fields, "email")
		s.ErrorIs(err, ErrInvalidInput)
		s.Equal(StepCredentials, state.Step())
	}
	s.api.AssertNotCalled(s.T(), "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestMissingPasswordIsFieldError() {
	_, err := s.service.SubmitCredentials(s.ctx, "ops@example.com", "", s.ip)

	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Equal("is required", validationErr.Fields["password"])
	s.api.AssertNotCalled(s.T(), "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestCodeNotRegisteredGoesToQRRegistration() {
	s.api.On("Login", mock.Anything, "ops@example.com", "secret", s.ip).
		Return(remote.NeedsRegistration{QRCodeURL: "https://qr.example/1.png", Secret: "JBSWY3DPEHPK3PXP"}, nil)

	state, err := s.service.SubmitCredentials(s.ctx, " ops@example.com ", "secret", s.ip)
	s.Require().NoError(err)

	qr, ok := state.(QRRegistrationState)
	s.Require().True(ok)
	s.Equal("https://qr.example/1.png", qr.Challenge.QRImageURL)
	s.Equal("JBSWY3DPEHPK3PXP", qr.Challenge.Secret)
	s.Equal(Credentials{Email: "ops@example.com", Password: "secret"}, qr.Credentials)
	s.Equal(0, s.sessions.created)
	s.Equal([]entity.SecurityAction{entity.TwoFactorRegistering}, s.audit.actions)
}

func (s *AuthServiceTestSuite) TestLoginNotPassedGoesToVerification() {
	s.api.On("Login", mock.Anything, "ops@example.com", "secret", s.ip).Return(remote.NeedsVerification{}, nil)

	state, err := s.service.SubmitCredentials(s.ctx, "ops@example.com", "secret", s.ip)
	s.Require().NoError(err)
	s.Equal(StepVerifyTwoFactor, state.Step())
	s.Equal(0, s.sessions.created)
}

func (s *AuthServiceTestSuite) TestAccessTokenCreatesExactlyOneSession() {
	s.api.On("Login", mock.Anything, "ops@example.com", "secret", s.ip).
		Return(remote.Authenticated{Token: remote.Token{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 3600}}, nil)

	state, err := s.service.SubmitCredentials(s.ctx, "ops@example.com", "secret", s.ip)
	s.Require().NoError(err)

	done, ok := state.(DoneState)
	s.Require().True(ok)
	s.Equal(1, s.sessions.created)
	s.Equal("tok", done.Session.AccessToken)
	s.Equal(s.clock.now.Add(time.Hour), done.Session.ExpiresAt)

	stored, err := s.service.Session(s.ctx, done.Session.ID)
	s.Require().NoError(err)
	s.Equal("ops@example.com", stored.Email)
}

func (s *AuthServiceTestSuite) TestRejectedCredentialsCarryFieldMessages() {
	s.api.On("Login", mock.Anything, "ops@example.com", "wrong", s.ip).Return(nil, &remote.APIError{
		StatusCode:  http.StatusUnprocessableEntity,
		Message:     "The given data was invalid.",
		FieldErrors: map[string][]string{"email": {"These credentials do not match our records."}},
	})

	state, err := s.service.SubmitCredentials(s.ctx, "ops@example.com", "wrong", s.ip)

	var rejected *RejectedError
	s.Require().ErrorAs(err, &rejected)
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Equal("These credentials do not match our records.", rejected.Fields["email"])
	s.Equal(StepCredentials, state.Step())
	s.Equal([]entity.SecurityAction{entity.LoginFailed}, s.audit.actions)
}

func (s *AuthServiceTestSuite) TestUnavailableAndUnexpectedAreDistinct() {
	s.api.On("Login", mock.Anything, "down@example.com", "pw", s.ip).
		Return(nil, errors.Join(remote.ErrUnavailable, errors.New("dial tcp: refused")))
	s.api.On("Login", mock.Anything, "odd@example.com", "pw", s.ip).
		Return(nil, remote.ErrUnexpectedResponse)

	_, err := s.service.SubmitCredentials(s.ctx, "down@example.com", "pw", s.ip)
	s.ErrorIs(err, ErrUpstreamUnavailable)

	_, err = s.service.SubmitCredentials(s.ctx, "odd@example.com", "pw", s.ip)
	s.ErrorIs(err, ErrUnexpectedResponse)
}

func (s *AuthServiceTestSuite) TestVerifyWithoutRetainedCredentialsRestarts() {
	for _, state := range []State{nil, CredentialsState{}, VerifyTwoFactorState{}, VerifyTwoFactorState{Credentials: Credentials{Email: "ops@example.com"}}} {
		for _, code := range []string{"123456", "", "abc"} {
			next, err := s.service.VerifyTwoFactor(s.ctx, state, code, s.ip)
			s.ErrorIs(err, ErrLostStepState)
			s.Equal(StepCredentials, next.Step())
		}
	}
	s.api.AssertNotCalled(s.T(), "VerifyTwoFactor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestVerifyRejectsMalformedCodeLocally() {
	state := VerifyTwoFactorState{Credentials: Credentials{Email: "ops@example.com", Password: "secret"}}

	next, err := s.service.VerifyTwoFactor(s.ctx, state, "12a456", s.ip)

	var validationErr *ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Contains(validationErr.Fields, "code")
	s.Equal(state, next)
	s.api.AssertNotCalled(s.T(), "VerifyTwoFactor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthServiceTestSuite) TestVerifyRejectedCodeStaysOnVerification() {
	state := VerifyTwoFactorState{Credentials: Credentials{Email: "ops@example.com", Password: "secret"}}
	s.api.On("VerifyTwoFactor", mock.Anything, "000000", "ops@example.com", "secret").
		Return(remote.Token{}, &remote.APIError{StatusCode: http.StatusUnauthorized, Message: "Código inválido"})

	next, err := s.service.VerifyTwoFactor(s.ctx, state, "000000", s.ip)

	var rejected *RejectedError
	s.Require().ErrorAs(err, &rejected)
	s.ErrorIs(err, ErrInvalidTwoFactorCode)
	s.Equal("Código inválido", rejected.Message)
	s.Equal(state, next)
	s.Equal(0, s.sessions.created)
}

func (s *AuthServiceTestSuite) TestVerifyPlatformErrorIsNotABadCode() {
	state := VerifyTwoFactorState{Credentials: Credentials{Email: "ops@example.com", Password: "secret"}}
	s.api.On("VerifyTwoFactor", mock.Anything, "123456", "ops@example.com", "secret").
		Return(remote.Token{}, &remote.APIError{StatusCode: http.StatusInternalServerError, Message: "Server Error"})

	next, err := s.service.VerifyTwoFactor(s.ctx, state, "123456", s.ip)

	s.NotErrorIs(err, ErrInvalidTwoFactorCode)
	var apiErr *remote.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusInternalServerError, apiErr.StatusCode)
	s.Equal("Server Error", apiErr.Message)
	s.Equal(state, next)
	s.Empty(s.audit.actions)
	s.Equal(0, s.sessions.created)
}

func (s *AuthServiceTestSuite) TestVerifyRejectionStatuses() {
	state := VerifyTwoFactorState{Credentials: Credentials{Email: "ops@example.com", Password: "secret"}}
	statuses := map[string]int{"111111": http.StatusOK, "222222": http.StatusUnauthorized, "333333": http.StatusUnprocessableEntity}
	for code, status := range statuses {
		s.api.On("VerifyTwoFactor", mock.Anything, code, "ops@example.com", "secret").
			Return(remote.Token{}, &remote.APIError{StatusCode: status, Message: "Código inválido"})
	}

	for code, status := range statuses {
		_, err := s.service.VerifyTwoFactor(s.ctx, state, code, s.ip)
		s.ErrorIs(err, ErrInvalidTwoFactorCode, "status %d", status)
	}
	s.Len(s.audit.actions, len(statuses))
}

func (s *AuthServiceTestSuite) TestHugeExpiresInIsCapped() {
	s.api.On("Login", mock.Anything, "ops@example.com", "secret", s.ip).
		Return(remote.Authenticated{Token: remote.Token{AccessToken: "tok", ExpiresIn: math.MaxInt64}}, nil)

	state, err := s.service.SubmitCredentials(s.ctx, "ops@example.com", "secret", s.ip)
	s.Require().NoError(err)

	done, ok := state.(DoneState)
	s.Require().True(ok)
	s.Equal(s.clock.now.Add(maxSessionTTL), done.Session.ExpiresAt)
}

func (s *AuthServiceTestSuite) TestVerifyFromQRRegistrationCreatesSession() {
	state := QRRegistrationState{
		Credentials: Credentials{Email: "ops@example.com", Password: "secret"},
		Challenge:   TwoFactorChallenge{QRImageURL: "x", Secret: "y"},
	}
	next := s.service.ContinueToVerification(state)
	s.Equal(VerifyTwoFactorState{Credentials: state.Credentials}, next)

	s.api.On("VerifyTwoFactor", mock.Anything, "123456", "ops@example.com", "secret").
		Return(remote.Token{AccessToken: "tok", ExpiresIn: 60}, nil)

	done, err := s.service.VerifyTwoFactor(s.ctx, next, " 123456 ", s.ip)
	s.Require().NoError(err)
	s.Equal(StepDone, done.Step())
	s.Equal(1, s.sessions.created)
	s.Equal("bearer", done.(DoneState).Session.TokenType)
}

func (s *AuthServiceTestSuite) TestContinueLeavesOtherStatesAlone() {
	s.Equal(CredentialsState{}, s.service.ContinueToVerification(CredentialsState{}))
	s.Equal(StepCredentials, s.service.ResetLogin().Step())
}

func (s *AuthServiceTestSuite) createSession() *entity.Session {
	session := &entity.Session{
		ID:          uuid.New(),
		AccessToken: "tok",
		TokenType:   "bearer",
		Email:       "ops@example.com",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	s.Require().NoError(s.sessions.Create(s.ctx, session))
	return session
}

func (s *AuthServiceTestSuite) TestLogoutDeletesSession() {
	session := s.createSession()
	s.api.On("Logout", mock.Anything, remote.Token{AccessToken: "tok", TokenType: "bearer"}, s.ip).Return(nil)

	s.Require().NoError(s.service.Logout(s.ctx, session.ID, s.ip))

	_, err := s.service.Session(s.ctx, session.ID)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *AuthServiceTestSuite) TestLogoutUnauthorizedStillDeletes() {
	session := s.createSession()
	s.api.On("Logout", mock.Anything, mock.Anything, s.ip).
		Return(&remote.APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthenticated."})

	s.Require().NoError(s.service.Logout(s.ctx, session.ID, s.ip))

	_, err := s.service.Session(s.ctx, session.ID)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *AuthServiceTestSuite) TestLogoutServerErrorKeepsSession() {
	session := s.createSession()
	s.api.On("Logout", mock.Anything, mock.Anything, s.ip).
		Return(&remote.APIError{StatusCode: http.StatusInternalServerError, Message: "Server Error"})

	err := s.service.Logout(s.ctx, session.ID, s.ip)

	var apiErr *remote.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Server Error", apiErr.Message)

	stored, err := s.service.Session(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, stored.ID)
}

func (s *AuthServiceTestSuite) TestLogoutUnknownSession() {
	err := s.service.Logout(s.ctx, uuid.New(), s.ip)
	s.ErrorIs(err, ErrSessionNotFound)
	s.api.AssertNotCalled(s.T(), "Logout", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"password": "is required", "email": "must be a valid email address"}}
	assert.Equal(t, "invalid input: email must be a valid email address, password is required", err.Error())
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSessionTTL(t *testing.T) {
	assert.Equal(t, time.Hour, sessionTTL(0, time.Hour))
	assert.Equal(t, time.Hour, sessionTTL(-5, time.Hour))
	assert.Equal(t, 90*time.Second, sessionTTL(90, time.Hour))
	assert.Equal(t, maxSessionTTL, sessionTTL(int64(maxSessionTTL/time.Second), time.Hour))
	assert.Equal(t, maxSessionTTL, sessionTTL(9_300_000_000, time.Hour))
}
