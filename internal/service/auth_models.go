package service

import (
	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
)

type Step string

const (
	StepCredentials     Step = "credentials"
	StepQRRegistration  Step = "qr_registration"
	StepVerifyTwoFactor Step = "verify_two_factor"
	StepDone            Step = "done"
)

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c Credentials) complete() bool {
	return c.Email != "" && c.Password != ""
}

type TwoFactorChallenge struct {
	QRImageURL string
	Secret     string
}

type twoFactorCode struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// State is one step of the login flow. Each implementation carries exactly
// what its step needs.
type State interface {
	Step() Step
}

type CredentialsState struct{}

type QRRegistrationState struct {
	Credentials Credentials
	Challenge   TwoFactorChallenge
}

type VerifyTwoFactorState struct {
	Credentials Credentials
}

type DoneState struct {
	Session *entity.Session
}

func (CredentialsState) Step() Step     { return StepCredentials }
func (QRRegistrationState) Step() Step  { return StepQRRegistration }
func (VerifyTwoFactorState) Step() Step { return StepVerifyTwoFactor }
func (DoneState) Step() Step            { return StepDone }

// retainedCredentials returns the credentials kept from step one, if any.
func retainedCredentials(state State) (Credentials, bool) {
	switch s := state.(type) {
	case QRRegistrationState:
		return s.Credentials, s.Credentials.complete()
	case VerifyTwoFactorState:
		return s.Credentials, s.Credentials.complete()
	}
	return Credentials{}, false
}
