package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrLostStepState        = errors.New("login step state lost, start again")
	ErrUnexpectedResponse   = errors.New("unexpected response from platform")
	ErrUpstreamUnavailable  = errors.New("platform unavailable")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUnknownView          = errors.New("unknown list view")
)

// ValidationError carries per-field messages; no remote call was made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// RejectedError is the platform refusing the submitted credentials or code.
type RejectedError struct {
	Cause   error
	Message string
	Fields  map[string]string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return e.Cause.Error()
	}
	return e.Cause.Error() + ": " + e.Message
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}
