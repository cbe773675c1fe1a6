package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable        = errors.New("platform api unavailable")
	ErrUnexpectedResponse = errors.New("unexpected platform api response")
)

// APIError is a non-success answer from the platform API.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform api error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("platform api error (%d): %s", e.StatusCode, e.Message)
}

// FieldMessage returns the first message reported for field.
func (e *APIError) FieldMessage(field string) string {
	messages := e.FieldErrors[field]
	if len(messages) == 0 {
		return ""
	}
	return messages[0]
}

func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func IsUnprocessable(err error) bool {
	return hasStatus(err, http.StatusUnprocessableEntity)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

type errorBody struct {
	Message string                     `json:"message"`
	Msg     string                     `json:"msg"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// fieldErrors accepts both {"email": ["..."]} and {"email": "..."}.
func (b errorBody) fieldErrors() map[string][]string {
	if len(b.Errors) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(b.Errors))
	for field, raw := range b.Errors {
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			fields[field] = many
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			fields[field] = []string{one}
		}
	}
	return fields
}

func (b errorBody) message() string {
	for _, candidate := range []string{b.Message, b.Msg, b.Error} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}
