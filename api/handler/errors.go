package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fillipgms/admin-playfiver-sub001/internal/dto"
	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"

	"github.com/labstack/echo/v4"
)

const unavailableMessage = "the platform could not be reached, try again in a moment"

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func serviceStatus(err error) int {
	var apiErr *remote.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidTwoFactorCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrLostStepState):
		return http.StatusConflict
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnknownView):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrUnexpectedResponse), errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// serviceMessage is what the client gets to read. Remote errors surface the
// platform's own message.
func serviceMessage(err error) string {
	var apiErr *remote.APIError
	var rejected *service.RejectedError
	switch {
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return unavailableMessage
	case errors.Is(err, service.ErrUnexpectedResponse):
		return service.ErrUnexpectedResponse.Error()
	case errors.Is(err, service.ErrSessionNotFound):
		return service.ErrSessionNotFound.Error()
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	if serviceStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func fieldErrors(err error) map[string]string {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	var rejected *service.RejectedError
	if errors.As(err, &rejected) && len(rejected.Fields) > 0 {
		return rejected.Fields
	}
	return nil
}

func writeServiceError(c echo.Context, err error) error {
	status := serviceStatus(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	body := map[string]any{"message": serviceMessage(err)}
	if fields := fieldErrors(err); fields != nil {
		body["errors"] = fields
	}
	return c.JSON(status, body)
}

// writeLoginError answers with the step the client must show next.
func writeLoginError(c echo.Context, state service.State, err error) error {
	response := dto.LoginStepFromState(state)
	response.Session = nil
	response.Message = serviceMessage(err)
	response.Errors = fieldErrors(err)
	return c.JSON(serviceStatus(err), response)
}
