package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/api/middleware"
	"github.com/fillipgms/admin-playfiver-sub001/internal/dto"
	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/repository"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"
	"github.com/fillipgms/admin-playfiver-sub001/internal/utils"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Service           *service.AuthService
	Pending           *repository.PendingLoginStore[service.State]
	JWT               *utils.JWTManager
	SessionCookieName string
	TicketCookieName  string
	CookieDomain      string
	SecureCookies     bool
	SameSite          http.SameSite
}

func NewAuthHandler(svc *service.AuthService, pending *repository.PendingLoginStore[service.State], jwt *utils.JWTManager) *AuthHandler {
	return &AuthHandler{
		Service:           svc,
		Pending:           pending,
		JWT:               jwt,
		SessionCookieName: "session",
		TicketCookieName:  "login_ticket",
		SecureCookies:     true,
		SameSite:          http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	h.forgetTicket(c)

	state, err := h.Service.SubmitCredentials(c.Request().Context(), req.Email, req.Password, middleware.ClientIPFromContext(c))
	if err != nil {
		h.dropTicket(c)
		return writeLoginError(c, state, err)
	}
	return h.respondState(c, "", state)
}

func (h *AuthHandler) ContinueLogin(c echo.Context) error {
	ticket, state := h.loadState(c)
	if state == nil {
		return writeLoginError(c, service.CredentialsState{}, service.ErrLostStepState)
	}
	return h.respondState(c, ticket, h.Service.ContinueToVerification(state))
}

func (h *AuthHandler) ResetLogin(c echo.Context) error {
	h.dropTicket(c)
	return c.JSON(http.StatusOK, dto.LoginStepFromState(h.Service.ResetLogin()))
}

func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req dto.TwoFactorRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	ticket, state := h.loadState(c)

	next, err := h.Service.VerifyTwoFactor(c.Request().Context(), state, req.Code, middleware.ClientIPFromContext(c))
	if err != nil {
		if next.Step() == service.StepCredentials {
			h.dropTicket(c)
		}
		return writeLoginError(c, next, err)
	}
	return h.respondState(c, ticket, next)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Service.Logout(c.Request().Context(), session.ID, middleware.ClientIPFromContext(c)); err != nil {
		return writeServiceError(c, err)
	}
	h.clearCookie(c, h.SessionCookieName)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Session(c echo.Context) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	return c.JSON(http.StatusOK, dto.SessionResponseFromEntity(session))
}

// respondState persists the state the client has to come back with: a
// pending login behind the ticket cookie, or the session cookie once done.
func (h *AuthHandler) respondState(c echo.Context, ticket string, state service.State) error {
	switch s := state.(type) {
	case service.DoneState:
		h.dropTicket(c)
		if err := h.setSessionCookie(c, s.Session); err != nil {
			return writeServiceError(c, err)
		}
	case service.QRRegistrationState, service.VerifyTwoFactorState:
		if err := h.storeTicket(c, ticket, state); err != nil {
			return writeServiceError(c, err)
		}
	}
	return c.JSON(http.StatusOK, dto.LoginStepFromState(state))
}

func (h *AuthHandler) loadState(c echo.Context) (string, service.State) {
	ticket := h.readTicket(c)
	if ticket == "" {
		return "", nil
	}
	state, ok := h.Pending.Get(ticket)
	if !ok {
		return "", nil
	}
	return ticket, state
}

func (h *AuthHandler) storeTicket(c echo.Context, ticket string, state service.State) error {
	if ticket == "" {
		generated, err := utils.GenerateRandomToken(32)
		if err != nil {
			return err
		}
		ticket = generated
	}
	h.Pending.Put(ticket, state)

	signed, err := h.JWT.Issue(ticket, utils.TokenTypeLoginTicket, h.Pending.TTL())
	if err != nil {
		return err
	}
	h.setCookie(c, h.TicketCookieName, signed, h.Pending.TTL())
	return nil
}

func (h *AuthHandler) readTicket(c echo.Context) string {
	cookie, err := c.Cookie(h.TicketCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	ticket, err := h.JWT.Parse(cookie.Value, utils.TokenTypeLoginTicket)
	if err != nil {
		return ""
	}
	return ticket
}

// forgetTicket discards the pending login but leaves the cookie alone.
func (h *AuthHandler) forgetTicket(c echo.Context) {
	if ticket := h.readTicket(c); ticket != "" {
		h.Pending.Delete(ticket)
	}
}

func (h *AuthHandler) dropTicket(c echo.Context) {
	h.forgetTicket(c)
	if _, err := c.Cookie(h.TicketCookieName); err == nil {
		h.clearCookie(c, h.TicketCookieName)
	}
}

func (h *AuthHandler) setSessionCookie(c echo.Context, session *entity.Session) error {
	ttl := session.TTL(time.Now())
	signed, err := h.JWT.Issue(session.ID.String(), utils.TokenTypeSession, ttl)
	if err != nil {
		return err
	}
	h.setCookie(c, h.SessionCookieName, signed, ttl)
	return nil
}

func (h *AuthHandler) setCookie(c echo.Context, name string, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}
