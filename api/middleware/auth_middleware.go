package middleware

import (
	"net/http"

	"github.com/fillipgms/admin-playfiver-sub001/internal/repository"
	"github.com/fillipgms/admin-playfiver-sub001/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	JWT        *utils.JWTManager
	Sessions   repository.SessionStore
	CookieName string
}

// RequireSession loads the session referenced by the signed session cookie.
func (m AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.JWT == nil || m.Sessions == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		cookie, err := c.Cookie(m.cookieName())
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		id, err := m.JWT.Parse(cookie.Value, utils.TokenTypeSession)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		sessionID, err := uuid.Parse(id)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		session, err := m.Sessions.FindByID(c.Request().Context(), sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		SetSessionContext(c, session)
		return next(c)
	}
}

func (m AuthMiddleware) cookieName() string {
	if m.CookieName == "" {
		return "session"
	}
	return m.CookieName
}

// ResolveClientIP stores the address forwarded to the platform API.
func ResolveClientIP(resolver utils.ClientIPResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetClientIP(c, resolver.Resolve(c.Request().Header))
			return next(c)
		}
	}
}
