package middleware

import (
	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"

	"github.com/labstack/echo/v4"
)

const (
	contextSessionKey  = "auth_session"
	contextClientIPKey = "client_ip"
)

func SetSessionContext(c echo.Context, session *entity.Session) {
	c.Set(contextSessionKey, session)
}

func SessionFromContext(c echo.Context) (*entity.Session, bool) {
	session, ok := c.Get(contextSessionKey).(*entity.Session)
	return session, ok && session != nil
}

func SetClientIP(c echo.Context, ip *string) {
	c.Set(contextClientIPKey, ip)
}

// ClientIPFromContext returns the address resolved by ResolveClientIP, nil
// when none could be determined.
func ClientIPFromContext(c echo.Context) *string {
	ip, _ := c.Get(contextClientIPKey).(*string)
	return ip
}
