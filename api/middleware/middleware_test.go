package middleware

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/repository"
	"github.com/fillipgms/admin-playfiver-sub001/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireSession(t *testing.T) {
	jwt := &utils.JWTManager{Secret: []byte("test-secret"), Issuer: "test"}
	sessions := repository.NewMemorySessionStore()
	session := &entity.Session{ID: uuid.New(), AccessToken: "tok", TokenType: "bearer", Email: "ops@example.com", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, sessions.Create(context.Background(), session))

	auth := AuthMiddleware{JWT: jwt, Sessions: sessions, CookieName: "session"}
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		current, ok := SessionFromContext(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, current.Email)
	}, auth.RequireSession)

	valid, err := jwt.Issue(session.ID.String(), utils.TokenTypeSession, time.Hour)
	require.NoError(t, err)
	wrongType, err := jwt.Issue(session.ID.String(), utils.TokenTypeLoginTicket, time.Hour)
	require.NoError(t, err)
	unknown, err := jwt.Issue(uuid.NewString(), utils.TokenTypeSession, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		cookie string
		status int
	}{
		{"valid", valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"ticket used as session", wrongType, http.StatusUnauthorized},
		{"unknown session", unknown, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tc.cookie})
			}
			rec := serve(e, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "ops@example.com", rec.Body.String())
			}
		})
	}
}

func TestResolveClientIP(t *testing.T) {
	e := echo.New()
	e.Use(ResolveClientIP(utils.ClientIPResolver{Production: true}))
	e.GET("/ip", func(c echo.Context) error {
		ip := ClientIPFromContext(c)
		if ip == nil {
			return c.String(http.StatusOK, "none")
		}
		return c.String(http.StatusOK, *ip)
	})

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set(utils.HeaderForwardedFor, "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	assert.Equal(t, "none", serve(e, req).Body.String())
}

func TestRateLimiterIgnoresForwardedHeaders(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(0.001), 1, time.Minute)
	e := echo.New()
	e.IPExtractor = IPExtractor(nil)
	e.Use(ResolveClientIP(utils.ClientIPResolver{Production: true}))
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, limiter.Middleware())

	login := func(peer string, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = peer + ":40000"
		req.Header.Set(utils.HeaderForwardedFor, forwarded)
		req.Header.Set(utils.HeaderRealIP, forwarded)
		return serve(e, req).Code
	}

	assert.Equal(t, http.StatusOK, login("198.51.100.1", "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("198.51.100.1", "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, login("198.51.100.1", "203.0.113.3"))
	assert.Equal(t, http.StatusOK, login("198.51.100.2", "203.0.113.1"))
	assert.Equal(t, 2, limiter.Len())
}

func TestIPExtractorTrustsOnlyConfiguredProxies(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)

	e := echo.New()
	e.IPExtractor = IPExtractor([]*net.IPNet{proxies})
	e.GET("/ip", func(c echo.Context) error {
		return c.String(http.StatusOK, c.RealIP())
	})

	realIP := func(peer string, forwarded string) string {
		req := httptest.NewRequest(http.MethodGet, "/ip", nil)
		req.RemoteAddr = peer + ":40000"
		req.Header.Set(echo.HeaderXForwardedFor, forwarded)
		return serve(e, req).Body.String()
	}

	assert.Equal(t, "198.51.100.1", realIP("10.0.0.5", "198.51.100.1"))
	assert.Equal(t, "198.51.100.1", realIP("10.0.0.5", "203.0.113.9, 198.51.100.1"))
	assert.Equal(t, "203.0.113.7", realIP("203.0.113.7", "198.51.100.1"))
	assert.Equal(t, "192.168.1.4", realIP("192.168.1.4", "198.51.100.1"))
}

func TestRateLimiterRetryAfterAndIdleEviction(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(rate.Limit(0.5), 1, time.Minute)
	limiter.now = func() time.Time { return now }

	e := echo.New()
	e.IPExtractor = IPExtractor(nil)
	e.GET("/api/dashboard", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, limiter.Middleware())

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.RemoteAddr = ip + ":40000"
		return serve(e, req)
	}

	assert.Equal(t, http.StatusOK, call("198.51.100.1").Code)
	rec := call("198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, call("198.51.100.2").Code)
	assert.Equal(t, 1, limiter.Len())
	assert.Equal(t, http.StatusOK, call("198.51.100.1").Code)
}
