package routes

import (
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/api/handler"
	"github.com/fillipgms/admin-playfiver-sub001/api/middleware"
	"github.com/fillipgms/admin-playfiver-sub001/internal/utils"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Lists          *handler.ListHandler
	AuthMiddleware middleware.AuthMiddleware
	ClientIP       utils.ClientIPResolver
	LoginRate      *middleware.RateLimiter
	APIRate        *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	listHandler *handler.ListHandler,
	authMiddleware middleware.AuthMiddleware,
	clientIP utils.ClientIPResolver,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Lists:          listHandler,
		AuthMiddleware: authMiddleware,
		ClientIP:       clientIP,
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
		APIRate:        middleware.NewRateLimiter(rate.Limit(10), 20, 5*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	e.GET("/healthz", handler.Health)

	auth := e.Group("/auth", middleware.ResolveClientIP(r.ClientIP))
	auth.POST("/login", r.Auth.Login, r.LoginRate.Middleware())
	auth.POST("/login/continue", r.Auth.ContinueLogin, r.LoginRate.Middleware())
	auth.POST("/login/reset", r.Auth.ResetLogin)
	auth.POST("/2fa/verify", r.Auth.VerifyTwoFactor, r.LoginRate.Middleware())
	auth.POST("/logout", r.Auth.Logout, r.AuthMiddleware.RequireSession)
	auth.GET("/session", r.Auth.Session, r.AuthMiddleware.RequireSession)

	api := e.Group("/api", middleware.ResolveClientIP(r.ClientIP), r.AuthMiddleware.RequireSession, r.APIRate.Middleware())
	api.GET("/dashboard", r.Lists.Dashboard)
	api.GET("/lists/:view", r.Lists.List)
	api.POST("/lists/:view/query", r.Lists.MutateQuery)
}
