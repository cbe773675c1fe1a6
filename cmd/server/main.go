package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/api/handler"
	apiMiddleware "github.com/fillipgms/admin-playfiver-sub001/api/middleware"
	"github.com/fillipgms/admin-playfiver-sub001/api/routes"
	"github.com/fillipgms/admin-playfiver-sub001/config"
	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"
	"github.com/fillipgms/admin-playfiver-sub001/internal/repository"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"
	"github.com/fillipgms/admin-playfiver-sub001/internal/utils"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const sessionCleanupInterval = 10 * time.Minute

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	sessions, securityLogs := openStores(cfg, logger)

	client := remote.NewClient(cfg.APIBaseURL, cfg.APITimeout, cfg.LoginTimeout, logger)
	authService := service.NewAuthService(
		client,
		sessions,
		securityLogs,
		service.NewTOTPQRRenderer(),
		service.NewValidator(),
		logger,
		service.RealClock{},
		service.AuthConfig{DefaultSessionTTL: cfg.DefaultSessionTTL},
	)
	listService := service.NewListService(client, logger)

	cookieManager := &utils.JWTManager{Secret: []byte(cfg.SessionSecret), Issuer: "admin-dashboard"}
	pending := repository.NewPendingLoginStore[service.State](cfg.PendingLoginTTL)

	authHandler := handler.NewAuthHandler(authService, pending, cookieManager)
	authHandler.SessionCookieName = cfg.SessionCookieName
	authHandler.TicketCookieName = cfg.TicketCookieName
	authHandler.CookieDomain = cfg.CookieDomain
	authHandler.SecureCookies = cfg.CookieSecure
	listHandler := handler.NewListHandler(listService)

	trustedProxies, err := cfg.TrustedProxyRanges()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.IPExtractor = apiMiddleware.IPExtractor(trustedProxies)
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{
		JWT:        cookieManager,
		Sessions:   sessions,
		CookieName: cfg.SessionCookieName,
	}
	clientIP := utils.ClientIPResolver{Production: cfg.IsProduction(), Override: cfg.DevClientIP}
	router := routes.NewRouter(app, authHandler, listHandler, authMiddleware, clientIP)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"addr":          cfg.HTTPAddr,
		"env":           cfg.AppEnv,
		"session_store": cfg.SessionStore,
	}).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// openStores picks the session backend. The security log is only persisted
// when PostgreSQL is configured.
func openStores(cfg *config.Config, logger *logrus.Logger) (repository.SessionStore, repository.SecurityLogRepository) {
	var securityLogs repository.SecurityLogRepository
	if cfg.DatabaseURL != "" {
		db, err := config.ConnectionDb(cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("database unavailable")
		}
		if err := repository.Migrate(db); err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
		securityLogs = repository.NewSecurityLogRepository(db)

		if cfg.SessionStore == config.SessionStorePostgres {
			sessionRepo := repository.NewPostgresSessionStore(db)
			go cleanupSessions(sessionRepo, logger)
			return sessionRepo, securityLogs
		}
	}

	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := config.ConnectionRedis(cfg)
		if err != nil {
			logger.WithError(err).Fatal("redis unavailable")
		}
		return repository.NewRedisSessionStore(rdb), securityLogs
	default:
		return repository.NewMemorySessionStore(), securityLogs
	}
}

func cleanupSessions(sessions *repository.PostgresSessionStore, logger *logrus.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		removed, err := sessions.PurgeExpired(ctx)
		switch {
		case err != nil:
			logger.WithError(err).Warn("expired session cleanup failed")
		case removed > 0:
			logger.WithField("removed", removed).Info("expired sessions purged")
		}
		cancel()
	}
}
