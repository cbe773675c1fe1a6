package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DevClientIP replaces client IP resolution outside production.
	DevClientIP string `env:"DEV_CLIENT_IP"`

	// TrustedProxies lists the proxies (IPs or CIDRs) allowed to set
	// X-Forwarded-For for the rate limiter. Empty means the peer address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	APIBaseURL   string        `env:"API_BASE_URL,required"`
	APITimeout   time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	LoginTimeout time.Duration `env:"LOGIN_TIMEOUT" envDefault:"5s"`

	SessionSecret     string        `env:"SESSION_SECRET,required"`
	DefaultSessionTTL time.Duration `env:"DEFAULT_SESSION_TTL" envDefault:"1h"`
	SessionStore      string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	TicketCookieName  string        `env:"TICKET_COOKIE_NAME" envDefault:"login_ticket"`
	PendingLoginTTL   time.Duration `env:"PENDING_LOGIN_TTL" envDefault:"5m"`
	CookieDomain      string        `env:"COOKIE_DOMAIN"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"true"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) validate() error {
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	case SessionStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE=%s", SessionStorePostgres)
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	if c.LoginTimeout <= 0 {
		return fmt.Errorf("LOGIN_TIMEOUT must be positive")
	}
	if c.DefaultSessionTTL <= 0 {
		return fmt.Errorf("DEFAULT_SESSION_TTL must be positive")
	}
	if _, err := c.TrustedProxyRanges(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyRanges parses TrustedProxies. A bare IP is a single-host range.
func (c *Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		ranges = append(ranges, network)
	}
	return ranges, nil
}
