package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter hands every client its own token bucket. Buckets idle for
// longer than idle are dropped the next time a new client shows up.
type RateLimiter struct {
	mutex   sync.Mutex
	clients map[string]*limitedClient
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type limitedClient struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit rate.Limit, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*limitedClient),
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Middleware limits per client, keyed by echo's RealIP. The myip value sent
// to the platform is not used here since it comes from client headers.
func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			wait, ok := l.reserve(c.RealIP())
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, slow down")
			}
			return next(c)
		}
	}
}

// Len reports how many clients currently hold a bucket.
func (l *RateLimiter) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return len(l.clients)
}

// reserve takes a token for key. When none is left it reports how long the
// client should wait before the next one.
func (l *RateLimiter) reserve(key string) (time.Duration, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	client, ok := l.clients[key]
	if !ok {
		l.evictIdle(now)
		client = &limitedClient{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = client
	}
	client.lastSeen = now

	if client.bucket.AllowN(now, 1) {
		return 0, true
	}
	if l.limit <= 0 {
		return 0, false
	}
	return time.Duration(float64(time.Second) / float64(l.limit)), false
}

func (l *RateLimiter) evictIdle(now time.Time) {
	if l.idle <= 0 {
		return
	}
	cutoff := now.Add(-l.idle)
	for key, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

func retryAfterSeconds(wait time.Duration) int {
	seconds := int((wait + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
