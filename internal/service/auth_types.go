package service

import (
	"context"
	"net/url"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/remote"
)

type AuthConfig struct {
	// DefaultSessionTTL applies when the platform omits expires_in.
	DefaultSessionTTL time.Duration
}

// AuthAPI is the authentication surface of the platform API.
type AuthAPI interface {
	Login(ctx context.Context, email string, password string, clientIP *string) (remote.LoginOutcome, error)
	VerifyTwoFactor(ctx context.Context, code string, email string, password string) (remote.Token, error)
	Logout(ctx context.Context, token remote.Token, clientIP *string) error
}

// PlatformAPI is the read surface used by the dashboard and list views.
type PlatformAPI interface {
	Dashboard(ctx context.Context, token remote.Token) (*remote.DashboardMetrics, error)
	List(ctx context.Context, token remote.Token, resource string, params url.Values) (*remote.Page, error)
}

type QRRenderer interface {
	Render(challenge TwoFactorChallenge) (TwoFactorChallenge, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
