package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const (
	keyAPIURL          = "api.url"
	keyAPITimeout      = "api.timeout"
	keyAPILoginTimeout = "api.login_timeout"
	keyClientIP        = "client_ip"
	keyFormatDefault   = "format.default"
	keyFormatColors    = "format.colors"

	keySessionID        = "session.id"
	keySessionToken     = "session.access_token"
	keySessionTokenType = "session.token_type"
	keySessionEmail     = "session.email"
	keySessionExpiresAt = "session.expires_at"
	keySessionCreatedAt = "session.created_at"

	defaultConfigName = ".dashctl.yaml"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAPIURL, "http://localhost:8000/api")
	v.SetDefault(keyAPITimeout, "15s")
	v.SetDefault(keyAPILoginTimeout, "5s")
	v.SetDefault(keyClientIP, "")
	v.SetDefault(keyFormatDefault, "table")
	v.SetDefault(keyFormatColors, true)
}

// initConfig reads the config file, DASHCTL_* environment variables and
// defaults, in that order of precedence from last to first.
func (a *App) initConfig() error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DASHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := a.cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get home directory: %w", err)
		}
		path = filepath.Join(home, defaultConfigName)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("could not read config file: %w", err)
		}
	}
	a.config = v
	a.configPath = path
	return nil
}

// fileSessionStore keeps the one session dashctl knows about in its config
// file, next to the API settings.
type fileSessionStore struct {
	config *viper.Viper
	path   string
	now    func() time.Time
}

func newFileSessionStore(config *viper.Viper, path string) *fileSessionStore {
	return &fileSessionStore{config: config, path: path, now: time.Now}
}

func (s *fileSessionStore) Create(_ context.Context, session *entity.Session) error {
	s.config.Set(keySessionID, session.ID.String())
	s.config.Set(keySessionToken, session.AccessToken)
	s.config.Set(keySessionTokenType, session.TokenType)
	s.config.Set(keySessionEmail, session.Email)
	s.config.Set(keySessionExpiresAt, session.ExpiresAt.UTC().Format(time.RFC3339))
	s.config.Set(keySessionCreatedAt, session.CreatedAt.UTC().Format(time.RFC3339))
	return s.save()
}

func (s *fileSessionStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	session, err := s.Current()
	if err != nil || session == nil || session.ID != id {
		return nil, err
	}
	return session, nil
}

func (s *fileSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	if s.config.GetString(keySessionID) != id.String() {
		return nil
	}
	return s.clear()
}

// Current returns the stored session, nil when there is none or it expired.
func (s *fileSessionStore) Current() (*entity.Session, error) {
	raw := s.config.GetString(keySessionID)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("stored session is corrupt: %w", err)
	}
	session := &entity.Session{
		ID:          id,
		AccessToken: s.config.GetString(keySessionToken),
		TokenType:   s.config.GetString(keySessionTokenType),
		Email:       s.config.GetString(keySessionEmail),
		ExpiresAt:   s.config.GetTime(keySessionExpiresAt),
		CreatedAt:   s.config.GetTime(keySessionCreatedAt),
	}
	if session.AccessToken == "" || session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

func (s *fileSessionStore) clear() error {
	for _, key := range []string{keySessionID, keySessionToken, keySessionTokenType, keySessionEmail, keySessionExpiresAt, keySessionCreatedAt} {
		s.config.Set(key, "")
	}
	return s.save()
}

func (s *fileSessionStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := s.config.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
