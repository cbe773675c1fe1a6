package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStore persists platform sessions. FindByID returns nil, nil when the
// session is unknown or expired.
type SessionStore interface {
	Create(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresSessionStore keeps sessions in the sessions table. Expired rows are
// invisible to FindByID and removed by PurgeExpired.
type PostgresSessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresSessionStore(db *gorm.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db, now: time.Now}
}

func (s *PostgresSessionStore) Create(ctx context.Context, session *entity.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *PostgresSessionStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var session entity.Session
	err := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, s.now()).
		Take(&session).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &session, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&entity.Session{}, "id = ?", id).Error
}

// PurgeExpired deletes sessions past their expiry and returns how many went.
func (s *PostgresSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Delete(&entity.Session{}, "expires_at <= ?", s.now())
	return result.RowsAffected, result.Error
}
