package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"

	"github.com/google/uuid"
)

type memorySessionStore struct {
	mutex    sync.Mutex
	sessions map[uuid.UUID]entity.Session
	now      func() time.Time
}

// NewMemorySessionStore is meant for single-instance and development setups;
// sessions do not survive a restart.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[uuid.UUID]entity.Session),
		now:      time.Now,
	}
}

func (r *memorySessionStore) Create(_ context.Context, s *entity.Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[s.ID] = *s
	r.cleanup()
	return nil
}

func (r *memorySessionStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	if session.Expired(r.now()) {
		delete(r.sessions, id)
		return nil, nil
	}
	return &session, nil
}

func (r *memorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *memorySessionStore) cleanup() {
	now := r.now()
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
		}
	}
}
