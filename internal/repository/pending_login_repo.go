package repository

import (
	"sync"
	"time"
)

// PendingLoginStore holds in-flight login states between the credentials
// step and the 2FA step. Entries live in process memory only and expire
// after ttl.
type PendingLoginStore[T any] struct {
	mutex   sync.Mutex
	entries map[string]pendingEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

type pendingEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func NewPendingLoginStore[T any](ttl time.Duration) *PendingLoginStore[T] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PendingLoginStore[T]{
		entries: make(map[string]pendingEntry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *PendingLoginStore[T]) TTL() time.Duration {
	return s.ttl
}

func (s *PendingLoginStore[T]) Put(id string, value T) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[id] = pendingEntry[T]{value: value, expiresAt: s.now().Add(s.ttl)}
	s.cleanup()
}

func (s *PendingLoginStore[T]) Get(id string) (T, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[id]
	if !ok || !entry.expiresAt.After(s.now()) {
		delete(s.entries, id)
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (s *PendingLoginStore[T]) Delete(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, id)
}

func (s *PendingLoginStore[T]) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.entries)
}

func (s *PendingLoginStore[T]) cleanup() {
	cutoff := s.now()
	for id, entry := range s.entries {
		if !entry.expiresAt.After(cutoff) {
			delete(s.entries, id)
		}
	}
}
