package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "dashboard:session:"

// RedisCommands is the part of *redis.Client the session store uses.
type RedisCommands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	rdb RedisCommands
	now func() time.Time
}

// NewRedisSessionStore keeps sessions as JSON values expiring with the
// platform token.
func NewRedisSessionStore(rdb RedisCommands) SessionStore {
	return &redisSessionStore{rdb: rdb, now: time.Now}
}

func (r *redisSessionStore) Create(ctx context.Context, s *entity.Session) error {
	ttl := s.TTL(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(s.ID), data, ttl).Err()
}

func (r *redisSessionStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session entity.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if session.Expired(r.now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}
