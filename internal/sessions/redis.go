package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kalike-app/kalike/internal/simulation"
)

const (
	keyPrefix = "kalike:session:"

	// lockTTL bounds how long a crashed holder can block a session.
	lockTTL      = 2 * time.Minute
	lockInterval = 50 * time.Millisecond
)

// unlockScript deletes the lock only when the caller still owns it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions as JSON values with an expiry, so several
// server processes can share them. Updates take a per-session lock key.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return keyPrefix + id }
func lockKey(id string) string    { return keyPrefix + id + ":lock" }

func (r *RedisStore) Create(ctx context.Context, s simulation.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (simulation.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return simulation.Session{}, ErrNotFound
	}
	if err != nil {
		return simulation.Session{}, fmt.Errorf("redis get: %w", err)
	}
	var s simulation.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return simulation.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (simulation.Session, error) {
	token, err := r.acquire(ctx, id)
	if err != nil {
		return simulation.Session{}, err
	}
	defer unlockScript.Run(context.WithoutCancel(ctx), r.rdb, []string{lockKey(id)}, token)

	current, err := r.Get(ctx, id)
	if err != nil {
		return simulation.Session{}, err
	}
	next, err := fn(current.Clone())
	if err != nil {
		return current, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return current, fmt.Errorf("encode session: %w", err)
	}
	// XX keeps a session deleted mid-update deleted.
	ok, err := r.rdb.SetXX(ctx, sessionKey(id), data, r.ttl).Result()
	if err != nil {
		return current, fmt.Errorf("redis set: %w", err)
	}
	if !ok {
		return simulation.Session{}, ErrNotFound
	}
	return next, nil
}

func (r *RedisStore) acquire(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(lockInterval)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, lockKey(id), token, lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Sweep is a no-op: redis expires keys itself.
func (r *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}
