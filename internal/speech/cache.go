package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/simulation"
)

// Cache stores synthesized audio references by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryCache is a bounded in-process Cache. When full, the oldest
// entry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]string
	order   []string
}

func NewMemoryCache(limit int) *MemoryCache {
	if limit <= 0 {
		limit = 256
	}
	return &MemoryCache{limit: limit, entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = value
	for len(c.order) > c.limit {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache stores entries as plain strings with a TTL.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "kalike:tts:", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CachedSynthesizer memoizes another Synthesizer. Cache failures are
// logged and treated as misses.
type CachedSynthesizer struct {
	inner simulation.Synthesizer
	cache Cache
	log   *logger.Logger
}

func NewCachedSynthesizer(inner simulation.Synthesizer, cache Cache, log *logger.Logger) *CachedSynthesizer {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedSynthesizer{inner: inner, cache: cache, log: log.With("component", "tts_cache")}
}

func (s *CachedSynthesizer) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	key := cacheKey(voice, text)

	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("tts cache read failed", "error", err)
	} else if ok {
		return v, nil
	}

	url, err := s.inner.Synthesize(ctx, text, voice)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, url); err != nil {
		s.log.Warn("tts cache write failed", "error", err)
	}
	return url, nil
}

func cacheKey(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + ":" + text))
	return hex.EncodeToString(sum[:])
}
