package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplyCache stores raw model replies so an identical request skips the model call.
// Cached values are re-parsed on every hit, so dishes always get fresh ids.
type ReplyCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, content string) error
}

// RedisReplyCache keeps replies in Redis with a fixed TTL.
type RedisReplyCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisReplyCache creates a cache over client. A non-positive ttl defaults to 24h.
func NewRedisReplyCache(client *redis.Client, ttl time.Duration) *RedisReplyCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisReplyCache{redis: client, ttl: ttl}
}

// Get returns the cached reply for key, if any
func (c *RedisReplyCache) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read reply from Redis: %w", err)
	}
	return data, true, nil
}

// Set stores a reply under key
func (c *RedisReplyCache) Set(ctx context.Context, key, content string) error {
	if err := c.redis.Set(ctx, key, content, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save reply to Redis: %w", err)
	}
	return nil
}

// replyCacheKey hashes everything that influences the reply.
func replyCacheKey(operation, model, language string, payload ...[]byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(operation), []byte(model), []byte(language)} {
		h.Write(part)
		h.Write([]byte{0})
	}
	for _, p := range payload {
		h.Write(p)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("knoweat:reply:%s:%s", operation, hex.EncodeToString(h.Sum(nil)))
}
