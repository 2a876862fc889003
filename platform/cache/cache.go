// Package cache provides a Redis-backed JSON cache.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"time"

	"renoquote_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache stores JSON-encoded values under string keys with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis using the configured URL and verifies the
// connection with a ping.
func New(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Cache{client: client, ttl: cfg.GetSearchCacheTTL()}, nil
}

// NewWithClient wraps an existing Redis client. Used in tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get unmarshals the cached value for key into dest.
// Returns ErrMiss when the key is absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Set stores value under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Ping verifies the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
