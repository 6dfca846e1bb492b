package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"anilifetv/pkg/logger"
)

// Cache is a thin TTL cache over Redis. A nil *Cache is valid and acts as a
// no-op, so the service runs without Redis configured.
type Cache struct {
	client *redis.Client
}

func NewCache(addr, password string) *Cache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Redis unreachable at %s, catalog caching disabled: %v", addr, err)
		return nil
	}

	return &Cache{client: client}
}

// Get returns the cached payload, or ("", false) on miss or any error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}

	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Warn("Cache get %s failed: %v", key, err)
		return "", false
	}

	return value, true
}

// Set stores the payload best-effort; failures only log.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn("Cache set %s failed: %v", key, err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
