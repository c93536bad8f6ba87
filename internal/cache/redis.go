package cache

import (
	"context"
	"fmt"
	"time"

	"example.com/govevents/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RedisCache provides coordination state shared across worker replicas,
// most importantly the once-per-day scheduling guard for reminder sweeps.
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
	}, nil
}

// Disabled returns a cache whose AcquireOnce always grants.
func Disabled() *RedisCache {
	return &RedisCache{enabled: false}
}

// AcquireOnce claims key atomically. It returns true exactly once per key
// until the TTL expires; a second caller gets false. When the cache is
// disabled every call returns true, so scheduling degrades to unguarded
// rather than stopping.
func (c *RedisCache) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !c.enabled {
		return true, nil
	}

	ok, err := c.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to set dedup key in Redis")
	}

	return ok, nil
}

// ReminderDedupKey generates the guard key for one (event, kind, sweep date) triple.
func ReminderDedupKey(eventID uuid.UUID, kind string, date time.Time) string {
	return fmt.Sprintf("reminder:%s:%s:%s", eventID.String(), kind, date.Format("2006-01-02"))
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}
