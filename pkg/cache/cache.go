// Package cache provides a small JSON read-through cache on top of Redis,
// used by the live store to keep hot vehicle lookups off Postgres.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager handles caching operations with JSON serialization
type Manager struct {
	client redis.Cmdable
}

// NewManager creates a new cache manager. The client may be a live
// connection or a redismock instance in tests.
func NewManager(client redis.Cmdable) *Manager {
	return &Manager{client: client}
}

// Get retrieves a cached value and unmarshals it into result.
// Returns redis.Nil on a miss.
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	data, err := m.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	return m.client.Set(ctx, key, string(data), ttl).Err()
}

// Invalidate removes keys from the cache
func (m *Manager) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return m.client.Del(ctx, keys...).Err()
}

// IsMiss reports whether err indicates a cache miss
func IsMiss(err error) bool {
	return err == redis.Nil
}
