package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/database"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// SnapshotCache stores computed dashboard documents in Redis. Keys carry the
// dataset version, so entries of a replaced dataset are never read again and
// simply expire.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration, prefix string) *SnapshotCache {
	if prefix == "" {
		prefix = "dashboard"
	}
	return &SnapshotCache{client: client, ttl: ttl, prefix: prefix}
}

// NewSnapshotCacheFromConfig connects to the configured Redis instance.
func NewSnapshotCacheFromConfig(cfg *config.Config) (*SnapshotCache, error) {
	client, err := database.GetRedis()
	if err != nil {
		return nil, err
	}
	return NewSnapshotCache(client, cfg.CacheTTL, cfg.CachePrefix), nil
}

func (c *SnapshotCache) key(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// Get decodes the cached value into dst. found is false on a cache miss.
func (c *SnapshotCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *SnapshotCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"key":  c.key(key),
		"size": len(data),
	}).Debug("Cached dashboard")
	return nil
}
