package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SnapshotCache is a cache-aside wrapper around Redis for report card
// previews. Every operation degrades to a no-op when caching is disabled or
// Redis is unreachable; the database remains the source of truth.
type SnapshotCache struct {
	store   cacheStore
	ttl     time.Duration
	enabled bool
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSnapshotCache constructs SnapshotCache. A nil store disables caching.
func NewSnapshotCache(store cacheStore, ttl time.Duration, enabled bool, metrics *MetricsService, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{
		store:   store,
		ttl:     ttl,
		enabled: enabled && store != nil,
		metrics: metrics,
		logger:  logger,
	}
}

// Get loads a cached value into dest, reporting whether it was found.
func (c *SnapshotCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || !c.enabled {
		return false, nil
	}
	err := c.store.Get(ctx, key, dest)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss()
		}
		return false, nil
	}
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
	return true, nil
}

// Set stores a value under the key with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || !c.enabled {
		return
	}
	if err := c.store.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the key so the next preview reads from the database.
func (c *SnapshotCache) Invalidate(ctx context.Context, key string) {
	if c == nil || !c.enabled {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
