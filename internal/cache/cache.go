/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for projected
// schedules. The engine is deterministic, so a day's projection can be
// cached until any of its inputs change.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ted-design/shot-builder-app-sub011/internal/models"
	"github.com/ted-design/shot-builder-app-sub011/internal/telemetry"
)

// Default TTL values for different cache types
const (
	DefaultProjectionTTL = 5 * time.Minute
	DefaultLayoutTTL     = 5 * time.Minute
	DefaultConflictTTL   = 2 * time.Minute
)

// Key prefixes for Redis cache
const (
	KeyProjection = "shotbuilder:cache:projection:" // + day_id
	KeyLayout     = "shotbuilder:cache:layout:"     // + day_id
	KeyConflicts  = "shotbuilder:cache:conflicts:"  // + day_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	ProjectionTTL time.Duration
	LayoutTTL     time.Duration
	ConflictTTL   time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		ProjectionTTL:  DefaultProjectionTTL,
		LayoutTTL:      DefaultLayoutTTL,
		ConflictTTL:    DefaultConflictTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. A Redis that cannot be reached at
// startup yields a disabled cache, not an error.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		telemetry.ProjectionCacheHits.WithLabelValues("skipped").Inc()
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		telemetry.ProjectionCacheHits.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		telemetry.ProjectionCacheHits.WithLabelValues("error").Inc()
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		telemetry.ProjectionCacheHits.WithLabelValues("miss").Inc()
		return false, nil
	}

	telemetry.ProjectionCacheHits.WithLabelValues("hit").Inc()
	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// Use SCAN to find keys (safer than KEYS for production)
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// Projection caching methods

// GetProjection retrieves a cached schedule projection for a day.
func (c *Cache) GetProjection(ctx context.Context, dayID string) (*models.ScheduleProjection, bool) {
	var projection models.ScheduleProjection
	found, err := c.get(ctx, KeyProjection+dayID, &projection)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("day_id", dayID).Int("rows", len(projection.Rows)).Msg("projection cache hit")
	return &projection, true
}

// SetProjection caches a day's schedule projection.
func (c *Cache) SetProjection(ctx context.Context, dayID string, projection *models.ScheduleProjection) error {
	c.logger.Debug().Str("day_id", dayID).Int("rows", len(projection.Rows)).Msg("caching projection")
	return c.set(ctx, KeyProjection+dayID, projection, c.config.ProjectionTTL)
}

// Layout caching methods

// GetLayout retrieves a cached timeline layout for a day.
func (c *Cache) GetLayout(ctx context.Context, dayID string) (*models.AdaptiveLayout, bool) {
	var layout models.AdaptiveLayout
	found, err := c.get(ctx, KeyLayout+dayID, &layout)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("day_id", dayID).Int("segments", len(layout.Segments)).Msg("layout cache hit")
	return &layout, true
}

// SetLayout caches a day's timeline layout.
func (c *Cache) SetLayout(ctx context.Context, dayID string, layout *models.AdaptiveLayout) error {
	c.logger.Debug().Str("day_id", dayID).Int("segments", len(layout.Segments)).Msg("caching layout")
	return c.set(ctx, KeyLayout+dayID, layout, c.config.LayoutTTL)
}

// Conflict caching methods

// GetConflicts retrieves cached conflict scan results for a day.
func (c *Cache) GetConflicts(ctx context.Context, dayID string) ([]models.TrackOverlapConflict, bool) {
	var conflicts []models.TrackOverlapConflict
	found, err := c.get(ctx, KeyConflicts+dayID, &conflicts)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("day_id", dayID).Int("count", len(conflicts)).Msg("conflict cache hit")
	return conflicts, true
}

// SetConflicts caches a day's conflict scan results.
func (c *Cache) SetConflicts(ctx context.Context, dayID string, conflicts []models.TrackOverlapConflict) error {
	c.logger.Debug().Str("day_id", dayID).Int("count", len(conflicts)).Msg("caching conflicts")
	return c.set(ctx, KeyConflicts+dayID, conflicts, c.config.ConflictTTL)
}

// InvalidateDay removes all cached views of a day. Called after any
// mutation to the day's entries, tracks, or settings.
func (c *Cache) InvalidateDay(ctx context.Context, dayID string) error {
	c.logger.Debug().Str("day_id", dayID).Msg("invalidating day caches")

	if err := c.delete(ctx, KeyProjection+dayID); err != nil {
		return err
	}
	if err := c.delete(ctx, KeyLayout+dayID); err != nil {
		return err
	}
	return c.delete(ctx, KeyConflicts+dayID)
}

// FlushAll removes all cached data (use sparingly).
func (c *Cache) FlushAll(ctx context.Context) error {
	c.logger.Warn().Msg("flushing all cache data")
	return c.deletePattern(ctx, "shotbuilder:cache:*")
}
