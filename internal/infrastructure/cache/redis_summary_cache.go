// Package cache provides dashboard summary cache implementations.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopfloor/backend/internal/application/dashboard"
	"go.uber.org/zap"
)

// Constants for Redis cache configuration
const (
	defaultScanBatchSize = 100
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSummaryCache implements dashboard.SummaryCache using Redis.
// Entries are stored as raw JSON; the application layer owns the encoding
// and discards anything it cannot decode.
type RedisSummaryCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	logger     *zap.Logger
}

// RedisSummaryCacheOption is a functional option for configuring the cache
type RedisSummaryCacheOption func(*RedisSummaryCache)

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisSummaryCacheOption {
	return func(c *RedisSummaryCache) {
		c.logger = logger
	}
}

// NewRedisSummaryCache creates a new Redis-based summary cache
func NewRedisSummaryCache(cfg RedisConfig, opts ...RedisSummaryCacheOption) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisSummaryCache{
		client:     client,
		ownsClient: true, // We created this client, so we own it
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisSummaryCacheWithClient(client *redis.Client, opts ...RedisSummaryCacheOption) *RedisSummaryCache {
	cache := &RedisSummaryCache{
		client:     client,
		ownsClient: false, // Client is shared, don't close it
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get retrieves a cached summary. A miss returns (nil, nil).
func (c *RedisSummaryCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss for dashboard summary", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Failed to get dashboard summary from cache",
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get summary from cache: %w", err)
	}

	c.logger.Debug("Cache hit for dashboard summary", zap.String("key", key))
	return data, nil
}

// Set stores a summary in cache with the given TTL
func (c *RedisSummaryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) == 0 {
		return nil
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("Failed to set dashboard summary in cache",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to set summary in cache: %w", err)
	}

	c.logger.Debug("Cached dashboard summary",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes cached summaries by exact key
func (c *RedisSummaryCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Failed to delete dashboard summaries from cache",
			zap.Strings("keys", keys),
			zap.Error(err))
		return fmt.Errorf("failed to delete summaries from cache: %w", err)
	}

	c.logger.Debug("Deleted dashboard summaries from cache", zap.Strings("keys", keys))
	return nil
}

// DeleteByPrefix removes all cached summaries under a key prefix.
// Uses SCAN to avoid blocking Redis with the KEYS command.
func (c *RedisSummaryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	var deletedCount int64

	for {
		var keys []string
		var err error
		keys, cursor, err = c.client.Scan(ctx, cursor, prefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			c.logger.Error("Failed to scan dashboard cache keys",
				zap.String("prefix", prefix),
				zap.Error(err))
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("Failed to delete dashboard cache keys",
					zap.String("prefix", prefix),
					zap.Error(err))
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Invalidated dashboard cache prefix",
		zap.String("prefix", prefix),
		zap.Int64("deleted_count", deletedCount))
	return nil
}

// Close releases any resources held by the cache
func (c *RedisSummaryCache) Close() error {
	// Only close client if we own it
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisSummaryCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisSummaryCache implements SummaryCache
var _ dashboard.SummaryCache = (*RedisSummaryCache)(nil)
