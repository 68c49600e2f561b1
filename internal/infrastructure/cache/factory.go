package cache

import (
	"fmt"

	"github.com/shopfloor/backend/internal/application/dashboard"
	"github.com/shopfloor/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SummaryCacheFactory creates dashboard summary caches based on configuration
type SummaryCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SummaryCacheFactoryOption is a functional option for configuring the factory
type SummaryCacheFactoryOption func(*SummaryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSummaryCacheFactory creates a new factory
func NewSummaryCacheFactory(cfg config.RedisConfig, opts ...SummaryCacheFactoryOption) *SummaryCacheFactory {
	f := &SummaryCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true, // Default to allowing fallback
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based summary cache
func (f *SummaryCacheFactory) CreateRedisCache() (dashboard.SummaryCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisSummaryCache(redisCfg, WithCacheLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis summary cache: %w", err)
	}

	return c, nil
}

// CreateInMemoryCache creates an in-memory summary cache
// This is suitable for single-instance deployments and testing
// WARNING: In-memory caches do not share invalidation across process instances,
// which can serve stale dashboard figures in distributed deployments
func (f *SummaryCacheFactory) CreateInMemoryCache() dashboard.SummaryCache {
	return NewInMemorySummaryCache(WithInMemoryLogger(f.logger))
}

// CreateCache creates a summary cache based on whether Redis is available
// It tries to create a Redis cache first, and falls back to in-memory if Redis is not available
// and AllowInMemoryFallback is true
func (f *SummaryCacheFactory) CreateCache() (dashboard.SummaryCache, error) {
	// Try Redis first
	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis dashboard summary cache")
		return c, nil
	}

	// Check if fallback is allowed
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for dashboard cache but unavailable: %w", err)
	}

	// Fall back to in-memory with warning
	f.logger.Warn("Redis unavailable, falling back to in-memory dashboard cache. "+
		"Summary invalidation will not propagate across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
