package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopfloor/backend/internal/application/dashboard"
	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
	defaultEntryTTL        = time.Minute
)

// InMemorySummaryCache implements dashboard.SummaryCache using in-memory storage.
// Intended for development and tests where no Redis is available; a restart
// loses all entries, which is acceptable because the cache only holds
// recomputable dashboard summaries.
type InMemorySummaryCache struct {
	entries sync.Map // map[string]*summaryEntry
	logger  *zap.Logger
	stopCh  chan struct{} // Channel to stop the cleanup goroutine
	stopped int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// summaryEntry wraps a cached payload with expiration time
type summaryEntry struct {
	data      []byte
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *summaryEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemorySummaryCacheOption is a functional option for configuring the cache
type InMemorySummaryCacheOption func(*InMemorySummaryCache)

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemorySummaryCacheOption {
	return func(c *InMemorySummaryCache) {
		c.logger = logger
	}
}

// NewInMemorySummaryCache creates a new in-memory summary cache
func NewInMemorySummaryCache(opts ...InMemorySummaryCacheOption) *InMemorySummaryCache {
	cache := &InMemorySummaryCache{
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached summary. A miss returns (nil, nil).
func (c *InMemorySummaryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*summaryEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Cache hit for dashboard summary", zap.String("key", key))
			return entry.data, nil
		}
		// Expired, remove from cache
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Cache miss for dashboard summary", zap.String("key", key))
	return nil, nil
}

// Set stores a summary in cache with the given TTL
func (c *InMemorySummaryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) == 0 {
		return nil
	}

	if ttl <= 0 {
		ttl = defaultEntryTTL
	}

	entry := &summaryEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}

	c.entries.Store(key, entry)
	c.logger.Debug("Cached dashboard summary",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes cached summaries by exact key
func (c *InMemorySummaryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.entries.Delete(key)
	}
	if len(keys) > 0 {
		c.logger.Debug("Deleted dashboard summaries from cache", zap.Strings("keys", keys))
	}
	return nil
}

// DeleteByPrefix removes all cached summaries under a key prefix
func (c *InMemorySummaryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	var removed int

	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	c.logger.Debug("Invalidated dashboard cache prefix",
		zap.String("prefix", prefix),
		zap.Int("removed", removed))
	return nil
}

// Close releases any resources held by the cache
func (c *InMemorySummaryCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemorySummaryCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *InMemorySummaryCache) Count() int {
	var count int
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemorySummaryCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries from the cache
func (c *InMemorySummaryCache) doCleanup() {
	var removed int

	c.entries.Range(func(key, value any) bool {
		entry := value.(*summaryEntry)
		if entry.isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries",
			zap.Int("removed", removed))
	}
}

// Ensure InMemorySummaryCache implements SummaryCache
var _ dashboard.SummaryCache = (*InMemorySummaryCache)(nil)
