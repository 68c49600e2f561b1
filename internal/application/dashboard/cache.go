package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cache key layout. Partner stats keys embed the partner ID so a receipt
// against one partner never evicts another partner's entry.
const (
	cacheKeyProcessSummary    = "dashboard:process_summary"
	cacheKeyScoreboardPrefix  = "dashboard:scoreboard:"
	cacheKeyPartnerStatsRoot  = "dashboard:partner_stats:"
	cacheKeyInvalidateAllRoot = "dashboard:"
)

// SummaryCache is the port for caching computed dashboard summaries.
// Implemented by the infrastructure layer with in-memory and Redis backends.
// A miss is (nil, nil), never an error.
type SummaryCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix removes every key under the prefix. Used for
	// invalidation, where the exact window sizes cached are unknown.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

func partnerStatsCacheKey(partnerID uuid.UUID, windowDays int) string {
	return fmt.Sprintf("%s%s:%d", cacheKeyPartnerStatsRoot, partnerID.String(), windowDays)
}

func partnerStatsCachePrefix(partnerID uuid.UUID) string {
	return cacheKeyPartnerStatsRoot + partnerID.String() + ":"
}

func scoreboardCacheKey(windowDays int) string {
	return fmt.Sprintf("%s%d", cacheKeyScoreboardPrefix, windowDays)
}
