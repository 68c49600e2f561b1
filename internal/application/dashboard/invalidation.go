package dashboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached dashboard summaries when outwork events
// arrive, so the next read recomputes against the new ledger. Deliberately
// recompute-on-demand: the handler never rebuilds summaries itself, it only
// forgets stale ones.
type CacheInvalidator struct {
	cache  SummaryCache
	logger *zap.Logger
}

// NewCacheInvalidator creates a new dashboard cache invalidator
func NewCacheInvalidator(cache SummaryCache, logger *zap.Logger) *CacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidator{
		cache:  cache,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CacheInvalidator) EventTypes() []string {
	return []string{
		outwork.EventTypeMoveCreated,
		outwork.EventTypeMoveVoided,
		outwork.EventTypeReceiptRecorded,
		outwork.EventTypeMoveCompleted,
	}
}

// Handle drops every summary the event could have staled: the process
// summary and scoreboard always, plus the touched partner's stats when the
// event names one. Invalidation failures are logged, not propagated; the
// TTL bounds how long a stale entry can survive them.
func (h *CacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.Delete(ctx, cacheKeyProcessSummary); err != nil {
		h.logger.Warn("failed to invalidate process summary cache",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
	if err := h.cache.DeleteByPrefix(ctx, cacheKeyScoreboardPrefix); err != nil {
		h.logger.Warn("failed to invalidate scoreboard cache",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}

	partnerID, ok := partnerIDFromEvent(event)
	if !ok {
		h.logger.Warn("outwork event without a partner reference",
			zap.String("event_type", event.EventType()))
		return nil
	}

	if err := h.cache.DeleteByPrefix(ctx, partnerStatsCachePrefix(partnerID)); err != nil {
		h.logger.Warn("failed to invalidate partner stats cache",
			zap.String("event_type", event.EventType()),
			zap.String("partner_id", partnerID.String()),
			zap.Error(err))
	}

	return nil
}

// partnerIDFromEvent extracts the partner reference carried by outwork events
func partnerIDFromEvent(event shared.DomainEvent) (uuid.UUID, bool) {
	switch e := event.(type) {
	case *outwork.MoveCreatedEvent:
		return e.PartnerID, true
	case *outwork.MoveVoidedEvent:
		return e.PartnerID, true
	case *outwork.ReceiptRecordedEvent:
		return e.PartnerID, true
	case *outwork.MoveCompletedEvent:
		return e.PartnerID, true
	}
	return uuid.Nil, false
}

// Ensure CacheInvalidator implements EventHandler
var _ shared.EventHandler = (*CacheInvalidator)(nil)
