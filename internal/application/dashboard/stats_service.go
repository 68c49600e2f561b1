package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/partner"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/infrastructure/telemetry"
)

// DashboardConfig holds configuration for the dashboard service
type DashboardConfig struct {
	// WindowDays is the default trailing window for performance stats
	WindowDays int
	// CacheTTL is how long computed summaries stay cached. Dashboard reads
	// tolerate seconds of staleness; event-driven invalidation usually
	// drops entries well before the TTL fires.
	CacheTTL time.Duration
}

// DefaultDashboardConfig returns the default configuration
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		WindowDays: outwork.DefaultStatsWindowDays,
		CacheTTL:   60 * time.Second,
	}
}

// DashboardService computes partner performance and process load summaries.
// All reads are pure folds over reconciled move views; nothing here writes
// to the move or receipt tables.
type DashboardService struct {
	moveRepo    outwork.MoveRepository
	receiptRepo outwork.ReceiptRepository
	partnerRepo partner.PartnerRepository
	cache       SummaryCache
	config      DashboardConfig
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	moveRepo outwork.MoveRepository,
	receiptRepo outwork.ReceiptRepository,
	partnerRepo partner.PartnerRepository,
) *DashboardService {
	return &DashboardService{
		moveRepo:    moveRepo,
		receiptRepo: receiptRepo,
		partnerRepo: partnerRepo,
		config:      DefaultDashboardConfig(),
	}
}

// SetSummaryCache sets the cache used for computed summaries.
// Without a cache every read recomputes from the store.
func (s *DashboardService) SetSummaryCache(cache SummaryCache) {
	s.cache = cache
}

// SetConfig sets the service configuration
func (s *DashboardService) SetConfig(config DashboardConfig) {
	if config.WindowDays <= 0 {
		config.WindowDays = outwork.DefaultStatsWindowDays
	}
	s.config = config
}

// GetPartnerStats computes one partner's performance stats over a trailing
// window. Current-time reads are served from cache when possible; historical
// reads (explicit as_of) always recompute and are never cached.
func (s *DashboardService) GetPartnerStats(ctx context.Context, partnerID uuid.UUID, filter PartnerStatsFilter) (*PartnerStatsResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PARTNER_NOT_FOUND", "Partner not found")
		}
		return nil, err
	}

	windowDays := filter.WindowDays
	if windowDays <= 0 {
		windowDays = s.config.WindowDays
	}

	asOf := time.Now()
	historical := filter.AsOf != nil
	if historical {
		asOf = *filter.AsOf
	}

	cacheKey := partnerStatsCacheKey(partnerID, windowDays)
	if !historical {
		var cached PartnerStatsResponse
		if s.cacheGet(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	views, err := s.partnerViews(ctx, partnerID, windowDays, asOf)
	if err != nil {
		return nil, err
	}

	stats := outwork.ComputePartnerStats(partnerID, views, windowDays, asOf)
	response := ToPartnerStatsResponse(stats, p.Code, p.Name, outstandingFor(partnerID, views))

	if !historical {
		s.cacheSet(ctx, cacheKey, response)
	}
	return &response, nil
}

// GetProcessSummary reports the load currently sitting at each process
// stage, ordered by process name
func (s *DashboardService) GetProcessSummary(ctx context.Context) (*ProcessSummaryListResponse, error) {
	var cached ProcessSummaryListResponse
	if s.cacheGet(ctx, cacheKeyProcessSummary, &cached) {
		return &cached, nil
	}

	asOf := time.Now()

	active, err := s.moveRepo.FindActive(ctx, outwork.MoveFilter{})
	if err != nil {
		return nil, err
	}

	views, err := s.reconcileMoves(ctx, active, asOf)
	if err != nil {
		return nil, err
	}

	summaries := outwork.SummarizeByProcess(views, asOf)
	response := &ProcessSummaryListResponse{
		AsOf:      asOf,
		Processes: ToProcessSummaryResponses(outwork.SortedProcessSummaries(summaries)),
	}

	s.cacheSet(ctx, cacheKeyProcessSummary, response)
	return response, nil
}

// GetPartnerScoreboard computes performance stats for every active partner,
// ordered by partner code. Partners with no moves still appear, with zero
// counts and no on-time sample.
func (s *DashboardService) GetPartnerScoreboard(ctx context.Context, filter ScoreboardFilter) (*ScoreboardResponse, error) {
	windowDays := filter.WindowDays
	if windowDays <= 0 {
		windowDays = s.config.WindowDays
	}

	cacheKey := scoreboardCacheKey(windowDays)
	var cached ScoreboardResponse
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	asOf := time.Now()

	// The cold path folds every move in the window; label it so scoreboard
	// recomputes stand out in the profiler
	var response *ScoreboardResponse
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OutworkOperationLabels(telemetry.OperationScoreboard, ""), func(c context.Context) {
		partners, err := s.partnerRepo.FindActive(c, shared.Filter{OrderBy: "code", OrderDir: "asc"})
		if err != nil {
			operationErr = err
			return
		}

		// One pass over the move set serves every partner's fold
		views, err := s.allViews(c, windowDays, asOf)
		if err != nil {
			operationErr = err
			return
		}

		entries := make([]PartnerStatsResponse, len(partners))
		for i := range partners {
			p := &partners[i]
			stats := outwork.ComputePartnerStats(p.ID, views, windowDays, asOf)
			entries[i] = ToPartnerStatsResponse(stats, p.Code, p.Name, outstandingFor(p.ID, views))
		}

		response = &ScoreboardResponse{
			AsOf:       asOf,
			WindowDays: windowDays,
			Partners:   entries,
		}
	})
	if operationErr != nil {
		return nil, operationErr
	}

	s.cacheSet(ctx, cacheKey, response)
	return response, nil
}

// =============================================================================
// View loading
// =============================================================================

// partnerViews loads the reconciled views feeding one partner's stats: the
// partner's moves dispatched inside the window plus every move of theirs
// still open, however old.
func (s *DashboardService) partnerViews(ctx context.Context, partnerID uuid.UUID, windowDays int, asOf time.Time) ([]outwork.ReconciledMoveView, error) {
	windowStart := asOf.AddDate(0, 0, -windowDays)

	windowMoves, err := s.moveRepo.FindDispatchedBetween(ctx, partnerID, windowStart, asOf)
	if err != nil {
		return nil, err
	}

	activeMoves, err := s.moveRepo.FindActive(ctx, outwork.MoveFilter{PartnerID: &partnerID})
	if err != nil {
		return nil, err
	}

	return s.reconcileMoves(ctx, mergeMoves(windowMoves, activeMoves), asOf)
}

// allViews loads the reconciled views feeding the scoreboard: all moves
// dispatched inside the window plus all open moves, across every partner
func (s *DashboardService) allViews(ctx context.Context, windowDays int, asOf time.Time) ([]outwork.ReconciledMoveView, error) {
	windowStart := asOf.AddDate(0, 0, -windowDays)

	windowMoves, err := s.moveRepo.FindAll(ctx, outwork.MoveFilter{
		DispatchFrom: &windowStart,
		DispatchTo:   &asOf,
	})
	if err != nil {
		return nil, err
	}

	activeMoves, err := s.moveRepo.FindActive(ctx, outwork.MoveFilter{})
	if err != nil {
		return nil, err
	}

	return s.reconcileMoves(ctx, mergeMoves(windowMoves, activeMoves), asOf)
}

// reconcileMoves loads the receipt ledgers for a batch of moves and
// reconciles each against its ledger
func (s *DashboardService) reconcileMoves(ctx context.Context, moves []outwork.Move, asOf time.Time) ([]outwork.ReconciledMoveView, error) {
	if len(moves) == 0 {
		return []outwork.ReconciledMoveView{}, nil
	}

	ids := make([]uuid.UUID, len(moves))
	for i := range moves {
		ids[i] = moves[i].ID
	}

	receiptsByMove, err := s.receiptRepo.FindByMoves(ctx, ids)
	if err != nil {
		return nil, err
	}

	return outwork.ReconcileAll(moves, receiptsByMove, asOf)
}

// mergeMoves unions two move lists, keeping the first occurrence of each ID
func mergeMoves(a, b []outwork.Move) []outwork.Move {
	seen := make(map[uuid.UUID]struct{}, len(a)+len(b))
	merged := make([]outwork.Move, 0, len(a)+len(b))
	for _, list := range [][]outwork.Move{a, b} {
		for i := range list {
			if _, ok := seen[list[i].ID]; ok {
				continue
			}
			seen[list[i].ID] = struct{}{}
			merged = append(merged, list[i])
		}
	}
	return merged
}

// outstandingFor sums the pieces still sitting with one partner
func outstandingFor(partnerID uuid.UUID, views []outwork.ReconciledMoveView) int {
	total := 0
	for i := range views {
		if views[i].PartnerID == partnerID && views[i].IsActive() {
			total += views[i].QuantityOutstanding
		}
	}
	return total
}

// =============================================================================
// Cache plumbing
// =============================================================================

// cacheGet reads and unmarshals a cached summary. Cache failures degrade to
// a recompute, never to a failed request.
func (s *DashboardService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "dashboard cache read failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.WarnContext(ctx, "dashboard cache entry corrupt", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *DashboardService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		slog.WarnContext(ctx, "dashboard cache write failed", "key", key, "error", err)
	}
}
