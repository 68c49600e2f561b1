package dashboard

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/partner"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockMoveRepository is a mock implementation of outwork.MoveRepository
type MockMoveRepository struct {
	mock.Mock
}

func (m *MockMoveRepository) FindByID(ctx context.Context, id uuid.UUID) (*outwork.Move, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindByWorkOrder(ctx context.Context, workOrderID uuid.UUID, filter shared.Filter) ([]outwork.Move, error) {
	args := m.Called(ctx, workOrderID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID, filter shared.Filter) ([]outwork.Move, error) {
	args := m.Called(ctx, partnerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindAll(ctx context.Context, filter outwork.MoveFilter) ([]outwork.Move, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindActive(ctx context.Context, filter outwork.MoveFilter) ([]outwork.Move, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindOverdue(ctx context.Context, asOf time.Time, filter outwork.MoveFilter) ([]outwork.Move, error) {
	args := m.Called(ctx, asOf, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindDispatchedBetween(ctx context.Context, partnerID uuid.UUID, start, end time.Time) ([]outwork.Move, error) {
	args := m.Called(ctx, partnerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]outwork.Move, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Move), args.Error(1)
}

func (m *MockMoveRepository) Save(ctx context.Context, move *outwork.Move) error {
	args := m.Called(ctx, move)
	return args.Error(0)
}

func (m *MockMoveRepository) SaveWithLock(ctx context.Context, move *outwork.Move) error {
	args := m.Called(ctx, move)
	return args.Error(0)
}

func (m *MockMoveRepository) SaveWithReceipt(ctx context.Context, move *outwork.Move, receipt *outwork.Receipt) error {
	args := m.Called(ctx, move, receipt)
	return args.Error(0)
}

func (m *MockMoveRepository) Count(ctx context.Context, filter outwork.MoveFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMoveRepository) CountByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, partnerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockReceiptRepository is a mock implementation of outwork.ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*outwork.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outwork.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByMove(ctx context.Context, moveID uuid.UUID) ([]outwork.Receipt, error) {
	args := m.Called(ctx, moveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByMoves(ctx context.Context, moveIDs []uuid.UUID) (map[uuid.UUID][]outwork.Receipt, error) {
	args := m.Called(ctx, moveIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]outwork.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]outwork.Receipt, error) {
	args := m.Called(ctx, start, end, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]outwork.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) Create(ctx context.Context, receipt *outwork.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) SumQuantityByMove(ctx context.Context, moveID uuid.UUID) (int, error) {
	args := m.Called(ctx, moveID)
	return args.Int(0), args.Error(1)
}

func (m *MockReceiptRepository) CountByMove(ctx context.Context, moveID uuid.UUID) (int64, error) {
	args := m.Called(ctx, moveID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPartnerRepository is a mock implementation of partner.PartnerRepository
type MockPartnerRepository struct {
	mock.Mock
}

func (m *MockPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByCode(ctx context.Context, code string) (*partner.Partner, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Partner, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByStatus(ctx context.Context, status partner.PartnerStatus, filter shared.Filter) ([]partner.Partner, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Partner, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByProcess(ctx context.Context, process valueobject.ProcessType, filter shared.Filter) ([]partner.Partner, error) {
	args := m.Called(ctx, process, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Partner, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Partner), args.Error(1)
}

func (m *MockPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPartnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPartnerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPartnerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// Ensure mocks implement the interfaces
var _ outwork.MoveRepository = (*MockMoveRepository)(nil)
var _ outwork.ReceiptRepository = (*MockReceiptRepository)(nil)
var _ partner.PartnerRepository = (*MockPartnerRepository)(nil)

// =============================================================================
// Fake Summary Cache
// =============================================================================

// fakeSummaryCache is an in-memory SummaryCache that records what was
// deleted, so tests can assert on invalidation without a real store.
type fakeSummaryCache struct {
	mu        sync.Mutex
	entries   map[string][]byte
	deleted   []string
	getErr    error
	setErr    error
	deleteErr error
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: make(map[string][]byte)}
}

func (c *fakeSummaryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	data, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (c *fakeSummaryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *fakeSummaryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	for _, key := range keys {
		delete(c.entries, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func (c *fakeSummaryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.deleted = append(c.deleted, key)
		}
	}
	return nil
}

func (c *fakeSummaryCache) seed(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *fakeSummaryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *fakeSummaryCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for key := range c.entries {
		out = append(out, key)
	}
	return out
}

func (c *fakeSummaryCache) deletedKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.deleted {
		if k == key {
			return true
		}
	}
	return false
}

var _ SummaryCache = (*fakeSummaryCache)(nil)

// =============================================================================
// Test Fixtures
// =============================================================================

func dashboardPartnerAID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func dashboardPartnerBID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func dashboardWorkOrderID() uuid.UUID {
	return uuid.MustParse("33333333-3333-3333-3333-333333333333")
}

// statsAsOf pins the reconciliation instant so window math is deterministic
func statsAsOf() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func createDashboardPartner(id uuid.UUID, code, name string) *partner.Partner {
	p, _ := partner.NewPartner(code, name, []valueobject.ProcessType{valueobject.ProcessPlating})
	p.ID = id
	p.ClearDomainEvents()
	return p
}

func makeDashboardMove(partnerID uuid.UUID, process valueobject.ProcessType, quantity int, dispatch time.Time, expected *time.Time) *outwork.Move {
	move, _ := outwork.NewMove(dashboardWorkOrderID(), partnerID, process, quantity, dispatch, expected)
	move.ClearDomainEvents()
	return move
}

func makeDashboardReceipt(moveID uuid.UUID, quantity int, received time.Time) outwork.Receipt {
	receipt, _ := outwork.NewReceipt(moveID, quantity, received, outwork.QCOutcomeNone)
	return *receipt
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func newTestDashboardService() (*DashboardService, *MockMoveRepository, *MockReceiptRepository, *MockPartnerRepository, *fakeSummaryCache) {
	moveRepo := new(MockMoveRepository)
	receiptRepo := new(MockReceiptRepository)
	partnerRepo := new(MockPartnerRepository)
	cache := newFakeSummaryCache()

	service := NewDashboardService(moveRepo, receiptRepo, partnerRepo)
	service.SetSummaryCache(cache)
	service.SetConfig(DashboardConfig{WindowDays: 90, CacheTTL: time.Minute})

	return service, moveRepo, receiptRepo, partnerRepo, cache
}

// =============================================================================
// GetPartnerStats Tests
// =============================================================================

func TestDashboardService_GetPartnerStats_Success(t *testing.T) {
	service, moveRepo, receiptRepo, partnerRepo, cache := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	asOf := statsAsOf()
	windowStart := asOf.AddDate(0, 0, -90)

	p := createDashboardPartner(partnerID, "PLT-01", "Shree Plating Works")

	// Completed on time: expected Apr 15, fully received Apr 10
	onTime := makeDashboardMove(partnerID, valueobject.ProcessPlating, 50,
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), datePtr(2026, 4, 15))
	// Completed late: expected Apr 20, fully received Apr 28
	late := makeDashboardMove(partnerID, valueobject.ProcessPlating, 80,
		time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), datePtr(2026, 4, 20))
	// Still open and past its expected date
	open := makeDashboardMove(partnerID, valueobject.ProcessPlating, 100,
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), datePtr(2026, 5, 20))

	ledgers := map[uuid.UUID][]outwork.Receipt{
		onTime.ID: {makeDashboardReceipt(onTime.ID, 50, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))},
		late.ID:   {makeDashboardReceipt(late.ID, 80, time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC))},
		open.ID:   {makeDashboardReceipt(open.ID, 30, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))},
	}

	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(p, nil)
	moveRepo.On("FindDispatchedBetween", mock.Anything, partnerID, windowStart, asOf).
		Return([]outwork.Move{*onTime, *late, *open}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.MatchedBy(func(f outwork.MoveFilter) bool {
		return f.PartnerID != nil && *f.PartnerID == partnerID
	})).Return([]outwork.Move{*open}, nil)
	// The open move arrives via both loaders; the merged ledger load must
	// carry each move exactly once
	receiptRepo.On("FindByMoves", mock.Anything, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == 3
	})).Return(ledgers, nil)

	response, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{AsOf: &asOf})

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.Equal(t, partnerID, response.PartnerID)
	assert.Equal(t, "PLT-01", response.PartnerCode)
	assert.Equal(t, "Shree Plating Works", response.PartnerName)
	assert.Equal(t, 90, response.WindowDays)
	assert.True(t, response.AsOf.Equal(asOf))
	assert.Equal(t, 1, response.ActiveMoves)
	assert.Equal(t, 1, response.OverdueMoves)
	assert.Equal(t, 70, response.QuantityOutstanding)
	assert.Equal(t, 2, response.SampleSize)
	assert.True(t, response.HasData)
	assert.True(t, response.OnTimeReturnRatePercent.Equal(decimal.NewFromInt(50)))

	// Historical reads are never cached
	assert.Empty(t, cache.keys())
	moveRepo.AssertExpectations(t)
	receiptRepo.AssertExpectations(t)
}

func TestDashboardService_GetPartnerStats_PartnerNotFound(t *testing.T) {
	service, moveRepo, _, partnerRepo, _ := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(nil, shared.ErrNotFound)

	response, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{})

	assert.Error(t, err)
	assert.Nil(t, response)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PARTNER_NOT_FOUND", domainErr.Code)
	moveRepo.AssertNotCalled(t, "FindDispatchedBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardService_GetPartnerStats_NoMoves(t *testing.T) {
	service, moveRepo, receiptRepo, partnerRepo, cache := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	asOf := statsAsOf()
	p := createDashboardPartner(partnerID, "PLT-01", "Shree Plating Works")

	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(p, nil)
	moveRepo.On("FindDispatchedBetween", mock.Anything, partnerID, mock.Anything, mock.Anything).
		Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	response, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{AsOf: &asOf})

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.Equal(t, 0, response.ActiveMoves)
	assert.Equal(t, 0, response.OverdueMoves)
	assert.Equal(t, 0, response.QuantityOutstanding)
	assert.Equal(t, 0, response.SampleSize)
	assert.False(t, response.HasData)
	assert.True(t, response.OnTimeReturnRatePercent.Equal(decimal.Zero))

	// No moves means no ledger load at all
	receiptRepo.AssertNotCalled(t, "FindByMoves", mock.Anything, mock.Anything)
	assert.Empty(t, cache.keys())
}

func TestDashboardService_GetPartnerStats_WindowDaysOverride(t *testing.T) {
	service, moveRepo, _, partnerRepo, _ := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	asOf := statsAsOf()
	p := createDashboardPartner(partnerID, "PLT-01", "Shree Plating Works")

	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(p, nil)
	// The requested window, not the default, must bound the dispatch query
	moveRepo.On("FindDispatchedBetween", mock.Anything, partnerID, asOf.AddDate(0, 0, -30), asOf).
		Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	response, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{WindowDays: 30, AsOf: &asOf})

	assert.NoError(t, err)
	assert.Equal(t, 30, response.WindowDays)
	moveRepo.AssertExpectations(t)
}

func TestDashboardService_GetPartnerStats_CachesCurrentReads(t *testing.T) {
	service, moveRepo, _, partnerRepo, cache := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	p := createDashboardPartner(partnerID, "PLT-01", "Shree Plating Works")

	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(p, nil)
	moveRepo.On("FindDispatchedBetween", mock.Anything, partnerID, mock.Anything, mock.Anything).
		Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	first, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{})
	assert.NoError(t, err)
	assert.True(t, cache.has(partnerStatsCacheKey(partnerID, 90)))

	second, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{})
	assert.NoError(t, err)

	// The second read is served from cache; the move store is not touched again
	moveRepo.AssertNumberOfCalls(t, "FindDispatchedBetween", 1)
	assert.Equal(t, first.PartnerCode, second.PartnerCode)
	assert.Equal(t, first.SampleSize, second.SampleSize)
	assert.True(t, second.AsOf.Equal(first.AsOf))
}

func TestDashboardService_GetPartnerStats_CorruptCacheEntryRecomputed(t *testing.T) {
	service, moveRepo, _, partnerRepo, cache := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	p := createDashboardPartner(partnerID, "PLT-01", "Shree Plating Works")
	cacheKey := partnerStatsCacheKey(partnerID, 90)
	cache.seed(cacheKey, []byte("{not json"))

	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(p, nil)
	moveRepo.On("FindDispatchedBetween", mock.Anything, partnerID, mock.Anything, mock.Anything).
		Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	response, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{})

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.Equal(t, "PLT-01", response.PartnerCode)
	// The corrupt entry is dropped and the recomputed one takes its place
	assert.True(t, cache.deletedKey(cacheKey))
	assert.True(t, cache.has(cacheKey))
}

func TestDashboardService_GetPartnerStats_CacheFailureDegradesToRecompute(t *testing.T) {
	service, moveRepo, _, partnerRepo, cache := newTestDashboardService()

	partnerID := dashboardPartnerAID()
	p := createDashboardPartner(partnerID, "PLT-01", "Shree Plating Works")
	cache.getErr = assert.AnError
	cache.setErr = assert.AnError

	partnerRepo.On("FindByID", mock.Anything, partnerID).Return(p, nil)
	moveRepo.On("FindDispatchedBetween", mock.Anything, partnerID, mock.Anything, mock.Anything).
		Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	response, err := service.GetPartnerStats(context.Background(), partnerID, PartnerStatsFilter{})

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.Equal(t, "PLT-01", response.PartnerCode)
}

// =============================================================================
// GetProcessSummary Tests
// =============================================================================

func TestDashboardService_GetProcessSummary_Success(t *testing.T) {
	service, moveRepo, receiptRepo, _, cache := newTestDashboardService()

	partnerID := dashboardPartnerAID()

	// Two plating moves (one overdue) and one buffing move
	plating1 := makeDashboardMove(partnerID, valueobject.ProcessPlating, 100,
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), datePtr(2026, 2, 25))
	plating2 := makeDashboardMove(partnerID, valueobject.ProcessPlating, 50,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil)
	buffing := makeDashboardMove(partnerID, valueobject.ProcessBuffing, 40,
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), nil)

	ledgers := map[uuid.UUID][]outwork.Receipt{
		plating1.ID: {makeDashboardReceipt(plating1.ID, 30, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))},
		buffing.ID:  {makeDashboardReceipt(buffing.ID, 15, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))},
	}

	moveRepo.On("FindActive", mock.Anything, outwork.MoveFilter{}).
		Return([]outwork.Move{*plating1, *plating2, *buffing}, nil)
	receiptRepo.On("FindByMoves", mock.Anything, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == 3
	})).Return(ledgers, nil)

	response, err := service.GetProcessSummary(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.WithinDuration(t, time.Now(), response.AsOf, time.Minute)
	assert.Len(t, response.Processes, 2)

	// Sorted by process name: buffing before plating
	assert.Equal(t, "buffing", response.Processes[0].ProcessType)
	assert.Equal(t, 25, response.Processes[0].PieceCountOutstanding)
	assert.Equal(t, 1, response.Processes[0].ActiveMoveCount)
	assert.Equal(t, 0, response.Processes[0].OverdueCount)
	assert.True(t, response.Processes[0].AverageWaitHours.GreaterThan(decimal.Zero))

	assert.Equal(t, "plating", response.Processes[1].ProcessType)
	assert.Equal(t, 120, response.Processes[1].PieceCountOutstanding)
	assert.Equal(t, 2, response.Processes[1].ActiveMoveCount)
	assert.Equal(t, 1, response.Processes[1].OverdueCount)

	assert.True(t, cache.has(cacheKeyProcessSummary))
	moveRepo.AssertExpectations(t)
}

func TestDashboardService_GetProcessSummary_NoActiveMoves(t *testing.T) {
	service, moveRepo, receiptRepo, _, cache := newTestDashboardService()

	moveRepo.On("FindActive", mock.Anything, outwork.MoveFilter{}).Return([]outwork.Move{}, nil)

	response, err := service.GetProcessSummary(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.Empty(t, response.Processes)
	// An empty floor is a valid answer and still worth caching
	assert.True(t, cache.has(cacheKeyProcessSummary))
	receiptRepo.AssertNotCalled(t, "FindByMoves", mock.Anything, mock.Anything)
}

func TestDashboardService_GetProcessSummary_CachesResult(t *testing.T) {
	service, moveRepo, _, _, _ := newTestDashboardService()

	moveRepo.On("FindActive", mock.Anything, outwork.MoveFilter{}).Return([]outwork.Move{}, nil)

	_, err := service.GetProcessSummary(context.Background())
	assert.NoError(t, err)
	_, err = service.GetProcessSummary(context.Background())
	assert.NoError(t, err)

	moveRepo.AssertNumberOfCalls(t, "FindActive", 1)
}

// =============================================================================
// GetPartnerScoreboard Tests
// =============================================================================

func TestDashboardService_GetPartnerScoreboard_Success(t *testing.T) {
	service, moveRepo, receiptRepo, partnerRepo, cache := newTestDashboardService()

	partnerA := createDashboardPartner(dashboardPartnerAID(), "PLT-01", "Shree Plating Works")
	partnerB := createDashboardPartner(dashboardPartnerBID(), "POL-02", "Meridian Polishers")

	now := time.Now()
	// Completed on time: expected ten days ago, fully received twelve days ago
	completed := makeDashboardMove(partnerA.ID, valueobject.ProcessPlating, 50,
		now.AddDate(0, 0, -20), timePtrFromDate(now.AddDate(0, 0, -10)))
	// Open with a future expected date
	open := makeDashboardMove(partnerA.ID, valueobject.ProcessPlating, 100,
		now.AddDate(0, 0, -5), timePtrFromDate(now.AddDate(0, 0, 5)))

	ledgers := map[uuid.UUID][]outwork.Receipt{
		completed.ID: {makeDashboardReceipt(completed.ID, 50, now.AddDate(0, 0, -12))},
		open.ID:      {makeDashboardReceipt(open.ID, 30, now.AddDate(0, 0, -2))},
	}

	partnerRepo.On("FindActive", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.OrderBy == "code" && f.OrderDir == "asc"
	})).Return([]partner.Partner{*partnerA, *partnerB}, nil)
	moveRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f outwork.MoveFilter) bool {
		return f.DispatchFrom != nil && f.DispatchTo != nil
	})).Return([]outwork.Move{*completed}, nil)
	moveRepo.On("FindActive", mock.Anything, outwork.MoveFilter{}).Return([]outwork.Move{*open}, nil)
	receiptRepo.On("FindByMoves", mock.Anything, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == 2
	})).Return(ledgers, nil)

	response, err := service.GetPartnerScoreboard(context.Background(), ScoreboardFilter{})

	assert.NoError(t, err)
	assert.NotNil(t, response)
	assert.Equal(t, 90, response.WindowDays)
	assert.Len(t, response.Partners, 2)

	// Repository order (by code) is preserved
	entryA := response.Partners[0]
	assert.Equal(t, "PLT-01", entryA.PartnerCode)
	assert.Equal(t, 1, entryA.ActiveMoves)
	assert.Equal(t, 0, entryA.OverdueMoves)
	assert.Equal(t, 70, entryA.QuantityOutstanding)
	assert.Equal(t, 1, entryA.SampleSize)
	assert.True(t, entryA.HasData)
	assert.True(t, entryA.OnTimeReturnRatePercent.Equal(decimal.NewFromInt(100)))

	// A partner with no moves still appears, with an empty sample
	entryB := response.Partners[1]
	assert.Equal(t, "POL-02", entryB.PartnerCode)
	assert.Equal(t, "Meridian Polishers", entryB.PartnerName)
	assert.Equal(t, 0, entryB.ActiveMoves)
	assert.Equal(t, 0, entryB.QuantityOutstanding)
	assert.False(t, entryB.HasData)
	assert.True(t, entryB.OnTimeReturnRatePercent.Equal(decimal.Zero))

	assert.True(t, cache.has(scoreboardCacheKey(90)))
	partnerRepo.AssertExpectations(t)
	moveRepo.AssertExpectations(t)
}

func TestDashboardService_GetPartnerScoreboard_CachesResult(t *testing.T) {
	service, moveRepo, _, partnerRepo, _ := newTestDashboardService()

	partnerRepo.On("FindActive", mock.Anything, mock.Anything).Return([]partner.Partner{}, nil)
	moveRepo.On("FindAll", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	_, err := service.GetPartnerScoreboard(context.Background(), ScoreboardFilter{})
	assert.NoError(t, err)
	_, err = service.GetPartnerScoreboard(context.Background(), ScoreboardFilter{})
	assert.NoError(t, err)

	partnerRepo.AssertNumberOfCalls(t, "FindActive", 1)
}

func TestDashboardService_GetPartnerScoreboard_WindowKeyedCache(t *testing.T) {
	service, moveRepo, _, partnerRepo, cache := newTestDashboardService()

	partnerRepo.On("FindActive", mock.Anything, mock.Anything).Return([]partner.Partner{}, nil)
	moveRepo.On("FindAll", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)
	moveRepo.On("FindActive", mock.Anything, mock.Anything).Return([]outwork.Move{}, nil)

	_, err := service.GetPartnerScoreboard(context.Background(), ScoreboardFilter{})
	assert.NoError(t, err)
	_, err = service.GetPartnerScoreboard(context.Background(), ScoreboardFilter{WindowDays: 30})
	assert.NoError(t, err)

	// Different windows are different cache entries, so both reads recompute
	partnerRepo.AssertNumberOfCalls(t, "FindActive", 2)
	assert.True(t, cache.has(scoreboardCacheKey(90)))
	assert.True(t, cache.has(scoreboardCacheKey(30)))
}

// timePtrFromDate truncates to the calendar day and returns a pointer,
// matching how move dates are stored
func timePtrFromDate(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
