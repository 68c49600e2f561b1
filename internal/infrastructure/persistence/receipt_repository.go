package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM.
// Receipts are append-only; there is no update or delete here on purpose.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*outwork.Receipt, error) {
	var receipt outwork.Receipt
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByMove returns a move's full receipt ledger in chronological order
func (r *GormReceiptRepository) FindByMove(ctx context.Context, moveID uuid.UUID) ([]outwork.Receipt, error) {
	var receipts []outwork.Receipt
	if err := r.db.WithContext(ctx).
		Where("move_id = ?", moveID).
		Order("received_date ASC, created_at ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// FindByMoves returns the receipt ledgers for a batch of moves, keyed by
// move ID. Moves with no receipts are simply absent from the map.
func (r *GormReceiptRepository) FindByMoves(ctx context.Context, moveIDs []uuid.UUID) (map[uuid.UUID][]outwork.Receipt, error) {
	ledgers := make(map[uuid.UUID][]outwork.Receipt, len(moveIDs))
	if len(moveIDs) == 0 {
		return ledgers, nil
	}

	var receipts []outwork.Receipt
	if err := r.db.WithContext(ctx).
		Where("move_id IN ?", moveIDs).
		Order("received_date ASC, created_at ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}

	for i := range receipts {
		ledgers[receipts[i].MoveID] = append(ledgers[receipts[i].MoveID], receipts[i])
	}
	return ledgers, nil
}

// FindByDateRange finds receipts received within [start, end]
func (r *GormReceiptRepository) FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]outwork.Receipt, error) {
	var receipts []outwork.Receipt
	query := r.db.WithContext(ctx).Model(&outwork.Receipt{}).
		Where("received_date >= ? AND received_date <= ?", dayOf(start), dayOf(end))
	query = r.applyReceiptFilters(query, filter)
	query = applyPageAndOrder(query, filter, ReceiptSortFields, "received_date ASC, created_at ASC")

	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// Create appends a receipt to the ledger
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *outwork.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

// SumQuantityByMove sums the received quantity across a move's ledger
func (r *GormReceiptRepository) SumQuantityByMove(ctx context.Context, moveID uuid.UUID) (int, error) {
	var result struct {
		Total int
	}
	if err := r.db.WithContext(ctx).
		Model(&outwork.Receipt{}).
		Select("COALESCE(SUM(quantity_received), 0) as total").
		Where("move_id = ?", moveID).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// CountByMove counts the receipts in a move's ledger
func (r *GormReceiptRepository) CountByMove(ctx context.Context, moveID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&outwork.Receipt{}).
		Where("move_id = ?", moveID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyReceiptFilters applies receipt-specific filter conditions
func (r *GormReceiptRepository) applyReceiptFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("challan_no ILIKE ? OR remarks ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "move_id":
			query = query.Where("move_id = ?", value)
		case "qc_outcome":
			query = query.Where("qc_outcome = ?", value)
		}
	}

	return query
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ outwork.ReceiptRepository = (*GormReceiptRepository)(nil)
