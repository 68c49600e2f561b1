package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMoveRepository implements MoveRepository using GORM
type GormMoveRepository struct {
	db *gorm.DB
}

// NewGormMoveRepository creates a new GormMoveRepository
func NewGormMoveRepository(db *gorm.DB) *GormMoveRepository {
	return &GormMoveRepository{db: db}
}

// FindByID finds a move by its ID
func (r *GormMoveRepository) FindByID(ctx context.Context, id uuid.UUID) (*outwork.Move, error) {
	var move outwork.Move
	if err := r.db.WithContext(ctx).First(&move, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &move, nil
}

// FindByWorkOrder finds moves for a work order
func (r *GormMoveRepository) FindByWorkOrder(ctx context.Context, workOrderID uuid.UUID, filter shared.Filter) ([]outwork.Move, error) {
	var moves []outwork.Move
	query := r.applyBaseFilter(
		r.db.WithContext(ctx).Model(&outwork.Move{}).
			Where("work_order_id = ?", workOrderID),
		filter,
	)

	if err := query.Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// FindByPartner finds moves dispatched to a partner
func (r *GormMoveRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID, filter shared.Filter) ([]outwork.Move, error) {
	var moves []outwork.Move
	query := r.applyBaseFilter(
		r.db.WithContext(ctx).Model(&outwork.Move{}).
			Where("partner_id = ?", partnerID),
		filter,
	)

	if err := query.Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// FindAll finds all moves matching the filter
func (r *GormMoveRepository) FindAll(ctx context.Context, filter outwork.MoveFilter) ([]outwork.Move, error) {
	var moves []outwork.Move
	query := r.applyMoveFilter(r.db.WithContext(ctx).Model(&outwork.Move{}), filter)

	if err := query.Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// FindActive finds moves that still have pieces outstanding
func (r *GormMoveRepository) FindActive(ctx context.Context, filter outwork.MoveFilter) ([]outwork.Move, error) {
	// The active conditions already exclude voided rows
	filter.IncludeVoided = true

	var moves []outwork.Move
	query := r.applyMoveFilter(
		activeMoveConditions(r.db.WithContext(ctx).Model(&outwork.Move{})),
		filter,
	)

	if err := query.Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// FindOverdue finds active moves whose expected return date fell strictly
// before the asOf day
func (r *GormMoveRepository) FindOverdue(ctx context.Context, asOf time.Time, filter outwork.MoveFilter) ([]outwork.Move, error) {
	// The overdue conditions already exclude voided rows
	filter.IncludeVoided = true
	filter.OverdueAsOf = nil

	var moves []outwork.Move
	query := r.applyMoveFilter(
		overdueMoveConditions(r.db.WithContext(ctx).Model(&outwork.Move{}), asOf),
		filter,
	)

	if err := query.Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// FindDispatchedBetween finds a partner's moves dispatched within [start, end],
// ordered by dispatch date
func (r *GormMoveRepository) FindDispatchedBetween(ctx context.Context, partnerID uuid.UUID, start, end time.Time) ([]outwork.Move, error) {
	var moves []outwork.Move
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND dispatch_date >= ? AND dispatch_date <= ?",
			partnerID, dayOf(start), dayOf(end)).
		Order("dispatch_date ASC").
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// FindByIDs finds multiple moves by their IDs
func (r *GormMoveRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]outwork.Move, error) {
	if len(ids) == 0 {
		return []outwork.Move{}, nil
	}

	var moves []outwork.Move
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

// Save creates or updates a move
func (r *GormMoveRepository) Save(ctx context.Context, move *outwork.Move) error {
	return r.db.WithContext(ctx).Save(move).Error
}

// SaveWithLock updates a move with optimistic locking (checks version).
// Only the mutable columns are written; quantity_sent and the dispatch
// fields never change after creation.
func (r *GormMoveRepository) SaveWithLock(ctx context.Context, move *outwork.Move) error {
	result := r.db.WithContext(ctx).
		Model(move).
		Where("id = ? AND version = ?", move.ID, move.Version-1).
		Updates(map[string]interface{}{
			"status":      move.Status,
			"voided_at":   move.VoidedAt,
			"void_reason": move.VoidReason,
			"version":     move.Version,
			"updated_at":  move.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveWithReceipt updates the move row under the optimistic lock and appends
// the receipt in the same transaction, so the ledger and the materialized
// status can never diverge on a crash between the two writes.
func (r *GormMoveRepository) SaveWithReceipt(ctx context.Context, move *outwork.Move, receipt *outwork.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(move).
			Where("id = ? AND version = ?", move.ID, move.Version-1).
			Updates(map[string]interface{}{
				"status":     move.Status,
				"version":    move.Version,
				"updated_at": move.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return tx.Create(receipt).Error
	})
}

// Count counts moves matching the filter
func (r *GormMoveRepository) Count(ctx context.Context, filter outwork.MoveFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&outwork.Move{})
	query = r.applyMoveFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByPartner counts all moves ever dispatched to a partner, voided included
func (r *GormMoveRepository) CountByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&outwork.Move{}).
		Where("partner_id = ?", partnerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// activeMoveConditions restricts a query to moves with pieces still out
func activeMoveConditions(query *gorm.DB) *gorm.DB {
	return query.
		Where("voided_at IS NULL").
		Where("status <> ?", outwork.MoveStatusReceivedFull)
}

// overdueMoveConditions restricts a query to active moves whose expected
// return date fell strictly before the asOf day. A move expected today is
// not overdue yet, and moves without a commitment never are.
func overdueMoveConditions(query *gorm.DB, asOf time.Time) *gorm.DB {
	return activeMoveConditions(query).
		Where("expected_return_date IS NOT NULL").
		Where("expected_return_date < ?", dayOf(asOf))
}

// applyMoveFilter applies move filter options to the query
func (r *GormMoveRepository) applyMoveFilter(query *gorm.DB, filter outwork.MoveFilter) *gorm.DB {
	query = r.applyMoveFilterWithoutPagination(query, filter)
	return applyPageAndOrder(query, filter.Filter, MoveSortFields, "dispatch_date DESC, created_at DESC")
}

// applyMoveFilterWithoutPagination applies move filter conditions without pagination
func (r *GormMoveRepository) applyMoveFilterWithoutPagination(query *gorm.DB, filter outwork.MoveFilter) *gorm.DB {
	if filter.WorkOrderID != nil {
		query = query.Where("work_order_id = ?", *filter.WorkOrderID)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.ProcessType != nil {
		query = query.Where("process_type = ?", *filter.ProcessType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if !filter.IncludeVoided {
		query = query.Where("voided_at IS NULL")
	}
	if filter.DispatchFrom != nil {
		query = query.Where("dispatch_date >= ?", dayOf(*filter.DispatchFrom))
	}
	if filter.DispatchTo != nil {
		query = query.Where("dispatch_date <= ?", dayOf(*filter.DispatchTo))
	}
	if filter.OverdueAsOf != nil {
		query = query.
			Where("status <> ?", outwork.MoveStatusReceivedFull).
			Where("expected_return_date IS NOT NULL").
			Where("expected_return_date < ?", dayOf(*filter.OverdueAsOf))
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("challan_no ILIKE ? OR remarks ILIKE ?", searchPattern, searchPattern)
	}

	return query
}

// applyBaseFilter applies a plain shared.Filter to a move query
func (r *GormMoveRepository) applyBaseFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("challan_no ILIKE ? OR remarks ILIKE ?", searchPattern, searchPattern)
	}
	return applyPageAndOrder(query, filter, MoveSortFields, "dispatch_date DESC, created_at DESC")
}

// applyPageAndOrder applies pagination and ordering shared by the outwork repositories
func applyPageAndOrder(query *gorm.DB, filter shared.Filter, sortFields map[string]bool, defaultOrder string) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, sortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))
	} else {
		query = query.Order(defaultOrder)
	}

	return query
}

// dayOf truncates a timestamp to its UTC calendar day, matching how the
// date columns store values
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ensure GormMoveRepository implements MoveRepository
var _ outwork.MoveRepository = (*GormMoveRepository)(nil)
