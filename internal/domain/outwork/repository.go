package outwork

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// MoveRepository defines the interface for outwork move persistence
type MoveRepository interface {
	// FindByID finds a move by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Move, error)

	// FindByWorkOrder finds all moves dispatched against a work order
	FindByWorkOrder(ctx context.Context, workOrderID uuid.UUID, filter shared.Filter) ([]Move, error)

	// FindByPartner finds all moves dispatched to a partner
	FindByPartner(ctx context.Context, partnerID uuid.UUID, filter shared.Filter) ([]Move, error)

	// FindAll finds moves matching the filter
	FindAll(ctx context.Context, filter MoveFilter) ([]Move, error)

	// FindActive finds moves that are not voided and not fully received
	FindActive(ctx context.Context, filter MoveFilter) ([]Move, error)

	// FindOverdue finds active moves whose expected return date is before the given day
	FindOverdue(ctx context.Context, asOf time.Time, filter MoveFilter) ([]Move, error)

	// FindDispatchedBetween finds moves dispatched within a date range (inclusive)
	FindDispatchedBetween(ctx context.Context, partnerID uuid.UUID, start, end time.Time) ([]Move, error)

	// FindByIDs finds multiple moves by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Move, error)

	// Save creates or updates a move
	Save(ctx context.Context, move *Move) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, move *Move) error

	// SaveWithReceipt persists the rematerialized move and appends the
	// receipt in one transaction. The move update carries the optimistic
	// version check; if another writer got there first, nothing is written
	// and shared.ErrConcurrencyConflict is returned.
	SaveWithReceipt(ctx context.Context, move *Move, receipt *Receipt) error

	// Count counts moves matching the filter
	Count(ctx context.Context, filter MoveFilter) (int64, error)

	// CountByPartner counts moves for a partner
	CountByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error)
}

// ReceiptRepository defines the interface for receipt persistence.
//
// Receipts are append-only: once recorded, a receipt row is never updated
// or deleted. Corrections are made by voiding the move and re-dispatching,
// so the ledger always shows exactly what was counted at the gate.
type ReceiptRepository interface {
	// FindByID finds a receipt by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindByMove finds all receipts recorded against a move, oldest first
	FindByMove(ctx context.Context, moveID uuid.UUID) ([]Receipt, error)

	// FindByMoves finds receipts for multiple moves, grouped by move ID
	FindByMoves(ctx context.Context, moveIDs []uuid.UUID) (map[uuid.UUID][]Receipt, error)

	// FindByDateRange finds receipts received within a date range
	FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]Receipt, error)

	// Create creates a new receipt (append-only, no update allowed)
	Create(ctx context.Context, receipt *Receipt) error

	// SumQuantityByMove sums the received quantity across a move's receipts
	SumQuantityByMove(ctx context.Context, moveID uuid.UUID) (int, error)

	// CountByMove counts receipts recorded against a move
	CountByMove(ctx context.Context, moveID uuid.UUID) (int64, error)
}

// MoveDocumentRepository defines the interface for move document persistence
type MoveDocumentRepository interface {
	// FindByID finds a document by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*MoveDocument, error)

	// FindByMove finds all documents attached to a move
	FindByMove(ctx context.Context, moveID uuid.UUID) ([]MoveDocument, error)

	// Save creates or updates a document record
	Save(ctx context.Context, doc *MoveDocument) error

	// Delete deletes a document record
	Delete(ctx context.Context, id uuid.UUID) error
}

// MoveFilter extends shared.Filter with move-specific filters
type MoveFilter struct {
	shared.Filter
	WorkOrderID   *uuid.UUID
	PartnerID     *uuid.UUID
	ProcessType   *valueobject.ProcessType
	Status        *MoveStatus
	IncludeVoided bool
	DispatchFrom  *time.Time
	DispatchTo    *time.Time
	OverdueAsOf   *time.Time // Restrict to moves overdue as of this day (expected return strictly before it)
}
