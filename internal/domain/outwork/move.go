package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// MoveStatus represents the receipt progress of a move.
// It is materialized on write and derived purely from the receipt ledger;
// callers never set it directly.
type MoveStatus string

const (
	MoveStatusSent              MoveStatus = "sent"               // Dispatched, nothing received back
	MoveStatusPartiallyReceived MoveStatus = "partially_received" // Some but not all pieces received back
	MoveStatusReceivedFull      MoveStatus = "received_full"      // Every dispatched piece accounted for
)

// String returns the string representation of MoveStatus
func (s MoveStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is recognized
func (s MoveStatus) IsValid() bool {
	switch s {
	case MoveStatusSent, MoveStatusPartiallyReceived, MoveStatusReceivedFull:
		return true
	}
	return false
}

// IsTerminal returns true if no further receipts are expected
func (s MoveStatus) IsTerminal() bool {
	return s == MoveStatusReceivedFull
}

// rank orders statuses along the only legal direction of travel
func (s MoveStatus) rank() int {
	switch s {
	case MoveStatusSent:
		return 0
	case MoveStatusPartiallyReceived:
		return 1
	case MoveStatusReceivedFull:
		return 2
	}
	return -1
}

// CanProgressTo reports whether a transition to next is monotonic.
// Statuses only ever move forward; a backward step means the ledger
// and the move disagree.
func (s MoveStatus) CanProgressTo(next MoveStatus) bool {
	return next.IsValid() && s.IsValid() && next.rank() >= s.rank()
}

// StatusForTotals derives the status for a move with the given sent and
// received piece counts. Derivation is the single source of truth; the
// stored column is only ever set to this function's result.
func StatusForTotals(quantitySent, quantityReceived int) MoveStatus {
	switch {
	case quantityReceived <= 0:
		return MoveStatusSent
	case quantityReceived < quantitySent:
		return MoveStatusPartiallyReceived
	default:
		return MoveStatusReceivedFull
	}
}

// Move represents a quantity of work-order material dispatched to an external
// processing partner. It is the aggregate root of the move/receipt cluster:
// the conservation invariant (pieces received never exceed pieces sent) is
// enforced across the move and its receipt ledger.
type Move struct {
	shared.BaseAggregateRoot
	WorkOrderID        uuid.UUID               `gorm:"type:uuid;not null;index:idx_moves_work_order"`
	PartnerID          uuid.UUID               `gorm:"type:uuid;not null;index:idx_moves_partner"`
	ProcessType        valueobject.ProcessType `gorm:"type:varchar(30);not null;index:idx_moves_process"`
	QuantitySent       int                     `gorm:"not null;check:quantity_sent > 0"` // Immutable; corrections are void and re-create
	DispatchDate       time.Time               `gorm:"type:date;not null;index:idx_moves_dispatch"`
	ExpectedReturnDate *time.Time              `gorm:"type:date"` // Nil means no turnaround commitment is tracked
	Status             MoveStatus              `gorm:"type:varchar(30);not null;default:'sent';index:idx_moves_status"`
	ChallanNo          string                  `gorm:"type:varchar(100)"` // Dispatch document reference
	Remarks            string                  `gorm:"type:varchar(500)"`
	VoidedAt           *time.Time              `gorm:"type:timestamptz;index"`
	VoidReason         string                  `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Move) TableName() string {
	return "outwork_moves"
}

// NewMove creates a new move in status sent.
// Partner capability and activity checks happen in the application layer,
// which holds the partner directory; this constructor validates everything
// knowable from the move itself.
func NewMove(
	workOrderID uuid.UUID,
	partnerID uuid.UUID,
	processType valueobject.ProcessType,
	quantitySent int,
	dispatchDate time.Time,
	expectedReturnDate *time.Time,
) (*Move, error) {
	if workOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WORK_ORDER", "Work order ID cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if !processType.IsValid() {
		return nil, shared.NewDomainError(ErrCodeInvalidProcessType, "Unknown process type: "+processType.String())
	}
	if quantitySent <= 0 {
		return nil, shared.NewDomainError(ErrCodeInvalidQuantity, "Quantity sent must be a positive whole number of pieces")
	}
	if dispatchDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DISPATCH_DATE", "Dispatch date is required")
	}

	dispatch := dateOnly(dispatchDate)
	var expected *time.Time
	if expectedReturnDate != nil {
		d := dateOnly(*expectedReturnDate)
		if d.Before(dispatch) {
			return nil, shared.NewDomainError("INVALID_EXPECTED_RETURN_DATE", "Expected return date cannot precede the dispatch date")
		}
		expected = &d
	}

	m := &Move{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		WorkOrderID:        workOrderID,
		PartnerID:          partnerID,
		ProcessType:        processType,
		QuantitySent:       quantitySent,
		DispatchDate:       dispatch,
		ExpectedReturnDate: expected,
		Status:             MoveStatusSent,
	}

	m.AddDomainEvent(NewMoveCreatedEvent(m))

	return m, nil
}

// WithChallanNo sets the dispatch document reference
func (m *Move) WithChallanNo(challanNo string) *Move {
	m.ChallanNo = challanNo
	return m
}

// WithRemarks sets free-form remarks on the move
func (m *Move) WithRemarks(remarks string) *Move {
	m.Remarks = remarks
	return m
}

// TransitionStatus rematerializes the stored status to the derived value.
// The same status is a no-op; a backward step is an invariant violation and
// must be surfaced, never masked.
func (m *Move) TransitionStatus(next MoveStatus) error {
	if !next.IsValid() {
		return NewInvariantViolationError(m.ID, "derived status "+next.String()+" is not a recognized status")
	}
	if m.Status == next {
		return nil
	}
	if !m.Status.CanProgressTo(next) {
		return NewInvariantViolationError(m.ID, "status would move backward from "+m.Status.String()+" to "+next.String())
	}

	m.Status = next
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	if next == MoveStatusReceivedFull {
		m.AddDomainEvent(NewMoveCompletedEvent(m))
	}

	return nil
}

// Void marks the move as voided. Voiding is the only correction path for a
// bad dispatch entry: the move keeps its history but is excluded from every
// aggregation and accepts no receipts. The caller must ensure no receipts
// exist before voiding.
func (m *Move) Void(reason string) error {
	if m.IsVoided() {
		return shared.NewDomainError(ErrCodeMoveVoided, "Move is already voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_VOID_REASON", "Void reason is required")
	}
	if len(reason) > 255 {
		return shared.NewDomainError("INVALID_VOID_REASON", "Void reason cannot exceed 255 characters")
	}

	now := time.Now()
	m.VoidedAt = &now
	m.VoidReason = reason
	m.UpdatedAt = now
	m.IncrementVersion()

	m.AddDomainEvent(NewMoveVoidedEvent(m, reason))

	return nil
}

// IsVoided returns true if the move has been voided
func (m *Move) IsVoided() bool {
	return m.VoidedAt != nil
}

// IsComplete returns true if every dispatched piece has been received back
func (m *Move) IsComplete() bool {
	return m.Status == MoveStatusReceivedFull
}

// HasReturnCommitment returns true if an expected return date is tracked
func (m *Move) HasReturnCommitment() bool {
	return m.ExpectedReturnDate != nil
}
