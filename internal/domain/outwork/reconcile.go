package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// ReconciledMoveView is the authoritative, derived picture of a move: what
// was sent, what has come back, and whether the move is late. It is never
// stored - it is recomputed from the move and its full receipt ledger on
// every read, which makes reconciliation idempotent and drift-free.
type ReconciledMoveView struct {
	MoveID              uuid.UUID               `json:"move_id"`
	WorkOrderID         uuid.UUID               `json:"work_order_id"`
	PartnerID           uuid.UUID               `json:"partner_id"`
	ProcessType         valueobject.ProcessType `json:"process_type"`
	QuantitySent        int                     `json:"quantity_sent"`
	QuantityReceived    int                     `json:"quantity_received"`
	QuantityOutstanding int                     `json:"quantity_outstanding"`
	Status              MoveStatus              `json:"status"`
	IsOverdue           bool                    `json:"is_overdue"`
	AgeDays             int                     `json:"age_days"` // Whole days since dispatch, as of the reconciliation instant
	DispatchDate        time.Time               `json:"dispatch_date"`
	ExpectedReturnDate  *time.Time              `json:"expected_return_date,omitempty"`
	CompletedOn         *time.Time              `json:"completed_on,omitempty"` // Latest received date once fully received
	ReceiptCount        int                     `json:"receipt_count"`
	Voided              bool                    `json:"voided"`
	AsOf                time.Time               `json:"as_of"`
}

// Reconcile derives the move view from the move and its full receipt ledger.
// It is pure and deterministic: the same move, ledger, and asOf instant
// always produce the same view, and calling it repeatedly has no side
// effects. An error here means the persisted ledger itself is corrupt
// (conservation broken or a foreign receipt in the ledger), which is fatal.
func Reconcile(move *Move, receipts []Receipt, asOf time.Time) (*ReconciledMoveView, error) {
	for i := range receipts {
		if receipts[i].MoveID != move.ID {
			return nil, NewInvariantViolationError(move.ID,
				"ledger contains receipt "+receipts[i].ID.String()+" belonging to move "+receipts[i].MoveID.String())
		}
	}

	totalReceived := TotalReceived(receipts)
	if totalReceived > move.QuantitySent {
		return nil, NewInvariantViolationError(move.ID,
			"received total exceeds quantity sent")
	}

	status := StatusForTotals(move.QuantitySent, totalReceived)

	view := &ReconciledMoveView{
		MoveID:              move.ID,
		WorkOrderID:         move.WorkOrderID,
		PartnerID:           move.PartnerID,
		ProcessType:         move.ProcessType,
		QuantitySent:        move.QuantitySent,
		QuantityReceived:    totalReceived,
		QuantityOutstanding: move.QuantitySent - totalReceived,
		Status:              status,
		DispatchDate:        move.DispatchDate,
		ExpectedReturnDate:  move.ExpectedReturnDate,
		ReceiptCount:        len(receipts),
		Voided:              move.IsVoided(),
		AsOf:                asOf,
	}

	if status == MoveStatusReceivedFull {
		view.CompletedOn = LatestReceivedDate(receipts)
	}

	if age := daysBetween(move.DispatchDate, asOf); age > 0 {
		view.AgeDays = age
	}

	// A move is overdue only while pieces are still out and the commitment
	// date has passed. The expected day itself is not late, and voided
	// moves are nobody's problem to chase.
	if !view.Voided && status != MoveStatusReceivedFull && move.ExpectedReturnDate != nil {
		view.IsOverdue = move.ExpectedReturnDate.Before(dateOnly(asOf))
	}

	return view, nil
}

// IsActive returns true if pieces are still outstanding on a non-voided move
func (v *ReconciledMoveView) IsActive() bool {
	return !v.Voided && v.Status != MoveStatusReceivedFull
}

// IsOnTime reports whether a completed move met its return commitment.
// Moves without a commitment count as on time; the caller must only invoke
// this for completed moves (it returns false for incomplete ones).
func (v *ReconciledMoveView) IsOnTime() bool {
	if v.Status != MoveStatusReceivedFull {
		return false
	}
	if v.ExpectedReturnDate == nil {
		return true
	}
	if v.CompletedOn == nil {
		return false
	}
	return !v.CompletedOn.After(*v.ExpectedReturnDate)
}

// CheckStoredStatus compares the stored (materialized) status column against
// the derived status. Read paths call this to detect drift between the move
// row and its ledger; a mismatch is an invariant violation that must be
// surfaced loudly, not silently repaired.
func (v *ReconciledMoveView) CheckStoredStatus(stored MoveStatus) error {
	if stored == v.Status {
		return nil
	}
	return NewInvariantViolationError(v.MoveID,
		"stored status "+stored.String()+" disagrees with derived status "+v.Status.String())
}

// ReconcileAll reconciles a batch of moves against their receipt ledgers.
// The receipts map is keyed by move ID; moves without an entry reconcile
// against an empty ledger.
func ReconcileAll(moves []Move, receiptsByMove map[uuid.UUID][]Receipt, asOf time.Time) ([]ReconciledMoveView, error) {
	views := make([]ReconciledMoveView, 0, len(moves))
	for i := range moves {
		view, err := Reconcile(&moves[i], receiptsByMove[moves[i].ID], asOf)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}
