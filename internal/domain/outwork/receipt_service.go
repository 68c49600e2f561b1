package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
)

// ReceiptService is a domain service that performs the check-and-append at
// the heart of receipt recording. It works entirely on in-memory state: the
// application layer loads the move and its full ledger, calls Record, and
// persists the receipt and rematerialized move in one transaction conditioned
// on the move's pre-bump version. Every admitted receipt advances the version,
// so a concurrent writer loses the conditional update and retries on a fresh
// ledger.
//
// The ordering of checks matters and is part of the contract:
//  1. the move must accept receipts at all (not voided, not complete),
//  2. the prospective total must not break conservation (over-receipt),
//  3. the partner's QC mandate must be satisfied,
//  4. only then is the receipt admitted and the status rematerialized,
//     asserting the transition is monotonic.
//
// A failure at any step leaves the move and ledger untouched; a receipt is
// never half-recorded.
type ReceiptService struct{}

// NewReceiptService creates a new receipt recording service
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// RecordReceiptCommand carries everything needed to admit one receipt
type RecordReceiptCommand struct {
	Move             *Move
	ExistingReceipts []Receipt // The move's full ledger as of the loaded version
	QuantityReceived int
	ReceivedDate     time.Time
	QCOutcome        QCOutcome
	QCRequired       bool // Owning partner's requiresReturnQc flag
	ChallanNo        string
	Remarks          string
	RecordedBy       *uuid.UUID
}

// Validate validates the structural parts of the command
func (c *RecordReceiptCommand) Validate() error {
	if c.Move == nil {
		return shared.NewDomainError("INVALID_MOVE", "Move is required")
	}
	if c.QuantityReceived <= 0 {
		return shared.NewDomainError(ErrCodeInvalidQuantity, "Quantity received must be a positive whole number of pieces")
	}
	if c.ReceivedDate.IsZero() {
		return shared.NewDomainError("INVALID_RECEIVED_DATE", "Received date is required")
	}
	if !c.QCOutcome.IsValid() {
		return shared.NewDomainError("INVALID_QC_OUTCOME", "QC outcome must be pass, fail, or pending")
	}
	return nil
}

// RecordReceiptResult is the outcome of a successful check-and-append
type RecordReceiptResult struct {
	Receipt       *Receipt
	View          *ReconciledMoveView // The move's new reconciled view after the append
	StatusChanged bool
	PriorStatus   MoveStatus
}

// Record runs the check-and-append against the in-memory move and ledger.
// On success the move's status has been rematerialized (the caller persists
// move and receipt together) and the new reconciled view is returned. On
// failure nothing is mutated.
func (s *ReceiptService) Record(cmd RecordReceiptCommand) (*RecordReceiptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	move := cmd.Move
	if move.IsVoided() {
		return nil, shared.NewDomainError(ErrCodeMoveVoided, "Cannot record a receipt against a voided move")
	}

	existingTotal := TotalReceived(cmd.ExistingReceipts)
	if existingTotal > move.QuantitySent {
		// The persisted ledger already breaks conservation. Never build on
		// top of corrupt state.
		return nil, NewInvariantViolationError(move.ID, "received total exceeds quantity sent")
	}

	prospective := existingTotal + cmd.QuantityReceived
	if prospective > move.QuantitySent {
		return nil, NewOverReceiptError(move.ID, cmd.QuantityReceived, move.QuantitySent-existingTotal)
	}

	if cmd.QCRequired && !cmd.QCOutcome.IsRecorded() {
		return nil, NewQCRequiredError(move.ID)
	}

	receipt, err := NewReceipt(move.ID, cmd.QuantityReceived, cmd.ReceivedDate, cmd.QCOutcome)
	if err != nil {
		return nil, err
	}
	if cmd.ChallanNo != "" {
		receipt.WithChallanNo(cmd.ChallanNo)
	}
	if cmd.Remarks != "" {
		receipt.WithRemarks(cmd.Remarks)
	}
	if cmd.RecordedBy != nil {
		receipt.WithRecordedBy(*cmd.RecordedBy)
	}

	priorStatus := move.Status
	newStatus := StatusForTotals(move.QuantitySent, prospective)
	if err := move.TransitionStatus(newStatus); err != nil {
		return nil, err
	}
	if priorStatus == newStatus {
		// Every admitted receipt advances the move version, so the store's
		// optimistic check serializes concurrent appenders even when the
		// status itself is unchanged.
		move.IncrementVersion()
		move.UpdatedAt = time.Now()
	}

	move.AddDomainEvent(NewReceiptRecordedEvent(move, receipt, prospective))

	ledger := make([]Receipt, 0, len(cmd.ExistingReceipts)+1)
	ledger = append(ledger, cmd.ExistingReceipts...)
	ledger = append(ledger, *receipt)

	view, err := Reconcile(move, ledger, time.Now())
	if err != nil {
		return nil, err
	}

	return &RecordReceiptResult{
		Receipt:       receipt,
		View:          view,
		StatusChanged: priorStatus != newStatus,
		PriorStatus:   priorStatus,
	}, nil
}
