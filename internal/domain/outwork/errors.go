package outwork

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
)

// Error codes for outwork operations. Callers branch on these codes, so they
// are part of the package contract.
const (
	ErrCodeInvalidProcessType = "INVALID_PROCESS_TYPE"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeOverReceipt        = "OVER_RECEIPT"
	ErrCodeQCRequired         = "QC_REQUIRED"
	ErrCodeInvariantViolation = "INVARIANT_VIOLATION"
	ErrCodePartnerInactive    = "PARTNER_INACTIVE"
	ErrCodeMoveVoided         = "MOVE_VOIDED"
	ErrCodeMoveHasReceipts    = "MOVE_HAS_RECEIPTS"
	ErrCodeMoveCompleted      = "MOVE_COMPLETED"
)

// NewOverReceiptError reports an attempt to receive more pieces than remain
// outstanding on a move. The offending receipt is never persisted.
func NewOverReceiptError(moveID uuid.UUID, attempted, outstanding int) *shared.DomainError {
	return shared.NewDomainError(ErrCodeOverReceipt,
		fmt.Sprintf("Receipt of %d pieces exceeds the %d outstanding on move %s", attempted, outstanding, moveID))
}

// NewQCRequiredError reports a receipt missing the QC outcome mandated by the partner
func NewQCRequiredError(moveID uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(ErrCodeQCRequired,
		fmt.Sprintf("Partner requires a QC outcome on receipts for move %s", moveID))
}

// NewInvariantViolationError reports corrupted move state. These errors are
// fatal: they indicate the ledger and the move disagree and must be surfaced,
// never silently repaired.
func NewInvariantViolationError(moveID uuid.UUID, detail string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvariantViolation,
		fmt.Sprintf("Move %s violates a ledger invariant: %s", moveID, detail))
}

// IsInvariantViolation reports whether the error carries the invariant violation code
func IsInvariantViolation(err error) bool {
	if domainErr, ok := err.(*shared.DomainError); ok {
		return domainErr.Code == ErrCodeInvariantViolation
	}
	return false
}
