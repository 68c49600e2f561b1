package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
)

// QCOutcome records the quality-control result of a return. The empty value
// means no outcome was recorded, which is only legal when the partner does
// not require return QC.
type QCOutcome string

const (
	QCOutcomeNone    QCOutcome = ""
	QCOutcomePass    QCOutcome = "pass"
	QCOutcomeFail    QCOutcome = "fail"
	QCOutcomePending QCOutcome = "pending" // Material returned, inspection not yet done
)

// String returns the string representation of QCOutcome
func (q QCOutcome) String() string {
	return string(q)
}

// IsValid returns true if the outcome is recognized (including the empty outcome)
func (q QCOutcome) IsValid() bool {
	switch q {
	case QCOutcomeNone, QCOutcomePass, QCOutcomeFail, QCOutcomePending:
		return true
	}
	return false
}

// IsRecorded returns true if an outcome was actually supplied
func (q QCOutcome) IsRecorded() bool {
	return q != QCOutcomeNone
}

// Receipt represents an immutable record of one physical return of pieces
// against a move. Once created, receipts cannot be modified - corrections
// must be made with new compensating records so the return history stays
// auditable.
type Receipt struct {
	shared.BaseEntity
	MoveID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_receipts_move"`
	QuantityReceived int        `gorm:"not null;check:quantity_received > 0"`
	ReceivedDate     time.Time  `gorm:"type:date;not null;index:idx_receipts_received"`
	QCOutcome        QCOutcome  `gorm:"type:varchar(10)"`
	ChallanNo        string     `gorm:"type:varchar(100)"` // Partner's return document reference
	Remarks          string     `gorm:"type:varchar(500)"`
	RecordedBy       *uuid.UUID `gorm:"type:uuid"` // User who entered the receipt
}

// TableName returns the table name for GORM
func (Receipt) TableName() string {
	return "outwork_receipts"
}

// NewReceipt creates a new receipt record. The over-receipt and QC mandate
// checks need the move and its ledger, so they live in ReceiptService; this
// constructor validates everything knowable from the receipt itself.
func NewReceipt(moveID uuid.UUID, quantityReceived int, receivedDate time.Time, qcOutcome QCOutcome) (*Receipt, error) {
	if moveID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MOVE", "Move ID cannot be empty")
	}
	if quantityReceived <= 0 {
		return nil, shared.NewDomainError(ErrCodeInvalidQuantity, "Quantity received must be a positive whole number of pieces")
	}
	if receivedDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_RECEIVED_DATE", "Received date is required")
	}
	if !qcOutcome.IsValid() {
		return nil, shared.NewDomainError("INVALID_QC_OUTCOME", "QC outcome must be pass, fail, or pending")
	}

	return &Receipt{
		BaseEntity:       shared.NewBaseEntity(),
		MoveID:           moveID,
		QuantityReceived: quantityReceived,
		ReceivedDate:     dateOnly(receivedDate),
		QCOutcome:        qcOutcome,
	}, nil
}

// WithChallanNo sets the partner's return document reference
func (r *Receipt) WithChallanNo(challanNo string) *Receipt {
	r.ChallanNo = challanNo
	return r
}

// WithRemarks sets free-form remarks on the receipt
func (r *Receipt) WithRemarks(remarks string) *Receipt {
	r.Remarks = remarks
	return r
}

// WithRecordedBy sets the user who entered the receipt
func (r *Receipt) WithRecordedBy(userID uuid.UUID) *Receipt {
	r.RecordedBy = &userID
	return r
}

// TotalReceived sums the received quantity across a receipt ledger
func TotalReceived(receipts []Receipt) int {
	total := 0
	for i := range receipts {
		total += receipts[i].QuantityReceived
	}
	return total
}

// LatestReceivedDate returns the most recent received date in the ledger,
// or nil when the ledger is empty. For a completed move this is the date
// the move finished, used for the on-time comparison.
func LatestReceivedDate(receipts []Receipt) *time.Time {
	var latest *time.Time
	for i := range receipts {
		d := receipts[i].ReceivedDate
		if latest == nil || d.After(*latest) {
			copied := d
			latest = &copied
		}
	}
	return latest
}
