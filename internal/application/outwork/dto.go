package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
)

// =============================================================================
// Request DTOs
// =============================================================================

// CreateMoveRequest represents a request to dispatch material to a partner
type CreateMoveRequest struct {
	WorkOrderID        uuid.UUID  `json:"work_order_id" binding:"required"`
	PartnerID          uuid.UUID  `json:"partner_id" binding:"required"`
	ProcessType        string     `json:"process_type" binding:"required,oneof=forging plating buffing blasting heat_treatment job_work"`
	QuantitySent       int        `json:"quantity_sent" binding:"required,gt=0"`
	DispatchDate       time.Time  `json:"dispatch_date" binding:"required"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	ChallanNo          string     `json:"challan_no" binding:"max=100"`
	Remarks            string     `json:"remarks" binding:"max=500"`
	CreatedBy          *uuid.UUID `json:"-"` // Set from JWT context, not from request body
}

// VoidMoveRequest represents a request to void a mistaken dispatch entry
type VoidMoveRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// RecordReceiptRequest represents a request to record returned material
type RecordReceiptRequest struct {
	QuantityReceived int        `json:"quantity_received" binding:"required,gt=0"`
	ReceivedDate     time.Time  `json:"received_date" binding:"required"`
	QCOutcome        string     `json:"qc_outcome" binding:"omitempty,oneof=pass fail pending"`
	ChallanNo        string     `json:"challan_no" binding:"max=100"`
	Remarks          string     `json:"remarks" binding:"max=500"`
	RecordedBy       *uuid.UUID `json:"-"` // Set from JWT context, not from request body
}

// MoveListFilter represents filter options for the move list
type MoveListFilter struct {
	WorkOrderID   *uuid.UUID `form:"work_order_id"`
	PartnerID     *uuid.UUID `form:"partner_id"`
	Process       string     `form:"process" binding:"omitempty,oneof=forging plating buffing blasting heat_treatment job_work"`
	Status        string     `form:"status" binding:"omitempty,oneof=sent partially_received received_full"`
	Overdue       bool       `form:"overdue"`
	IncludeVoided bool       `form:"include_voided"`
	DispatchFrom  *time.Time `form:"dispatch_from"`
	DispatchTo    *time.Time `form:"dispatch_to"`
	Search        string     `form:"search"`
	Page          int        `form:"page" binding:"min=0"`
	PageSize      int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReceiptListFilter represents filter options for the receipts register
type ReceiptListFilter struct {
	From     time.Time `form:"from" binding:"required"`
	To       time.Time `form:"to" binding:"required"`
	Page     int       `form:"page" binding:"min=0"`
	PageSize int       `form:"page_size" binding:"min=0,max=100"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// MoveResponse represents a move in API responses
type MoveResponse struct {
	ID                 uuid.UUID  `json:"id"`
	WorkOrderID        uuid.UUID  `json:"work_order_id"`
	PartnerID          uuid.UUID  `json:"partner_id"`
	ProcessType        string     `json:"process_type"`
	QuantitySent       int        `json:"quantity_sent"`
	DispatchDate       time.Time  `json:"dispatch_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
	Status             string     `json:"status"`
	ChallanNo          string     `json:"challan_no,omitempty"`
	Remarks            string     `json:"remarks,omitempty"`
	VoidedAt           *time.Time `json:"voided_at,omitempty"`
	VoidReason         string     `json:"void_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Version            int        `json:"version"`
}

// MoveListResponse represents a list item for moves
type MoveListResponse struct {
	ID                 uuid.UUID  `json:"id"`
	WorkOrderID        uuid.UUID  `json:"work_order_id"`
	PartnerID          uuid.UUID  `json:"partner_id"`
	ProcessType        string     `json:"process_type"`
	QuantitySent       int        `json:"quantity_sent"`
	DispatchDate       time.Time  `json:"dispatch_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
	Status             string     `json:"status"`
	ChallanNo          string     `json:"challan_no,omitempty"`
	Voided             bool       `json:"voided"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ReconciledMoveResponse represents a move with its ledger-derived view
type ReconciledMoveResponse struct {
	ID                  uuid.UUID  `json:"id"`
	WorkOrderID         uuid.UUID  `json:"work_order_id"`
	PartnerID           uuid.UUID  `json:"partner_id"`
	ProcessType         string     `json:"process_type"`
	QuantitySent        int        `json:"quantity_sent"`
	QuantityReceived    int        `json:"quantity_received"`
	QuantityOutstanding int        `json:"quantity_outstanding"`
	Status              string     `json:"status"`
	IsOverdue           bool       `json:"is_overdue"`
	AgeDays             int        `json:"age_days"`
	DispatchDate        time.Time  `json:"dispatch_date"`
	ExpectedReturnDate  *time.Time `json:"expected_return_date,omitempty"`
	CompletedOn         *time.Time `json:"completed_on,omitempty"`
	ReceiptCount        int        `json:"receipt_count"`
	ChallanNo           string     `json:"challan_no,omitempty"`
	Remarks             string     `json:"remarks,omitempty"`
	Voided              bool       `json:"voided"`
	VoidReason          string     `json:"void_reason,omitempty"`
	AsOf                time.Time  `json:"as_of"`
	Version             int        `json:"version"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID               uuid.UUID  `json:"id"`
	MoveID           uuid.UUID  `json:"move_id"`
	QuantityReceived int        `json:"quantity_received"`
	ReceivedDate     time.Time  `json:"received_date"`
	QCOutcome        string     `json:"qc_outcome,omitempty"`
	ChallanNo        string     `json:"challan_no,omitempty"`
	Remarks          string     `json:"remarks,omitempty"`
	RecordedBy       *uuid.UUID `json:"recorded_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// RecordReceiptResponse represents the outcome of recording a receipt
type RecordReceiptResponse struct {
	Receipt       ReceiptResponse        `json:"receipt"`
	Move          ReconciledMoveResponse `json:"move"`
	StatusChanged bool                   `json:"status_changed"`
	PriorStatus   string                 `json:"prior_status"`
}

// MoveVerificationResponse reports a cross-check of the stored move row
// against both the SQL-summed ledger and the domain reconciliation
type MoveVerificationResponse struct {
	MoveID          uuid.UUID `json:"move_id"`
	StoredStatus    string    `json:"stored_status"`
	DerivedStatus   string    `json:"derived_status"`
	LedgerSum       int       `json:"ledger_sum"`
	ReconciledTotal int       `json:"reconciled_total"`
	Consistent      bool      `json:"consistent"`
	Detail          string    `json:"detail,omitempty"`
}

// =============================================================================
// Conversion Functions
// =============================================================================

// ToMoveResponse converts a domain Move to MoveResponse
func ToMoveResponse(m *outwork.Move) MoveResponse {
	return MoveResponse{
		ID:                 m.ID,
		WorkOrderID:        m.WorkOrderID,
		PartnerID:          m.PartnerID,
		ProcessType:        string(m.ProcessType),
		QuantitySent:       m.QuantitySent,
		DispatchDate:       m.DispatchDate,
		ExpectedReturnDate: m.ExpectedReturnDate,
		Status:             string(m.Status),
		ChallanNo:          m.ChallanNo,
		Remarks:            m.Remarks,
		VoidedAt:           m.VoidedAt,
		VoidReason:         m.VoidReason,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		Version:            m.Version,
	}
}

// ToMoveListResponse converts a domain Move to MoveListResponse
func ToMoveListResponse(m *outwork.Move) MoveListResponse {
	return MoveListResponse{
		ID:                 m.ID,
		WorkOrderID:        m.WorkOrderID,
		PartnerID:          m.PartnerID,
		ProcessType:        string(m.ProcessType),
		QuantitySent:       m.QuantitySent,
		DispatchDate:       m.DispatchDate,
		ExpectedReturnDate: m.ExpectedReturnDate,
		Status:             string(m.Status),
		ChallanNo:          m.ChallanNo,
		Voided:             m.IsVoided(),
		CreatedAt:          m.CreatedAt,
	}
}

// ToMoveListResponses converts a slice of domain Moves to MoveListResponses
func ToMoveListResponses(moves []outwork.Move) []MoveListResponse {
	responses := make([]MoveListResponse, len(moves))
	for i, m := range moves {
		responses[i] = ToMoveListResponse(&m)
	}
	return responses
}

// ToReconciledMoveResponse merges a reconciled view with the stored move's
// document references into one response
func ToReconciledMoveResponse(view *outwork.ReconciledMoveView, m *outwork.Move) ReconciledMoveResponse {
	return ReconciledMoveResponse{
		ID:                  view.MoveID,
		WorkOrderID:         view.WorkOrderID,
		PartnerID:           view.PartnerID,
		ProcessType:         string(view.ProcessType),
		QuantitySent:        view.QuantitySent,
		QuantityReceived:    view.QuantityReceived,
		QuantityOutstanding: view.QuantityOutstanding,
		Status:              string(view.Status),
		IsOverdue:           view.IsOverdue,
		AgeDays:             view.AgeDays,
		DispatchDate:        view.DispatchDate,
		ExpectedReturnDate:  view.ExpectedReturnDate,
		CompletedOn:         view.CompletedOn,
		ReceiptCount:        view.ReceiptCount,
		ChallanNo:           m.ChallanNo,
		Remarks:             m.Remarks,
		Voided:              view.Voided,
		VoidReason:          m.VoidReason,
		AsOf:                view.AsOf,
		Version:             m.Version,
	}
}

// ToReceiptResponse converts a domain Receipt to ReceiptResponse
func ToReceiptResponse(r *outwork.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:               r.ID,
		MoveID:           r.MoveID,
		QuantityReceived: r.QuantityReceived,
		ReceivedDate:     r.ReceivedDate,
		QCOutcome:        string(r.QCOutcome),
		ChallanNo:        r.ChallanNo,
		Remarks:          r.Remarks,
		RecordedBy:       r.RecordedBy,
		CreatedAt:        r.CreatedAt,
	}
}

// ToReceiptResponses converts a slice of domain Receipts to ReceiptResponses
func ToReceiptResponses(receipts []outwork.Receipt) []ReceiptResponse {
	responses := make([]ReceiptResponse, len(receipts))
	for i, r := range receipts {
		responses[i] = ToReceiptResponse(&r)
	}
	return responses
}
