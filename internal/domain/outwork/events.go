package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// Aggregate type constants for the outwork context
const (
	AggregateTypeMove         = "OutworkMove"
	AggregateTypeMoveDocument = "OutworkMoveDocument"
)

// Event type constants for the outwork context. Downstream consumers (the
// dashboard cache invalidator, the browser notification relay) subscribe by
// these names, so they are part of the contract.
const (
	EventTypeMoveCreated          = "OutworkMoveCreated"
	EventTypeMoveVoided           = "OutworkMoveVoided"
	EventTypeReceiptRecorded      = "OutworkReceiptRecorded"
	EventTypeMoveCompleted        = "OutworkMoveCompleted"
	EventTypeMoveDocumentUploaded = "OutworkMoveDocumentUploaded"
)

// MoveCreatedEvent is published when material is dispatched to a partner
type MoveCreatedEvent struct {
	shared.BaseDomainEvent
	MoveID       uuid.UUID               `json:"move_id"`
	WorkOrderID  uuid.UUID               `json:"work_order_id"`
	PartnerID    uuid.UUID               `json:"partner_id"`
	ProcessType  valueobject.ProcessType `json:"process_type"`
	QuantitySent int                     `json:"quantity_sent"`
	DispatchDate time.Time               `json:"dispatch_date"`
}

// NewMoveCreatedEvent creates a new MoveCreatedEvent
func NewMoveCreatedEvent(m *Move) *MoveCreatedEvent {
	return &MoveCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMoveCreated, AggregateTypeMove, m.ID),
		MoveID:          m.ID,
		WorkOrderID:     m.WorkOrderID,
		PartnerID:       m.PartnerID,
		ProcessType:     m.ProcessType,
		QuantitySent:    m.QuantitySent,
		DispatchDate:    m.DispatchDate,
	}
}

// MoveVoidedEvent is published when a bad dispatch entry is voided
type MoveVoidedEvent struct {
	shared.BaseDomainEvent
	MoveID      uuid.UUID               `json:"move_id"`
	WorkOrderID uuid.UUID               `json:"work_order_id"`
	PartnerID   uuid.UUID               `json:"partner_id"`
	ProcessType valueobject.ProcessType `json:"process_type"`
	Reason      string                  `json:"reason"`
}

// NewMoveVoidedEvent creates a new MoveVoidedEvent
func NewMoveVoidedEvent(m *Move, reason string) *MoveVoidedEvent {
	return &MoveVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMoveVoided, AggregateTypeMove, m.ID),
		MoveID:          m.ID,
		WorkOrderID:     m.WorkOrderID,
		PartnerID:       m.PartnerID,
		ProcessType:     m.ProcessType,
		Reason:          reason,
	}
}

// ReceiptRecordedEvent is published when pieces are received back from a partner
type ReceiptRecordedEvent struct {
	shared.BaseDomainEvent
	MoveID           uuid.UUID               `json:"move_id"`
	ReceiptID        uuid.UUID               `json:"receipt_id"`
	PartnerID        uuid.UUID               `json:"partner_id"`
	ProcessType      valueobject.ProcessType `json:"process_type"`
	QuantityReceived int                     `json:"quantity_received"`
	TotalReceived    int                     `json:"total_received"` // Cumulative total after this receipt
	ReceivedDate     time.Time               `json:"received_date"`
	QCOutcome        QCOutcome               `json:"qc_outcome,omitempty"`
}

// NewReceiptRecordedEvent creates a new ReceiptRecordedEvent
func NewReceiptRecordedEvent(m *Move, r *Receipt, totalReceived int) *ReceiptRecordedEvent {
	return &ReceiptRecordedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReceiptRecorded, AggregateTypeMove, m.ID),
		MoveID:           m.ID,
		ReceiptID:        r.ID,
		PartnerID:        m.PartnerID,
		ProcessType:      m.ProcessType,
		QuantityReceived: r.QuantityReceived,
		TotalReceived:    totalReceived,
		ReceivedDate:     r.ReceivedDate,
		QCOutcome:        r.QCOutcome,
	}
}

// MoveCompletedEvent is published when the last outstanding piece of a move
// is received back
type MoveCompletedEvent struct {
	shared.BaseDomainEvent
	MoveID      uuid.UUID               `json:"move_id"`
	WorkOrderID uuid.UUID               `json:"work_order_id"`
	PartnerID   uuid.UUID               `json:"partner_id"`
	ProcessType valueobject.ProcessType `json:"process_type"`
}

// NewMoveCompletedEvent creates a new MoveCompletedEvent
func NewMoveCompletedEvent(m *Move) *MoveCompletedEvent {
	return &MoveCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMoveCompleted, AggregateTypeMove, m.ID),
		MoveID:          m.ID,
		WorkOrderID:     m.WorkOrderID,
		PartnerID:       m.PartnerID,
		ProcessType:     m.ProcessType,
	}
}

// MoveDocumentUploadedEvent is published when a document is attached to a move
type MoveDocumentUploadedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID    `json:"document_id"`
	MoveID     uuid.UUID    `json:"move_id"`
	Kind       DocumentKind `json:"kind"`
	FileName   string       `json:"file_name"`
}

// NewMoveDocumentUploadedEvent creates a new MoveDocumentUploadedEvent
func NewMoveDocumentUploadedEvent(d *MoveDocument) *MoveDocumentUploadedEvent {
	return &MoveDocumentUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMoveDocumentUploaded, AggregateTypeMoveDocument, d.ID),
		DocumentID:      d.ID,
		MoveID:          d.MoveID,
		Kind:            d.Kind,
		FileName:        d.FileName,
	}
}
