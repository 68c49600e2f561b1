package partner

import (
	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant for Partner
const AggregateTypePartner = "Partner"

// Event type constants for Partner
const (
	EventTypePartnerCreated          = "PartnerCreated"
	EventTypePartnerUpdated          = "PartnerUpdated"
	EventTypePartnerStatusChanged    = "PartnerStatusChanged"
	EventTypePartnerProcessesChanged = "PartnerProcessesChanged"
	EventTypePartnerTermsChanged     = "PartnerTermsChanged"
)

// PartnerCreatedEvent is published when a new partner is created
type PartnerCreatedEvent struct {
	shared.BaseDomainEvent
	PartnerID uuid.UUID       `json:"partner_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Processes valueobject.ProcessTypeList `json:"processes"`
}

// NewPartnerCreatedEvent creates a new PartnerCreatedEvent
func NewPartnerCreatedEvent(p *Partner) *PartnerCreatedEvent {
	return &PartnerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerCreated, AggregateTypePartner, p.ID),
		PartnerID:       p.ID,
		Code:            p.Code,
		Name:            p.Name,
		Processes:       p.Processes,
	}
}

// PartnerUpdatedEvent is published when a partner's basic information changes
type PartnerUpdatedEvent struct {
	shared.BaseDomainEvent
	PartnerID uuid.UUID `json:"partner_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
}

// NewPartnerUpdatedEvent creates a new PartnerUpdatedEvent
func NewPartnerUpdatedEvent(p *Partner) *PartnerUpdatedEvent {
	return &PartnerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerUpdated, AggregateTypePartner, p.ID),
		PartnerID:       p.ID,
		Code:            p.Code,
		Name:            p.Name,
	}
}

// PartnerStatusChangedEvent is published when a partner is activated or deactivated
type PartnerStatusChangedEvent struct {
	shared.BaseDomainEvent
	PartnerID uuid.UUID     `json:"partner_id"`
	Code      string        `json:"code"`
	OldStatus PartnerStatus `json:"old_status"`
	NewStatus PartnerStatus `json:"new_status"`
}

// NewPartnerStatusChangedEvent creates a new PartnerStatusChangedEvent
func NewPartnerStatusChangedEvent(p *Partner, oldStatus, newStatus PartnerStatus) *PartnerStatusChangedEvent {
	return &PartnerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerStatusChanged, AggregateTypePartner, p.ID),
		PartnerID:       p.ID,
		Code:            p.Code,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// PartnerProcessesChangedEvent is published when a partner's approved process set changes
type PartnerProcessesChangedEvent struct {
	shared.BaseDomainEvent
	PartnerID uuid.UUID       `json:"partner_id"`
	Code      string          `json:"code"`
	Processes valueobject.ProcessTypeList `json:"processes"`
}

// NewPartnerProcessesChangedEvent creates a new PartnerProcessesChangedEvent
func NewPartnerProcessesChangedEvent(p *Partner) *PartnerProcessesChangedEvent {
	return &PartnerProcessesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerProcessesChanged, AggregateTypePartner, p.ID),
		PartnerID:       p.ID,
		Code:            p.Code,
		Processes:       p.Processes,
	}
}

// PartnerTermsChangedEvent is published when a partner's lead time or QC requirement changes
type PartnerTermsChangedEvent struct {
	shared.BaseDomainEvent
	PartnerID       uuid.UUID `json:"partner_id"`
	Code            string    `json:"code"`
	OldLeadTimeDays int       `json:"old_lead_time_days"`
	NewLeadTimeDays int       `json:"new_lead_time_days"`
	OldRequiresQC   bool      `json:"old_requires_qc"`
	NewRequiresQC   bool      `json:"new_requires_qc"`
}

// NewPartnerTermsChangedEvent creates a new PartnerTermsChangedEvent
func NewPartnerTermsChangedEvent(p *Partner, oldDays, newDays int, oldQC, newQC bool) *PartnerTermsChangedEvent {
	return &PartnerTermsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerTermsChanged, AggregateTypePartner, p.ID),
		PartnerID:       p.ID,
		Code:            p.Code,
		OldLeadTimeDays: oldDays,
		NewLeadTimeDays: newDays,
		OldRequiresQC:   oldQC,
		NewRequiresQC:   newQC,
	}
}
