package partner

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// PartnerStatus represents the status of a processing partner
type PartnerStatus string

const (
	PartnerStatusActive   PartnerStatus = "active"
	PartnerStatusInactive PartnerStatus = "inactive" // Deactivated, no new moves; history stays attributable
)

// Partner represents an external processing vendor (forge shop, plating unit,
// heat treatment facility, ...) that factory material is dispatched to.
// It is the aggregate root for partner directory operations.
type Partner struct {
	shared.BaseAggregateRoot
	Code             string                      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name             string                      `gorm:"type:varchar(200);not null"`
	Status           PartnerStatus               `gorm:"type:varchar(20);not null;default:'active'"`
	Processes        valueobject.ProcessTypeList `gorm:"type:jsonb;not null"`    // Process types this partner is approved for
	RequiresReturnQC bool                        `gorm:"not null;default:false"` // Returned material must carry a QC outcome
	LeadTimeDays     int                         `gorm:"not null;default:0"`     // Contracted turnaround, used to prefill expected return dates
	ContactName      string                      `gorm:"type:varchar(100)"`
	Phone            string                      `gorm:"type:varchar(50);index"`
	Email            string                      `gorm:"type:varchar(200);index"`
	Address          string                      `gorm:"type:text"`
	Notes            string                      `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Partner) TableName() string {
	return "partners"
}

// NewPartner creates a new processing partner with required fields
func NewPartner(code, name string, processes []valueobject.ProcessType) (*Partner, error) {
	if err := validatePartnerCode(code); err != nil {
		return nil, err
	}
	if err := validatePartnerName(name); err != nil {
		return nil, err
	}
	list, err := validateProcessList(processes)
	if err != nil {
		return nil, err
	}

	p := &Partner{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            PartnerStatusActive,
		Processes:         list,
		RequiresReturnQC:  false,
		LeadTimeDays:      0,
	}

	p.AddDomainEvent(NewPartnerCreatedEvent(p))

	return p, nil
}

// Update updates the partner's basic information
func (p *Partner) Update(name string) error {
	if err := validatePartnerName(name); err != nil {
		return err
	}

	p.Name = name
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerUpdatedEvent(p))

	return nil
}

// UpdateCode updates the partner's code
func (p *Partner) UpdateCode(code string) error {
	if err := validatePartnerCode(code); err != nil {
		return err
	}

	p.Code = strings.ToUpper(code)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerUpdatedEvent(p))

	return nil
}

// SetContact sets the partner's contact information
func (p *Partner) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	p.ContactName = contactName
	p.Phone = phone
	p.Email = email
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetAddress sets the partner's address
func (p *Partner) SetAddress(address string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	p.Address = address
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetNotes sets the partner's notes
func (p *Partner) SetNotes(notes string) {
	p.Notes = notes
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetLeadTimeDays sets the contracted turnaround time in days.
// A lead time of zero means no expected return date is prefilled on dispatch.
func (p *Partner) SetLeadTimeDays(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_LEAD_TIME", "Lead time days cannot be negative")
	}
	if days > 365 {
		return shared.NewDomainError("INVALID_LEAD_TIME", "Lead time days cannot exceed 365")
	}

	oldDays := p.LeadTimeDays
	p.LeadTimeDays = days
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerTermsChangedEvent(p, oldDays, days, p.RequiresReturnQC, p.RequiresReturnQC))

	return nil
}

// SetReturnQC sets whether receipts from this partner must carry a QC outcome.
// Changing the flag only affects receipts recorded after the change.
func (p *Partner) SetReturnQC(required bool) {
	if p.RequiresReturnQC == required {
		return
	}

	old := p.RequiresReturnQC
	p.RequiresReturnQC = required
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerTermsChangedEvent(p, p.LeadTimeDays, p.LeadTimeDays, old, required))
}

// AddProcess adds a process type to the partner's approved set
func (p *Partner) AddProcess(t valueobject.ProcessType) error {
	if !t.IsValid() {
		return shared.NewDomainError("INVALID_PROCESS_TYPE", fmt.Sprintf("Unknown process type: %s", t))
	}
	if p.Processes.Contains(t) {
		return shared.NewDomainError("ALREADY_EXISTS", "Partner already supports this process type")
	}

	p.Processes = p.Processes.Add(t)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerProcessesChangedEvent(p))

	return nil
}

// RemoveProcess removes a process type from the partner's approved set.
// Moves already dispatched under the removed process are unaffected.
func (p *Partner) RemoveProcess(t valueobject.ProcessType) error {
	if !p.Processes.Contains(t) {
		return shared.NewDomainError("NOT_FOUND", "Partner does not support this process type")
	}
	if len(p.Processes) == 1 {
		return shared.NewDomainError("INVALID_PROCESS_TYPE", "Partner must retain at least one process type")
	}

	p.Processes = p.Processes.Remove(t)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerProcessesChangedEvent(p))

	return nil
}

// Activate activates the partner
func (p *Partner) Activate() error {
	if p.Status == PartnerStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Partner is already active")
	}

	oldStatus := p.Status
	p.Status = PartnerStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerStatusChangedEvent(p, oldStatus, PartnerStatusActive))

	return nil
}

// Deactivate deactivates the partner. Deactivation never deletes: moves
// already dispatched to the partner stay attributable to it.
func (p *Partner) Deactivate() error {
	if p.Status == PartnerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Partner is already inactive")
	}

	oldStatus := p.Status
	p.Status = PartnerStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartnerStatusChangedEvent(p, oldStatus, PartnerStatusInactive))

	return nil
}

// IsActive returns true if the partner is active
func (p *Partner) IsActive() bool {
	return p.Status == PartnerStatusActive
}

// Supports returns true if the partner is approved for the process type
func (p *Partner) Supports(t valueobject.ProcessType) bool {
	return p.Processes.Contains(t)
}

// Validation functions

func validatePartnerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Partner code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Partner code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Partner code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validatePartnerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Partner name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Partner name cannot exceed 200 characters")
	}
	return nil
}

func validateProcessList(processes []valueobject.ProcessType) (valueobject.ProcessTypeList, error) {
	list, err := valueobject.NewProcessTypeList(processes)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PROCESS_TYPE", err.Error())
	}
	if len(list) == 0 {
		return nil, shared.NewDomainError("INVALID_PROCESS_TYPE", "Partner must support at least one process type")
	}
	return list, nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
