package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/partner"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// PartnerService handles partner directory operations
type PartnerService struct {
	partnerRepo partner.PartnerRepository
	moveRepo    outwork.MoveRepository
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(partnerRepo partner.PartnerRepository) *PartnerService {
	return &PartnerService{
		partnerRepo: partnerRepo,
	}
}

// SetMoveRepo wires the move repository used for the delete guard
func (s *PartnerService) SetMoveRepo(moveRepo outwork.MoveRepository) {
	s.moveRepo = moveRepo
}

// Create creates a new processing partner
func (s *PartnerService) Create(ctx context.Context, req CreatePartnerRequest) (*PartnerResponse, error) {
	// Check if code already exists
	exists, err := s.partnerRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Partner with this code already exists")
	}

	// Create the partner
	processes := make([]valueobject.ProcessType, len(req.Processes))
	for i, p := range req.Processes {
		processes[i] = valueobject.ProcessType(p)
	}
	p, err := partner.NewPartner(req.Code, req.Name, processes)
	if err != nil {
		return nil, err
	}

	// Set QC mandate
	if req.RequiresReturnQC != nil {
		p.SetReturnQC(*req.RequiresReturnQC)
	}

	// Set lead time
	if req.LeadTimeDays != nil {
		if err := p.SetLeadTimeDays(*req.LeadTimeDays); err != nil {
			return nil, err
		}
	}

	// Set contact
	if req.ContactName != "" || req.Phone != "" || req.Email != "" {
		if err := p.SetContact(req.ContactName, req.Phone, req.Email); err != nil {
			return nil, err
		}
	}

	// Set address
	if req.Address != "" {
		if err := p.SetAddress(req.Address); err != nil {
			return nil, err
		}
	}

	// Set notes
	if req.Notes != "" {
		p.SetNotes(req.Notes)
	}

	// Save the partner
	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// GetByID retrieves a partner by ID
func (s *PartnerService) GetByID(ctx context.Context, partnerID uuid.UUID) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// GetByCode retrieves a partner by code
func (s *PartnerService) GetByCode(ctx context.Context, code string) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// List retrieves a list of partners with filtering and pagination
func (s *PartnerService) List(ctx context.Context, filter PartnerListFilter) ([]PartnerListResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "code"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	// Build domain filter
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}

	// Add specific filters
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Process != "" {
		domainFilter.Filters["process"] = filter.Process
	}

	// Get partners
	partners, err := s.partnerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	// Get total count
	total, err := s.partnerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPartnerListResponses(partners), total, nil
}

// Update updates a partner
func (s *PartnerService) Update(ctx context.Context, partnerID uuid.UUID, req UpdatePartnerRequest) (*PartnerResponse, error) {
	// Get existing partner
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	// Update name
	if req.Name != nil {
		if err := p.Update(*req.Name); err != nil {
			return nil, err
		}
	}

	// Update QC mandate
	if req.RequiresReturnQC != nil {
		p.SetReturnQC(*req.RequiresReturnQC)
	}

	// Update lead time
	if req.LeadTimeDays != nil {
		if err := p.SetLeadTimeDays(*req.LeadTimeDays); err != nil {
			return nil, err
		}
	}

	// Update contact
	if req.ContactName != nil || req.Phone != nil || req.Email != nil {
		contactName := p.ContactName
		phone := p.Phone
		email := p.Email

		if req.ContactName != nil {
			contactName = *req.ContactName
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}

		if err := p.SetContact(contactName, phone, email); err != nil {
			return nil, err
		}
	}

	// Update address
	if req.Address != nil {
		if err := p.SetAddress(*req.Address); err != nil {
			return nil, err
		}
	}

	// Update notes
	if req.Notes != nil {
		p.SetNotes(*req.Notes)
	}

	// Save the partner
	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// UpdateCode updates a partner's code
func (s *PartnerService) UpdateCode(ctx context.Context, partnerID uuid.UUID, newCode string) (*PartnerResponse, error) {
	// Get existing partner
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	// Check if new code already exists (if different from current)
	if newCode != p.Code {
		exists, err := s.partnerRepo.ExistsByCode(ctx, newCode)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Partner with this code already exists")
		}
	}

	// Update the code
	if err := p.UpdateCode(newCode); err != nil {
		return nil, err
	}

	// Save the partner
	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// AddProcess adds a process type to a partner's approved set
func (s *PartnerService) AddProcess(ctx context.Context, partnerID uuid.UUID, process string) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if err := p.AddProcess(valueobject.ProcessType(process)); err != nil {
		return nil, err
	}

	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// RemoveProcess removes a process type from a partner's approved set
func (s *PartnerService) RemoveProcess(ctx context.Context, partnerID uuid.UUID, process string) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if err := p.RemoveProcess(valueobject.ProcessType(process)); err != nil {
		return nil, err
	}

	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// Activate activates a partner
func (s *PartnerService) Activate(ctx context.Context, partnerID uuid.UUID) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if err := p.Activate(); err != nil {
		return nil, err
	}

	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// Deactivate deactivates a partner. Existing moves keep pointing at the
// partner; only new dispatches are blocked.
func (s *PartnerService) Deactivate(ctx context.Context, partnerID uuid.UUID) (*PartnerResponse, error) {
	p, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if err := p.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToPartnerResponse(p)
	return &response, nil
}

// Delete deletes a partner. Partners with dispatch history cannot be
// deleted; deactivate them instead so history stays attributable.
func (s *PartnerService) Delete(ctx context.Context, partnerID uuid.UUID) error {
	// Verify partner exists
	if _, err := s.partnerRepo.FindByID(ctx, partnerID); err != nil {
		return err
	}

	// Check for dispatch history
	if s.moveRepo != nil {
		moveCount, err := s.moveRepo.CountByPartner(ctx, partnerID)
		if err != nil {
			return err
		}
		if moveCount > 0 {
			return shared.NewDomainError("CANNOT_DELETE", "Cannot delete partner with dispatch history; deactivate it instead")
		}
	}

	return s.partnerRepo.Delete(ctx, partnerID)
}

// CountByStatus returns partner counts by status
func (s *PartnerService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)

	activeCount, err := s.partnerRepo.Count(ctx, shared.Filter{
		Filters: map[string]any{"status": string(partner.PartnerStatusActive)},
	})
	if err != nil {
		return nil, err
	}
	counts["active"] = activeCount

	inactiveCount, err := s.partnerRepo.Count(ctx, shared.Filter{
		Filters: map[string]any{"status": string(partner.PartnerStatusInactive)},
	})
	if err != nil {
		return nil, err
	}
	counts["inactive"] = inactiveCount

	counts["total"] = activeCount + inactiveCount

	return counts, nil
}
