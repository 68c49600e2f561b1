package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/partner"
)

// =============================================================================
// Partner DTOs
// =============================================================================

// CreatePartnerRequest represents a request to create a new processing partner
type CreatePartnerRequest struct {
	Code             string     `json:"code" binding:"required,min=1,max=50"`
	Name             string     `json:"name" binding:"required,min=1,max=200"`
	Processes        []string   `json:"processes" binding:"required,min=1"`
	RequiresReturnQC *bool      `json:"requires_return_qc"`
	LeadTimeDays     *int       `json:"lead_time_days" binding:"omitempty,min=0,max=365"`
	ContactName      string     `json:"contact_name" binding:"max=100"`
	Phone            string     `json:"phone" binding:"max=50"`
	Email            string     `json:"email" binding:"omitempty,email,max=200"`
	Address          string     `json:"address" binding:"max=500"`
	Notes            string     `json:"notes"`
	CreatedBy        *uuid.UUID `json:"-"` // Set from JWT context, not from request body
}

// UpdatePartnerRequest represents a request to update a partner
type UpdatePartnerRequest struct {
	Name             *string `json:"name" binding:"omitempty,min=1,max=200"`
	RequiresReturnQC *bool   `json:"requires_return_qc"`
	LeadTimeDays     *int    `json:"lead_time_days" binding:"omitempty,min=0,max=365"`
	ContactName      *string `json:"contact_name" binding:"omitempty,max=100"`
	Phone            *string `json:"phone" binding:"omitempty,max=50"`
	Email            *string `json:"email" binding:"omitempty,email,max=200"`
	Address          *string `json:"address" binding:"omitempty,max=500"`
	Notes            *string `json:"notes"`
}

// UpdatePartnerCodeRequest represents a request to update a partner's code
type UpdatePartnerCodeRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50"`
}

// PartnerProcessRequest represents a request to add or remove a supported process
type PartnerProcessRequest struct {
	Process string `json:"process" binding:"required"`
}

// PartnerResponse represents a partner in API responses
type PartnerResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Status           string    `json:"status"`
	Processes        []string  `json:"processes"`
	RequiresReturnQC bool      `json:"requires_return_qc"`
	LeadTimeDays     int       `json:"lead_time_days"`
	ContactName      string    `json:"contact_name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Address          string    `json:"address"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int       `json:"version"`
}

// PartnerListResponse represents a list item for partners
type PartnerListResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Status           string    `json:"status"`
	Processes        []string  `json:"processes"`
	RequiresReturnQC bool      `json:"requires_return_qc"`
	LeadTimeDays     int       `json:"lead_time_days"`
	ContactName      string    `json:"contact_name"`
	Phone            string    `json:"phone"`
	CreatedAt        time.Time `json:"created_at"`
}

// PartnerListFilter represents filter options for partner list
type PartnerListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Process  string `form:"process"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToPartnerResponse converts a domain Partner to PartnerResponse
func ToPartnerResponse(p *partner.Partner) PartnerResponse {
	return PartnerResponse{
		ID:               p.ID,
		Code:             p.Code,
		Name:             p.Name,
		Status:           string(p.Status),
		Processes:        p.Processes.Strings(),
		RequiresReturnQC: p.RequiresReturnQC,
		LeadTimeDays:     p.LeadTimeDays,
		ContactName:      p.ContactName,
		Phone:            p.Phone,
		Email:            p.Email,
		Address:          p.Address,
		Notes:            p.Notes,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
}

// ToPartnerListResponse converts a domain Partner to PartnerListResponse
func ToPartnerListResponse(p *partner.Partner) PartnerListResponse {
	return PartnerListResponse{
		ID:               p.ID,
		Code:             p.Code,
		Name:             p.Name,
		Status:           string(p.Status),
		Processes:        p.Processes.Strings(),
		RequiresReturnQC: p.RequiresReturnQC,
		LeadTimeDays:     p.LeadTimeDays,
		ContactName:      p.ContactName,
		Phone:            p.Phone,
		CreatedAt:        p.CreatedAt,
	}
}

// ToPartnerListResponses converts a slice of domain Partners to PartnerListResponses
func ToPartnerListResponses(partners []partner.Partner) []PartnerListResponse {
	responses := make([]PartnerListResponse, len(partners))
	for i, p := range partners {
		responses[i] = ToPartnerListResponse(&p)
	}
	return responses
}
