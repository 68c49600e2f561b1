package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	partnerapp "github.com/shopfloor/backend/internal/application/partner"
)

// PartnerHandler handles processing partner API endpoints
type PartnerHandler struct {
	BaseHandler
	partnerService *partnerapp.PartnerService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(partnerService *partnerapp.PartnerService) *PartnerHandler {
	return &PartnerHandler{
		partnerService: partnerService,
	}
}

// CreatePartnerRequest represents a request to create a new processing partner
// @Description Request body for creating a new processing partner
type CreatePartnerRequest struct {
	Code             string   `json:"code" binding:"required,min=1,max=50" example:"FORGE-01"`
	Name             string   `json:"name" binding:"required,min=1,max=200" example:"Sharma Forging Works"`
	Processes        []string `json:"processes" binding:"required,min=1" example:"forging,heat_treatment"`
	RequiresReturnQC *bool    `json:"requires_return_qc" example:"true"`
	LeadTimeDays     *int     `json:"lead_time_days" binding:"omitempty,min=0,max=365" example:"7"`
	ContactName      string   `json:"contact_name" binding:"max=100" example:"Ramesh Sharma"`
	Phone            string   `json:"phone" binding:"max=50" example:"9876543210"`
	Email            string   `json:"email" binding:"omitempty,email,max=200" example:"office@sharmaforge.in"`
	Address          string   `json:"address" binding:"max=500" example:"Plot 14, MIDC Phase II"`
	Notes            string   `json:"notes" example:"Handles heavy sections"`
}

// UpdatePartnerRequest represents a request to update a partner
// @Description Request body for updating a partner
type UpdatePartnerRequest struct {
	Name             *string `json:"name" binding:"omitempty,min=1,max=200" example:"Sharma Forging Works Pvt Ltd"`
	RequiresReturnQC *bool   `json:"requires_return_qc" example:"false"`
	LeadTimeDays     *int    `json:"lead_time_days" binding:"omitempty,min=0,max=365" example:"10"`
	ContactName      *string `json:"contact_name" binding:"omitempty,max=100" example:"Suresh Sharma"`
	Phone            *string `json:"phone" binding:"omitempty,max=50" example:"9123456780"`
	Email            *string `json:"email" binding:"omitempty,email,max=200" example:"accounts@sharmaforge.in"`
	Address          *string `json:"address" binding:"omitempty,max=500" example:"Plot 15, MIDC Phase II"`
	Notes            *string `json:"notes" example:"Updated notes"`
}

// UpdatePartnerCodeRequest represents a request to update a partner's code
// @Description Request body for updating a partner's code
type UpdatePartnerCodeRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50" example:"FORGE-02"`
}

// PartnerProcessRequest represents a request to add a supported process
// @Description Request body for adding a process to a partner's capability list
type PartnerProcessRequest struct {
	Process string `json:"process" binding:"required,oneof=forging plating buffing blasting heat_treatment job_work" example:"plating"`
}

// Create godoc
// @ID           createPartner
// @Summary      Create a new processing partner
// @Description  Register a new external processing partner in the directory
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        request body CreatePartnerRequest true "Partner creation request"
// @Success      201 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse "Code already in use"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners [post]
func (h *PartnerHandler) Create(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	// Get user ID from JWT context (optional, for audit trail)
	userID, _ := getUserID(c)

	appReq := partnerapp.CreatePartnerRequest{
		Code:             req.Code,
		Name:             req.Name,
		Processes:        req.Processes,
		RequiresReturnQC: req.RequiresReturnQC,
		LeadTimeDays:     req.LeadTimeDays,
		ContactName:      req.ContactName,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		Notes:            req.Notes,
	}
	if userID != uuid.Nil {
		appReq.CreatedBy = &userID
	}

	partner, err := h.partnerService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, partner)
}

// GetByID godoc
// @ID           getPartnerById
// @Summary      Get partner by ID
// @Description  Retrieve a processing partner by its ID
// @Tags         partners
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id} [get]
func (h *PartnerHandler) GetByID(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	partner, err := h.partnerService.GetByID(c.Request.Context(), partnerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// GetByCode godoc
// @ID           getPartnerByCode
// @Summary      Get partner by code
// @Description  Retrieve a processing partner by its short code
// @Tags         partners
// @Produce      json
// @Param        code path string true "Partner Code"
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/code/{code} [get]
func (h *PartnerHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Partner code is required")
		return
	}

	partner, err := h.partnerService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// List godoc
// @ID           listPartners
// @Summary      List partners
// @Description  Retrieve a paginated list of processing partners with optional filtering
// @Tags         partners
// @Produce      json
// @Param        search query string false "Search term (name, code, contact, phone)"
// @Param        status query string false "Partner status" Enums(active, inactive)
// @Param        process query string false "Supported process" Enums(forging, plating, buffing, blasting, heat_treatment, job_work)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} APIResponse[[]partnerapp.PartnerListResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners [get]
func (h *PartnerHandler) List(c *gin.Context) {
	var filter partnerapp.PartnerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	partners, total, err := h.partnerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, partners, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updatePartner
// @Summary      Update a partner
// @Description  Update an existing partner's details
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Param        request body UpdatePartnerRequest true "Partner update request"
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id} [put]
func (h *PartnerHandler) Update(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	var req UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	appReq := partnerapp.UpdatePartnerRequest{
		Name:             req.Name,
		RequiresReturnQC: req.RequiresReturnQC,
		LeadTimeDays:     req.LeadTimeDays,
		ContactName:      req.ContactName,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		Notes:            req.Notes,
	}

	partner, err := h.partnerService.Update(c.Request.Context(), partnerID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// UpdateCode godoc
// @ID           updatePartnerCode
// @Summary      Update partner code
// @Description  Change a partner's short code
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Param        request body UpdatePartnerCodeRequest true "New partner code"
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse "Code already in use"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id}/code [put]
func (h *PartnerHandler) UpdateCode(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	var req UpdatePartnerCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	partner, err := h.partnerService.UpdateCode(c.Request.Context(), partnerID, req.Code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// AddProcess godoc
// @ID           addPartnerProcess
// @Summary      Add a supported process
// @Description  Add a process type to the partner's capability list
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Param        request body PartnerProcessRequest true "Process to add"
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id}/processes [post]
func (h *PartnerHandler) AddProcess(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	var req PartnerProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	partner, err := h.partnerService.AddProcess(c.Request.Context(), partnerID, req.Process)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// RemoveProcess godoc
// @ID           removePartnerProcess
// @Summary      Remove a supported process
// @Description  Remove a process type from the partner's capability list
// @Tags         partners
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Param        process path string true "Process type" Enums(forging, plating, buffing, blasting, heat_treatment, job_work)
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id}/processes/{process} [delete]
func (h *PartnerHandler) RemoveProcess(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	process := c.Param("process")
	if process == "" {
		h.BadRequest(c, "Process type is required")
		return
	}

	partner, err := h.partnerService.RemoveProcess(c.Request.Context(), partnerID, process)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// Activate godoc
// @ID           activatePartner
// @Summary      Activate a partner
// @Description  Mark a partner as active so new moves can be dispatched to them
// @Tags         partners
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse "Partner already active"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id}/activate [post]
func (h *PartnerHandler) Activate(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	partner, err := h.partnerService.Activate(c.Request.Context(), partnerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// Deactivate godoc
// @ID           deactivatePartner
// @Summary      Deactivate a partner
// @Description  Mark a partner as inactive; existing moves stay open, new dispatches are blocked
// @Tags         partners
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PartnerResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse "Partner already inactive"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id}/deactivate [post]
func (h *PartnerHandler) Deactivate(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	partner, err := h.partnerService.Deactivate(c.Request.Context(), partnerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, partner)
}

// Delete godoc
// @ID           deletePartner
// @Summary      Delete a partner
// @Description  Delete a partner that has no moves on record
// @Tags         partners
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse "Partner has moves on record"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/{id} [delete]
func (h *PartnerHandler) Delete(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	if err := h.partnerService.Delete(c.Request.Context(), partnerID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// CountByStatus godoc
// @ID           countPartnersByStatus
// @Summary      Count partners by status
// @Description  Returns the number of partners in each status
// @Tags         partners
// @Produce      json
// @Success      200 {object} APIResponse[StatusCountData]
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /partners/status-counts [get]
func (h *PartnerHandler) CountByStatus(c *gin.Context) {
	counts, err := h.partnerService.CountByStatus(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, StatusCountData{Counts: counts})
}
