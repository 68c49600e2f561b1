package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	outworkapp "github.com/shopfloor/backend/internal/application/outwork"
)

// MoveHandler handles outwork move and receipt API endpoints
type MoveHandler struct {
	BaseHandler
	moveService *outworkapp.MoveService
}

// NewMoveHandler creates a new MoveHandler
func NewMoveHandler(moveService *outworkapp.MoveService) *MoveHandler {
	return &MoveHandler{
		moveService: moveService,
	}
}

// CreateMoveRequest represents a request to dispatch material to a partner
// @Description Request body for dispatching material to an external processing partner
type CreateMoveRequest struct {
	WorkOrderID        string     `json:"work_order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	PartnerID          string     `json:"partner_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	ProcessType        string     `json:"process_type" binding:"required,oneof=forging plating buffing blasting heat_treatment job_work" example:"plating"`
	QuantitySent       int        `json:"quantity_sent" binding:"required,gt=0" example:"500"`
	DispatchDate       time.Time  `json:"dispatch_date" binding:"required" example:"2026-08-20T00:00:00Z"`
	ExpectedReturnDate *time.Time `json:"expected_return_date" example:"2026-08-27T00:00:00Z"`
	ChallanNo          string     `json:"challan_no" binding:"max=100" example:"CH-2026-0042"`
	Remarks            string     `json:"remarks" binding:"max=500" example:"Nickel plating, 20 micron"`
}

// VoidMoveRequest represents a request to void a mistaken dispatch entry
// @Description Request body for voiding a move
type VoidMoveRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255" example:"Duplicate entry, challan CH-2026-0042 already recorded"`
}

// RecordReceiptRequest represents a request to record returned material
// @Description Request body for recording material returned from a partner
type RecordReceiptRequest struct {
	QuantityReceived int       `json:"quantity_received" binding:"required,gt=0" example:"200"`
	ReceivedDate     time.Time `json:"received_date" binding:"required" example:"2026-08-25T00:00:00Z"`
	QCOutcome        string    `json:"qc_outcome" binding:"omitempty,oneof=pass fail pending" example:"pass"`
	ChallanNo        string    `json:"challan_no" binding:"max=100" example:"RCH-2026-0107"`
	Remarks          string    `json:"remarks" binding:"max=500" example:"Two cartons, second pending count"`
}

// ReceiptsRegisterRequest represents query options for the receipts register
// @Description Query parameters for the date-ranged receipts register
type ReceiptsRegisterRequest struct {
	From     string `form:"from" binding:"required"`
	To       string `form:"to" binding:"required"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
}

// Create godoc
// @ID           createMove
// @Summary      Dispatch material to a partner
// @Description  Record a new outwork move sending material to an external processing partner
// @Tags         moves
// @Accept       json
// @Produce      json
// @Param        request body CreateMoveRequest true "Move creation request"
// @Success      201 {object} APIResponse[outworkapp.MoveResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse "Partner inactive or process not supported"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves [post]
func (h *MoveHandler) Create(c *gin.Context) {
	var req CreateMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	workOrderID, err := uuid.Parse(req.WorkOrderID)
	if err != nil {
		h.BadRequest(c, "Invalid work order ID format")
		return
	}
	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	// Get user ID from JWT context (optional, for audit trail)
	userID, _ := getUserID(c)

	appReq := outworkapp.CreateMoveRequest{
		WorkOrderID:        workOrderID,
		PartnerID:          partnerID,
		ProcessType:        req.ProcessType,
		QuantitySent:       req.QuantitySent,
		DispatchDate:       req.DispatchDate,
		ExpectedReturnDate: req.ExpectedReturnDate,
		ChallanNo:          req.ChallanNo,
		Remarks:            req.Remarks,
	}
	if userID != uuid.Nil {
		appReq.CreatedBy = &userID
	}

	move, err := h.moveService.CreateMove(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, move)
}

// GetByID godoc
// @ID           getMoveById
// @Summary      Get move by ID
// @Description  Retrieve a move with its receipt-ledger reconciled quantities
// @Tags         moves
// @Produce      json
// @Param        id path string true "Move ID" format(uuid)
// @Success      200 {object} APIResponse[outworkapp.ReconciledMoveResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/{id} [get]
func (h *MoveHandler) GetByID(c *gin.Context) {
	moveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	move, err := h.moveService.GetMove(c.Request.Context(), moveID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, move)
}

// List godoc
// @ID           listMoves
// @Summary      List moves
// @Description  Retrieve a paginated list of moves with optional filtering
// @Tags         moves
// @Produce      json
// @Param        work_order_id query string false "Work order ID" format(uuid)
// @Param        partner_id query string false "Partner ID" format(uuid)
// @Param        process query string false "Process type" Enums(forging, plating, buffing, blasting, heat_treatment, job_work)
// @Param        status query string false "Move status" Enums(sent, partially_received, received_full)
// @Param        overdue query bool false "Only moves past their expected return date"
// @Param        include_voided query bool false "Include voided moves"
// @Param        dispatch_from query string false "Dispatched on or after (ISO 8601)" format(date-time)
// @Param        dispatch_to query string false "Dispatched on or before (ISO 8601)" format(date-time)
// @Param        search query string false "Search term (challan number, remarks)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(dispatch_date)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]outworkapp.MoveListResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves [get]
func (h *MoveHandler) List(c *gin.Context) {
	var filter outworkapp.MoveListFilter
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

	moves, total, err := h.moveService.ListMoves(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, moves, total, filter.Page, filter.PageSize)
}

// ListByWorkOrder godoc
// @ID           listMovesByWorkOrder
// @Summary      List moves for a work order
// @Description  Retrieve all moves dispatched against a specific work order
// @Tags         moves
// @Produce      json
// @Param        id path string true "Work Order ID" format(uuid)
// @Param        include_voided query bool false "Include voided moves"
// @Success      200 {object} APIResponse[[]outworkapp.MoveListResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/work-orders/{id}/moves [get]
func (h *MoveHandler) ListByWorkOrder(c *gin.Context) {
	workOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid work order ID format")
		return
	}

	var filter outworkapp.MoveListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	moves, err := h.moveService.ListMovesByWorkOrder(c.Request.Context(), workOrderID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, moves)
}

// ListOverdue godoc
// @ID           listOverdueMoves
// @Summary      List overdue moves
// @Description  Retrieve open moves past their expected return date, with reconciled quantities
// @Tags         moves
// @Produce      json
// @Param        partner_id query string false "Partner ID" format(uuid)
// @Param        process query string false "Process type" Enums(forging, plating, buffing, blasting, heat_treatment, job_work)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]outworkapp.ReconciledMoveResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/overdue [get]
func (h *MoveHandler) ListOverdue(c *gin.Context) {
	var filter outworkapp.MoveListFilter
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

	moves, total, err := h.moveService.ListOverdue(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, moves, total, filter.Page, filter.PageSize)
}

// Void godoc
// @ID           voidMove
// @Summary      Void a move
// @Description  Void a mistaken dispatch entry; only moves with no receipts can be voided
// @Tags         moves
// @Accept       json
// @Produce      json
// @Param        id path string true "Move ID" format(uuid)
// @Param        request body VoidMoveRequest true "Void request with reason"
// @Success      200 {object} APIResponse[outworkapp.MoveResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse "Move has receipts on record"
// @Failure      422 {object} dto.ErrorResponse "Move already voided"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/{id}/void [post]
func (h *MoveHandler) Void(c *gin.Context) {
	moveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	var req VoidMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	move, err := h.moveService.VoidMove(c.Request.Context(), moveID, outworkapp.VoidMoveRequest{
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, move)
}

// RecordReceipt godoc
// @ID           recordReceipt
// @Summary      Record a receipt against a move
// @Description  Record returned material; the response carries the receipt and the reconciled move
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Param        id path string true "Move ID" format(uuid)
// @Param        request body RecordReceiptRequest true "Receipt request"
// @Success      201 {object} APIResponse[outworkapp.RecordReceiptResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse "Over-receipt, QC outcome missing, or move voided"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/{id}/receipts [post]
func (h *MoveHandler) RecordReceipt(c *gin.Context) {
	moveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	var req RecordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	// Get user ID from JWT context (optional, for audit trail)
	userID, _ := getUserID(c)

	appReq := outworkapp.RecordReceiptRequest{
		QuantityReceived: req.QuantityReceived,
		ReceivedDate:     req.ReceivedDate,
		QCOutcome:        req.QCOutcome,
		ChallanNo:        req.ChallanNo,
		Remarks:          req.Remarks,
	}
	if userID != uuid.Nil {
		appReq.RecordedBy = &userID
	}

	result, err := h.moveService.RecordReceipt(c.Request.Context(), moveID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListReceipts godoc
// @ID           listMoveReceipts
// @Summary      List receipts for a move
// @Description  Retrieve the receipt ledger for a move, oldest first
// @Tags         receipts
// @Produce      json
// @Param        id path string true "Move ID" format(uuid)
// @Success      200 {object} APIResponse[[]outworkapp.ReceiptResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/{id}/receipts [get]
func (h *MoveHandler) ListReceipts(c *gin.Context) {
	moveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	receipts, err := h.moveService.ListReceipts(c.Request.Context(), moveID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipts)
}

// ReceiptsRegister godoc
// @ID           listReceiptsRegister
// @Summary      Receipts register
// @Description  Retrieve all receipts recorded within a date range, for challan cross-checks
// @Tags         receipts
// @Produce      json
// @Param        from query string true "Start date (YYYY-MM-DD)" format(date)
// @Param        to query string true "End date (YYYY-MM-DD)" format(date)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]outworkapp.ReceiptResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/receipts [get]
func (h *MoveHandler) ReceiptsRegister(c *gin.Context) {
	var req ReceiptsRegisterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter, err := h.parseReceiptsRegisterFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipts, err := h.moveService.ListReceiptsByDateRange(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, receipts)
}

// Verify godoc
// @ID           verifyMove
// @Summary      Verify a move's ledger consistency
// @Description  Cross-check the stored move status against the SQL-summed receipt ledger
// @Tags         moves
// @Produce      json
// @Param        id path string true "Move ID" format(uuid)
// @Success      200 {object} APIResponse[outworkapp.MoveVerificationResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/{id}/verify [get]
func (h *MoveHandler) Verify(c *gin.Context) {
	moveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	result, err := h.moveService.VerifyMove(c.Request.Context(), moveID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ===================== Helper Functions =====================

func (h *MoveHandler) parseReceiptsRegisterFilter(req ReceiptsRegisterRequest) (outworkapp.ReceiptListFilter, error) {
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return outworkapp.ReceiptListFilter{}, errors.New("from: Invalid date format, expected YYYY-MM-DD")
	}

	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return outworkapp.ReceiptListFilter{}, errors.New("to: Invalid date format, expected YYYY-MM-DD")
	}

	// Set end date to end of day
	to = to.Add(24*time.Hour - time.Second)

	return outworkapp.ReceiptListFilter{
		From:     from,
		To:       to,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
