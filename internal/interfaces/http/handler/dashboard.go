package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dashboardapp "github.com/shopfloor/backend/internal/application/dashboard"
)

// DashboardHandler handles dashboard and reporting API endpoints
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboardapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *dashboardapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// PartnerStatsQueryRequest represents query options for partner performance stats
// @Description Query parameters for partner performance stats
type PartnerStatsQueryRequest struct {
	WindowDays int    `form:"window_days" binding:"min=0,max=365"`
	AsOf       string `form:"as_of"`
}

// ScoreboardQueryRequest represents query options for the partner scoreboard
// @Description Query parameters for the partner scoreboard
type ScoreboardQueryRequest struct {
	WindowDays int `form:"window_days" binding:"min=0,max=365"`
}

// PartnerStats godoc
// @ID           getPartnerStats
// @Summary      Get partner performance stats
// @Description  Delivery performance for one partner: on-time rate, overdue count, outstanding pieces
// @Tags         dashboard
// @Produce      json
// @Param        id path string true "Partner ID" format(uuid)
// @Param        window_days query int false "Stats window in days" default(90) maximum(365)
// @Param        as_of query string false "Evaluate as of this date (YYYY-MM-DD)" format(date)
// @Success      200 {object} APIResponse[dashboardapp.PartnerStatsResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse "Partner not found"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/partners/{id}/stats [get]
func (h *DashboardHandler) PartnerStats(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid partner ID format")
		return
	}

	var req PartnerStatsQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter, err := h.parsePartnerStatsFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stats, err := h.dashboardService.GetPartnerStats(c.Request.Context(), partnerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// ProcessSummary godoc
// @ID           getProcessSummary
// @Summary      Get process load summary
// @Description  Outstanding pieces, active moves, and overdue counts grouped by process stage
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboardapp.ProcessSummaryListResponse]
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/process-summary [get]
func (h *DashboardHandler) ProcessSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetProcessSummary(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// Scoreboard godoc
// @ID           getPartnerScoreboard
// @Summary      Get partner scoreboard
// @Description  Performance stats for every active partner, ordered by partner code
// @Tags         dashboard
// @Produce      json
// @Param        window_days query int false "Stats window in days" default(90) maximum(365)
// @Success      200 {object} APIResponse[dashboardapp.ScoreboardResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/scoreboard [get]
func (h *DashboardHandler) Scoreboard(c *gin.Context) {
	var req ScoreboardQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	scoreboard, err := h.dashboardService.GetPartnerScoreboard(c.Request.Context(), dashboardapp.ScoreboardFilter{
		WindowDays: req.WindowDays,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, scoreboard)
}

// ===================== Helper Functions =====================

func (h *DashboardHandler) parsePartnerStatsFilter(req PartnerStatsQueryRequest) (dashboardapp.PartnerStatsFilter, error) {
	filter := dashboardapp.PartnerStatsFilter{
		WindowDays: req.WindowDays,
	}

	if req.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			return filter, errors.New("as_of: Invalid date format, expected YYYY-MM-DD")
		}
		// Evaluate at end of day so moves dispatched that day count
		asOf = asOf.Add(24*time.Hour - time.Second)
		filter.AsOf = &asOf
	}

	return filter, nil
}
