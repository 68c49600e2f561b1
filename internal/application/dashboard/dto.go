package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Request DTOs
// =============================================================================

// PartnerStatsFilter represents query options for partner performance stats
type PartnerStatsFilter struct {
	WindowDays int        `form:"window_days" binding:"min=0,max=365"`
	AsOf       *time.Time `form:"as_of"`
}

// ScoreboardFilter represents query options for the partner scoreboard
type ScoreboardFilter struct {
	WindowDays int `form:"window_days" binding:"min=0,max=365"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// PartnerStatsResponse reports one partner's delivery performance
type PartnerStatsResponse struct {
	PartnerID               uuid.UUID       `json:"partner_id"`
	PartnerCode             string          `json:"partner_code"`
	PartnerName             string          `json:"partner_name"`
	WindowDays              int             `json:"window_days"`
	AsOf                    time.Time       `json:"as_of"`
	ActiveMoves             int             `json:"active_moves"`
	OverdueMoves            int             `json:"overdue_moves"`
	QuantityOutstanding     int             `json:"quantity_outstanding"`
	OnTimeReturnRatePercent decimal.Decimal `json:"on_time_return_rate_percent"`
	HasData                 bool            `json:"has_data"`
	SampleSize              int             `json:"sample_size"`
}

// ProcessSummaryResponse reports the load sitting at one process stage
type ProcessSummaryResponse struct {
	ProcessType           string          `json:"process_type"`
	PieceCountOutstanding int             `json:"piece_count_outstanding"`
	ActiveMoveCount       int             `json:"active_move_count"`
	OverdueCount          int             `json:"overdue_count"`
	AverageWaitHours      decimal.Decimal `json:"average_wait_hours"`
}

// ProcessSummaryListResponse reports the load across all process stages
type ProcessSummaryListResponse struct {
	AsOf      time.Time                `json:"as_of"`
	Processes []ProcessSummaryResponse `json:"processes"`
}

// ScoreboardResponse reports performance stats for every active partner
type ScoreboardResponse struct {
	AsOf       time.Time              `json:"as_of"`
	WindowDays int                    `json:"window_days"`
	Partners   []PartnerStatsResponse `json:"partners"`
}

// =============================================================================
// Conversion Functions
// =============================================================================

// ToPartnerStatsResponse merges the computed stats with the partner's
// identity and the total pieces currently sitting with them
func ToPartnerStatsResponse(stats outwork.PartnerStats, code, name string, outstanding int) PartnerStatsResponse {
	return PartnerStatsResponse{
		PartnerID:               stats.PartnerID,
		PartnerCode:             code,
		PartnerName:             name,
		WindowDays:              stats.WindowDays,
		AsOf:                    stats.AsOf,
		ActiveMoves:             stats.ActiveMoves,
		OverdueMoves:            stats.OverdueMoves,
		QuantityOutstanding:     outstanding,
		OnTimeReturnRatePercent: stats.OnTimeReturnRatePercent,
		HasData:                 stats.HasData,
		SampleSize:              stats.SampleSize,
	}
}

// ToProcessSummaryResponse converts a domain ProcessSummary to its response
func ToProcessSummaryResponse(s outwork.ProcessSummary) ProcessSummaryResponse {
	return ProcessSummaryResponse{
		ProcessType:           string(s.ProcessType),
		PieceCountOutstanding: s.PieceCountOutstanding,
		ActiveMoveCount:       s.ActiveMoveCount,
		OverdueCount:          s.OverdueCount,
		AverageWaitHours:      s.AverageWaitHours,
	}
}

// ToProcessSummaryResponses converts sorted domain summaries to responses
func ToProcessSummaryResponses(summaries []outwork.ProcessSummary) []ProcessSummaryResponse {
	responses := make([]ProcessSummaryResponse, len(summaries))
	for i, s := range summaries {
		responses[i] = ToProcessSummaryResponse(s)
	}
	return responses
}
