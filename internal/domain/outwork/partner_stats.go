package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultStatsWindowDays is the trailing window used for partner performance
// when the caller does not specify one.
const DefaultStatsWindowDays = 90

// PartnerStats summarizes a partner's recent delivery performance.
// ActiveMoves and OverdueMoves count every open move regardless of age; the
// on-time rate is computed over the trailing window only.
type PartnerStats struct {
	PartnerID               uuid.UUID       `json:"partner_id"`
	WindowDays              int             `json:"window_days"`
	AsOf                    time.Time       `json:"as_of"`
	ActiveMoves             int             `json:"active_moves"`
	OverdueMoves            int             `json:"overdue_moves"`
	OnTimeReturnRatePercent decimal.Decimal `json:"on_time_return_rate_percent"`
	// HasData distinguishes a genuine 0% from an empty sample. A partner
	// with no completed moves in the window reports 0% and HasData false,
	// never a flattering 100%.
	HasData    bool `json:"has_data"`
	SampleSize int  `json:"sample_size"` // Completed moves in the window (the rate's denominator)
}

// ComputePartnerStats folds the partner's reconciled move views into a
// performance summary. It is a pure read: the same views, window, and asOf
// always produce the same stats.
//
// The trailing-window set is moves dispatched within [asOf-windowDays, asOf].
// Moves still outstanding inside the window are excluded from the on-time
// denominator; they have not yet met or missed their commitment. Voided
// moves never count anywhere.
func ComputePartnerStats(partnerID uuid.UUID, views []ReconciledMoveView, windowDays int, asOf time.Time) PartnerStats {
	if windowDays <= 0 {
		windowDays = DefaultStatsWindowDays
	}

	stats := PartnerStats{
		PartnerID:               partnerID,
		WindowDays:              windowDays,
		AsOf:                    asOf,
		OnTimeReturnRatePercent: decimal.Zero,
	}

	windowStart := dateOnly(asOf).AddDate(0, 0, -windowDays)
	windowEnd := dateOnly(asOf)

	completed := 0
	onTime := 0

	for i := range views {
		v := &views[i]
		if v.PartnerID != partnerID || v.Voided {
			continue
		}

		if v.IsActive() {
			stats.ActiveMoves++
			if v.IsOverdue {
				stats.OverdueMoves++
			}
		}

		dispatch := dateOnly(v.DispatchDate)
		inWindow := !dispatch.Before(windowStart) && !dispatch.After(windowEnd)
		if !inWindow || v.Status != MoveStatusReceivedFull {
			continue
		}

		completed++
		if v.IsOnTime() {
			onTime++
		}
	}

	stats.SampleSize = completed
	if completed > 0 {
		stats.HasData = true
		stats.OnTimeReturnRatePercent = decimal.NewFromInt(int64(onTime)).
			Div(decimal.NewFromInt(int64(completed))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return stats
}
