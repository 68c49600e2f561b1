package outwork

import (
	"sort"
	"time"

	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProcessSummary describes the load currently sitting at one process stage:
// how many pieces are out, across how many moves, how many of those are
// late, and how long they have been waiting on average.
type ProcessSummary struct {
	ProcessType           valueobject.ProcessType `json:"process_type"`
	PieceCountOutstanding int                     `json:"piece_count_outstanding"`
	ActiveMoveCount       int                     `json:"active_move_count"`
	OverdueCount          int                     `json:"overdue_count"`
	AverageWaitHours      decimal.Decimal         `json:"average_wait_hours"`
}

// SummarizeByProcess folds the reconciled views of active moves into
// per-process load buckets. It is a pure fold: no state survives between
// calls, so it is safe to recompute on every dashboard refresh tick.
// Voided and fully received moves contribute nothing.
//
// AverageWaitHours is the mean of (asOf - dispatch) across the bucket's
// active moves, zero when the bucket would otherwise divide by zero.
func SummarizeByProcess(views []ReconciledMoveView, asOf time.Time) map[valueobject.ProcessType]ProcessSummary {
	type bucket struct {
		summary     ProcessSummary
		waitSeconds int64
	}
	buckets := make(map[valueobject.ProcessType]*bucket)

	for i := range views {
		v := &views[i]
		if !v.IsActive() {
			continue
		}

		b, ok := buckets[v.ProcessType]
		if !ok {
			b = &bucket{summary: ProcessSummary{
				ProcessType:      v.ProcessType,
				AverageWaitHours: decimal.Zero,
			}}
			buckets[v.ProcessType] = b
		}

		b.summary.PieceCountOutstanding += v.QuantityOutstanding
		b.summary.ActiveMoveCount++
		if v.IsOverdue {
			b.summary.OverdueCount++
		}
		if wait := asOf.Sub(v.DispatchDate); wait > 0 {
			b.waitSeconds += int64(wait.Seconds())
		}
	}

	result := make(map[valueobject.ProcessType]ProcessSummary, len(buckets))
	for process, b := range buckets {
		if b.summary.ActiveMoveCount > 0 {
			b.summary.AverageWaitHours = decimal.NewFromInt(b.waitSeconds).
				Div(decimal.NewFromInt(int64(b.summary.ActiveMoveCount) * 3600)).
				Round(2)
		}
		result[process] = b.summary
	}

	return result
}

// SortedProcessSummaries flattens a summary map into a slice ordered by
// process type name, for stable display and serialization.
func SortedProcessSummaries(summaries map[valueobject.ProcessType]ProcessSummary) []ProcessSummary {
	result := make([]ProcessSummary, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProcessType < result[j].ProcessType
	})
	return result
}
