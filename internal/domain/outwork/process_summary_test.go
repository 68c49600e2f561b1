package outwork

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeByProcess(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	activeView := func(process valueobject.ProcessType, outstanding int, overdue bool, dispatch time.Time) ReconciledMoveView {
		return ReconciledMoveView{
			MoveID:              uuid.New(),
			PartnerID:           uuid.New(),
			ProcessType:         process,
			QuantitySent:        outstanding + 10,
			QuantityReceived:    10,
			QuantityOutstanding: outstanding,
			Status:              MoveStatusPartiallyReceived,
			DispatchDate:        dispatch,
			IsOverdue:           overdue,
		}
	}

	t.Run("groups active moves by process", func(t *testing.T) {
		dispatch := asOf.AddDate(0, 0, -5)
		views := []ReconciledMoveView{
			activeView(valueobject.ProcessBuffing, 30, false, dispatch),
			activeView(valueobject.ProcessBuffing, 20, true, dispatch),
			activeView(valueobject.ProcessPlating, 75, false, dispatch),
		}

		summaries := SummarizeByProcess(views, asOf)

		require.Len(t, summaries, 2)
		buffing := summaries[valueobject.ProcessBuffing]
		assert.Equal(t, 50, buffing.PieceCountOutstanding)
		assert.Equal(t, 2, buffing.ActiveMoveCount)
		assert.Equal(t, 1, buffing.OverdueCount)

		plating := summaries[valueobject.ProcessPlating]
		assert.Equal(t, 75, plating.PieceCountOutstanding)
		assert.Equal(t, 1, plating.ActiveMoveCount)
		assert.Equal(t, 0, plating.OverdueCount)
	})

	t.Run("voided and completed moves contribute nothing", func(t *testing.T) {
		dispatch := asOf.AddDate(0, 0, -5)
		voided := activeView(valueobject.ProcessForging, 40, false, dispatch)
		voided.Voided = true
		full := ReconciledMoveView{
			MoveID:       uuid.New(),
			ProcessType:  valueobject.ProcessBlasting,
			QuantitySent: 50,
			Status:       MoveStatusReceivedFull,
			DispatchDate: dispatch,
		}

		summaries := SummarizeByProcess([]ReconciledMoveView{voided, full}, asOf)

		assert.Empty(t, summaries)
	})

	t.Run("average wait is the mean hours since dispatch", func(t *testing.T) {
		views := []ReconciledMoveView{
			activeView(valueobject.ProcessBuffing, 10, false, asOf.Add(-48*time.Hour)),
			activeView(valueobject.ProcessBuffing, 10, false, asOf.Add(-24*time.Hour)),
		}

		summaries := SummarizeByProcess(views, asOf)

		buffing := summaries[valueobject.ProcessBuffing]
		assert.True(t, buffing.AverageWaitHours.Equal(decimal.NewFromInt(36)),
			"expected 36 hours, got %s", buffing.AverageWaitHours)
	})

	t.Run("dispatch in the future contributes zero wait", func(t *testing.T) {
		views := []ReconciledMoveView{
			activeView(valueobject.ProcessBuffing, 10, false, asOf.Add(12*time.Hour)),
		}

		summaries := SummarizeByProcess(views, asOf)

		buffing := summaries[valueobject.ProcessBuffing]
		assert.True(t, buffing.AverageWaitHours.IsZero())
	})

	t.Run("pieces outstanding are conserved across buckets", func(t *testing.T) {
		dispatch := asOf.AddDate(0, 0, -3)
		views := []ReconciledMoveView{
			activeView(valueobject.ProcessBuffing, 30, false, dispatch),
			activeView(valueobject.ProcessPlating, 45, true, dispatch),
			activeView(valueobject.ProcessForging, 25, false, dispatch),
			activeView(valueobject.ProcessBuffing, 15, false, dispatch),
		}
		totalActive := 0
		for _, v := range views {
			totalActive += v.QuantityOutstanding
		}

		summaries := SummarizeByProcess(views, asOf)

		totalBuckets := 0
		for _, s := range summaries {
			totalBuckets += s.PieceCountOutstanding
		}
		assert.Equal(t, totalActive, totalBuckets)
	})

	t.Run("no active moves yields an empty summary", func(t *testing.T) {
		summaries := SummarizeByProcess(nil, asOf)

		assert.Empty(t, summaries)
	})
}

func TestSortedProcessSummaries(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	dispatch := asOf.AddDate(0, 0, -2)

	views := []ReconciledMoveView{
		{MoveID: uuid.New(), ProcessType: valueobject.ProcessPlating, QuantityOutstanding: 10, Status: MoveStatusSent, DispatchDate: dispatch},
		{MoveID: uuid.New(), ProcessType: valueobject.ProcessBlasting, QuantityOutstanding: 20, Status: MoveStatusSent, DispatchDate: dispatch},
		{MoveID: uuid.New(), ProcessType: valueobject.ProcessForging, QuantityOutstanding: 30, Status: MoveStatusSent, DispatchDate: dispatch},
	}

	sorted := SortedProcessSummaries(SummarizeByProcess(views, asOf))

	require.Len(t, sorted, 3)
	assert.Equal(t, valueobject.ProcessBlasting, sorted[0].ProcessType)
	assert.Equal(t, valueobject.ProcessForging, sorted[1].ProcessType)
	assert.Equal(t, valueobject.ProcessPlating, sorted[2].ProcessType)
}
