// Package integration provides integration testing for the shopfloor backend API.
// This file covers the dashboard endpoints: partner performance stats, the
// process load summary, and the partner scoreboard.
package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDashboardData dispatches a known set of moves and receipts:
//   - partner A (plating): one overdue open move of 100 with 30 back,
//     one fully returned move of 50 (returned before its deadline)
//   - partner B (forging): one open move of 80 with time to spare
func seedDashboardData(t *testing.T, ts *TestServer) (partnerA, partnerB string) {
	t.Helper()

	partnerA = createPartnerForMoves(t, ts, "DASH-OP-A", []string{"plating"}, false)
	partnerB = createPartnerForMoves(t, ts, "DASH-OP-B", []string{"forging"}, false)

	now := time.Now().UTC()
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format(time.RFC3339)
	}

	dispatch := func(partnerID, process string, qty, dispatchOffset, returnOffset int) string {
		reqBody := map[string]interface{}{
			"work_order_id":        uuid.New().String(),
			"partner_id":           partnerID,
			"process_type":         process,
			"quantity_sent":        qty,
			"dispatch_date":        day(dispatchOffset),
			"expected_return_date": day(returnOffset),
		}
		w := ts.Request(http.MethodPost, "/api/v1/outwork/moves", reqBody)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Data.(map[string]interface{})["id"].(string)
	}

	receive := func(moveID string, qty, offset int) {
		reqBody := map[string]interface{}{
			"quantity_received": qty,
			"received_date":     day(offset),
		}
		w := ts.Request(http.MethodPost, "/api/v1/outwork/moves/"+moveID+"/receipts", reqBody)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	// Partner A: overdue open move, 70 pieces still out
	overdueMove := dispatch(partnerA, "plating", 100, -20, -5)
	receive(overdueMove, 30, -10)

	// Partner A: closed on time
	closedMove := dispatch(partnerA, "plating", 50, -15, -2)
	receive(closedMove, 50, -8)

	// Partner B: open with time to spare
	dispatch(partnerB, "forging", 80, -3, 10)

	return partnerA, partnerB
}

// TestDashboardAPI_PartnerStats verifies the per-partner performance rollup
func TestDashboardAPI_PartnerStats(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)
	partnerA, _ := seedDashboardData(t, ts)

	t.Run("Stats for partner with history", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/dashboard/partners/"+partnerA+"/stats", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "DASH-OP-A", data["partner_code"])
		assert.Equal(t, float64(1), data["active_moves"])
		assert.Equal(t, float64(1), data["overdue_moves"])
		assert.Equal(t, float64(70), data["quantity_outstanding"])
		assert.Equal(t, true, data["has_data"])
		// One completed move, returned ahead of its deadline
		assert.Equal(t, float64(1), data["sample_size"])
		assert.Equal(t, "100", data["on_time_return_rate_percent"])
	})

	t.Run("Stats for partner with no history", func(t *testing.T) {
		emptyPartner := createPartnerForMoves(t, ts, "DASH-OP-EMPTY", []string{"job_work"}, false)

		w := ts.Request(http.MethodGet, "/api/v1/dashboard/partners/"+emptyPartner+"/stats", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, false, data["has_data"])
		assert.Equal(t, float64(0), data["active_moves"])
		assert.Equal(t, float64(0), data["sample_size"])
	})

	t.Run("Stats for unknown partner", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/dashboard/partners/"+uuid.New().String()+"/stats", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid as_of is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/dashboard/partners/"+partnerA+"/stats?as_of=last-tuesday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Window beyond a year is rejected", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/dashboard/partners/"+partnerA+"/stats?window_days=400", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestDashboardAPI_ProcessSummary verifies the floor-level process load view
func TestDashboardAPI_ProcessSummary(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)
	seedDashboardData(t, ts)

	w := ts.Request(http.MethodGet, "/api/v1/dashboard/process-summary", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	processes := data["processes"].([]interface{})

	byProcess := make(map[string]map[string]interface{})
	for _, p := range processes {
		row := p.(map[string]interface{})
		byProcess[row["process_type"].(string)] = row
	}

	// Completed moves drop out; only the open plating and forging moves remain
	plating, ok := byProcess["plating"]
	require.True(t, ok, "expected a plating row, got %v", byProcess)
	assert.Equal(t, float64(70), plating["piece_count_outstanding"])
	assert.Equal(t, float64(1), plating["active_move_count"])
	assert.Equal(t, float64(1), plating["overdue_count"])

	forging, ok := byProcess["forging"]
	require.True(t, ok)
	assert.Equal(t, float64(80), forging["piece_count_outstanding"])
	assert.Equal(t, float64(1), forging["active_move_count"])
	assert.Equal(t, float64(0), forging["overdue_count"])
}

// TestDashboardAPI_Scoreboard verifies the all-partners rollup
func TestDashboardAPI_Scoreboard(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)
	seedDashboardData(t, ts)

	w := ts.Request(http.MethodGet, "/api/v1/dashboard/scoreboard", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	partners := data["partners"].([]interface{})
	require.Len(t, partners, 2)

	// Ordered by partner code
	first := partners[0].(map[string]interface{})
	second := partners[1].(map[string]interface{})
	assert.Equal(t, "DASH-OP-A", first["partner_code"])
	assert.Equal(t, "DASH-OP-B", second["partner_code"])

	assert.Equal(t, float64(1), first["overdue_moves"])
	assert.Equal(t, float64(0), second["overdue_moves"])
	assert.Equal(t, float64(80), second["quantity_outstanding"])
}
