package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	dashboardapp "github.com/shopfloor/backend/internal/application/dashboard"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/partner"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// Test helpers

func setupDashboardTestRouter() (*gin.Engine, *MockMoveRepository, *MockReceiptRepository, *MockPartnerRepository, *DashboardHandler) {
	gin.SetMode(gin.TestMode)

	mockMoveRepo := new(MockMoveRepository)
	mockReceiptRepo := new(MockReceiptRepository)
	mockPartnerRepo := new(MockPartnerRepository)
	service := dashboardapp.NewDashboardService(mockMoveRepo, mockReceiptRepo, mockPartnerRepo)
	handler := NewDashboardHandler(service)

	router := gin.New()
	// Add test authentication middleware that sets JWT context values
	router.Use(func(c *gin.Context) {
		setJWTContext(c, uuid.MustParse("00000000-0000-0000-0000-000000000001"))
		c.Next()
	})

	return router, mockMoveRepo, mockReceiptRepo, mockPartnerRepo, handler
}

// Tests

func TestDashboardHandler_PartnerStats(t *testing.T) {
	t.Run("should compute partner stats over the trailing window", func(t *testing.T) {
		router, mockMoveRepo, mockReceiptRepo, mockPartnerRepo, handler := setupDashboardTestRouter()

		partnerID := uuid.New()
		testPartner := createTestPartner("FORGE-01")
		testPartner.ID = partnerID

		// Completed in window, returned on its commitment date
		completedMove := createTestMove(partnerID, 100)
		completedDue := completedMove.DispatchDate.AddDate(0, 0, 2)
		completedMove.ExpectedReturnDate = &completedDue
		completedMove.Status = outwork.MoveStatusReceivedFull
		receipt := createTestReceipt(completedMove.ID, 100)

		// Still out, commitment date already passed
		openMove := createTestMove(partnerID, 200)
		openDue := openMove.DispatchDate.AddDate(0, 0, 1)
		openMove.ExpectedReturnDate = &openDue

		router.GET("/dashboard/partners/:id/stats", handler.PartnerStats)

		mockPartnerRepo.On("FindByID", mock.Anything, partnerID).Return(testPartner, nil)
		mockMoveRepo.On("FindDispatchedBetween", mock.Anything, partnerID,
			mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return([]outwork.Move{*completedMove, *openMove}, nil)
		mockMoveRepo.On("FindActive", mock.Anything, mock.AnythingOfType("outwork.MoveFilter")).
			Return([]outwork.Move{*openMove}, nil)
		mockReceiptRepo.On("FindByMoves", mock.Anything, mock.AnythingOfType("[]uuid.UUID")).
			Return(map[uuid.UUID][]outwork.Receipt{completedMove.ID: {receipt}}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/partners/"+partnerID.String()+"/stats?window_days=30", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "FORGE-01", data["partner_code"])
		assert.Equal(t, float64(30), data["window_days"])
		assert.Equal(t, float64(1), data["active_moves"])
		assert.Equal(t, float64(1), data["overdue_moves"])
		assert.Equal(t, float64(200), data["quantity_outstanding"])
		assert.Equal(t, float64(1), data["sample_size"])
		assert.True(t, data["has_data"].(bool))
		assert.Equal(t, "100", data["on_time_return_rate_percent"])

		mockPartnerRepo.AssertExpectations(t)
		mockMoveRepo.AssertExpectations(t)
		mockReceiptRepo.AssertExpectations(t)
	})

	t.Run("should compute stats as of a historical date", func(t *testing.T) {
		router, mockMoveRepo, mockReceiptRepo, mockPartnerRepo, handler := setupDashboardTestRouter()

		partnerID := uuid.New()
		testPartner := createTestPartner("FORGE-01")
		testPartner.ID = partnerID

		histMove := createTestMove(partnerID, 100)
		histMove.DispatchDate = time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)
		histDue := time.Date(2026, time.June, 27, 0, 0, 0, 0, time.UTC)
		histMove.ExpectedReturnDate = &histDue
		histMove.Status = outwork.MoveStatusReceivedFull
		receipt := createTestReceipt(histMove.ID, 100)
		receipt.ReceivedDate = time.Date(2026, time.June, 26, 0, 0, 0, 0, time.UTC)

		router.GET("/dashboard/partners/:id/stats", handler.PartnerStats)

		mockPartnerRepo.On("FindByID", mock.Anything, partnerID).Return(testPartner, nil)
		mockMoveRepo.On("FindDispatchedBetween", mock.Anything, partnerID,
			mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return([]outwork.Move{*histMove}, nil)
		mockMoveRepo.On("FindActive", mock.Anything, mock.AnythingOfType("outwork.MoveFilter")).
			Return([]outwork.Move{}, nil)
		mockReceiptRepo.On("FindByMoves", mock.Anything, mock.AnythingOfType("[]uuid.UUID")).
			Return(map[uuid.UUID][]outwork.Receipt{histMove.ID: {receipt}}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/partners/"+partnerID.String()+"/stats?as_of=2026-06-30", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "2026-06-30T23:59:59Z", data["as_of"])
		assert.Equal(t, float64(90), data["window_days"])
		assert.Equal(t, float64(0), data["active_moves"])
		assert.Equal(t, float64(1), data["sample_size"])
		assert.True(t, data["has_data"].(bool))

		mockPartnerRepo.AssertExpectations(t)
		mockMoveRepo.AssertExpectations(t)
	})

	t.Run("should return 404 for non-existent partner", func(t *testing.T) {
		router, _, _, mockPartnerRepo, handler := setupDashboardTestRouter()

		partnerID := uuid.New()

		router.GET("/dashboard/partners/:id/stats", handler.PartnerStats)

		mockPartnerRepo.On("FindByID", mock.Anything, partnerID).Return(nil, shared.ErrNotFound)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/partners/"+partnerID.String()+"/stats", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		mockPartnerRepo.AssertExpectations(t)
	})

	t.Run("should return error for invalid as_of date", func(t *testing.T) {
		router, _, _, _, handler := setupDashboardTestRouter()

		router.GET("/dashboard/partners/:id/stats", handler.PartnerStats)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/partners/"+uuid.New().String()+"/stats?as_of=30-06-2026", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDashboardHandler_ProcessSummary(t *testing.T) {
	t.Run("should summarize load by process", func(t *testing.T) {
		router, mockMoveRepo, mockReceiptRepo, _, handler := setupDashboardTestRouter()

		// Forging: everything still out, past due
		forgeMove := createTestMove(uuid.New(), 300)
		forgeDue := forgeMove.DispatchDate.AddDate(0, 0, 1)
		forgeMove.ExpectedReturnDate = &forgeDue

		// Heat treatment: 40 of 100 back
		htMove := createTestMove(uuid.New(), 100)
		htMove.ProcessType = valueobject.ProcessHeatTreatment
		htMove.Status = outwork.MoveStatusPartiallyReceived
		htReceipt := createTestReceipt(htMove.ID, 40)

		router.GET("/dashboard/process-summary", handler.ProcessSummary)

		mockMoveRepo.On("FindActive", mock.Anything, mock.AnythingOfType("outwork.MoveFilter")).
			Return([]outwork.Move{*forgeMove, *htMove}, nil)
		mockReceiptRepo.On("FindByMoves", mock.Anything, mock.AnythingOfType("[]uuid.UUID")).
			Return(map[uuid.UUID][]outwork.Receipt{htMove.ID: {htReceipt}}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/process-summary", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		processes := data["processes"].([]interface{})
		assert.Len(t, processes, 2)

		forging := processes[0].(map[string]interface{})
		assert.Equal(t, "forging", forging["process_type"])
		assert.Equal(t, float64(300), forging["piece_count_outstanding"])
		assert.Equal(t, float64(1), forging["active_move_count"])
		assert.Equal(t, float64(1), forging["overdue_count"])

		heatTreatment := processes[1].(map[string]interface{})
		assert.Equal(t, "heat_treatment", heatTreatment["process_type"])
		assert.Equal(t, float64(60), heatTreatment["piece_count_outstanding"])
		assert.Equal(t, float64(0), heatTreatment["overdue_count"])

		mockMoveRepo.AssertExpectations(t)
		mockReceiptRepo.AssertExpectations(t)
	})

	t.Run("should return empty summary when nothing is out", func(t *testing.T) {
		router, mockMoveRepo, _, _, handler := setupDashboardTestRouter()

		router.GET("/dashboard/process-summary", handler.ProcessSummary)

		mockMoveRepo.On("FindActive", mock.Anything, mock.AnythingOfType("outwork.MoveFilter")).
			Return([]outwork.Move{}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/process-summary", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)

		data := response["data"].(map[string]interface{})
		assert.Len(t, data["processes"].([]interface{}), 0)

		mockMoveRepo.AssertExpectations(t)
	})
}

func TestDashboardHandler_Scoreboard(t *testing.T) {
	t.Run("should report stats for every active partner", func(t *testing.T) {
		router, mockMoveRepo, mockReceiptRepo, mockPartnerRepo, handler := setupDashboardTestRouter()

		partnerA := createTestPartner("FORGE-01")
		partnerB := createTestPartner("PLATE-02")
		partnerB.Name = "Patel Plating Works"

		// Partner A completed one move on time
		moveA := createTestMove(partnerA.ID, 100)
		dueA := moveA.DispatchDate.AddDate(0, 0, 2)
		moveA.ExpectedReturnDate = &dueA
		moveA.Status = outwork.MoveStatusReceivedFull
		receiptA := createTestReceipt(moveA.ID, 100)

		// Partner B has one move still out
		moveB := createTestMove(partnerB.ID, 50)

		router.GET("/dashboard/scoreboard", handler.Scoreboard)

		mockPartnerRepo.On("FindActive", mock.Anything, mock.AnythingOfType("shared.Filter")).
			Return([]partner.Partner{*partnerA, *partnerB}, nil)
		mockMoveRepo.On("FindAll", mock.Anything, mock.AnythingOfType("outwork.MoveFilter")).
			Return([]outwork.Move{*moveA, *moveB}, nil)
		mockMoveRepo.On("FindActive", mock.Anything, mock.AnythingOfType("outwork.MoveFilter")).
			Return([]outwork.Move{*moveB}, nil)
		mockReceiptRepo.On("FindByMoves", mock.Anything, mock.AnythingOfType("[]uuid.UUID")).
			Return(map[uuid.UUID][]outwork.Receipt{moveA.ID: {receiptA}}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/scoreboard", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(90), data["window_days"])

		partners := data["partners"].([]interface{})
		assert.Len(t, partners, 2)

		first := partners[0].(map[string]interface{})
		assert.Equal(t, "FORGE-01", first["partner_code"])
		assert.True(t, first["has_data"].(bool))
		assert.Equal(t, "100", first["on_time_return_rate_percent"])

		second := partners[1].(map[string]interface{})
		assert.Equal(t, "PLATE-02", second["partner_code"])
		assert.Equal(t, float64(1), second["active_moves"])
		assert.False(t, second["has_data"].(bool))

		mockPartnerRepo.AssertExpectations(t)
		mockMoveRepo.AssertExpectations(t)
		mockReceiptRepo.AssertExpectations(t)
	})

	t.Run("should reject window beyond a year", func(t *testing.T) {
		router, _, _, _, handler := setupDashboardTestRouter()

		router.GET("/dashboard/scoreboard", handler.Scoreboard)

		req, _ := http.NewRequest(http.MethodGet, "/dashboard/scoreboard?window_days=400", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
