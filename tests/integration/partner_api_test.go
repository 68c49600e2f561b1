// Package integration provides integration testing for the shopfloor backend API.
// This file contains tests for the Partner API endpoints against a real database.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboardapp "github.com/shopfloor/backend/internal/application/dashboard"
	outworkapp "github.com/shopfloor/backend/internal/application/outwork"
	partnerapp "github.com/shopfloor/backend/internal/application/partner"
	"github.com/shopfloor/backend/internal/infrastructure/persistence"
	"github.com/shopfloor/backend/internal/interfaces/http/handler"
	"github.com/shopfloor/backend/internal/interfaces/http/router"
)

// TestServer wraps the test database and HTTP server for API testing
type TestServer struct {
	DB             *TestDB
	Engine         *gin.Engine
	Router         *router.Router
	MoveService    *outworkapp.MoveService
	PartnerService *partnerapp.PartnerService
}

// NewAPITestServer creates a test server with the full API registered
func NewAPITestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	testDB := NewTestDB(t)

	// Initialize repositories
	partnerRepo := persistence.NewGormPartnerRepository(testDB.DB)
	moveRepo := persistence.NewGormMoveRepository(testDB.DB)
	receiptRepo := persistence.NewGormReceiptRepository(testDB.DB)

	// Initialize services
	partnerService := partnerapp.NewPartnerService(partnerRepo)
	partnerService.SetMoveRepo(moveRepo)
	moveService := outworkapp.NewMoveService(moveRepo, receiptRepo, partnerRepo)
	dashboardService := dashboardapp.NewDashboardService(moveRepo, receiptRepo, partnerRepo)

	// Initialize handlers
	partnerHandler := handler.NewPartnerHandler(partnerService)
	moveHandler := handler.NewMoveHandler(moveService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	engine := gin.New()

	// Setup routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	partnerRoutes := router.NewDomainGroup("partner", "/partners")
	partnerRoutes.POST("", partnerHandler.Create)
	partnerRoutes.GET("", partnerHandler.List)
	partnerRoutes.GET("/status-counts", partnerHandler.CountByStatus)
	partnerRoutes.GET("/code/:code", partnerHandler.GetByCode)
	partnerRoutes.GET("/:id", partnerHandler.GetByID)
	partnerRoutes.PUT("/:id", partnerHandler.Update)
	partnerRoutes.PUT("/:id/code", partnerHandler.UpdateCode)
	partnerRoutes.POST("/:id/processes", partnerHandler.AddProcess)
	partnerRoutes.DELETE("/:id/processes/:process", partnerHandler.RemoveProcess)
	partnerRoutes.POST("/:id/activate", partnerHandler.Activate)
	partnerRoutes.POST("/:id/deactivate", partnerHandler.Deactivate)
	partnerRoutes.DELETE("/:id", partnerHandler.Delete)

	outworkRoutes := router.NewDomainGroup("outwork", "/outwork")
	outworkRoutes.POST("/moves", moveHandler.Create)
	outworkRoutes.GET("/moves", moveHandler.List)
	outworkRoutes.GET("/moves/overdue", moveHandler.ListOverdue)
	outworkRoutes.GET("/moves/:id", moveHandler.GetByID)
	outworkRoutes.POST("/moves/:id/void", moveHandler.Void)
	outworkRoutes.POST("/moves/:id/receipts", moveHandler.RecordReceipt)
	outworkRoutes.GET("/moves/:id/receipts", moveHandler.ListReceipts)
	outworkRoutes.GET("/moves/:id/verify", moveHandler.Verify)
	outworkRoutes.GET("/work-orders/:id/moves", moveHandler.ListByWorkOrder)
	outworkRoutes.GET("/receipts", moveHandler.ReceiptsRegister)

	dashboardRoutes := router.NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.GET("/partners/:id/stats", dashboardHandler.PartnerStats)
	dashboardRoutes.GET("/process-summary", dashboardHandler.ProcessSummary)
	dashboardRoutes.GET("/scoreboard", dashboardHandler.Scoreboard)

	r.Register(partnerRoutes).
		Register(outworkRoutes).
		Register(dashboardRoutes)
	r.Setup()

	return &TestServer{
		DB:             testDB,
		Engine:         engine,
		Router:         r,
		MoveService:    moveService,
		PartnerService: partnerService,
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta,omitempty"`
}

// TestPartnerAPI_CRUD tests the complete CRUD operations for partners
func TestPartnerAPI_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	var createdPartnerID string

	t.Run("Create partner", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"code":           "OP-API-001",
			"name":           "API Test Platers",
			"processes":      []string{"plating", "buffing"},
			"lead_time_days": 7,
			"contact_name":   "Ramesh Kumar",
			"phone":          "+91-98765-43210",
			"email":          "plating@example.com",
			"address":        "Plot 14, MIDC Industrial Area",
		}

		w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		createdPartnerID = data["id"].(string)
		assert.NotEmpty(t, createdPartnerID)
		assert.Equal(t, "OP-API-001", data["code"])
		assert.Equal(t, "API Test Platers", data["name"])
		assert.Equal(t, "active", data["status"])
		assert.Equal(t, float64(7), data["lead_time_days"])
		assert.ElementsMatch(t, []interface{}{"plating", "buffing"}, data["processes"])
	})

	t.Run("Get partner by ID", func(t *testing.T) {
		require.NotEmpty(t, createdPartnerID, "Partner ID should be set from Create test")

		w := ts.Request(http.MethodGet, "/api/v1/partners/"+createdPartnerID, nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, createdPartnerID, data["id"])
		assert.Equal(t, "OP-API-001", data["code"])
	})

	t.Run("Get partner by code", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/partners/code/OP-API-001", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "OP-API-001", data["code"])
	})

	t.Run("Update partner", func(t *testing.T) {
		require.NotEmpty(t, createdPartnerID)

		reqBody := map[string]interface{}{
			"name":           "Updated API Platers",
			"contact_name":   "Suresh Patil",
			"lead_time_days": 10,
		}

		w := ts.Request(http.MethodPut, "/api/v1/partners/"+createdPartnerID, reqBody)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "Updated API Platers", data["name"])
		assert.Equal(t, "Suresh Patil", data["contact_name"])
		assert.Equal(t, float64(10), data["lead_time_days"])
	})

	t.Run("Update partner code", func(t *testing.T) {
		require.NotEmpty(t, createdPartnerID)

		reqBody := map[string]interface{}{
			"code": "OP-API-UPDATED",
		}

		w := ts.Request(http.MethodPut, "/api/v1/partners/"+createdPartnerID+"/code", reqBody)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "OP-API-UPDATED", data["code"])
	})

	t.Run("Delete partner", func(t *testing.T) {
		require.NotEmpty(t, createdPartnerID)

		w := ts.Request(http.MethodDelete, "/api/v1/partners/"+createdPartnerID, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)

		// Verify partner is deleted
		w = ts.Request(http.MethodGet, "/api/v1/partners/"+createdPartnerID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestPartnerAPI_ProcessOperations tests adding and removing supported processes
func TestPartnerAPI_ProcessOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	reqBody := map[string]interface{}{
		"code":      "PROC-OP-001",
		"name":      "Process Test Partner",
		"processes": []string{"forging"},
	}

	w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var createResp APIResponse
	err := json.Unmarshal(w.Body.Bytes(), &createResp)
	require.NoError(t, err)

	partnerID := createResp.Data.(map[string]interface{})["id"].(string)

	t.Run("Add process", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"process": "heat_treatment",
		}

		w := ts.Request(http.MethodPost, "/api/v1/partners/"+partnerID+"/processes", reqBody)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.ElementsMatch(t, []interface{}{"forging", "heat_treatment"}, data["processes"])
	})

	t.Run("Adding the same process again is idempotent", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"process": "heat_treatment",
		}

		w := ts.Request(http.MethodPost, "/api/v1/partners/"+partnerID+"/processes", reqBody)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)

		data := resp.Data.(map[string]interface{})
		assert.Len(t, data["processes"], 2)
	})

	t.Run("Add unknown process fails", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"process": "alchemy",
		}

		w := ts.Request(http.MethodPost, "/api/v1/partners/"+partnerID+"/processes", reqBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Remove process", func(t *testing.T) {
		w := ts.Request(http.MethodDelete, "/api/v1/partners/"+partnerID+"/processes/heat_treatment", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)

		data := resp.Data.(map[string]interface{})
		assert.ElementsMatch(t, []interface{}{"forging"}, data["processes"])
	})

	t.Run("Cannot remove the last process", func(t *testing.T) {
		w := ts.Request(http.MethodDelete, "/api/v1/partners/"+partnerID+"/processes/forging", nil)
		assert.True(t, w.Code >= 400, "Expected error status code, got %d", w.Code)
	})
}

// TestPartnerAPI_StatusOperations tests activate/deactivate operations
func TestPartnerAPI_StatusOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	reqBody := map[string]interface{}{
		"code":      "STATUS-OP-001",
		"name":      "Status Test Partner",
		"processes": []string{"blasting"},
	}

	w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var createResp APIResponse
	err := json.Unmarshal(w.Body.Bytes(), &createResp)
	require.NoError(t, err)

	partnerID := createResp.Data.(map[string]interface{})["id"].(string)

	t.Run("Deactivate active partner", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/partners/"+partnerID+"/deactivate", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "inactive", data["status"])
	})

	t.Run("Deactivating twice fails", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/partners/"+partnerID+"/deactivate", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Inactive partner cannot receive new moves", func(t *testing.T) {
		moveBody := map[string]interface{}{
			"work_order_id": uuid.New().String(),
			"partner_id":    partnerID,
			"process_type":  "blasting",
			"quantity_sent": 50,
			"dispatch_date": "2026-08-01T00:00:00Z",
		}

		w := ts.Request(http.MethodPost, "/api/v1/outwork/moves", moveBody)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "PARTNER_INACTIVE", resp.Error.Code)
	})

	t.Run("Activate inactive partner", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/partners/"+partnerID+"/activate", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "active", data["status"])
	})
}

// TestPartnerAPI_List tests listing with pagination and status counts
func TestPartnerAPI_List(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	processes := []string{"forging", "plating", "buffing", "job_work"}
	for i := 1; i <= 12; i++ {
		reqBody := map[string]interface{}{
			"code":      fmt.Sprintf("LIST-OP-%03d", i),
			"name":      fmt.Sprintf("List Partner %d", i),
			"processes": []string{processes[(i-1)%4]},
		}
		w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("List with pagination", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/partners?page=1&page_size=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Meta)
		assert.Equal(t, int64(12), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Page)
		assert.Equal(t, 5, resp.Meta.PageSize)

		data := resp.Data.([]interface{})
		assert.Len(t, data, 5)
	})

	t.Run("Filter by process", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/partners?process=plating", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.NotNil(t, resp.Meta)
		assert.Equal(t, int64(3), resp.Meta.Total)
	})

	t.Run("Get status counts", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/partners/status-counts", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(12), data["active"])
		assert.Equal(t, float64(0), data["inactive"])
		assert.Equal(t, float64(12), data["total"])
	})
}

// TestPartnerAPI_Validation tests request validation errors
func TestPartnerAPI_Validation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	t.Run("Create with missing required fields", func(t *testing.T) {
		// Missing code
		reqBody := map[string]interface{}{
			"name":      "Test Partner",
			"processes": []string{"forging"},
		}
		w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// Missing name
		reqBody = map[string]interface{}{
			"code":      "TEST-001",
			"processes": []string{"forging"},
		}
		w = ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// Empty process list
		reqBody = map[string]interface{}{
			"code":      "TEST-001",
			"name":      "Test Partner",
			"processes": []string{},
		}
		w = ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Create with unknown process", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"code":      "TEST-001",
			"name":      "Test Partner",
			"processes": []string{"origami"},
		}
		w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Get with invalid UUID", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/partners/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Update non-existent partner", func(t *testing.T) {
		nonExistentID := uuid.New().String()
		reqBody := map[string]interface{}{
			"name": "Updated Name",
		}
		w := ts.Request(http.MethodPut, "/api/v1/partners/"+nonExistentID, reqBody)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestPartnerAPI_DuplicateCode tests duplicate code handling
func TestPartnerAPI_DuplicateCode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	reqBody := map[string]interface{}{
		"code":      "DUPE-OP-001",
		"name":      "First Partner",
		"processes": []string{"plating"},
	}
	w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Create with duplicate code fails", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"code":      "DUPE-OP-001",
			"name":      "Second Partner",
			"processes": []string{"forging"},
		}
		w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

// TestPartnerAPI_DeleteWithMoves verifies a partner with recorded moves
// cannot be deleted
func TestPartnerAPI_DeleteWithMoves(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAPITestServer(t)

	reqBody := map[string]interface{}{
		"code":      "DEL-OP-001",
		"name":      "Busy Partner",
		"processes": []string{"plating"},
	}
	w := ts.Request(http.MethodPost, "/api/v1/partners", reqBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var createResp APIResponse
	err := json.Unmarshal(w.Body.Bytes(), &createResp)
	require.NoError(t, err)
	partnerID := createResp.Data.(map[string]interface{})["id"].(string)

	moveBody := map[string]interface{}{
		"work_order_id": uuid.New().String(),
		"partner_id":    partnerID,
		"process_type":  "plating",
		"quantity_sent": 100,
		"dispatch_date": "2026-08-01T00:00:00Z",
	}
	w = ts.Request(http.MethodPost, "/api/v1/outwork/moves", moveBody)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Delete partner with moves fails", func(t *testing.T) {
		w := ts.Request(http.MethodDelete, "/api/v1/partners/"+partnerID, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
