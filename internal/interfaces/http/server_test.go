package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/report"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/repository"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/internal/service"
	"github.com/MD-Aoulad/Digital-Tracking-Merchandising-sub007/pkg/database"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run())

	templateRepo := repository.NewTemplateRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	delegationRepo := repository.NewDelegationRepository(db.DB, logger)

	return NewServer(
		ServerConfig{JWTSecret: testSecret},
		service.NewCatalogService(templateRepo, requestRepo, logger),
		service.NewEngine(db, templateRepo, requestRepo, historyRepo, delegationRepo, logger),
		service.NewQueryService(requestRepo, historyRepo, logger),
		service.NewDelegationService(delegationRepo, logger),
		report.NewExporter(logger),
		logger,
	)
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, server *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func createTemplateViaAPI(t *testing.T, server *Server) string {
	t.Helper()

	recorder := doRequest(t, server, http.MethodPost, "/api/v1/workflows", signToken(t, "admin-1", "admin"), CreateTemplateRequest{
		Name:         "Purchase Approval",
		WorkflowType: "purchase",
		Steps: []StepRequest{
			{StepName: "Manager Review", ApproverRole: "manager", Order: 1},
			{StepName: "Director Review", ApproverRole: "director", Order: 2},
		},
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	data := decodeResponse(t, recorder).Data.(map[string]interface{})
	return data["id"].(string)
}

func createRequestViaAPI(t *testing.T, server *Server, workflowID string) string {
	t.Helper()

	recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests", signToken(t, "user-1", "employee"), CreateRequestRequest{
		WorkflowID:  workflowID,
		Title:       "New laptops",
		RequestType: "equipment",
		Priority:    "high",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	data := decodeResponse(t, recorder).Data.(map[string]interface{})
	return data["id"].(string)
}

func TestAuthentication(t *testing.T) {
	server := newTestServer(t)

	t.Run("health is public", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("api requires a token", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows", "", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "user-1",
			"role": "admin",
		}).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows", forged, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("token without identity claims is rejected", func(t *testing.T) {
		incomplete, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows", incomplete, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows", signToken(t, "user-1", "employee"), nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestTemplateEndpoints(t *testing.T) {
	server := newTestServer(t)

	t.Run("creation is admin only", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/workflows", signToken(t, "user-1", "employee"), CreateTemplateRequest{
			Name: "Sneaky",
		})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("create list get", func(t *testing.T) {
		id := createTemplateViaAPI(t, server)

		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows/"+id, signToken(t, "user-1", "employee"), nil)
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, server, http.MethodGet, "/api/v1/workflows", signToken(t, "user-1", "employee"), nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeResponse(t, recorder)
		data := resp.Data.(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["total"])
		assert.Equal(t, float64(1), pagination["pages"])
	})

	t.Run("validation errors map to 400", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/workflows", signToken(t, "admin-1", "admin"), CreateTemplateRequest{
			Name: "Bad Steps",
			Steps: []StepRequest{
				{StepName: "First", ApproverRole: "manager", Order: 1},
				{StepName: "Third", ApproverRole: "vp", Order: 3},
			},
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, decodeResponse(t, recorder).Success)
	})

	t.Run("unknown template maps to 404", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/workflows/no-such-id", signToken(t, "user-1", "employee"), nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)
	templateID := createTemplateViaAPI(t, server)
	requestID := createRequestViaAPI(t, server, templateID)

	t.Run("wrong role maps to 403", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/approve", signToken(t, "dir-1", "director"), nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("approve without body advances the request", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/approve", signToken(t, "mgr-1", "manager"), nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		data := decodeResponse(t, recorder).Data.(map[string]interface{})
		assert.Equal(t, "in_progress", data["status"])
		assert.Equal(t, float64(2), data["current_step"])
		assert.Equal(t, "director", data["current_approver_role"])
	})

	t.Run("reject without comments maps to 400", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/reject", signToken(t, "dir-1", "director"), nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("final approval terminates the request", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/approve", signToken(t, "dir-1", "director"), ActionRequest{Comments: "budget confirmed"})
		require.Equal(t, http.StatusOK, recorder.Code)

		data := decodeResponse(t, recorder).Data.(map[string]interface{})
		assert.Equal(t, "approved", data["status"])
		_, hasStep := data["current_step"]
		assert.False(t, hasStep)
	})

	t.Run("action on terminal request maps to 409", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/approve", signToken(t, "dir-1", "director"), nil)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("detail includes the audit trail", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/requests/"+requestID, signToken(t, "user-1", "employee"), nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		data := decodeResponse(t, recorder).Data.(map[string]interface{})
		history := data["history"].([]interface{})
		require.Len(t, history, 2)
		first := history[0].(map[string]interface{})
		assert.Equal(t, "approved", first["action"])
		assert.Equal(t, "mgr-1", first["actor_id"])
	})

	t.Run("inactive template maps to 422", func(t *testing.T) {
		off := false
		recorder := doRequest(t, server, http.MethodPut, "/api/v1/workflows/"+templateID, signToken(t, "admin-1", "admin"), UpdateTemplateRequest{IsActive: &off})
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, server, http.MethodPost, "/api/v1/requests", signToken(t, "user-1", "employee"), CreateRequestRequest{
			WorkflowID: templateID,
			Title:      "Too late",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	})
}

func TestCancelOverHTTP(t *testing.T) {
	server := newTestServer(t)
	templateID := createTemplateViaAPI(t, server)
	requestID := createRequestViaAPI(t, server, templateID)

	recorder := doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/cancel", signToken(t, "someone-else", "employee"), nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doRequest(t, server, http.MethodPost, "/api/v1/requests/"+requestID+"/cancel", signToken(t, "user-1", "employee"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	data := decodeResponse(t, recorder).Data.(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])
}

func TestWorklistEndpoints(t *testing.T) {
	server := newTestServer(t)
	templateID := createTemplateViaAPI(t, server)
	createRequestViaAPI(t, server, templateID)
	createRequestViaAPI(t, server, templateID)

	recorder := doRequest(t, server, http.MethodGet, "/api/v1/requests/pending", signToken(t, "mgr-1", "manager"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	data := decodeResponse(t, recorder).Data.(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])

	recorder = doRequest(t, server, http.MethodGet, "/api/v1/requests/assigned", signToken(t, "dir-1", "director"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	data = decodeResponse(t, recorder).Data.(map[string]interface{})
	pagination = data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(0), pagination["total"])

	recorder = doRequest(t, server, http.MethodGet, "/api/v1/requests/created", signToken(t, "user-1", "employee"), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	data = decodeResponse(t, recorder).Data.(map[string]interface{})
	pagination = data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
}

func TestStatisticsAndExportEndpoints(t *testing.T) {
	server := newTestServer(t)
	templateID := createTemplateViaAPI(t, server)
	createRequestViaAPI(t, server, templateID)

	t.Run("stats", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/requests/stats", signToken(t, "admin-1", "admin"), nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		data := decodeResponse(t, recorder).Data.(map[string]interface{})
		assert.Equal(t, float64(1), data["total"])
	})

	t.Run("stats with invalid date", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/requests/stats?from=yesterday", signToken(t, "admin-1", "admin"), nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("export streams a workbook", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodGet, "/api/v1/requests/export", signToken(t, "admin-1", "admin"), nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", recorder.Header().Get("Content-Type"))
		assert.Contains(t, recorder.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, recorder.Body.Len())
	})
}

func TestDelegationEndpoints(t *testing.T) {
	server := newTestServer(t)

	t.Run("non admin delegates their own authority", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/delegations", signToken(t, "mgr-1", "manager"), CreateDelegationRequest{
			DelegateID: "assistant-1",
			StartDate:  time.Now(),
		})
		require.Equal(t, http.StatusCreated, recorder.Code)

		data := decodeResponse(t, recorder).Data.(map[string]interface{})
		assert.Equal(t, "mgr-1", data["delegator_id"])
		assert.Equal(t, "manager", data["delegator_role"])
	})

	t.Run("non admin cannot delegate for someone else", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/delegations", signToken(t, "mgr-1", "manager"), CreateDelegationRequest{
			DelegatorID: "dir-1",
			DelegateID:  "assistant-1",
			StartDate:   time.Now(),
		})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("admin registers any delegation and only owners modify", func(t *testing.T) {
		recorder := doRequest(t, server, http.MethodPost, "/api/v1/delegations", signToken(t, "admin-1", "admin"), CreateDelegationRequest{
			DelegatorID:   "dir-1",
			DelegatorRole: "director",
			DelegateID:    "assistant-2",
			StartDate:     time.Now(),
		})
		require.Equal(t, http.StatusCreated, recorder.Code)
		data := decodeResponse(t, recorder).Data.(map[string]interface{})
		id := data["id"].(string)

		off := false
		recorder = doRequest(t, server, http.MethodPut, "/api/v1/delegations/"+id, signToken(t, "mgr-1", "manager"), UpdateDelegationRequest{IsActive: &off})
		assert.Equal(t, http.StatusForbidden, recorder.Code)

		recorder = doRequest(t, server, http.MethodPut, "/api/v1/delegations/"+id, signToken(t, "dir-1", "director"), UpdateDelegationRequest{IsActive: &off})
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, server, http.MethodDelete, "/api/v1/delegations/"+id, signToken(t, "assistant-2", "assistant"), nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)

		recorder = doRequest(t, server, http.MethodDelete, "/api/v1/delegations/"+id, signToken(t, "admin-1", "admin"), nil)
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, server, http.MethodGet, "/api/v1/delegations/"+id, signToken(t, "admin-1", "admin"), nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
