package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ppekeeper-backend/api/controllers"
	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/capacity"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/internal/employees"
	"github.com/angelmondragon/ppekeeper-backend/internal/inventory"
	"github.com/angelmondragon/ppekeeper-backend/internal/issuance"
	"github.com/angelmondragon/ppekeeper-backend/pkg/config"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
	"github.com/angelmondragon/ppekeeper-backend/pkg/types"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *types.ListMeta `json:"meta"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, health map[string]controllers.Pinger) *testServer {
	t.Helper()
	client, conn := dbtest.Client(t)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()

	auditSvc, err := audit.NewService(audit.NewRepository(conn), logg)
	require.NoError(t, err)
	store, err := capacity.NewStore(capacity.NewRepository(conn), client)
	require.NoError(t, err)
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), client)
	require.NoError(t, err)

	assignmentRepo := assignments.NewRepository(conn)
	employeeRepo := employees.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)

	employeeSvc, err := employees.NewService(employeeRepo, assignmentRepo, auditSvc, client)
	require.NoError(t, err)
	assignmentSvc, err := assignments.NewService(assignmentRepo, auditSvc)
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalogRepo, ledger, auditSvc, client)
	require.NoError(t, err)
	engine, err := issuance.NewEngine(issuance.EngineParams{
		Logger:      logg,
		DB:          client,
		Employees:   employeeRepo,
		Assignments: assignmentRepo,
		Catalog:     catalogRepo,
		Capacity:    store,
		Ledger:      ledger,
		Audit:       auditSvc,
		Sessions:    issuance.NewMemorySessionStore(time.Hour),
		Metrics:     metrics.NewIssuanceMetrics(reg),
	})
	require.NoError(t, err)

	if health == nil {
		health = map[string]controllers.Pinger{"database": client}
	}

	handler := NewRouter(RouterParams{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:      logg,
		Health:      health,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Issuance:    engine,
		Employees:   employeeSvc,
		Assignments: assignmentSvc,
		Catalog:     catalogSvc,
		Capacity:    store,
		Audit:       auditSvc,
	})
	return &testServer{t: t, handler: handler}
}

func (s *testServer) do(method, path string, body any) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) decode(env envelope, dest any) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(env.Data, dest))
}

type idOnly struct {
	ID string `json:"id"`
}

func (s *testServer) seedSuitCatalog(ceiling int) (categoryID, masterItemID string) {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/api/v1/catalog/categories", map[string]any{
		"name": "Cleanroom Suit", "kind": "garment", "capacity_key": capacity.KeyMaxActiveSuits,
	})
	require.Equal(s.t, http.StatusCreated, status)
	var category idOnly
	s.decode(env, &category)

	status, env = s.do(http.MethodPost, "/api/v1/catalog/master-items", map[string]any{
		"code": "SUIT-L", "name": "Suit L", "category_id": category.ID, "size": "L",
		"initial_stock": 5, "low_stock_threshold": 3,
	})
	require.Equal(s.t, http.StatusCreated, status)
	var item idOnly
	s.decode(env, &item)

	values := capacity.Defaults()
	values[capacity.KeyMaxActiveSuits] = ceiling
	status, _ = s.do(http.MethodPut, "/api/v1/settings/capacity", map[string]any{"values": values})
	require.Equal(s.t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/api/v1/employees", map[string]any{
		"id": "E-100", "name": "Rosa Diaz", "status": "active", "entry_date": "2023-04-01",
	})
	require.Equal(s.t, http.StatusCreated, status)
	return category.ID, item.ID
}

func suitIssuance(categoryID, masterItemID, code string, replace string) map[string]any {
	group := map[string]any{
		"category_id":    categoryID,
		"master_item_id": masterItemID,
		"items": []map[string]any{{
			"item_code":  code,
			"issue_date": "2024-05-06",
		}},
	}
	if replace != "" {
		group["replace_assignment_id"] = replace
	}
	return map[string]any{"groups": []map[string]any{group}}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	status, env := srv.do(http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"live"}`, string(env.Data))

	status, env = srv.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"database":"ok"`)
}

func TestHealthReadyReportsDownDependency(t *testing.T) {
	srv := newTestServer(t, map[string]controllers.Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
		"optional": nil,
	})

	status, env := srv.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	checks, ok := env.Error.Details["checks"].(map[string]any)
	require.True(t, ok, "details: %v", env.Error.Details)
	assert.Equal(t, "down", checks["redis"])
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "disabled", checks["optional"])
}

func TestIssuanceReplacementFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	categoryID, itemID := srv.seedSuitCatalog(1)

	status, env := srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances", suitIssuance(categoryID, itemID, "S-001", ""))
	require.Equal(t, http.StatusCreated, status, "error: %+v", env.Error)
	var first struct {
		State   string `json:"state"`
		Created []struct {
			ID           string `json:"id"`
			CategoryName string `json:"category_name"`
			Size         string `json:"size"`
			IssueDate    string `json:"issue_date"`
		} `json:"created"`
		Movements []struct {
			ResultingStock int `json:"resulting_stock"`
		} `json:"movements"`
	}
	srv.decode(env, &first)
	require.Equal(t, "committed", first.State)
	require.Len(t, first.Created, 1)
	assert.Equal(t, "Cleanroom Suit", first.Created[0].CategoryName)
	assert.Equal(t, "L", first.Created[0].Size)
	assert.Equal(t, "2024-05-06", first.Created[0].IssueDate)
	require.Len(t, first.Movements, 1)
	assert.Equal(t, 4, first.Movements[0].ResultingStock)

	status, env = srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances", suitIssuance(categoryID, itemID, "S-002", ""))
	require.Equal(t, http.StatusOK, status)
	var prompt struct {
		State   string `json:"state"`
		Prompts []struct {
			Max        int `json:"max"`
			Active     int `json:"active"`
			Candidates []struct {
				AssignmentID string `json:"assignment_id"`
			} `json:"candidates"`
		} `json:"prompts"`
	}
	srv.decode(env, &prompt)
	require.Equal(t, "awaiting_replacement_selection", prompt.State)
	require.Len(t, prompt.Prompts, 1)
	require.Len(t, prompt.Prompts[0].Candidates, 1)
	assert.Equal(t, first.Created[0].ID, prompt.Prompts[0].Candidates[0].AssignmentID)

	status, env = srv.do(http.MethodGet, "/api/v1/employees/E-100/issuances/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"awaiting_replacement_selection"`)

	status, env = srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances",
		suitIssuance(categoryID, itemID, "S-002", first.Created[0].ID))
	require.Equal(t, http.StatusCreated, status, "error: %+v", env.Error)
	var replaced struct {
		Deactivated []struct {
			ID     string `json:"id"`
			Active bool   `json:"active"`
		} `json:"deactivated"`
	}
	srv.decode(env, &replaced)
	require.Len(t, replaced.Deactivated, 1)
	assert.Equal(t, first.Created[0].ID, replaced.Deactivated[0].ID)

	status, env = srv.do(http.MethodGet, "/api/v1/employees/E-100/issuances/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"idle"`)

	status, env = srv.do(http.MethodGet, "/api/v1/employees/E-100/assignments?active=false", nil)
	require.Equal(t, http.StatusOK, status)
	var history []struct {
		Active bool `json:"active"`
	}
	srv.decode(env, &history)
	require.Len(t, history, 2)

	status, env = srv.do(http.MethodGet, "/api/v1/employees/E-100/assignments", nil)
	require.Equal(t, http.StatusOK, status)
	var active []struct {
		Active bool `json:"active"`
	}
	srv.decode(env, &active)
	require.Len(t, active, 1)
	assert.True(t, active[0].Active)

	status, env = srv.do(http.MethodGet, "/api/v1/catalog/master-items/"+itemID, nil)
	require.Equal(t, http.StatusOK, status)
	var item struct {
		CurrentStock int  `json:"current_stock"`
		LowStock     bool `json:"low_stock"`
	}
	srv.decode(env, &item)
	assert.Equal(t, 3, item.CurrentStock)
	assert.True(t, item.LowStock)

	status, env = srv.do(http.MethodGet, "/api/v1/catalog/master-items/low-stock", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "SUIT-L")

	status, env = srv.do(http.MethodGet, "/api/v1/audit?type=Replace", nil)
	require.Equal(t, http.StatusOK, status)
	var entries []struct {
		OperationType string `json:"operation_type"`
	}
	srv.decode(env, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "Replace PPE", entries[0].OperationType)
	require.NotNil(t, env.Meta)
	assert.Equal(t, types.ListMeta{Count: 1, Limit: 200}, *env.Meta)
}

func TestIssuanceWithdrawClearsPrompt(t *testing.T) {
	srv := newTestServer(t, nil)
	categoryID, itemID := srv.seedSuitCatalog(1)

	status, _ := srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances", suitIssuance(categoryID, itemID, "S-001", ""))
	require.Equal(t, http.StatusCreated, status)
	status, _ = srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances", suitIssuance(categoryID, itemID, "S-002", ""))
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.do(http.MethodDelete, "/api/v1/employees/E-100/issuances/session", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env := srv.do(http.MethodGet, "/api/v1/employees/E-100/issuances/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"idle"`)
}

func TestIssuanceRejectionsMapToStatusCodes(t *testing.T) {
	srv := newTestServer(t, nil)
	categoryID, itemID := srv.seedSuitCatalog(3)

	cases := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
		reason string
	}{
		{
			name:   "unknown employee",
			path:   "/api/v1/employees/E-404/issuances",
			body:   suitIssuance(categoryID, itemID, "S-001", ""),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "no items",
			path:   "/api/v1/employees/E-100/issuances",
			body:   map[string]any{"groups": []any{}},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
			reason: string(issuance.ReasonNoItemsSelected),
		},
		{
			name:   "missing serial",
			path:   "/api/v1/employees/E-100/issuances",
			body:   suitIssuance(categoryID, itemID, "", ""),
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
			reason: string(issuance.ReasonValidationFailed),
		},
		{
			name:   "unknown field",
			path:   "/api/v1/employees/E-100/issuances",
			body:   map[string]any{"groups": []any{}, "bogus": true},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name: "insufficient stock",
			path: "/api/v1/employees/E-100/issuances",
			body: map[string]any{"groups": []map[string]any{{
				"category_id":    categoryID,
				"master_item_id": itemID,
				"items": []map[string]any{
					{"item_code": "S-1", "issue_date": "2024-05-06"},
					{"item_code": "S-2", "issue_date": "2024-05-06"},
					{"item_code": "S-3", "issue_date": "2024-05-06"},
					{"item_code": "S-4", "issue_date": "2024-05-06"},
					{"item_code": "S-5", "issue_date": "2024-05-06"},
					{"item_code": "S-6", "issue_date": "2024-05-06"},
				},
			}}},
			status: http.StatusConflict,
			code:   "INSUFFICIENT_STOCK",
			reason: string(issuance.ReasonInsufficientStock),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := srv.do(http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.status, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			if tc.reason != "" {
				assert.Equal(t, tc.reason, env.Error.Details["reason"])
			}
		})
	}
}

func TestCapacitySettingsRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	status, env := srv.do(http.MethodPut, "/api/v1/settings/capacity", map[string]any{
		"values": map[string]int{capacity.KeyMaxActiveSuits: 2},
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)

	values := capacity.Defaults()
	values[capacity.KeyMaxActiveHats] = 5
	status, env = srv.do(http.MethodPut, "/api/v1/settings/capacity", map[string]any{"values": values})
	require.Equal(t, http.StatusOK, status)
	var saved struct {
		Values    map[string]int `json:"values"`
		Persisted bool           `json:"persisted"`
	}
	srv.decode(env, &saved)
	assert.Equal(t, 5, saved.Values[capacity.KeyMaxActiveHats])
	assert.True(t, saved.Persisted)

	status, env = srv.do(http.MethodPost, "/api/v1/settings/capacity/restore-defaults", nil)
	require.Equal(t, http.StatusOK, status)
	srv.decode(env, &saved)
	assert.Equal(t, 3, saved.Values[capacity.KeyMaxActiveHats])
	assert.False(t, saved.Persisted)

	status, env = srv.do(http.MethodGet, "/api/v1/audit?type=Save+Settings", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "max_active_hats=5")
}

func TestEmployeeRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	categoryID, itemID := srv.seedSuitCatalog(3)

	status, env := srv.do(http.MethodPost, "/api/v1/employees", map[string]any{
		"id": "E-100", "name": "Duplicate", "status": "active",
	})
	require.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)

	status, env = srv.do(http.MethodPost, "/api/v1/employees", map[string]any{
		"id": "E-200", "name": "Bad Status", "status": "retired",
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "must be one of active separated", env.Error.Details["status"])

	status, _ = srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances", suitIssuance(categoryID, itemID, "S-777", ""))
	require.Equal(t, http.StatusCreated, status)

	status, env = srv.do(http.MethodGet, "/api/v1/employees/by-item-code?code=S-777", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"E-100"`)

	status, env = srv.do(http.MethodGet, "/api/v1/employees/search?name=rosa", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Rosa Diaz")

	status, _ = srv.do(http.MethodGet, "/api/v1/employees/search", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, env = srv.do(http.MethodPut, "/api/v1/employees/E-100", map[string]any{
		"name": "Rosa Diaz", "status": "separated",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"separated"`)

	status, _ = srv.do(http.MethodDelete, "/api/v1/employees/E-100", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = srv.do(http.MethodGet, "/api/v1/employees/E-100", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestAssignmentRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	categoryID, itemID := srv.seedSuitCatalog(3)

	status, env := srv.do(http.MethodPost, "/api/v1/employees/E-100/issuances", suitIssuance(categoryID, itemID, "S-001", ""))
	require.Equal(t, http.StatusCreated, status)
	var outcome struct {
		Created []idOnly `json:"created"`
	}
	srv.decode(env, &outcome)
	id := outcome.Created[0].ID

	status, env = srv.do(http.MethodPut, "/api/v1/assignments/"+id, map[string]any{"remarks": "sleeve torn", "condition": "used"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "sleeve torn")

	status, _ = srv.do(http.MethodPost, "/api/v1/assignments/"+id+"/return", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = srv.do(http.MethodPost, "/api/v1/assignments/"+id+"/return", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "STATE_CONFLICT", env.Error.Code)

	status, _ = srv.do(http.MethodDelete, "/api/v1/assignments/"+id, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = srv.do(http.MethodDelete, "/api/v1/assignments/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	categoryID, itemID := srv.seedSuitCatalog(3)

	status, env := srv.do(http.MethodDelete, "/api/v1/catalog/categories/"+categoryID, nil)
	require.Equal(t, http.StatusConflict, status, "error: %+v", env.Error)

	status, env = srv.do(http.MethodPost, "/api/v1/catalog/master-items/"+itemID+"/stock/receive", map[string]any{"quantity": 10})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"current_stock":15`)

	status, env = srv.do(http.MethodPost, "/api/v1/catalog/master-items/"+itemID+"/stock/correct", map[string]any{"stock": 7, "reference": "count"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"current_stock":7`)

	status, _ = srv.do(http.MethodPost, "/api/v1/catalog/master-items/"+itemID+"/stock/correct", map[string]any{"reference": "count"})
	require.Equal(t, http.StatusBadRequest, status)

	status, env = srv.do(http.MethodGet, "/api/v1/catalog/master-items?category_id="+categoryID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "SUIT-L")

	status, _ = srv.do(http.MethodGet, "/api/v1/catalog/master-items?category_id=nope", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.do(http.MethodDelete, "/api/v1/catalog/master-items/"+itemID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = srv.do(http.MethodDelete, "/api/v1/catalog/categories/"+categoryID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env = srv.do(http.MethodGet, "/api/v1/catalog/categories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMetricsEndpointExportsRequestCounters(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(http.MethodGet, "/health/live", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ppekeeper_http_requests_total{method="GET",route="/health/live",status="200"} 1`)
}
