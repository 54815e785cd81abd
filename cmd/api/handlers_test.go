package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/scanner-service/internal/application"
	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/internal/infrastructure/camera"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
	"github.com/wms-platform/scanner-service/pkg/middleware"
)

type fakeStore struct {
	mu   sync.Mutex
	ops  map[string]domain.OperationContext
	done decimal.Decimal
}

func (s *fakeStore) LoadOperation(_ context.Context, operationID string) (*domain.OperationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[operationID]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (s *fakeStore) ListPlannedLines(_ context.Context, _ string) ([]domain.PlannedLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []domain.PlannedLine{
		{ProductID: "P-A", ProductName: "Product A", Expected: decimal.NewFromInt(5), Done: s.done, Sequence: 1},
	}, nil
}

func (s *fakeStore) ListRealizedLines(_ context.Context, _ string) ([]domain.RealizedLine, error) {
	return []domain.RealizedLine{
		{ID: "ML-1", ProductID: "P-A", ProductName: "Product A", Quantity: decimal.NewFromInt(1), UoM: "Units"},
	}, nil
}

func (s *fakeStore) setDone(d decimal.Decimal) {
	s.mu.Lock()
	s.done = d
	s.mu.Unlock()
}

// fakeResolver answers success for PROD-* barcodes and records the pick in the store
type fakeResolver struct {
	store *fakeStore
}

func (r *fakeResolver) ResolveScan(_ context.Context, _ string, barcode string) (domain.ScanOutcome, error) {
	switch barcode {
	case "PROD-A", "AB1":
		r.store.setDone(decimal.NewFromInt(5))
		return domain.Success("Product A", "Picked 5 units"), nil
	case "LOC-X":
		return domain.Warning("Wrong location", "Scan WH/Stock first"), nil
	}
	return domain.Failure("Unknown barcode " + barcode), nil
}

type fakeFinalizer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeFinalizer) FinalizeOperation(_ context.Context, op domain.OperationContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op.ID)
	return nil
}

type testServer struct {
	router    *gin.Engine
	store     *fakeStore
	finalizer *fakeFinalizer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNop()
	m := metrics.New(metrics.DefaultConfig("scanner-test"))

	store := &fakeStore{
		ops: map[string]domain.OperationContext{
			"op-1": {ID: "op-1", Name: "WH/OUT/00001", State: domain.OperationStateAssigned, PartnerName: "Azure Interior"},
		},
		done: decimal.NewFromInt(2),
	}
	finalizer := &fakeFinalizer{}

	reconciler := application.NewReconciler(store, logger, m)
	manager := application.NewSessionManager(application.SessionConfig{
		IdleTimeout:       100 * time.Millisecond,
		NotificationLimit: 20,
		CommandTimeout:    5 * time.Second,
		Clock:             clock.New(),
	}, application.SessionDeps{
		Router:     application.NewScanRouter(&fakeResolver{store: store}, reconciler, logger, m),
		Reconciler: reconciler,
		Finalizer:  finalizer,
		Logger:     logger,
		Metrics:    m,
	}, camera.NewBridge())
	t.Cleanup(func() { manager.Shutdown(context.Background()) })

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig("scanner-test", logger.Logger))
	registerRoutes(router, manager, logger)

	return &testServer{router: router, store: store, finalizer: finalizer}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		payload, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) startSession(t *testing.T) application.SessionView {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/sessions", map[string]string{"operationId": "op-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeView(t, w)
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) application.SessionView {
	t.Helper()
	var view application.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.APIErrorResponse {
	t.Helper()
	var resp middleware.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStartSessionHandler(t *testing.T) {
	s := newTestServer(t)

	t.Run("Loads the operation", func(t *testing.T) {
		view := s.startSession(t)
		assert.NotEmpty(t, view.SessionID)
		assert.Equal(t, "WH/OUT/00001", view.OperationName)
		assert.Equal(t, "Azure Interior", view.PartnerName)
		assert.Equal(t, 5.0, view.TotalExpected)
		assert.Equal(t, 2.0, view.TotalDone)
		assert.Equal(t, int64(40), view.ProgressPercent)
		assert.True(t, view.CanValidate)
		assert.Equal(t, "product", view.ScanMode)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, "ML-1", view.Lines[0].ID)
	})

	t.Run("Unknown operation", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/sessions", map[string]string{"operationId": "op-404"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", decodeError(t, w).Code)
	})

	t.Run("Missing operation id", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/sessions", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.Equal(t, "is required", resp.Details["operationId"])
	})
}

func TestGetSessionHandler(t *testing.T) {
	s := newTestServer(t)
	started := s.startSession(t)

	w := s.do(http.MethodGet, "/api/v1/sessions/"+started.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, started.SessionID, decodeView(t, w).SessionID)

	w = s.do(http.MethodGet, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCameraScanHandler(t *testing.T) {
	tests := []struct {
		name        string
		barcode     string
		wantKind    string
		wantDone    float64
		wantMessage string
	}{
		{name: "Success refreshes totals", barcode: "PROD-A", wantKind: "success", wantDone: 5, wantMessage: "Picked 5 units"},
		{name: "Warning keeps totals", barcode: "LOC-X", wantKind: "warning", wantDone: 2, wantMessage: "Scan WH/Stock first"},
		{name: "Error keeps totals", barcode: "NOPE", wantKind: "error", wantDone: 2, wantMessage: "Unknown barcode NOPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			started := s.startSession(t)

			w := s.do(http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/camera", map[string]string{"barcode": tt.barcode})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp struct {
				Outcome *application.OutcomeDTO `json:"outcome"`
				Session application.SessionView `json:"session"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Outcome)
			assert.Equal(t, tt.wantKind, resp.Outcome.Kind)
			assert.Equal(t, tt.wantMessage, resp.Outcome.Message)
			assert.Equal(t, tt.barcode, resp.Outcome.Barcode)
			assert.Equal(t, tt.barcode, resp.Session.LastScanned)
			assert.Equal(t, tt.wantDone, resp.Session.TotalDone)
		})
	}

	t.Run("Blank barcode is rejected", func(t *testing.T) {
		s := newTestServer(t)
		started := s.startSession(t)

		w := s.do(http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/camera", map[string]string{"barcode": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
	})
}

func TestKeysHandler(t *testing.T) {
	s := newTestServer(t)
	started := s.startSession(t)
	path := "/api/v1/sessions/" + started.SessionID

	events := []map[string]string{{"key": "A"}, {"key": "B"}, {"key": "1"}, {"key": "Enter"}}
	w := s.do(http.MethodPost, path+"/keys", map[string]interface{}{"events": events})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	assert.Eventually(t, func() bool {
		view := decodeView(t, s.do(http.MethodGet, path, nil))
		return view.LastScanned == "AB1" && view.TotalDone == 5
	}, 2*time.Second, 10*time.Millisecond)

	t.Run("Keys typed into an input are ignored", func(t *testing.T) {
		events := []map[string]string{{"key": "Z", "target": "input"}, {"key": "Enter", "target": "input"}}
		w := s.do(http.MethodPost, path+"/keys", map[string]interface{}{"events": events})
		require.Equal(t, http.StatusAccepted, w.Code)

		view := decodeView(t, s.do(http.MethodGet, path, nil))
		assert.Equal(t, "AB1", view.LastScanned)
	})

	t.Run("Empty event list", func(t *testing.T) {
		w := s.do(http.MethodPost, path+"/keys", map[string]interface{}{"events": []map[string]string{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestToggleScanModeHandler(t *testing.T) {
	s := newTestServer(t)
	started := s.startSession(t)
	path := "/api/v1/sessions/" + started.SessionID + "/scan-mode/toggle"

	w := s.do(http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.Equal(t, "location", view.ScanMode)
	require.NotEmpty(t, view.Notifications)
	assert.Equal(t, "Scan mode: Locations", view.Notifications[len(view.Notifications)-1].Message)

	w = s.do(http.MethodPost, path, nil)
	assert.Equal(t, "product", decodeView(t, w).ScanMode)
}

func TestReloadHandler(t *testing.T) {
	s := newTestServer(t)
	started := s.startSession(t)

	s.store.setDone(decimal.NewFromInt(4))
	w := s.do(http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.Equal(t, 4.0, view.TotalDone)
	assert.Equal(t, int64(80), view.ProgressPercent)
}

func TestValidateHandler(t *testing.T) {
	s := newTestServer(t)
	started := s.startSession(t)
	path := "/api/v1/sessions/" + started.SessionID

	w := s.do(http.MethodPost, path+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeView(t, w)
	assert.True(t, view.Closed)
	require.NotNil(t, view.ReturnTo)
	assert.Equal(t, "stock.picking", view.ReturnTo.Model)
	assert.Equal(t, "op-1", view.ReturnTo.ID)
	assert.Equal(t, []string{"op-1"}, s.finalizer.calls)

	assert.Eventually(t, func() bool {
		return s.do(http.MethodGet, path, nil).Code == http.StatusNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestValidateHandler_NothingDone(t *testing.T) {
	s := newTestServer(t)
	s.store.setDone(decimal.Zero)
	started := s.startSession(t)
	assert.False(t, started.CanValidate)

	w := s.do(http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/validate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, application.MsgNothingToValidate, decodeError(t, w).Message)
	assert.Empty(t, s.finalizer.calls)
}

func TestCloseHandler(t *testing.T) {
	s := newTestServer(t)
	started := s.startSession(t)
	path := "/api/v1/sessions/" + started.SessionID

	w := s.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, w)
	assert.True(t, view.Closed)
	require.NotNil(t, view.ReturnTo)
	assert.Equal(t, "op-1", view.ReturnTo.ID)

	w = s.do(http.MethodDelete, path, nil)
	assert.Contains(t, []int{http.StatusNotFound, http.StatusGone}, w.Code)
}
