package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logging.NewNop()
	breaker := resilience.NewCircuitBreaker(BreakerConfig(), logger.Logger, nil)
	return NewClient(&Config{BaseURL: server.URL, Timeout: 5 * time.Second}, breaker, logger)
}

func TestClient_ResolveScan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/pickings/op-1/scan", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "4006381333931", body["barcode"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":{"title":"Product Added","message":"Desk x1"}}`))
	})

	outcome, err := client.ResolveScan(context.Background(), "op-1", "4006381333931")

	require.NoError(t, err)
	assert.Equal(t, domain.Success("Product Added", "Desk x1"), outcome)
}

func TestClient_ResolveScanMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	_, err := client.ResolveScan(context.Background(), "op-1", "X")

	assert.ErrorIs(t, err, domain.ErrMalformedOutcome)
}

func TestClient_ResolveScanServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ResolveScan(context.Background(), "op-1", "X")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMalformedOutcome)
	var backendErr *Error
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusBadGateway, backendErr.StatusCode)
}

func TestClient_FinalizeOperation(t *testing.T) {
	var called atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		assert.Equal(t, "/api/v1/pickings/op-1/validate", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.FinalizeOperation(context.Background(), domain.OperationContext{ID: "op-1"})

	require.NoError(t, err)
	assert.True(t, called.Load())
}

func TestClient_FinalizeOperationRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error string", http.StatusUnprocessableEntity, `{"error":"You cannot validate a transfer if no quantities are reserved"}`, "You cannot validate a transfer if no quantities are reserved"},
		{"error object", http.StatusConflict, `{"error":{"code":"CONFLICT","message":"Backorder required"}}`, "Backorder required"},
		{"message", http.StatusBadRequest, `{"message":"Picking is done"}`, "Picking is done"},
		{"no body", http.StatusBadRequest, ``, "request failed with status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := client.FinalizeOperation(context.Background(), domain.OperationContext{ID: "op-1"})

			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		_, err := client.ResolveScan(context.Background(), "op-1", "X")
		require.Error(t, err)
	}

	_, err := client.ResolveScan(context.Background(), "op-1", "X")

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(resilience.DefaultFailureThreshold), hits.Load())
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Picking not found"}`))
	})

	for i := 0; i < int(resilience.DefaultFailureThreshold)+1; i++ {
		_, err := client.ResolveScan(context.Background(), "op-1", "X")
		require.Error(t, err)
		assert.Equal(t, "Picking not found", err.Error())
	}
}
