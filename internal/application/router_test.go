package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
)

func newTestRouter() (*ScanRouter, *MockScanResolver, *MockOperationStore, *metrics.Metrics) {
	resolver := new(MockScanResolver)
	store := new(MockOperationStore)
	m := metrics.New(metrics.DefaultConfig("test"))
	logger := logging.NewNop()
	return NewScanRouter(resolver, NewReconciler(store, logger, m), logger, m), resolver, store, m
}

func TestScanRouter_NoOpWithoutOperationOrToken(t *testing.T) {
	tests := []struct {
		name        string
		operationID string
		token       string
	}{
		{"no operation", "", "4006381333931"},
		{"empty token", "op-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, resolver, store, _ := newTestRouter()

			result := router.Submit(context.Background(), tt.operationID, tt.token, SourceKeyboard)

			assert.True(t, result.Outcome.IsNone())
			assert.Empty(t, result.Notifications)
			assert.Nil(t, result.Reconciliation)
			resolver.AssertNotCalled(t, "ResolveScan", mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "ListRealizedLines", mock.Anything, mock.Anything)
		})
	}
}

func TestScanRouter_SuccessRefreshes(t *testing.T) {
	router, resolver, store, m := newTestRouter()
	resolver.On("ResolveScan", mock.Anything, "op-1", "DESK").
		Return(domain.Success("Desk", "Product added"), nil)
	store.On("ListRealizedLines", mock.Anything, "op-1").Return(realizedA("4"), nil).Once()
	store.On("ListPlannedLines", mock.Anything, "op-1").Return(plannedA("10", "4"), nil).Once()

	result := router.Submit(context.Background(), "op-1", "DESK", SourceCamera)

	assert.Equal(t, domain.OutcomeSuccess, result.Outcome.Kind)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, domain.NotificationSuccess, result.Notifications[0].Level)
	assert.Equal(t, "Desk", result.Notifications[0].Title)
	assert.Equal(t, "Product added", result.Notifications[0].Message)

	require.NotNil(t, result.Reconciliation)
	assert.Equal(t, "10", result.Reconciliation.TotalExpected.String())
	assert.Equal(t, "4", result.Reconciliation.TotalDone.String())
	require.Len(t, result.Reconciliation.Rows, 1)
	assert.Equal(t, "WH/Stock", result.Reconciliation.Rows[0].LocationFrom)

	store.AssertExpectations(t)
	assert.Equal(t, float64(1), counterValue(t, m, "wms_scanner_tokens_captured_total", "source", SourceCamera))
	assert.Equal(t, float64(1), counterValue(t, m, "wms_scanner_scan_outcomes_total", "outcome", "success"))
}

func TestScanRouter_NonSuccessOutcomesDoNotRefresh(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.ScanOutcome
		level   domain.NotificationLevel
	}{
		{"warning", domain.Warning("", "already scanned"), domain.NotificationWarning},
		{"error", domain.Failure("Unknown barcode"), domain.NotificationDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, resolver, store, _ := newTestRouter()
			resolver.On("ResolveScan", mock.Anything, "op-1", "X").Return(tt.outcome, nil)

			result := router.Submit(context.Background(), "op-1", "X", SourceKeyboard)

			assert.Equal(t, tt.outcome, result.Outcome)
			require.Len(t, result.Notifications, 1)
			assert.Equal(t, tt.level, result.Notifications[0].Level)
			assert.Equal(t, tt.outcome.Message, result.Notifications[0].Message)
			assert.Nil(t, result.Reconciliation)
			store.AssertNotCalled(t, "ListRealizedLines", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "ListPlannedLines", mock.Anything, mock.Anything)
		})
	}
}

func TestScanRouter_MalformedOutcome(t *testing.T) {
	router, resolver, store, m := newTestRouter()
	resolver.On("ResolveScan", mock.Anything, "op-1", "X").
		Return(domain.ScanOutcome{}, fmt.Errorf("decode resolver response: %w", domain.ErrMalformedOutcome))

	result := router.Submit(context.Background(), "op-1", "X", SourceKeyboard)

	assert.Equal(t, domain.OutcomeMalformed, result.Outcome.Kind)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, domain.NotificationDanger, result.Notifications[0].Level)
	assert.Equal(t, MsgMalformedOutcome, result.Notifications[0].Message)
	assert.Nil(t, result.Reconciliation)
	store.AssertNotCalled(t, "ListRealizedLines", mock.Anything, mock.Anything)
	assert.Equal(t, float64(1), counterValue(t, m, "wms_scanner_scan_outcomes_total", "outcome", "malformed"))
}

func TestScanRouter_TransportFailureIsContained(t *testing.T) {
	router, resolver, _, m := newTestRouter()
	resolver.On("ResolveScan", mock.Anything, "op-1", "X").
		Return(domain.ScanOutcome{}, errors.New("connection refused"))

	result := router.Submit(context.Background(), "op-1", "X", SourceKeyboard)

	assert.Equal(t, domain.Failure(MsgProcessingError), result.Outcome)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, MsgProcessingError, result.Notifications[0].Message)
	assert.Nil(t, result.Reconciliation)
	assert.Equal(t, float64(1), counterValue(t, m, "wms_scanner_scan_outcomes_total", "outcome", "transport_error"))
}

func TestScanRouter_RefreshFailureLeavesStateAlone(t *testing.T) {
	router, resolver, store, _ := newTestRouter()
	resolver.On("ResolveScan", mock.Anything, "op-1", "DESK").Return(domain.Success("", "ok"), nil)
	store.On("ListRealizedLines", mock.Anything, "op-1").Return(nil, errors.New("store down"))

	result := router.Submit(context.Background(), "op-1", "DESK", SourceKeyboard)

	assert.Equal(t, domain.OutcomeSuccess, result.Outcome.Kind)
	assert.Nil(t, result.Reconciliation)
	require.Len(t, result.Notifications, 2)
	assert.Equal(t, domain.NotificationSuccess, result.Notifications[0].Level)
	assert.Equal(t, MsgReloadError, result.Notifications[1].Message)
	store.AssertNotCalled(t, "ListPlannedLines", mock.Anything, mock.Anything)
}
