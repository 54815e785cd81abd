package application

import (
	"context"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
)

type MockOperationStore struct {
	mock.Mock
}

func (m *MockOperationStore) LoadOperation(ctx context.Context, operationID string) (*domain.OperationContext, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperationContext), args.Error(1)
}

func (m *MockOperationStore) ListPlannedLines(ctx context.Context, operationID string) ([]domain.PlannedLine, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlannedLine), args.Error(1)
}

func (m *MockOperationStore) ListRealizedLines(ctx context.Context, operationID string) ([]domain.RealizedLine, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RealizedLine), args.Error(1)
}

type MockScanResolver struct {
	mock.Mock
}

func (m *MockScanResolver) ResolveScan(ctx context.Context, operationID, barcode string) (domain.ScanOutcome, error) {
	args := m.Called(ctx, operationID, barcode)
	return args.Get(0).(domain.ScanOutcome), args.Error(1)
}

type MockFinalizer struct {
	mock.Mock
}

func (m *MockFinalizer) FinalizeOperation(ctx context.Context, op domain.OperationContext) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, sessionID string, op domain.OperationContext, event domain.DomainEvent) error {
	args := m.Called(ctx, sessionID, op, event)
	return args.Error(0)
}

// eventTypes returns the event types published so far, in order
func (m *MockEventPublisher) eventTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method == "Publish" {
			types = append(types, call.Arguments.Get(3).(domain.DomainEvent).EventType())
		}
	}
	return types
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assignedOperation() *domain.OperationContext {
	return &domain.OperationContext{
		ID:            "op-1",
		Name:          "WH/OUT/00001",
		State:         domain.OperationStateAssigned,
		PartnerName:   "Azure Interior",
		OperationType: "Delivery Orders",
	}
}

func plannedA(expected, done string) []domain.PlannedLine {
	return []domain.PlannedLine{{ProductID: "A", ProductName: "Desk", Expected: d(expected), Done: d(done), Sequence: 1}}
}

func realizedA(qty string) []domain.RealizedLine {
	if d(qty).IsZero() {
		return []domain.RealizedLine{}
	}
	return []domain.RealizedLine{{
		ID:                  "ml-1",
		ProductID:           "A",
		ProductName:         "Desk",
		Quantity:            d(qty),
		UoM:                 "Units",
		SourceLocation:      domain.LocationRef{ID: "8", Name: "WH/Stock"},
		DestinationLocation: domain.LocationRef{ID: "5", Name: "Partners/Customers"},
		Sequence:            1,
	}}
}

type fixture struct {
	store     *MockOperationStore
	resolver  *MockScanResolver
	finalizer *MockFinalizer
	publisher *MockEventPublisher
	clock     *clock.Mock
	metrics   *metrics.Metrics
	deps      SessionDeps
	cfg       SessionConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     new(MockOperationStore),
		resolver:  new(MockScanResolver),
		finalizer: new(MockFinalizer),
		publisher: new(MockEventPublisher),
		clock:     clock.NewMock(),
		metrics:   metrics.New(metrics.DefaultConfig("test")),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	logger := logging.NewNop()
	reconciler := NewReconciler(f.store, logger, f.metrics)
	f.deps = SessionDeps{
		Router:     NewScanRouter(f.resolver, reconciler, logger, f.metrics),
		Reconciler: reconciler,
		Finalizer:  f.finalizer,
		Publisher:  f.publisher,
		Logger:     logger,
		Metrics:    f.metrics,
	}
	f.cfg = DefaultSessionConfig()
	f.cfg.Clock = f.clock
	return f
}

// expectLoad primes the store for one load: the operation and one reconciliation
func (f *fixture) expectLoad(op *domain.OperationContext, planned []domain.PlannedLine, realized []domain.RealizedLine) {
	f.store.On("LoadOperation", mock.Anything, op.ID).Return(op, nil).Once()
	f.expectReconcile(op.ID, planned, realized)
}

func (f *fixture) expectReconcile(operationID string, planned []domain.PlannedLine, realized []domain.RealizedLine) {
	f.store.On("ListRealizedLines", mock.Anything, operationID).Return(realized, nil).Once()
	f.store.On("ListPlannedLines", mock.Anything, operationID).Return(planned, nil).Once()
}

// startSession opens a session directly, outside any manager
func (f *fixture) startSession(t *testing.T, operationID string) *Session {
	t.Helper()

	s := newSession("session-1", operationID, f.cfg, f.deps, nil)
	s.start()
	t.Cleanup(func() {
		if s.Active() {
			_, _ = s.Close(context.Background())
		}
	})
	_ = s.load(context.Background())
	return s
}

// counterValue sums the counter samples of family name carrying label=value
func counterValue(t *testing.T, m *metrics.Metrics, name, label, value string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}
