package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
	"github.com/wms-platform/scanner-service/pkg/tracing"
)

// Reconciler recomputes an operation's totals and display rows from the store
type Reconciler struct {
	store   domain.OperationStore
	logger  *logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewReconciler creates a new Reconciler
func NewReconciler(store domain.OperationStore, logger *logging.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		logger:  logger.WithComponent("reconciler"),
		metrics: m,
		tracer:  otel.Tracer("scanner-service"),
	}
}

// Reconcile fetches realized then planned lines and folds them from scratch.
// It never mutates session state; the caller applies the result.
func (r *Reconciler) Reconcile(ctx context.Context, operationID string) (domain.Reconciliation, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "scanner.reconcile", trace.WithAttributes(tracing.SessionSpanAttributes("", operationID)...))

	result, err := r.reconcile(ctx, operationID)

	r.metrics.RecordReconciliation(err == nil, time.Since(start))
	tracing.EndSpan(span, err)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reconcile operation", "operationId", operationID)
	}
	return result, err
}

func (r *Reconciler) reconcile(ctx context.Context, operationID string) (domain.Reconciliation, error) {
	realized, err := r.store.ListRealizedLines(ctx, operationID)
	if err != nil {
		return domain.Reconciliation{}, fmt.Errorf("failed to list realized lines: %w", err)
	}

	planned, err := r.store.ListPlannedLines(ctx, operationID)
	if err != nil {
		return domain.Reconciliation{}, fmt.Errorf("failed to list planned lines: %w", err)
	}

	return domain.Reconcile(planned, realized), nil
}

// Load reads the operation and its first reconciliation. A missing operation
// is reported as domain.ErrOperationNotFound.
func (r *Reconciler) Load(ctx context.Context, operationID string) (*domain.OperationContext, domain.Reconciliation, error) {
	op, err := r.store.LoadOperation(ctx, operationID)
	if err != nil {
		return nil, domain.Reconciliation{}, fmt.Errorf("failed to load operation: %w", err)
	}
	if op == nil {
		return nil, domain.Reconciliation{}, domain.ErrOperationNotFound
	}

	result, err := r.Reconcile(ctx, operationID)
	if err != nil {
		return nil, domain.Reconciliation{}, err
	}
	return op, result, nil
}
