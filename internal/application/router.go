package application

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/metrics"
)

// Token sources
const (
	SourceKeyboard = "keyboard"
	SourceCamera   = "camera"
)

// outcome label recorded when the resolver could not be reached
const outcomeTransportError = "transport_error"

// ScanResult is everything a submission wants applied to the session
type ScanResult struct {
	Outcome        domain.ScanOutcome
	Notifications  []domain.Notification
	Reconciliation *domain.Reconciliation
}

// ScanRouter resolves tokens and maps outcomes onto session effects.
// Failures are contained here and degrade to user-facing messages.
type ScanRouter struct {
	resolver   domain.ScanResolver
	reconciler *Reconciler
	logger     *logging.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// NewScanRouter creates a new ScanRouter
func NewScanRouter(resolver domain.ScanResolver, reconciler *Reconciler, logger *logging.Logger, m *metrics.Metrics) *ScanRouter {
	return &ScanRouter{
		resolver:   resolver,
		reconciler: reconciler,
		logger:     logger.WithComponent("scan-router"),
		metrics:    m,
		tracer:     otel.Tracer("scanner-service"),
		now:        time.Now,
	}
}

// Submit resolves token for the operation. Without an operation or a token it
// is a no-op returning the zero result.
func (r *ScanRouter) Submit(ctx context.Context, operationID, token, source string) ScanResult {
	if operationID == "" || token == "" {
		return ScanResult{}
	}

	ctx, span := r.tracer.Start(ctx, "scanner.submit", trace.WithAttributes(
		attribute.String("scanner.operation.id", operationID),
		attribute.String("scanner.source", source),
	))
	defer span.End()

	r.metrics.RecordTokenCaptured(source)
	logger := r.logger.WithContext(ctx).WithFields(map[string]any{"operationId": operationID, "barcode": token})

	outcome, err := r.resolver.ResolveScan(ctx, operationID, token)
	switch {
	case errors.Is(err, domain.ErrMalformedOutcome):
		logger.WithError(err).Error("Resolver returned a malformed outcome")
		outcome = domain.Malformed(MsgMalformedOutcome)
	case err != nil:
		logger.WithError(err).Warn("Failed to resolve barcode")
		r.metrics.RecordScanOutcome(outcomeTransportError)
		span.SetAttributes(attribute.String("scanner.outcome", outcomeTransportError))
		return ScanResult{
			Outcome:       domain.Failure(MsgProcessingError),
			Notifications: []domain.Notification{notification(r.now(), domain.NotificationDanger, "", MsgProcessingError)},
		}
	}

	r.metrics.RecordScanOutcome(string(outcome.Kind))
	span.SetAttributes(attribute.String("scanner.outcome", string(outcome.Kind)))

	result := ScanResult{
		Outcome:       outcome,
		Notifications: []domain.Notification{outcomeNotification(r.now(), outcome)},
	}
	if !outcome.RefreshesState() {
		logger.Debug("Scan resolved without state change", "outcome", outcome.Kind)
		return result
	}

	reconciliation, err := r.reconciler.Reconcile(ctx, operationID)
	if err != nil {
		span.RecordError(err)
		result.Notifications = append(result.Notifications, notification(r.now(), domain.NotificationDanger, "", MsgReloadError))
		return result
	}
	result.Reconciliation = &reconciliation
	return result
}
