package temporal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/temporal"
	"github.com/wms-platform/scanner-service/pkg/tracing"
)

// PickingCompleteSignal is the payload of the picking workflow's completion signal
type PickingCompleteSignal struct {
	Success     bool      `json:"success"`
	OperationID string    `json:"operationId"`
	CompletedAt time.Time `json:"completedAt"`
}

// WorkflowFinalizer finalizes an operation by signalling the picking workflow
// that owns it
type WorkflowFinalizer struct {
	client *temporal.Client
	logger *logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewWorkflowFinalizer creates a new WorkflowFinalizer
func NewWorkflowFinalizer(client *temporal.Client, logger *logging.Logger) *WorkflowFinalizer {
	return &WorkflowFinalizer{
		client: client,
		logger: logger.WithComponent("workflow-finalizer"),
		tracer: otel.Tracer("temporal"),
		now:    time.Now,
	}
}

// FinalizeOperation sends pickingComplete to the operation's picking workflow
func (f *WorkflowFinalizer) FinalizeOperation(ctx context.Context, op domain.OperationContext) error {
	workflowID := op.PickingWorkflowID()
	signal := temporal.Signals.PickingComplete

	ctx, span := f.tracer.Start(ctx, "temporal.signal", trace.WithAttributes(tracing.WorkflowSpanAttributes(workflowID, signal)...))

	err := f.client.SignalWorkflow(ctx, workflowID, signal, PickingCompleteSignal{
		Success:     true,
		OperationID: op.ID,
		CompletedAt: f.now().UTC(),
	})
	tracing.EndSpan(span, err)

	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("picking workflow %s is not running", workflowID)
	}
	if err != nil {
		return err
	}

	f.logger.WithContext(ctx).Info("Signalled picking workflow", "workflowId", workflowID, "operationId", op.ID)
	return nil
}
