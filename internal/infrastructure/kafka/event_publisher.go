package kafka

import (
	"context"
	"fmt"

	"github.com/wms-platform/scanner-service/internal/domain"
	"github.com/wms-platform/scanner-service/pkg/cloudevents"
	pkgkafka "github.com/wms-platform/scanner-service/pkg/kafka"
)

// SessionEventPublisher publishes scan session events as CloudEvents
type SessionEventPublisher struct {
	producer pkgkafka.EventPublisher
	factory  *cloudevents.EventFactory
	topic    string
}

// NewSessionEventPublisher creates a new SessionEventPublisher
func NewSessionEventPublisher(producer pkgkafka.EventPublisher, factory *cloudevents.EventFactory, topic string) *SessionEventPublisher {
	return &SessionEventPublisher{
		producer: producer,
		factory:  factory,
		topic:    topic,
	}
}

// Publish wraps event in a CloudEvent keyed by the operation and sends it
func (p *SessionEventPublisher) Publish(ctx context.Context, sessionID string, op domain.OperationContext, event domain.DomainEvent) error {
	ce := p.factory.New(event.EventType(), cloudevents.OperationSubject(op.ID), event,
		cloudevents.WithSession(sessionID),
		cloudevents.WithWorkflow(op.PickingWorkflowID()),
	)
	ce.Time = event.OccurredAt().UTC()

	if err := p.producer.PublishEvent(ctx, p.topic, ce); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	return nil
}
