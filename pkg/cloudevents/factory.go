package cloudevents

import (
	"time"

	"github.com/google/uuid"
)

// Option sets an optional attribute on an event being built
type Option func(*WMSCloudEvent)

// WithSession tags the event with its scan session. The session doubles as
// the correlation ID so consumers can group one picker's events.
func WithSession(sessionID string) Option {
	return func(e *WMSCloudEvent) {
		e.SessionID = sessionID
		e.CorrelationID = sessionID
	}
}

func WithWorkflow(workflowID string) Option {
	return func(e *WMSCloudEvent) {
		e.WorkflowID = workflowID
	}
}

// OperationSubject is the subject, and therefore partition key, of every
// event about one picking operation
func OperationSubject(operationID string) string {
	return "picking/" + operationID
}

// EventFactory stamps events with one source
type EventFactory struct {
	source string
	now    func() time.Time
}

func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// New builds a JSON event with a fresh ID and UTC timestamp
func (f *EventFactory) New(eventType, subject string, data any, opts ...Option) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.NewString(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
	for _, opt := range opts {
		opt(event)
	}
	return event
}
