package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// SessionStartedEvent is published when a scan session loads its operation
type SessionStartedEvent struct {
	SessionID   string    `json:"sessionId"`
	OperationID string    `json:"operationId"`
	State       string    `json:"state"`
	StartedAt   time.Time `json:"startedAt"`
}

func (e *SessionStartedEvent) EventType() string     { return "wms.scanner.session-started" }
func (e *SessionStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// ScanResolvedEvent is published for every token the resolver answered
type ScanResolvedEvent struct {
	SessionID       string    `json:"sessionId"`
	OperationID     string    `json:"operationId"`
	Barcode         string    `json:"barcode"`
	Source          string    `json:"source"`
	Outcome         string    `json:"outcome"`
	Message         string    `json:"message,omitempty"`
	ProgressPercent int64     `json:"progressPercent"`
	ResolvedAt      time.Time `json:"resolvedAt"`
}

func (e *ScanResolvedEvent) EventType() string     { return "wms.scanner.scan-resolved" }
func (e *ScanResolvedEvent) OccurredAt() time.Time { return e.ResolvedAt }

// ScanModeToggledEvent is published when the operator flips the scan mode
type ScanModeToggledEvent struct {
	SessionID   string    `json:"sessionId"`
	OperationID string    `json:"operationId"`
	ScanMode    string    `json:"scanMode"`
	ToggledAt   time.Time `json:"toggledAt"`
}

func (e *ScanModeToggledEvent) EventType() string     { return "wms.scanner.scan-mode-toggled" }
func (e *ScanModeToggledEvent) OccurredAt() time.Time { return e.ToggledAt }

// OperationValidatedEvent is published when the operation was finalized
type OperationValidatedEvent struct {
	SessionID     string    `json:"sessionId"`
	OperationID   string    `json:"operationId"`
	TotalExpected float64   `json:"totalExpected"`
	TotalDone     float64   `json:"totalDone"`
	AutoValidated bool      `json:"autoValidated"`
	ValidatedAt   time.Time `json:"validatedAt"`
}

func (e *OperationValidatedEvent) EventType() string     { return "wms.scanner.operation-validated" }
func (e *OperationValidatedEvent) OccurredAt() time.Time { return e.ValidatedAt }

// ValidationFailedEvent is published when finalizing the operation failed
type ValidationFailedEvent struct {
	SessionID   string    `json:"sessionId"`
	OperationID string    `json:"operationId"`
	Reason      string    `json:"reason"`
	FailedAt    time.Time `json:"failedAt"`
}

func (e *ValidationFailedEvent) EventType() string     { return "wms.scanner.validation-failed" }
func (e *ValidationFailedEvent) OccurredAt() time.Time { return e.FailedAt }

// SessionClosedEvent is published when a scan session is torn down
type SessionClosedEvent struct {
	SessionID   string    `json:"sessionId"`
	OperationID string    `json:"operationId"`
	Validated   bool      `json:"validated"`
	ClosedAt    time.Time `json:"closedAt"`
}

func (e *SessionClosedEvent) EventType() string     { return "wms.scanner.session-closed" }
func (e *SessionClosedEvent) OccurredAt() time.Time { return e.ClosedAt }
