package domain

import "context"

// OperationStore reads the picking records a session reconciles against
type OperationStore interface {
	LoadOperation(ctx context.Context, operationID string) (*OperationContext, error)
	ListPlannedLines(ctx context.Context, operationID string) ([]PlannedLine, error)
	ListRealizedLines(ctx context.Context, operationID string) ([]RealizedLine, error)
}

// ScanResolver interprets a token server-side. A response carrying none of the
// outcome kinds is reported as an error wrapping ErrMalformedOutcome.
type ScanResolver interface {
	ResolveScan(ctx context.Context, operationID, barcode string) (ScanOutcome, error)
}

// OperationFinalizer finalizes (validates) a picking operation
type OperationFinalizer interface {
	FinalizeOperation(ctx context.Context, op OperationContext) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, op OperationContext, event DomainEvent) error
}

// ScannerOptions configures a camera scanner registration
type ScannerOptions struct {
	Title  string
	OnScan func(barcode string)
}

// CameraScanner is the camera dialog collaborator. Decoded barcodes are handed
// to the OnScan callback of the registration.
type CameraScanner interface {
	OpenScanner(sessionID string, opts ScannerOptions) error
	CloseScanner(sessionID string)
}
