package application

import "github.com/wms-platform/scanner-service/internal/capture"

// StartSessionCommand opens a scan session on an operation
type StartSessionCommand struct {
	OperationID string
}

// HandleKeysCommand feeds raw key events to a session's keystroke capture
type HandleKeysCommand struct {
	SessionID string
	Events    []capture.KeyEvent
}

// CameraScanCommand delivers a barcode decoded by the camera scanner
type CameraScanCommand struct {
	SessionID string
	Barcode   string
}

// SessionCommand addresses an existing session
type SessionCommand struct {
	SessionID string
}
