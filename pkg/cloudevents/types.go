package cloudevents

import (
	"time"
)

// Event types emitted by the scanner service
const (
	ScanSessionStarted = "wms.scanner.session-started"
	ScanResolved       = "wms.scanner.scan-resolved"
	ScanModeToggled    = "wms.scanner.scan-mode-toggled"
	OperationValidated = "wms.scanner.operation-validated"
	ValidationFailed   = "wms.scanner.validation-failed"
	ScanSessionClosed  = "wms.scanner.session-closed"
)

// SourceScanner is the CloudEvents source of every scanner event
const SourceScanner = "/wms/scanner-service"

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
	SessionID     string `json:"wmsscansessionid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}
