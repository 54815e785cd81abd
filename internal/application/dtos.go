package application

import (
	"time"
)

// LineDTO is one realized line row
type LineDTO struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	Quantity     float64 `json:"quantity"`
	UoM          string  `json:"uom"`
	Lot          string  `json:"lot"`
	LocationFrom string  `json:"locationFrom"`
	LocationTo   string  `json:"locationTo"`
}

// NotificationDTO is a user-facing message
type NotificationDTO struct {
	Type    string    `json:"type"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// OutcomeDTO is the outcome of the latest scan
type OutcomeDTO struct {
	Kind    string `json:"kind"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Barcode string `json:"barcode"`
}

// ReturnTargetDTO tells the client which record to return to after close
type ReturnTargetDTO struct {
	Model string `json:"model"`
	ID    string `json:"id"`
}

// SessionView is the read-only projection of a scan session. Views are
// immutable snapshots; a new one is published after every command.
type SessionView struct {
	SessionID       string            `json:"sessionId"`
	Version         uint64            `json:"version"`
	OperationID     string            `json:"operationId"`
	OperationName   string            `json:"operationName"`
	OperationType   string            `json:"operationType,omitempty"`
	State           string            `json:"state"`
	PartnerName     string            `json:"partnerName,omitempty"`
	Lines           []LineDTO         `json:"lines"`
	TotalExpected   float64           `json:"totalExpected"`
	TotalDone       float64           `json:"totalDone"`
	ProgressPercent int64             `json:"progressPercent"`
	CanValidate     bool              `json:"canValidate"`
	LastScanned     string            `json:"lastScanned,omitempty"`
	LastOutcome     *OutcomeDTO       `json:"lastOutcome,omitempty"`
	ScanMode        string            `json:"scanMode"`
	IsLoading       bool              `json:"isLoading"`
	Closed          bool              `json:"closed"`
	ReturnTo        *ReturnTargetDTO  `json:"returnTo,omitempty"`
	Notifications   []NotificationDTO `json:"notifications"`
}
