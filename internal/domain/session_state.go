package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScanMode is a UI hint for what the operator is scanning. It does not change
// how the server interprets a token.
type ScanMode string

const (
	ScanModeProduct  ScanMode = "product"
	ScanModeLocation ScanMode = "location"
)

// Label returns the human-readable name of the mode
func (m ScanMode) Label() string {
	if m == ScanModeLocation {
		return "Locations"
	}
	return "Products"
}

// NotificationLevel is the presentation level of a user-facing message
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationDanger  NotificationLevel = "danger"
)

// Notification is a user-facing message raised by the session
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
	At      time.Time
}

// ReturnTarget tells the presentation layer where to navigate after close
type ReturnTarget struct {
	Model string
	ID    string
}

// DefaultNotificationLimit bounds the notification feed kept per session
const DefaultNotificationLimit = 20

// SessionState is the aggregate root of one scan session. It is owned by a
// single goroutine and never shared between sessions.
type SessionState struct {
	Operation     *OperationContext
	Rows          []RealizedLineRow
	TotalExpected decimal.Decimal
	TotalDone     decimal.Decimal
	LastScanned   string
	ScanMode      ScanMode
	Loading       bool
	Closed        bool
	ReturnTo      *ReturnTarget
	Notifications []Notification

	notificationLimit int
}

// NewSessionState returns an empty session in product mode, loading
func NewSessionState(notificationLimit int) *SessionState {
	if notificationLimit <= 0 {
		notificationLimit = DefaultNotificationLimit
	}
	return &SessionState{
		ScanMode:          ScanModeProduct,
		Loading:           true,
		notificationLimit: notificationLimit,
	}
}

// OperationID returns the active operation id or "" when none is loaded
func (s *SessionState) OperationID() string {
	if s.Operation == nil {
		return ""
	}
	return s.Operation.ID
}

// ProgressPercent is derived from the current totals on every call
func (s *SessionState) ProgressPercent() int64 {
	return ProgressPercent(s.TotalExpected, s.TotalDone)
}

// CanValidate is derived from the current state on every call
func (s *SessionState) CanValidate() bool {
	if s.Operation == nil || s.Closed {
		return false
	}
	return s.Operation.State.IsValidatable() && s.TotalDone.IsPositive()
}

// IsComplete reports whether everything expected has been done
func (s *SessionState) IsComplete() bool {
	return s.TotalExpected.IsPositive() && s.TotalDone.GreaterThanOrEqual(s.TotalExpected)
}

// Load installs a freshly loaded operation together with its reconciliation
func (s *SessionState) Load(op OperationContext, r Reconciliation) {
	s.Operation = &op
	s.Replace(r)
	s.Loading = false
}

// Replace swaps rows and totals for the result of a reconciliation pass
func (s *SessionState) Replace(r Reconciliation) {
	s.Rows = r.Rows
	s.TotalExpected = r.TotalExpected
	s.TotalDone = r.TotalDone
}

// ToggleScanMode flips between product and location and returns the new mode
func (s *SessionState) ToggleScanMode() ScanMode {
	if s.ScanMode == ScanModeProduct {
		s.ScanMode = ScanModeLocation
	} else {
		s.ScanMode = ScanModeProduct
	}
	return s.ScanMode
}

// Close marks the session finished and records where to return to
func (s *SessionState) Close(target *ReturnTarget) {
	s.Closed = true
	s.Loading = false
	s.ReturnTo = target
}

// Notify appends a notification, dropping the oldest past the limit
func (s *SessionState) Notify(n Notification) {
	s.Notifications = append(s.Notifications, n)
	if over := len(s.Notifications) - s.notificationLimit; over > 0 {
		s.Notifications = append([]Notification(nil), s.Notifications[over:]...)
	}
}
