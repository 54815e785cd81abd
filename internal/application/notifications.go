package application

import (
	"fmt"
	"time"

	"github.com/wms-platform/scanner-service/internal/domain"
)

// User-facing messages
const (
	MsgProcessingError      = "Error processing barcode"
	MsgMalformedOutcome     = "Unexpected response from the barcode service"
	MsgReloadError          = "Error reloading picking lines"
	MsgLoadError            = "Error loading picking"
	MsgValidated            = "Picking validated successfully"
	MsgValidationErrorFmt   = "Error validating picking: %s"
	MsgScanModeFmt          = "Scan mode: %s"
	MsgCameraScannerTitle   = "Scan Product or Location"
	MsgNothingToValidate    = "Nothing has been scanned yet"
	MsgOperationNotEditable = "Picking is not in a state that can be validated"
)

func notification(now time.Time, level domain.NotificationLevel, title, message string) domain.Notification {
	return domain.Notification{Level: level, Title: title, Message: message, At: now}
}

func outcomeNotification(now time.Time, outcome domain.ScanOutcome) domain.Notification {
	return notification(now, outcome.NotificationLevel(), outcome.Title, outcome.Message)
}

func scanModeNotification(now time.Time, mode domain.ScanMode) domain.Notification {
	return notification(now, domain.NotificationInfo, "", fmt.Sprintf(MsgScanModeFmt, mode.Label()))
}

func validationFailedNotification(now time.Time, err error) domain.Notification {
	return notification(now, domain.NotificationDanger, "", fmt.Sprintf(MsgValidationErrorFmt, err.Error()))
}
