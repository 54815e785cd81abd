package application

import (
	"github.com/wms-platform/scanner-service/internal/domain"
)

func toLineDTOs(rows []domain.RealizedLineRow) []LineDTO {
	lines := make([]LineDTO, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, LineDTO{
			ID:           row.ID,
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			Quantity:     row.Quantity.InexactFloat64(),
			UoM:          row.UoM,
			Lot:          row.Lot,
			LocationFrom: row.LocationFrom,
			LocationTo:   row.LocationTo,
		})
	}
	return lines
}

func toNotificationDTOs(notifications []domain.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationDTO{
			Type:    string(n.Level),
			Title:   n.Title,
			Message: n.Message,
			At:      n.At,
		})
	}
	return out
}

func toOutcomeDTO(barcode string, outcome domain.ScanOutcome) *OutcomeDTO {
	if outcome.IsNone() {
		return nil
	}
	return &OutcomeDTO{
		Kind:    string(outcome.Kind),
		Title:   outcome.Title,
		Message: outcome.Message,
		Barcode: barcode,
	}
}

// ToSessionView copies the session state into an immutable view
func ToSessionView(sessionID string, version uint64, state *domain.SessionState, lastOutcome *OutcomeDTO) SessionView {
	view := SessionView{
		SessionID:       sessionID,
		Version:         version,
		Lines:           toLineDTOs(state.Rows),
		TotalExpected:   state.TotalExpected.InexactFloat64(),
		TotalDone:       state.TotalDone.InexactFloat64(),
		ProgressPercent: state.ProgressPercent(),
		CanValidate:     state.CanValidate(),
		LastScanned:     state.LastScanned,
		LastOutcome:     lastOutcome,
		ScanMode:        string(state.ScanMode),
		IsLoading:       state.Loading,
		Closed:          state.Closed,
		Notifications:   toNotificationDTOs(state.Notifications),
	}

	if op := state.Operation; op != nil {
		view.OperationID = op.ID
		view.OperationName = op.Name
		view.OperationType = op.OperationType
		view.State = string(op.State)
		view.PartnerName = op.PartnerName
	}

	if state.ReturnTo != nil {
		view.ReturnTo = &ReturnTargetDTO{Model: state.ReturnTo.Model, ID: state.ReturnTo.ID}
	}

	return view
}
