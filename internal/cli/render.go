package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/wms-platform/scanner-service/internal/application"
)

func outcomeColor(kind string) *color.Color {
	switch kind {
	case "success":
		return color.New(color.FgGreen)
	case "warning":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func notificationColor(kind string) *color.Color {
	switch kind {
	case "success":
		return color.New(color.FgGreen)
	case "warning":
		return color.New(color.FgYellow)
	case "danger":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}

// PrintOutcome writes one scan outcome line
func PrintOutcome(w io.Writer, outcome *application.OutcomeDTO) {
	if outcome == nil {
		return
	}
	label := outcomeColor(outcome.Kind).Sprintf("[%s]", outcome.Kind)
	if outcome.Title != "" {
		fmt.Fprintf(w, "%s %s: %s - %s\n", label, outcome.Barcode, outcome.Title, outcome.Message)
		return
	}
	fmt.Fprintf(w, "%s %s: %s\n", label, outcome.Barcode, outcome.Message)
}

// PrintProgress writes the one-line progress summary of a session
func PrintProgress(w io.Writer, view *application.SessionView) {
	validate := color.New(color.FgYellow).Sprint("not ready")
	if view.CanValidate {
		validate = color.New(color.FgGreen).Sprint("ready")
	}
	fmt.Fprintf(w, "Progress: %g / %g (%d%%)  validate: %s\n",
		view.TotalDone, view.TotalExpected, view.ProgressPercent, validate)
}

// PrintSession writes the full session view
func PrintSession(w io.Writer, view *application.SessionView) {
	fmt.Fprintf(w, "Session: %s\n", view.SessionID)
	if view.OperationID != "" {
		fmt.Fprintf(w, "Picking: %s - %s [%s]\n", view.OperationID, view.OperationName, view.State)
	}
	if view.PartnerName != "" {
		fmt.Fprintf(w, "Partner: %s\n", view.PartnerName)
	}
	fmt.Fprintf(w, "Scan mode: %s\n", view.ScanMode)
	PrintProgress(w, view)

	if view.LastScanned != "" {
		fmt.Fprintf(w, "Last scanned: %s\n", view.LastScanned)
	}
	PrintOutcome(w, view.LastOutcome)

	if len(view.Lines) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PRODUCT\tQTY\tUOM\tLOT\tFROM\tTO")
		for _, l := range view.Lines {
			fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\t%s\n", l.ProductName, l.Quantity, l.UoM, l.Lot, l.LocationFrom, l.LocationTo)
		}
		tw.Flush()
	}

	if len(view.Notifications) > 0 {
		fmt.Fprintln(w)
		for _, n := range view.Notifications {
			fmt.Fprintf(w, "%s %s\n", notificationColor(n.Type).Sprintf("(%s)", n.Type), n.Message)
		}
	}

	if view.Closed {
		fmt.Fprintln(w)
		if view.ReturnTo != nil {
			fmt.Fprintf(w, "Session closed, return to %s %s\n", view.ReturnTo.Model, view.ReturnTo.ID)
		} else {
			fmt.Fprintln(w, "Session closed")
		}
	}
}
