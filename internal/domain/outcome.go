package domain

// OutcomeKind tags the variant held by a ScanOutcome
type OutcomeKind string

const (
	// OutcomeNone is the zero outcome of a scan that was not submitted
	OutcomeNone      OutcomeKind = ""
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeWarning   OutcomeKind = "warning"
	OutcomeError     OutcomeKind = "error"
	OutcomeMalformed OutcomeKind = "malformed"
)

// ScanOutcome is the result of resolving one token. Exactly one kind is set.
type ScanOutcome struct {
	Kind    OutcomeKind
	Title   string
	Message string
}

// Success builds a success outcome
func Success(title, message string) ScanOutcome {
	return ScanOutcome{Kind: OutcomeSuccess, Title: title, Message: message}
}

// Warning builds a warning outcome
func Warning(title, message string) ScanOutcome {
	return ScanOutcome{Kind: OutcomeWarning, Title: title, Message: message}
}

// Failure builds an error outcome
func Failure(message string) ScanOutcome {
	return ScanOutcome{Kind: OutcomeError, Message: message}
}

// Malformed builds the outcome surfaced when the resolver broke its contract
func Malformed(message string) ScanOutcome {
	return ScanOutcome{Kind: OutcomeMalformed, Message: message}
}

// IsNone reports whether the outcome is the no-op outcome
func (o ScanOutcome) IsNone() bool {
	return o.Kind == OutcomeNone
}

// RefreshesState reports whether the server changed state worth re-fetching
func (o ScanOutcome) RefreshesState() bool {
	return o.Kind == OutcomeSuccess
}

// NotificationLevel maps the outcome onto the level it is surfaced at
func (o ScanOutcome) NotificationLevel() NotificationLevel {
	switch o.Kind {
	case OutcomeSuccess:
		return NotificationSuccess
	case OutcomeWarning:
		return NotificationWarning
	default:
		return NotificationDanger
	}
}
