package types

// FileRecord is one generated file as a flat (path, content) pair.
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Severity ranks an Issue. Only SeverityCritical blocks hand-off.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Penalty is the score deduction applied per issue of this severity.
func (s Severity) Penalty() int {
	switch s {
	case SeverityCritical:
		return 30
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2
	default:
		return 0
	}
}

// Issue is a defect reported by the parser, a repair pass, or the scorer.
type Issue struct {
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Message  string   `json:"message"`
}

// ProgressType tags a ProgressEvent.
type ProgressType string

const (
	ProgressInfo    ProgressType = "info"
	ProgressSuccess ProgressType = "success"
	ProgressWarning ProgressType = "warning"
	ProgressError   ProgressType = "error"
)

// ProgressEvent is emitted at every orchestrator and repair checkpoint.
type ProgressEvent struct {
	Type    ProgressType `json:"type"`
	Message string       `json:"message"`
	Stage   string       `json:"stage,omitempty"`
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid and drops events.
type ProgressFunc func(ProgressEvent)

// Emit calls f if it is non-nil.
func (f ProgressFunc) Emit(t ProgressType, stage, msg string) {
	if f == nil {
		return
	}
	f(ProgressEvent{Type: t, Message: msg, Stage: stage})
}
