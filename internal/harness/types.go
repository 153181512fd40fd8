package harness

import "github.com/chemputer/chempiler/internal/rig"

// TraceEvent is one committed command: its position in the procedure,
// its fully resolved text, and the rig state after it finished.
type TraceEvent struct {
	Seq      int          `json:"seq"`
	Command  string       `json:"command"`
	Snapshot rig.Snapshot `json:"snapshot"`
}

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when the run completed and every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every committed command in dispatch order.
	Trace []TraceEvent `json:"trace"`

	// Errors collects the run failure and any failed assertions.
	Errors []string `json:"errors,omitempty"`

	// Final is the rig snapshot after the last command.
	Final rig.Snapshot `json:"final"`
}

// NewResult returns an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
