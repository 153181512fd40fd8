package dispatch

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError is a WAIT-family command whose measurement never crossed
// the setpoint within the configured bound.
type TimeoutError struct {
	Node   string
	Target float64
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("TIMEOUT: %s: did not reach %g within %s", e.Node, e.Target, e.Waited)
}

// IsTimeout reports whether err is a wait-bound violation.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// CommandError wraps any runtime failure with the command it occurred
// in, so the operator log always carries the script line number.
type CommandError struct {
	Index int    // zero-based position in the command sequence
	Line  int    // source line in the script
	Cmd   string // rendered command text
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Cmd, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
