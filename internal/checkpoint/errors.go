package checkpoint

import (
	"errors"
	"fmt"
)

// MismatchError is a resume attempted against a script or topology other
// than the one the checkpoint was produced with. Resuming across a
// rewiring of the rig would command the wrong hardware, so this is fatal.
type MismatchError struct {
	RunID string
	Field string // "script" or "topology"
	Want  string
	Got   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("CHECKPOINT_MISMATCH: run %s: %s fingerprint %s does not match current %s",
		e.RunID, e.Field, e.Want, e.Got)
}

// IsMismatch reports whether err is a checkpoint fingerprint mismatch.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}
