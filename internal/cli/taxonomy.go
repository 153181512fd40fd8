package cli

import (
	"errors"

	"github.com/chemputer/chempiler/internal/chasm"
	"github.com/chemputer/chempiler/internal/checkpoint"
	"github.com/chemputer/chempiler/internal/dispatch"
	"github.com/chemputer/chempiler/internal/graph"
	"github.com/chemputer/chempiler/internal/rig"
)

// errorCode maps an error onto its taxonomy code for operator-facing
// output: PARSE_*, NO_ROUTE, ROUTE_CONFLICT, DEVICE_*, TIMEOUT,
// CHECKPOINT_MISMATCH.
func errorCode(err error) string {
	var pe *chasm.ParseError
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	var ge *graph.GraphError
	if errors.As(err, &ge) {
		return string(ge.Code)
	}
	var re *graph.RouteError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	var de *rig.DeviceError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	if dispatch.IsTimeout(err) {
		return "TIMEOUT"
	}
	if checkpoint.IsMismatch(err) {
		return "CHECKPOINT_MISMATCH"
	}
	return "RUNTIME"
}
