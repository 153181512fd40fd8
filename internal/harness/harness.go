package harness

import (
	"context"
	"fmt"

	"github.com/chemputer/chempiler/internal/chasm"
	"github.com/chemputer/chempiler/internal/dispatch"
	"github.com/chemputer/chempiler/internal/graph"
	"github.com/chemputer/chempiler/internal/rig"
	"github.com/chemputer/chempiler/internal/testutil"
)

// Run executes a scenario against a fresh simulated rig and evaluates
// its assertions. The returned error covers setup problems only; a run
// or assertion failure is reported through Result.Pass and
// Result.Errors so callers see every failed claim, not just the first.
func Run(scenario *Scenario) (*Result, error) {
	cmds, err := chasm.Parse(scenario.Script)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	g, err := graph.Load(scenario.Name, []byte(scenario.Topology))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	r, err := rig.Build(g, rig.NewSimFactory(), rig.DefaultRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	d := dispatch.New(r,
		dispatch.WithClock(testutil.NewFakeClock()),
		dispatch.WithCommit(func(index int, cmd chasm.Command, snap rig.Snapshot) error {
			result.Trace = append(result.Trace, TraceEvent{
				Seq:      index,
				Command:  cmd.String(),
				Snapshot: snap,
			})
			return nil
		}),
	)
	if err := d.Run(context.Background(), cmds, 0); err != nil {
		result.AddError(err.Error())
	}
	result.Final = r.Snapshot()

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}
