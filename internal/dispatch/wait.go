package dispatch

import (
	"context"
	"log/slog"
	"math"
)

// waitForTemp polls the device until its temperature is within the
// configured tolerance of its setpoint. The deadline instant itself is
// inclusive: a reading taken exactly at the bound still succeeds, and
// Timeout is raised only on the poll after it.
func (d *Dispatcher) waitForTemp(
	ctx context.Context,
	node string,
	setpoint func(context.Context) (float64, error),
	temperature func(context.Context) (float64, error),
) error {
	target, err := setpoint(ctx)
	if err != nil {
		return err
	}

	start := d.clock.Now()
	deadline := start.Add(d.cfg.WaitTimeout)
	for {
		now := d.clock.Now()
		if now.After(deadline) {
			return &TimeoutError{Node: node, Target: target, Waited: now.Sub(start)}
		}
		pv, err := temperature(ctx)
		if err != nil {
			return err
		}
		if math.Abs(pv-target) <= d.cfg.TempTolerance {
			slog.Info("setpoint reached", "node", node, "target", target, "measured", pv, "waited", now.Sub(start))
			return nil
		}
		slog.Debug("waiting for setpoint", "node", node, "target", target, "measured", pv)
		if err := d.clock.Sleep(ctx, d.cfg.PollInterval); err != nil {
			return err
		}
	}
}
