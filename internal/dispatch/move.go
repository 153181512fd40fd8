package dispatch

import (
	"context"
	"fmt"

	"github.com/chemputer/chempiler/internal/chasm"
	"github.com/chemputer/chempiler/internal/graph"
)

// Volumes smaller than this are treated as already moved; guards the
// chunk loop against float residue.
const volumeEpsilon = 1e-9

func (d *Dispatcher) move(ctx context.Context, cmd chasm.Command) error {
	src, dest := cmd.Node(0), cmd.Node(1)
	volume, err := d.resolveVolume(cmd, src)
	if err != nil {
		return err
	}
	// Parsing padded the cascade: args 3..5 are always present.
	return d.transfer(ctx, src, dest, volume, cmd.Float(3), cmd.Float(4), cmd.Float(5))
}

// resolveVolume turns the MOVE volume argument into mL. The "all"
// sentinel is read once here, at the start of execution, and the fixed
// quantity drives the whole route even if bookkeeping changes mid-way.
func (d *Dispatcher) resolveVolume(cmd chasm.Command, src string) (float64, error) {
	if !cmd.IsAll(2) {
		return cmd.Float(2), nil
	}
	if p, err := d.rig.Pump(src); err == nil {
		return p.Held(), nil
	}
	n, err := d.rig.Graph().Node(src)
	if err != nil {
		return 0, err
	}
	return n.CurrentVolume, nil
}

// transfer reserves a route and executes it hop by hop, chunked so no
// hop ever overfills the smallest syringe along the path. The first
// aspiration uses aspSpeed, the final dispense dispSpeed, everything in
// between moveSpeed.
func (d *Dispatcher) transfer(ctx context.Context, src, dest string, volume, moveSpeed, aspSpeed, dispSpeed float64) error {
	route, err := d.rig.Graph().FindRoute(src, dest)
	if err != nil {
		return err
	}
	defer route.Release()

	remaining := volume
	for remaining > volumeEpsilon {
		chunk := remaining
		if chunk > route.MinPumpVolume {
			chunk = route.MinPumpVolume
		}
		for i, hop := range route.Hops {
			asp, disp := moveSpeed, moveSpeed
			if i == 0 {
				asp = aspSpeed
			}
			if i == len(route.Hops)-1 {
				disp = dispSpeed
			}
			if err := d.hop(ctx, hop, chunk, asp, disp); err != nil {
				return err
			}
		}
		remaining -= chunk
	}

	d.rig.Graph().UpdateVolumes(src, dest, volume)
	return nil
}

// hop is one pump/valve actuation: face the upstream side, draw the
// chunk, settle, face the downstream side, push it out.
func (d *Dispatcher) hop(ctx context.Context, hop graph.Hop, chunk, aspSpeed, dispSpeed float64) error {
	valve, err := d.rig.Valve(hop.Valve)
	if err != nil {
		return err
	}
	pump, err := d.rig.Pump(hop.Pump)
	if err != nil {
		return err
	}
	if err := valve.SwitchTo(ctx, hop.In); err != nil {
		return err
	}
	if err := pump.Aspirate(ctx, chunk, aspSpeed); err != nil {
		return err
	}
	if err := d.clock.Sleep(ctx, d.cfg.EquilibrationPause); err != nil {
		return err
	}
	if err := valve.SwitchTo(ctx, hop.Out); err != nil {
		return err
	}
	return pump.Dispense(ctx, dispSpeed)
}

func (d *Dispatcher) home(ctx context.Context, cmd chasm.Command) error {
	p, err := d.rig.Pump(cmd.Node(0))
	if err != nil {
		return err
	}
	return p.Home(ctx, cmd.Float(1))
}

// separate drains the separator in two phases: the lower (denser) phase
// first, then the remainder. Without a conductivity sensor the phase
// boundary is taken at half the held volume.
func (d *Dispatcher) separate(ctx context.Context, cmd chasm.Command) error {
	seps := d.rig.Graph().NodesOfType(graph.TypeSeparator)
	if len(seps) == 0 {
		return fmt.Errorf("topology has no separator node")
	}
	sep := seps[0]

	total := sep.CurrentVolume
	if total <= volumeEpsilon {
		return nil
	}
	speed := chasm.DefaultPumpSpeed
	lower := total / 2
	if err := d.transfer(ctx, sep.ID, cmd.Node(0), lower, speed, speed, speed); err != nil {
		return err
	}
	return d.transfer(ctx, sep.ID, cmd.Node(1), total-lower, speed, speed, speed)
}

// prime wets every syringe: draw a small volume and push it back out at
// the commanded aspiration speed, pump by pump in id order.
func (d *Dispatcher) prime(ctx context.Context, cmd chasm.Command) error {
	speed := cmd.Float(0)
	for _, n := range d.rig.Graph().NodesOfType(graph.TypePump) {
		p, err := d.rig.Pump(n.ID)
		if err != nil {
			return err
		}
		if err := p.Aspirate(ctx, d.cfg.PrimeVolume, speed); err != nil {
			return err
		}
		if err := d.clock.Sleep(ctx, d.cfg.EquilibrationPause); err != nil {
			return err
		}
		if err := p.Dispense(ctx, speed); err != nil {
			return err
		}
	}
	return nil
}
