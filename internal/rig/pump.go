package rig

import (
	"context"

	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
)

// PumpExec adapts the pump verb contract (aspirate, dispense, home) onto
// a syringe pump driver, clamping volume to the syringe size and speed to
// the pump's safe maximum.
type PumpExec struct {
	node   *graph.Node
	drv    device.Pump
	policy RetryPolicy
	held   float64
}

func NewPumpExec(node *graph.Node, drv device.Pump, policy RetryPolicy) *PumpExec {
	return &PumpExec{node: node, drv: drv, policy: policy}
}

// ID returns the bound graph node id.
func (p *PumpExec) ID() string { return p.node.ID }

// MaxVolume returns the syringe volume in mL.
func (p *PumpExec) MaxVolume() float64 { return p.node.MaxVolume }

// Held returns the volume currently in the syringe, per the last
// commanded position.
func (p *PumpExec) Held() float64 { return p.held }

// Aspirate draws liquid until the syringe holds volume mL, then blocks
// until the plunger stops.
func (p *PumpExec) Aspirate(ctx context.Context, volume, speed float64) error {
	volume = clampFloat(p.node.ID, "volume", volume, 0, p.node.MaxVolume)
	speed = clampFloat(p.node.ID, "speed", speed, 1, MaxPumpSpeed)
	if err := retry(ctx, p.policy, p.node.ID, "aspirate", func() error {
		return p.drv.MoveAbsolute(volume, speed)
	}); err != nil {
		return err
	}
	if err := p.waitReady(ctx); err != nil {
		return err
	}
	p.held = volume
	return nil
}

// Dispense empties the syringe and blocks until the plunger stops.
func (p *PumpExec) Dispense(ctx context.Context, speed float64) error {
	speed = clampFloat(p.node.ID, "speed", speed, 1, MaxPumpSpeed)
	if err := retry(ctx, p.policy, p.node.ID, "dispense", func() error {
		return p.drv.MoveAbsolute(0, speed)
	}); err != nil {
		return err
	}
	if err := p.waitReady(ctx); err != nil {
		return err
	}
	p.held = 0
	return nil
}

// Home drives the plunger to its home position.
func (p *PumpExec) Home(ctx context.Context, speed float64) error {
	speed = clampFloat(p.node.ID, "speed", speed, 1, MaxPumpSpeed)
	if err := retry(ctx, p.policy, p.node.ID, "home", func() error {
		return p.drv.MoveToHome(speed)
	}); err != nil {
		return err
	}
	if err := p.waitReady(ctx); err != nil {
		return err
	}
	p.held = 0
	return nil
}

func (p *PumpExec) waitReady(ctx context.Context) error {
	return retry(ctx, p.policy, p.node.ID, "wait_until_ready", p.drv.WaitUntilReady)
}

// State returns the pump's last-known logical state.
func (p *PumpExec) State() DeviceState {
	return DeviceState{Volume: p.held}
}

// Restore re-synchronizes logical state from a checkpoint snapshot
// without issuing driver commands.
func (p *PumpExec) Restore(st DeviceState) {
	p.held = st.Volume
}

// ValveExec adapts valve switching onto a selection valve driver.
type ValveExec struct {
	node   *graph.Node
	drv    device.Valve
	policy RetryPolicy
}

func NewValveExec(node *graph.Node, drv device.Valve, policy RetryPolicy) *ValveExec {
	return &ValveExec{node: node, drv: drv, policy: policy}
}

// ID returns the bound graph node id.
func (v *ValveExec) ID() string { return v.node.ID }

// SwitchTo rotates the valve to a port and blocks until it settles.
func (v *ValveExec) SwitchTo(ctx context.Context, port int) error {
	if err := retry(ctx, v.policy, v.node.ID, "switch", func() error {
		return v.drv.MoveToPosition(port)
	}); err != nil {
		return err
	}
	return retry(ctx, v.policy, v.node.ID, "wait_until_ready", v.drv.WaitUntilReady)
}

// Home rotates the valve to its home position.
func (v *ValveExec) Home(ctx context.Context) error {
	if err := retry(ctx, v.policy, v.node.ID, "home", v.drv.MoveHome); err != nil {
		return err
	}
	return retry(ctx, v.policy, v.node.ID, "wait_until_ready", v.drv.WaitUntilReady)
}
