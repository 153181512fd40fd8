package rig

import (
	"context"

	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
)

// VacuumExec adapts the vacuum-pump verb family onto a vacuum driver.
type VacuumExec struct {
	node   *graph.Node
	drv    device.Vacuum
	policy RetryPolicy
	state  DeviceState
}

func NewVacuumExec(node *graph.Node, drv device.Vacuum, policy RetryPolicy) *VacuumExec {
	return &VacuumExec{node: node, drv: drv, policy: policy}
}

// ID returns the bound graph node id.
func (v *VacuumExec) ID() string { return v.node.ID }

// Init brings the vacuum pump to a known idle, vented state.
func (v *VacuumExec) Init(ctx context.Context) error {
	if err := retry(ctx, v.policy, v.node.ID, "init", v.drv.Initialise); err != nil {
		return err
	}
	v.state = DeviceState{VacuumSetpoint: maxVacuumSetpoint}
	return nil
}

// SetSetpoint sets the target pressure in mbar.
func (v *VacuumExec) SetSetpoint(ctx context.Context, mbar int) error {
	mbar = clampInt(v.node.ID, "pressure", mbar, 0, maxVacuumSetpoint)
	if err := retry(ctx, v.policy, v.node.ID, "set_setpoint", func() error {
		return v.drv.SetVacuumSetpoint(mbar)
	}); err != nil {
		return err
	}
	v.state.VacuumSetpoint = mbar
	return nil
}

// Start starts evacuating toward the setpoint.
func (v *VacuumExec) Start(ctx context.Context) error {
	if err := retry(ctx, v.policy, v.node.ID, "start", v.drv.Start); err != nil {
		return err
	}
	v.state.Running = true
	return nil
}

// Stop stops the pump without venting.
func (v *VacuumExec) Stop(ctx context.Context) error {
	if err := retry(ctx, v.policy, v.node.ID, "stop", v.drv.Stop); err != nil {
		return err
	}
	v.state.Running = false
	return nil
}

// Vent opens the vent valve, returning the line to atmosphere.
func (v *VacuumExec) Vent(ctx context.Context) error {
	if err := retry(ctx, v.policy, v.node.ID, "vent", v.drv.Vent); err != nil {
		return err
	}
	v.state.Running = false
	v.state.VacuumSetpoint = maxVacuumSetpoint
	return nil
}

// State returns the last-known commanded state.
func (v *VacuumExec) State() DeviceState {
	return v.state
}

// Restore re-synchronizes logical state from a checkpoint snapshot
// without issuing driver commands.
func (v *VacuumExec) Restore(st DeviceState) {
	v.state = st
}
