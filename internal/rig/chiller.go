package rig

import (
	"context"

	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
)

// ChillerExec adapts the recirculating-chiller verb family onto a
// chiller driver.
type ChillerExec struct {
	node    *graph.Node
	drv     device.Chiller
	policy  RetryPolicy
	profile chillerProfile
	state   DeviceState
}

func NewChillerExec(node *graph.Node, drv device.Chiller, policy RetryPolicy) *ChillerExec {
	return &ChillerExec{
		node:    node,
		drv:     drv,
		policy:  policy,
		profile: chillerProfileFor(node.Model),
	}
}

// ID returns the bound graph node id.
func (c *ChillerExec) ID() string { return c.node.ID }

// Start starts circulation.
func (c *ChillerExec) Start(ctx context.Context) error {
	if err := retry(ctx, c.policy, c.node.ID, "start", c.drv.Start); err != nil {
		return err
	}
	c.state.Running = true
	return nil
}

// Stop stops circulation.
func (c *ChillerExec) Stop(ctx context.Context) error {
	if err := retry(ctx, c.policy, c.node.ID, "stop", c.drv.Stop); err != nil {
		return err
	}
	c.state.Running = false
	return nil
}

// SetTemp sets the bath temperature setpoint in Celsius.
func (c *ChillerExec) SetTemp(ctx context.Context, celsius float64) error {
	celsius = clampFloat(c.node.ID, "temperature", celsius, c.profile.MinTemp, c.profile.MaxTemp)
	if err := retry(ctx, c.policy, c.node.ID, "set_temp", func() error {
		return c.drv.SetTempSetpoint(celsius)
	}); err != nil {
		return err
	}
	c.state.Temperature = celsius
	return nil
}

// Ramp programs a linear temperature ramp to celsius over the given
// number of seconds.
func (c *ChillerExec) Ramp(ctx context.Context, seconds int, celsius float64) error {
	celsius = clampFloat(c.node.ID, "temperature", celsius, c.profile.MinTemp, c.profile.MaxTemp)
	if err := retry(ctx, c.policy, c.node.ID, "ramp", func() error {
		return c.drv.Ramp(seconds, celsius)
	}); err != nil {
		return err
	}
	c.state.Temperature = celsius
	return nil
}

// Setpoint reads back the bath temperature setpoint.
func (c *ChillerExec) Setpoint(ctx context.Context) (float64, error) {
	var out float64
	err := retry(ctx, c.policy, c.node.ID, "read_setpoint", func() error {
		v, err := c.drv.TempSetpoint()
		out = v
		return err
	})
	return out, err
}

// Temperature reads back the bath temperature.
func (c *ChillerExec) Temperature(ctx context.Context) (float64, error) {
	var out float64
	err := retry(ctx, c.policy, c.node.ID, "read_temperature", func() error {
		v, err := c.drv.Temperature()
		out = v
		return err
	})
	return out, err
}

// State returns the last-known commanded state.
func (c *ChillerExec) State() DeviceState {
	return c.state
}

// Restore re-synchronizes logical state from a checkpoint snapshot
// without issuing driver commands.
func (c *ChillerExec) Restore(st DeviceState) {
	c.state = st
}
