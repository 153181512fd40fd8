package rig

import (
	"context"

	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
)

// RotavapExec adapts the rotary-evaporator verb family onto a rotavap
// driver: bath heating, flask rotation, arm lift and interval rotation.
type RotavapExec struct {
	node    *graph.Node
	drv     device.Rotavap
	policy  RetryPolicy
	profile rotavapProfile
	state   DeviceState
}

func NewRotavapExec(node *graph.Node, drv device.Rotavap, policy RetryPolicy) *RotavapExec {
	return &RotavapExec{
		node:    node,
		drv:     drv,
		policy:  policy,
		profile: rotavapProfileFor(node.Model),
	}
}

// ID returns the bound graph node id.
func (r *RotavapExec) ID() string { return r.node.ID }

// Init brings the evaporator to a known idle state: heater and rotation
// off, arm raised.
func (r *RotavapExec) Init(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "init", r.drv.Initialise); err != nil {
		return err
	}
	r.state = DeviceState{ArmUp: true}
	return nil
}

// Heat turns the bath heater on.
func (r *RotavapExec) Heat(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "start_heat", r.drv.StartHeater); err != nil {
		return err
	}
	r.state.Heating = true
	return nil
}

// StopHeat turns the bath heater off.
func (r *RotavapExec) StopHeat(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "stop_heat", r.drv.StopHeater); err != nil {
		return err
	}
	r.state.Heating = false
	return nil
}

// StartRotation starts flask rotation.
func (r *RotavapExec) StartRotation(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "start_rotation", r.drv.StartRotation); err != nil {
		return err
	}
	r.state.Rotating = true
	return nil
}

// StopRotation stops flask rotation.
func (r *RotavapExec) StopRotation(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "stop_rotation", r.drv.StopRotation); err != nil {
		return err
	}
	r.state.Rotating = false
	return nil
}

// LiftUp raises the flask arm out of the bath.
func (r *RotavapExec) LiftUp(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "lift_up", r.drv.LiftUp); err != nil {
		return err
	}
	r.state.ArmUp = true
	return nil
}

// LiftDown lowers the flask arm into the bath.
func (r *RotavapExec) LiftDown(ctx context.Context) error {
	if err := retry(ctx, r.policy, r.node.ID, "lift_down", r.drv.LiftDown); err != nil {
		return err
	}
	r.state.ArmUp = false
	return nil
}

// SetTemp sets the bath temperature setpoint in Celsius.
func (r *RotavapExec) SetTemp(ctx context.Context, celsius float64) error {
	celsius = clampFloat(r.node.ID, "temperature", celsius, 0, r.profile.MaxBathTemp)
	if err := retry(ctx, r.policy, r.node.ID, "set_temp", func() error {
		return r.drv.SetTempSetpoint(celsius)
	}); err != nil {
		return err
	}
	r.state.Temperature = celsius
	return nil
}

// SetRPM sets the rotation speed.
func (r *RotavapExec) SetRPM(ctx context.Context, rpm int) error {
	rpm = clampInt(r.node.ID, "rpm", rpm, r.profile.MinRPM, r.profile.MaxRPM)
	if err := retry(ctx, r.policy, r.node.ID, "set_rpm", func() error {
		return r.drv.SetRotationSetpoint(rpm)
	}); err != nil {
		return err
	}
	r.state.RPM = rpm
	return nil
}

// SetInterval enables interval rotation, alternating direction every
// seconds seconds. Zero disables it.
func (r *RotavapExec) SetInterval(ctx context.Context, seconds int) error {
	seconds = clampInt(r.node.ID, "interval", seconds, 0, 60)
	if err := retry(ctx, r.policy, r.node.ID, "set_interval", func() error {
		return r.drv.SetInterval(seconds)
	}); err != nil {
		return err
	}
	r.state.Interval = seconds
	return nil
}

// Setpoint reads back the bath temperature setpoint.
func (r *RotavapExec) Setpoint(ctx context.Context) (float64, error) {
	var out float64
	err := retry(ctx, r.policy, r.node.ID, "read_setpoint", func() error {
		v, err := r.drv.TempSetpoint()
		out = v
		return err
	})
	return out, err
}

// Temperature reads back the bath temperature.
func (r *RotavapExec) Temperature(ctx context.Context) (float64, error) {
	var out float64
	err := retry(ctx, r.policy, r.node.ID, "read_temperature", func() error {
		v, err := r.drv.Temperature()
		out = v
		return err
	})
	return out, err
}

// State returns the last-known commanded state.
func (r *RotavapExec) State() DeviceState {
	return r.state
}

// Restore re-synchronizes logical state from a checkpoint snapshot
// without issuing driver commands.
func (r *RotavapExec) Restore(st DeviceState) {
	r.state = st
}
