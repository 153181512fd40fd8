package rig

import (
	"context"

	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
)

// StirrerExec adapts the stirrer/hotplate verb family onto a stirrer
// driver. Commanded values are clamped into the model's envelope; heat
// commands on stir-only models are safety violations.
type StirrerExec struct {
	node    *graph.Node
	drv     device.Stirrer
	policy  RetryPolicy
	profile stirrerProfile
	state   DeviceState
}

func NewStirrerExec(node *graph.Node, drv device.Stirrer, policy RetryPolicy) *StirrerExec {
	return &StirrerExec{
		node:    node,
		drv:     drv,
		policy:  policy,
		profile: stirrerProfileFor(node.Model),
	}
}

// ID returns the bound graph node id.
func (s *StirrerExec) ID() string { return s.node.ID }

// Stir starts the stirring motor.
func (s *StirrerExec) Stir(ctx context.Context) error {
	if err := retry(ctx, s.policy, s.node.ID, "start_stir", s.drv.StartStirrer); err != nil {
		return err
	}
	s.state.Stirring = true
	return nil
}

// StopStir stops the stirring motor.
func (s *StirrerExec) StopStir(ctx context.Context) error {
	if err := retry(ctx, s.policy, s.node.ID, "stop_stir", s.drv.StopStirrer); err != nil {
		return err
	}
	s.state.Stirring = false
	return nil
}

// Heat turns the hotplate on.
func (s *StirrerExec) Heat(ctx context.Context) error {
	if !s.profile.CanHeat {
		return &DeviceError{
			Code:    ErrCodeSafetyViolation,
			Device:  s.node.ID,
			Op:      "start_heat",
			Message: "model has no hotplate",
		}
	}
	if err := retry(ctx, s.policy, s.node.ID, "start_heat", s.drv.StartHeater); err != nil {
		return err
	}
	s.state.Heating = true
	return nil
}

// StopHeat turns the hotplate off.
func (s *StirrerExec) StopHeat(ctx context.Context) error {
	if !s.profile.CanHeat {
		return &DeviceError{
			Code:    ErrCodeSafetyViolation,
			Device:  s.node.ID,
			Op:      "stop_heat",
			Message: "model has no hotplate",
		}
	}
	if err := retry(ctx, s.policy, s.node.ID, "stop_heat", s.drv.StopHeater); err != nil {
		return err
	}
	s.state.Heating = false
	return nil
}

// SetTemp sets the hotplate temperature setpoint in Celsius.
func (s *StirrerExec) SetTemp(ctx context.Context, celsius float64) error {
	if !s.profile.CanHeat {
		return &DeviceError{
			Code:    ErrCodeSafetyViolation,
			Device:  s.node.ID,
			Op:      "set_temp",
			Message: "model has no hotplate",
		}
	}
	celsius = clampFloat(s.node.ID, "temperature", celsius, s.profile.MinTemp, s.profile.MaxTemp)
	if err := retry(ctx, s.policy, s.node.ID, "set_temp", func() error {
		return s.drv.SetTempSetpoint(celsius)
	}); err != nil {
		return err
	}
	s.state.Temperature = celsius
	return nil
}

// SetRPM sets the stir rate.
func (s *StirrerExec) SetRPM(ctx context.Context, rpm int) error {
	rpm = clampInt(s.node.ID, "rpm", rpm, 0, s.profile.MaxRPM)
	if err := retry(ctx, s.policy, s.node.ID, "set_rpm", func() error {
		return s.drv.SetStirRate(rpm)
	}); err != nil {
		return err
	}
	s.state.RPM = rpm
	return nil
}

// Setpoint reads back the device's temperature setpoint.
func (s *StirrerExec) Setpoint(ctx context.Context) (float64, error) {
	var out float64
	err := retry(ctx, s.policy, s.node.ID, "read_setpoint", func() error {
		v, err := s.drv.TempSetpoint()
		out = v
		return err
	})
	return out, err
}

// Temperature reads back the process temperature.
func (s *StirrerExec) Temperature(ctx context.Context) (float64, error) {
	var out float64
	err := retry(ctx, s.policy, s.node.ID, "read_temperature", func() error {
		v, err := s.drv.Temperature()
		out = v
		return err
	})
	return out, err
}

// State returns the last-known commanded state.
func (s *StirrerExec) State() DeviceState {
	return s.state
}

// Restore re-synchronizes logical state from a checkpoint snapshot
// without issuing driver commands.
func (s *StirrerExec) Restore(st DeviceState) {
	s.state = st
}
