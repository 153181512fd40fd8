package device

import (
	"errors"
	"fmt"
)

// Fault is a device-level failure reported by a driver. Transient faults
// (lost packets, serial hiccups) are retried at the executioner boundary;
// everything else is fatal to the run.
type Fault struct {
	Device    string
	Op        string
	Transient bool
	Err       error
}

func (f *Fault) Error() string {
	kind := "fault"
	if f.Transient {
		kind = "transient fault"
	}
	return fmt.Sprintf("%s: %s: %s: %v", f.Device, f.Op, kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// IsTransient reports whether err is (or wraps) a transient device fault.
func IsTransient(err error) bool {
	var f *Fault
	return errors.As(err, &f) && f.Transient
}

// Pump is the driver contract for a syringe pump.
type Pump interface {
	// MoveAbsolute drives the plunger to an absolute fill volume (mL) at
	// the given speed (mL/min).
	MoveAbsolute(volume, speed float64) error
	// MoveToHome drives the plunger to the zero position.
	MoveToHome(speed float64) error
	// WaitUntilReady blocks until the current motion completes.
	WaitUntilReady() error
}

// Valve is the driver contract for a multiport selection valve.
type Valve interface {
	MoveToPosition(port int) error
	MoveHome() error
	WaitUntilReady() error
}

// Stirrer is the driver contract for a hotplate or overhead stirrer.
type Stirrer interface {
	StartStirrer() error
	StopStirrer() error
	StartHeater() error
	StopHeater() error
	SetTempSetpoint(celsius float64) error
	SetStirRate(rpm int) error
	TempSetpoint() (float64, error)
	Temperature() (float64, error)
}

// Rotavap is the driver contract for a rotary evaporator.
type Rotavap interface {
	Initialise() error
	StartHeater() error
	StopHeater() error
	StartRotation() error
	StopRotation() error
	LiftUp() error
	LiftDown() error
	SetTempSetpoint(celsius float64) error
	SetRotationSetpoint(rpm int) error
	SetInterval(seconds int) error
	TempSetpoint() (float64, error)
	Temperature() (float64, error)
}

// Chiller is the driver contract for a recirculation chiller.
type Chiller interface {
	Start() error
	Stop() error
	SetTempSetpoint(celsius float64) error
	Ramp(seconds int, celsius float64) error
	TempSetpoint() (float64, error)
	Temperature() (float64, error)
}

// Vacuum is the driver contract for a vacuum pump.
type Vacuum interface {
	Initialise() error
	SetVacuumSetpoint(mbar int) error
	Start() error
	Stop() error
	Vent() error
}
