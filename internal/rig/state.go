package rig

// DeviceState is the last-known logical state of one device or vessel,
// as committed to the checkpoint log. Fields are the values this core
// commanded, not live measurements; resume re-synchronizes executioners
// from these without touching hardware.
type DeviceState struct {
	Volume         float64 `json:"volume,omitempty"`
	Stirring       bool    `json:"stirring,omitempty"`
	Heating        bool    `json:"heating,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	RPM            int     `json:"rpm,omitempty"`
	Rotating       bool    `json:"rotating,omitempty"`
	ArmUp          bool    `json:"arm_up,omitempty"`
	Interval       int     `json:"interval,omitempty"`
	Running        bool    `json:"running,omitempty"`
	VacuumSetpoint int     `json:"vacuum_setpoint,omitempty"`
}

// Snapshot is the per-device state map persisted after every committed
// command.
type Snapshot map[string]DeviceState
