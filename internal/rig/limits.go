package rig

import "log/slog"

// Brand profiles: the device-safe envelope each adapter clamps commanded
// values into. Selected by topology model metadata; unknown models get
// the conservative default for their family.

type stirrerProfile struct {
	MinTemp float64
	MaxTemp float64
	MaxRPM  int
	CanHeat bool
}

var stirrerProfiles = map[string]stirrerProfile{
	"ika_ret":   {MinTemp: -10, MaxTemp: 340, MaxRPM: 1700, CanHeat: true},
	"microstar": {MaxRPM: 2000},                // overhead stirrer, no hotplate
	"rzr_2052":  {MaxRPM: 2000},                // overhead stirrer, no hotplate
	"":          {MaxTemp: 150, MaxRPM: 1000, CanHeat: true},
}

func stirrerProfileFor(model string) stirrerProfile {
	if p, ok := stirrerProfiles[model]; ok {
		return p
	}
	return stirrerProfiles[""]
}

type rotavapProfile struct {
	MaxBathTemp float64
	MinRPM      int
	MaxRPM      int
}

var rotavapProfiles = map[string]rotavapProfile{
	"ika_rv10": {MaxBathTemp: 180, MinRPM: 5, MaxRPM: 280},
	"":         {MaxBathTemp: 100, MinRPM: 5, MaxRPM: 200},
}

func rotavapProfileFor(model string) rotavapProfile {
	if p, ok := rotavapProfiles[model]; ok {
		return p
	}
	return rotavapProfiles[""]
}

type chillerProfile struct {
	MinTemp float64
	MaxTemp float64
}

var chillerProfiles = map[string]chillerProfile{
	"cf41":  {MinTemp: -40, MaxTemp: 200},
	"huber": {MinTemp: -40, MaxTemp: 100},
	"":      {MinTemp: -20, MaxTemp: 80},
}

func chillerProfileFor(model string) chillerProfile {
	if p, ok := chillerProfiles[model]; ok {
		return p
	}
	return chillerProfiles[""]
}

// Vacuum setpoints outside [0, 1060] mbar make no physical sense.
const maxVacuumSetpoint = 1060

// MaxPumpSpeed is the fastest any syringe pump is driven, mL/min.
const MaxPumpSpeed = 140.0

// clampFloat forces v into [lo, hi], logging when the script asked for
// more than the device can safely do.
func clampFloat(deviceID, what string, v, lo, hi float64) float64 {
	if v < lo {
		slog.Warn("clamping commanded value", "device", deviceID, "value", what, "commanded", v, "clamped", lo)
		return lo
	}
	if v > hi {
		slog.Warn("clamping commanded value", "device", deviceID, "value", what, "commanded", v, "clamped", hi)
		return hi
	}
	return v
}

func clampInt(deviceID, what string, v, lo, hi int) int {
	if v < lo {
		slog.Warn("clamping commanded value", "device", deviceID, "value", what, "commanded", v, "clamped", lo)
		return lo
	}
	if v > hi {
		slog.Warn("clamping commanded value", "device", deviceID, "value", what, "commanded", v, "clamped", hi)
		return hi
	}
	return v
}
