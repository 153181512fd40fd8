package chasm

import (
	"strconv"
	"strings"
)

// Verb identifies a ChASM command. The set is closed: anything outside it
// is an UnknownCommand parse error.
type Verb string

// Pump and backbone verbs.
const (
	VerbMove     Verb = "MOVE"
	VerbHome     Verb = "HOME"
	VerbSeparate Verb = "SEPARATE"
	VerbPrime    Verb = "PRIME"
)

// VerbWait is a plain timed wait, in seconds.
const VerbWait Verb = "WAIT"

// Hotplate stirrer verbs.
const (
	VerbStartStir          Verb = "START_STIR"
	VerbStartHeat          Verb = "START_HEAT"
	VerbStopStir           Verb = "STOP_STIR"
	VerbStopHeat           Verb = "STOP_HEAT"
	VerbSetTemp            Verb = "SET_TEMP"
	VerbSetStirRPM         Verb = "SET_STIR_RPM"
	VerbStirrerWaitForTemp Verb = "STIRRER_WAIT_FOR_TEMP"
)

// Rotavap verbs.
const (
	VerbStartHeaterBath Verb = "START_HEATER_BATH"
	VerbStopHeaterBath  Verb = "STOP_HEATER_BATH"
	VerbStartRotation   Verb = "START_ROTATION"
	VerbStopRotation    Verb = "STOP_ROTATION"
	VerbLiftArmUp       Verb = "LIFT_ARM_UP"
	VerbLiftArmDown     Verb = "LIFT_ARM_DOWN"
	VerbResetRotavap    Verb = "RESET_ROTAVAP"
	VerbSetBathTemp     Verb = "SET_BATH_TEMP"
	VerbSetRotation     Verb = "SET_ROTATION"
	VerbRVWaitForTemp   Verb = "RV_WAIT_FOR_TEMP"
	VerbSetInterval     Verb = "SET_INTERVAL"
)

// Vacuum pump verbs.
const (
	VerbInitVacPump Verb = "INIT_VAC_PUMP"
	VerbSetVacSP    Verb = "SET_VAC_SP"
	VerbStartVac    Verb = "START_VAC"
	VerbStopVac     Verb = "STOP_VAC"
	VerbVentVac     Verb = "VENT_VAC"
)

// Recirculation chiller verbs.
const (
	VerbStartChiller       Verb = "START_CHILLER"
	VerbStopChiller        Verb = "STOP_CHILLER"
	VerbSetChiller         Verb = "SET_CHILLER"
	VerbChillerWaitForTemp Verb = "CHILLER_WAIT_FOR_TEMP"
	VerbRampChiller        Verb = "RAMP_CHILLER"
)

// Family groups verbs by the hardware family that executes them.
type Family string

const (
	FamilyPump    Family = "pump"
	FamilyStirrer Family = "stirrer"
	FamilyRotavap Family = "rotavap"
	FamilyVacuum  Family = "vacuum"
	FamilyChiller Family = "chiller"
	FamilyNone    Family = "" // WAIT touches no device
)

// ValueKind discriminates the typed argument values a command carries.
type ValueKind int

const (
	// KindNode is a node identifier referencing the rig graph.
	KindNode ValueKind = iota
	// KindNumber is a validated numeric literal.
	KindNumber
	// KindAll is the MOVE volume sentinel "all": consume whatever the
	// source holds, resolved at execution time, not at parse time.
	KindAll
)

// Value is one typed positional argument.
type Value struct {
	Kind ValueKind
	Str  string  // node identifier when Kind == KindNode
	Num  float64 // numeric value when Kind == KindNumber
}

func (v Value) String() string {
	switch v.Kind {
	case KindAll:
		return "all"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return v.Str
	}
}

// Command is one fully validated ChASM instruction. Commands are created
// once at parse time and never mutated; the dispatcher consumes each
// exactly once.
type Command struct {
	Verb Verb
	Line int
	Args []Value
}

// Family reports which hardware family the command belongs to.
func (c Command) Family() Family {
	return grammar[c.Verb].family
}

// Node returns positional argument i as a node identifier.
func (c Command) Node(i int) string {
	return c.Args[i].Str
}

// Float returns positional argument i as a float.
func (c Command) Float(i int) float64 {
	return c.Args[i].Num
}

// Int returns positional argument i truncated to an int.
func (c Command) Int(i int) int {
	return int(c.Args[i].Num)
}

// IsAll reports whether positional argument i is the "all" volume sentinel.
func (c Command) IsAll(i int) bool {
	return c.Args[i].Kind == KindAll
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, string(c.Verb))
	for _, a := range c.Args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}
