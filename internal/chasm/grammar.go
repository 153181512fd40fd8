package chasm

// argKind is the domain an argument token must parse into.
type argKind int

const (
	argNode   argKind = iota // node identifier, resolved against the rig graph later
	argFloat                 // any numeric literal (temperatures may be negative)
	argSpeed                 // strictly positive numeric literal, mL/min or rpm
	argInt                   // non-negative integer literal
	argVolume                // numeric literal or the sentinel "all"
)

func (k argKind) want() string {
	switch k {
	case argNode:
		return "node identifier"
	case argFloat:
		return "number"
	case argSpeed:
		return "positive number"
	case argInt:
		return "non-negative integer"
	case argVolume:
		return "volume (number or \"all\")"
	}
	return "argument"
}

type argSpec struct {
	name string
	kind argKind
}

// signature is the fixed positional-argument contract for one verb.
// Optional arguments are strictly positional and trailing: an optional
// argument may only be supplied when all the ones before it are present.
type signature struct {
	family Family
	req    []argSpec
	opt    []argSpec
}

func oneNode(family Family) signature {
	return signature{family: family, req: []argSpec{{"node", argNode}}}
}

func nodeAnd(family Family, name string, kind argKind) signature {
	return signature{family: family, req: []argSpec{{"node", argNode}, {name, kind}}}
}

// grammar is the full ChASM command reference: every verb with its exact
// positional-argument contract.
var grammar = map[Verb]signature{
	// Pumps and backbone.
	VerbMove: {
		family: FamilyPump,
		req: []argSpec{
			{"src", argNode},
			{"dest", argNode},
			{"volume", argVolume},
		},
		opt: []argSpec{
			{"move_speed", argSpeed},
			{"aspiration_speed", argSpeed},
			{"dispense_speed", argSpeed},
		},
	},
	VerbHome: {
		family: FamilyPump,
		req:    []argSpec{{"pump", argNode}},
		opt:    []argSpec{{"move_speed", argSpeed}},
	},
	VerbSeparate: {
		family: FamilyPump,
		req:    []argSpec{{"lower_phase_target", argNode}, {"upper_phase_target", argNode}},
	},
	VerbPrime: {
		family: FamilyPump,
		req:    []argSpec{{"aspiration_speed", argSpeed}},
	},

	VerbWait: {family: FamilyNone, req: []argSpec{{"seconds", argInt}}},

	// Hotplate stirrers.
	VerbStartStir:          oneNode(FamilyStirrer),
	VerbStartHeat:          oneNode(FamilyStirrer),
	VerbStopStir:           oneNode(FamilyStirrer),
	VerbStopHeat:           oneNode(FamilyStirrer),
	VerbSetTemp:            nodeAnd(FamilyStirrer, "temperature", argFloat),
	VerbSetStirRPM:         nodeAnd(FamilyStirrer, "rpm", argInt),
	VerbStirrerWaitForTemp: oneNode(FamilyStirrer),

	// Rotavaps.
	VerbStartHeaterBath: oneNode(FamilyRotavap),
	VerbStopHeaterBath:  oneNode(FamilyRotavap),
	VerbStartRotation:   oneNode(FamilyRotavap),
	VerbStopRotation:    oneNode(FamilyRotavap),
	VerbLiftArmUp:       oneNode(FamilyRotavap),
	VerbLiftArmDown:     oneNode(FamilyRotavap),
	VerbResetRotavap:    oneNode(FamilyRotavap),
	VerbSetBathTemp:     nodeAnd(FamilyRotavap, "temperature", argFloat),
	VerbSetRotation:     nodeAnd(FamilyRotavap, "rpm", argInt),
	VerbRVWaitForTemp:   oneNode(FamilyRotavap),
	VerbSetInterval:     nodeAnd(FamilyRotavap, "seconds", argInt),

	// Vacuum pumps.
	VerbInitVacPump: oneNode(FamilyVacuum),
	VerbSetVacSP:    nodeAnd(FamilyVacuum, "setpoint", argInt),
	VerbStartVac:    oneNode(FamilyVacuum),
	VerbStopVac:     oneNode(FamilyVacuum),
	VerbVentVac:     oneNode(FamilyVacuum),

	// Recirculation chillers.
	VerbStartChiller:       oneNode(FamilyChiller),
	VerbStopChiller:        oneNode(FamilyChiller),
	VerbSetChiller:         nodeAnd(FamilyChiller, "temperature", argFloat),
	VerbChillerWaitForTemp: oneNode(FamilyChiller),
	VerbRampChiller: {
		family: FamilyChiller,
		req: []argSpec{
			{"node", argNode},
			{"ramp_duration", argInt},
			{"temperature", argFloat},
		},
	},
}
