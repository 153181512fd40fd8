// Package harness runs end-to-end conformance scenarios against a
// simulated rig.
//
// A scenario bundles a rig topology, a procedure script, and a set of
// assertions into one YAML file. The harness parses the script, builds
// the rig from simulated devices, dispatches every command under a fake
// clock, and records the committed command stream. Assertions then
// check the trace and the final device state, and golden files pin the
// exact command stream a scenario is expected to produce.
//
// Because the devices are simulated and the clock is fake, a scenario
// that waits thirty minutes for a reflux still finishes in
// microseconds, and two runs of the same scenario produce identical
// traces.
package harness
