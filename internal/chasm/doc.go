// Package chasm parses ChASM procedure scripts into validated command
// sequences.
//
// ChASM is line-oriented: one command per line, uppercase verb followed by
// space-separated positional arguments. Blank lines and lines starting with
// '#' are ignored. The whole script is parsed and validated before anything
// executes, so a malformed line late in a procedure can never interrupt a
// run that has already touched hardware.
package chasm
