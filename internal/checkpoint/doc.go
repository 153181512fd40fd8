// Package checkpoint persists the execution commit log: one run row per
// procedure start, one commit row per completed command, each carrying
// the device-state snapshot taken after it.
//
// The log is append-only. Resume replays nothing; it loads the last
// committed snapshot, verifies the script and topology fingerprints, and
// hands the first uncommitted index back to the dispatcher.
package checkpoint
