// Package dispatch is the interpreter core: a single cursor advancing
// strictly through the parsed command sequence, resolving devices and
// routes, blocking on hardware waits, and committing a checkpoint after
// every completed command.
//
// Execution is single-threaded-logical. All device mutation happens from
// the one goroutine running Run; abort via context is observed between
// commands, never mid-command.
package dispatch
