// Package device defines the driver contract consumed by the executioner
// layer: one capability interface per hardware family, implemented by the
// real serial drivers (out of tree) and by the simulated doubles in this
// package.
//
// Calls are synchronous: they return once the device has accepted the
// command, and WaitUntilReady blocks until motion completes. The wire
// protocol behind a driver is not this package's concern.
package device
