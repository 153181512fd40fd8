// Package rig is the executioner layer: one adapter per hardware family
// translating the dispatcher's uniform verbs into driver calls, with unit
// conversion, safety clamping and bounded retry of transient faults.
//
// Each logical device is bound 1:1 to one executioner instance owning one
// driver instance. Brands within a family share the family contract but
// get their own safe-range profile, selected from topology model
// metadata at build time. This is the indirection that keeps the
// dispatcher and route resolver hardware-agnostic: swapping the brand of
// a stirrer touches only its adapter profile and driver, never the core.
package rig
