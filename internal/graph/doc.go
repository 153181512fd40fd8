// Package graph models the physical rig topology: devices as nodes,
// tubing as edges, and the backbone subgraph pumps and valves use to move
// liquid between vessels.
//
// The topology is loaded once at startup from a YAML file validated
// against an embedded CUE schema. Node and edge structure is immutable
// after loading; the only mutable state is per-node held volume and the
// per-edge reservation flag taken by in-flight routes.
package graph
