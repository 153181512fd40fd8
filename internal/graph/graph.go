package graph

import (
	"fmt"
	"sort"
	"sync"
)

// NodeType identifies the device family (or vessel kind) of a node.
type NodeType string

const (
	TypePump      NodeType = "pump"
	TypeValve     NodeType = "valve"
	TypeFlask     NodeType = "flask"
	TypeWaste     NodeType = "waste"
	TypeSeparator NodeType = "separator"
	TypeStirrer   NodeType = "stirrer"
	TypeRotavap   NodeType = "rotavap"
	TypeChiller   NodeType = "chiller"
	TypeVacuum    NodeType = "vacuum"
)

// liquidTypes are the node types that hold liquid and take part in MOVE
// transfers. A stirrer node is a stirred reactor vessel, a rotavap node
// its evaporation flask.
var liquidTypes = map[NodeType]bool{
	TypeFlask:     true,
	TypeWaste:     true,
	TypeSeparator: true,
	TypeRotavap:   true,
	TypeStirrer:   true,
}

// Node is one device or vessel in the rig.
//
// Structure is immutable after loading. CurrentVolume is the only mutable
// field; it is updated by the dispatcher's volume bookkeeping and only
// ever from the single dispatch goroutine.
type Node struct {
	ID      string
	Type    NodeType
	Model   string // brand metadata, selects the executioner adapter
	Address string // driver address, opaque to this package
	Pump    string // valves only: id of the pump on this valve

	MaxVolume     float64
	CurrentVolume float64
}

// HoldsLiquid reports whether the node takes part in liquid transfers.
func (n *Node) HoldsLiquid() bool {
	return liquidTypes[n.Type]
}

// Edge is one piece of physical tubing between two nodes. Edges are
// undirected: liquid moves either way through the same tube.
type Edge struct {
	From     string
	To       string
	Backbone bool
	Volume   float64 // tubing dead volume in mL
	FromPort int     // valve port on the From side, if From is a valve
	ToPort   int     // valve port on the To side, if To is a valve

	reserved bool
}

func (e *Edge) other(id string) string {
	if e.From == id {
		return e.To
	}
	return e.From
}

// portOn returns the valve port number on the given endpoint's side.
func (e *Edge) portOn(id string) int {
	if e.From == id {
		return e.FromPort
	}
	return e.ToPort
}

// Graph is the in-memory rig topology. Topology is loaded once and never
// changes; the reservation flags on edges are the shared resource routes
// contend for, guarded by mu.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]*Node
	edges []*Edge
	adj   map[string][]*Edge
}

// New builds a graph from nodes and edges, indexing adjacency with
// neighbors in lexicographic order for deterministic traversal.
func New(nodes []*Node, edges []*Edge) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]*Node, len(nodes)),
		adj:   make(map[string][]*Edge),
	}
	for _, n := range nodes {
		if _, dup := g.nodes[n.ID]; dup {
			return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: n.ID, Message: "duplicate node id"}
		}
		g.nodes[n.ID] = n
	}
	for _, e := range edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: e.From, Message: "edge references undefined node"}
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: e.To, Message: "edge references undefined node"}
		}
		if e.From == e.To {
			return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: e.From, Message: "self-loop edge"}
		}
		g.edges = append(g.edges, e)
		g.adj[e.From] = append(g.adj[e.From], e)
		g.adj[e.To] = append(g.adj[e.To], e)
	}

	for id := range g.adj {
		es := g.adj[id]
		sort.Slice(es, func(i, j int) bool {
			return es[i].other(id) < es[j].other(id)
		})
	}

	for _, n := range nodes {
		switch n.Type {
		case TypeValve:
			if n.Pump == "" {
				return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: n.ID, Message: "valve has no attached pump"}
			}
			p, ok := g.nodes[n.Pump]
			if !ok || p.Type != TypePump {
				return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: n.ID, Message: fmt.Sprintf("attached pump %q is not a pump node", n.Pump)}
			}
		case TypePump:
			// A pump's syringe volume bounds MOVE chunking; zero would
			// stall every route through it.
			if n.MaxVolume <= 0 {
				return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: n.ID, Message: "pump needs a positive max_volume"}
			}
		}
	}

	if err := g.checkBackboneConnectivity(); err != nil {
		return nil, err
	}
	return g, nil
}

// Node resolves a node by id. Fails with an UnknownNode GraphError so
// callers can surface DeviceNotFound with script context.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &GraphError{Code: ErrCodeUnknownNode, Node: id, Message: "not defined in topology"}
	}
	return n, nil
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodesOfType returns all nodes of the given type sorted by id.
func (g *Graph) NodesOfType(t NodeType) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors returns the ids adjacent to a node in lexicographic order.
func (g *Graph) Neighbors(id string) []string {
	es := g.adj[id]
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.other(id))
	}
	return out
}

// EdgeBetween returns the edge joining a and b, if any.
func (g *Graph) EdgeBetween(a, b string) (*Edge, bool) {
	for _, e := range g.adj[a] {
		if e.other(a) == b {
			return e, true
		}
	}
	return nil, false
}

// AttachedValve returns the valve adjacent to a vessel, preferring the
// lexicographically smallest when several connect. Used for the
// degenerate src == dest MOVE and for PRIME.
func (g *Graph) AttachedValve(id string) (*Node, error) {
	for _, neighbor := range g.Neighbors(id) {
		if n := g.nodes[neighbor]; n.Type == TypeValve {
			return n, nil
		}
	}
	return nil, &GraphError{Code: ErrCodeUnknownNode, Node: id, Message: "no valve attached"}
}

// checkBackboneConnectivity enforces the construction invariant: every
// pair of liquid-handling nodes must be reachable through backbone-tagged
// edges, or transfers between them are impossible.
func (g *Graph) checkBackboneConnectivity() error {
	var liquid []string
	for _, n := range g.Nodes() {
		if n.HoldsLiquid() {
			liquid = append(liquid, n.ID)
		}
	}
	if len(liquid) < 2 {
		return nil
	}

	// Flood fill over backbone edges from the first liquid node.
	seen := map[string]bool{liquid[0]: true}
	queue := []string{liquid[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.adj[cur] {
			if !e.Backbone {
				continue
			}
			next := e.other(cur)
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, id := range liquid[1:] {
		if !seen[id] {
			return &GraphError{
				Code:    ErrCodeDisconnectedBackbone,
				Node:    id,
				Message: fmt.Sprintf("no backbone path from %s", liquid[0]),
			}
		}
	}
	return nil
}

// Volumes returns a snapshot of current volume per liquid-handling node.
func (g *Graph) Volumes() map[string]float64 {
	out := make(map[string]float64)
	for _, n := range g.nodes {
		if n.HoldsLiquid() || n.Type == TypePump {
			out[n.ID] = n.CurrentVolume
		}
	}
	return out
}

// RestoreVolumes overwrites current volumes from a checkpoint snapshot.
// Unknown ids are ignored: the snapshot was validated against the same
// topology fingerprint before this is called.
func (g *Graph) RestoreVolumes(volumes map[string]float64) {
	for id, v := range volumes {
		if n, ok := g.nodes[id]; ok {
			n.CurrentVolume = v
		}
	}
}

// UpdateVolumes applies MOVE bookkeeping: the source cannot go below
// empty, the destination accumulates the full transferred volume.
func (g *Graph) UpdateVolumes(src, dest string, volume float64) {
	if s, ok := g.nodes[src]; ok {
		s.CurrentVolume -= volume
		if s.CurrentVolume < 0 {
			s.CurrentVolume = 0
		}
	}
	if d, ok := g.nodes[dest]; ok {
		d.CurrentVolume += volume
	}
}
