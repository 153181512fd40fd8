package graph

import (
	"log/slog"
	"math"
)

// Hop is one pump/valve actuation step within a route: switch the valve
// to In, aspirate with Pump, switch to Out, dispense. Multi-hop routes
// hand the liquid off pump to pump at each intermediate valve.
type Hop struct {
	Valve string
	Pump  string
	In    int // valve port facing the upstream node
	Out   int // valve port facing the downstream node
}

// Route is a reserved path of hops realizing one MOVE. It holds an
// exclusive reservation on every edge of its path from resolution until
// Release; no partial reservation ever survives.
type Route struct {
	Src  string
	Dest string
	Path []string // node ids, src first, dest last
	Hops []Hop

	// MinPumpVolume is the smallest syringe volume along the route; MOVE
	// volume is chunked so no hop ever overfills a pump.
	MinPumpVolume float64

	g        *Graph
	edges    []*Edge
	released bool
}

// FindRoute resolves and atomically reserves a route between two liquid
// nodes. The search is breadth-first over unreserved backbone edges,
// minimal-hop, with ties broken by lowest node identifier so identical
// graphs always route identically.
//
// Fails with NoRoute when src and dest are disconnected in the backbone
// subgraph, and with RouteConflict when paths exist but every one of them
// holds a reserved edge. Conflicts are reported immediately; callers
// decide whether to retry.
func (g *Graph) FindRoute(src, dest string) (*Route, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[src]; !ok {
		return nil, &GraphError{Code: ErrCodeUnknownNode, Node: src, Message: "not defined in topology"}
	}
	if _, ok := g.nodes[dest]; !ok {
		return nil, &GraphError{Code: ErrCodeUnknownNode, Node: dest, Message: "not defined in topology"}
	}

	var path []string
	if src == dest {
		// Degenerate self-transfer: out through the attached valve and
		// straight back. Used to mix a vessel in place.
		valve, err := g.AttachedValve(src)
		if err != nil {
			return nil, err
		}
		if e, ok := g.EdgeBetween(src, valve.ID); !ok || e.reserved {
			return nil, &RouteError{Code: ErrCodeRouteConflict, Src: src, Dest: dest}
		}
		path = []string{src, valve.ID, dest}
	} else {
		path = g.search(src, dest, true)
		if path == nil {
			if g.search(src, dest, false) == nil {
				return nil, &RouteError{Code: ErrCodeNoRoute, Src: src, Dest: dest}
			}
			return nil, &RouteError{Code: ErrCodeRouteConflict, Src: src, Dest: dest}
		}
	}

	r, err := g.buildRoute(src, dest, path)
	if err != nil {
		return nil, err
	}

	// Reserve every edge on the path. All-or-nothing: the graph lock is
	// held for the whole resolution, so a half-reserved route can never
	// be observed.
	for _, e := range r.edges {
		e.reserved = true
	}

	slog.Debug("route reserved", "src", src, "dest", dest, "path", path, "hops", len(r.Hops))
	return r, nil
}

// search runs the deterministic BFS. With honorReservations it skips
// reserved edges; without, it answers pure connectivity.
func (g *Graph) search(src, dest string, honorReservations bool) []string {
	prev := map[string]string{src: src}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dest {
			break
		}
		// adj is kept sorted by neighbor id, which makes BFS visit order
		// (and therefore tie-breaking between equal-length paths)
		// deterministic.
		for _, e := range g.adj[cur] {
			if !e.Backbone {
				continue
			}
			if honorReservations && e.reserved {
				continue
			}
			next := e.other(cur)
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}

	if _, ok := prev[dest]; !ok {
		return nil
	}
	var path []string
	for cur := dest; ; cur = prev[cur] {
		path = append([]string{cur}, path...)
		if cur == src {
			return path
		}
	}
}

// buildRoute turns a node path into hops: one per intermediate valve,
// each bound to the valve's attached pump and the ports facing its
// upstream and downstream path neighbors.
func (g *Graph) buildRoute(src, dest string, path []string) (*Route, error) {
	r := &Route{
		Src:           src,
		Dest:          dest,
		Path:          path,
		MinPumpVolume: math.Inf(1),
		g:             g,
	}

	for i := 0; i < len(path)-1; i++ {
		e, ok := g.EdgeBetween(path[i], path[i+1])
		if !ok {
			return nil, &GraphError{Code: ErrCodeInvalidTopology, Node: path[i], Message: "path crosses missing edge"}
		}
		r.edges = append(r.edges, e)
	}

	for i := 1; i < len(path)-1; i++ {
		node := g.nodes[path[i]]
		if node.Type != TypeValve {
			continue
		}
		in, _ := g.EdgeBetween(path[i], path[i-1])
		out, _ := g.EdgeBetween(path[i], path[i+1])
		pump := g.nodes[node.Pump]
		if pump.MaxVolume < r.MinPumpVolume {
			r.MinPumpVolume = pump.MaxVolume
		}
		r.Hops = append(r.Hops, Hop{
			Valve: node.ID,
			Pump:  node.Pump,
			In:    in.portOn(node.ID),
			Out:   out.portOn(node.ID),
		})
	}

	if len(r.Hops) == 0 {
		return nil, &RouteError{Code: ErrCodeNoRoute, Src: src, Dest: dest}
	}
	return r, nil
}

// Release frees every edge reservation held by the route. Safe to call
// more than once; the dispatcher releases on both completion and failure.
func (r *Route) Release() {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()
	if r.released {
		return
	}
	for _, e := range r.edges {
		e.reserved = false
	}
	r.released = true
	slog.Debug("route released", "src", r.Src, "dest", r.Dest)
}
