package rig

import (
	"fmt"

	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
)

// DriverFactory constructs one driver per device node. The simulated
// factory backs every node with an in-memory device; a hardware factory
// would open serial connections using the node's model and address.
type DriverFactory interface {
	Pump(node *graph.Node) (device.Pump, error)
	Valve(node *graph.Node) (device.Valve, error)
	Stirrer(node *graph.Node) (device.Stirrer, error)
	Rotavap(node *graph.Node) (device.Rotavap, error)
	Chiller(node *graph.Node) (device.Chiller, error)
	Vacuum(node *graph.Node) (device.Vacuum, error)
}

// SimFactory backs every node with a simulated device. Constructed
// devices are retained so tests can script faults and inspect state.
type SimFactory struct {
	Pumps    map[string]*device.SimPump
	Valves   map[string]*device.SimValve
	Stirrers map[string]*device.SimStirrer
	Rotavaps map[string]*device.SimRotavap
	Chillers map[string]*device.SimChiller
	Vacuums  map[string]*device.SimVacuum
}

func NewSimFactory() *SimFactory {
	return &SimFactory{
		Pumps:    map[string]*device.SimPump{},
		Valves:   map[string]*device.SimValve{},
		Stirrers: map[string]*device.SimStirrer{},
		Rotavaps: map[string]*device.SimRotavap{},
		Chillers: map[string]*device.SimChiller{},
		Vacuums:  map[string]*device.SimVacuum{},
	}
}

func (f *SimFactory) Pump(node *graph.Node) (device.Pump, error) {
	d := device.NewSimPump(node.ID)
	f.Pumps[node.ID] = d
	return d, nil
}

func (f *SimFactory) Valve(node *graph.Node) (device.Valve, error) {
	d := device.NewSimValve(node.ID)
	f.Valves[node.ID] = d
	return d, nil
}

func (f *SimFactory) Stirrer(node *graph.Node) (device.Stirrer, error) {
	d := device.NewSimStirrer(node.ID)
	f.Stirrers[node.ID] = d
	return d, nil
}

func (f *SimFactory) Rotavap(node *graph.Node) (device.Rotavap, error) {
	d := device.NewSimRotavap(node.ID)
	f.Rotavaps[node.ID] = d
	return d, nil
}

func (f *SimFactory) Chiller(node *graph.Node) (device.Chiller, error) {
	d := device.NewSimChiller(node.ID)
	f.Chillers[node.ID] = d
	return d, nil
}

func (f *SimFactory) Vacuum(node *graph.Node) (device.Vacuum, error) {
	d := device.NewSimVacuum(node.ID)
	f.Vacuums[node.ID] = d
	return d, nil
}

// Rig binds every device node in a topology to its executioner. All
// lookups are by graph node id; a miss is a DEVICE_NOT_FOUND error, not
// a panic, because scripts name nodes freely.
type Rig struct {
	graph    *graph.Graph
	pumps    map[string]*PumpExec
	valves   map[string]*ValveExec
	stirrers map[string]*StirrerExec
	rotavaps map[string]*RotavapExec
	chillers map[string]*ChillerExec
	vacuums  map[string]*VacuumExec
}

// Build instantiates one executioner per device node in the graph. A
// zero-value policy gets the default retry budget; Attempts of 0 would
// otherwise wrap the retry bound around to unbounded.
func Build(g *graph.Graph, factory DriverFactory, policy RetryPolicy) (*Rig, error) {
	if policy.Attempts == 0 {
		policy.Attempts = DefaultRetryPolicy.Attempts
	}
	if policy.InitialBackoff == 0 {
		policy.InitialBackoff = DefaultRetryPolicy.InitialBackoff
	}
	r := &Rig{
		graph:    g,
		pumps:    map[string]*PumpExec{},
		valves:   map[string]*ValveExec{},
		stirrers: map[string]*StirrerExec{},
		rotavaps: map[string]*RotavapExec{},
		chillers: map[string]*ChillerExec{},
		vacuums:  map[string]*VacuumExec{},
	}
	for _, n := range g.Nodes() {
		var err error
		switch n.Type {
		case graph.TypePump:
			var drv device.Pump
			if drv, err = factory.Pump(n); err == nil {
				r.pumps[n.ID] = NewPumpExec(n, drv, policy)
			}
		case graph.TypeValve:
			var drv device.Valve
			if drv, err = factory.Valve(n); err == nil {
				r.valves[n.ID] = NewValveExec(n, drv, policy)
			}
		case graph.TypeStirrer:
			var drv device.Stirrer
			if drv, err = factory.Stirrer(n); err == nil {
				r.stirrers[n.ID] = NewStirrerExec(n, drv, policy)
			}
		case graph.TypeRotavap:
			var drv device.Rotavap
			if drv, err = factory.Rotavap(n); err == nil {
				r.rotavaps[n.ID] = NewRotavapExec(n, drv, policy)
			}
		case graph.TypeChiller:
			var drv device.Chiller
			if drv, err = factory.Chiller(n); err == nil {
				r.chillers[n.ID] = NewChillerExec(n, drv, policy)
			}
		case graph.TypeVacuum:
			var drv device.Vacuum
			if drv, err = factory.Vacuum(n); err == nil {
				r.vacuums[n.ID] = NewVacuumExec(n, drv, policy)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("open driver for %s: %w", n.ID, err)
		}
	}
	return r, nil
}

// Graph returns the topology this rig is bound to.
func (r *Rig) Graph() *graph.Graph { return r.graph }

// Pump resolves the pump executioner for a node id.
func (r *Rig) Pump(id string) (*PumpExec, error) {
	p, ok := r.pumps[id]
	if !ok {
		return nil, notFound(id, "pump")
	}
	return p, nil
}

// Valve resolves the valve executioner for a node id.
func (r *Rig) Valve(id string) (*ValveExec, error) {
	v, ok := r.valves[id]
	if !ok {
		return nil, notFound(id, "valve")
	}
	return v, nil
}

// Stirrer resolves the stirrer executioner for a node id.
func (r *Rig) Stirrer(id string) (*StirrerExec, error) {
	s, ok := r.stirrers[id]
	if !ok {
		return nil, notFound(id, "stirrer")
	}
	return s, nil
}

// Rotavap resolves the rotavap executioner for a node id.
func (r *Rig) Rotavap(id string) (*RotavapExec, error) {
	rv, ok := r.rotavaps[id]
	if !ok {
		return nil, notFound(id, "rotavap")
	}
	return rv, nil
}

// Chiller resolves the chiller executioner for a node id.
func (r *Rig) Chiller(id string) (*ChillerExec, error) {
	c, ok := r.chillers[id]
	if !ok {
		return nil, notFound(id, "chiller")
	}
	return c, nil
}

// Vacuum resolves the vacuum executioner for a node id.
func (r *Rig) Vacuum(id string) (*VacuumExec, error) {
	v, ok := r.vacuums[id]
	if !ok {
		return nil, notFound(id, "vacuum")
	}
	return v, nil
}

// Snapshot merges vessel volumes from the graph with each executioner's
// last commanded state into the per-device map the checkpoint log
// persists.
func (r *Rig) Snapshot() Snapshot {
	snap := Snapshot{}
	for id, vol := range r.graph.Volumes() {
		st := snap[id]
		st.Volume = vol
		snap[id] = st
	}
	for id, p := range r.pumps {
		st := snap[id]
		st.Volume = p.Held()
		snap[id] = st
	}
	// Stirrers and rotavaps are vessels as well as devices; keep the
	// graph's volume alongside their commanded state.
	for id, s := range r.stirrers {
		st := s.State()
		st.Volume = snap[id].Volume
		snap[id] = st
	}
	for id, rv := range r.rotavaps {
		st := rv.State()
		st.Volume = snap[id].Volume
		snap[id] = st
	}
	for id, c := range r.chillers {
		snap[id] = c.State()
	}
	for id, v := range r.vacuums {
		snap[id] = v.State()
	}
	return snap
}

// Restore re-synchronizes graph volumes and executioner state from a
// checkpoint snapshot. No driver commands are issued; hardware is
// assumed to still hold the committed state.
func (r *Rig) Restore(snap Snapshot) {
	volumes := map[string]float64{}
	for id, st := range snap {
		volumes[id] = st.Volume
		if p, ok := r.pumps[id]; ok {
			p.Restore(st)
		}
		if s, ok := r.stirrers[id]; ok {
			s.Restore(st)
		}
		if rv, ok := r.rotavaps[id]; ok {
			rv.Restore(st)
		}
		if c, ok := r.chillers[id]; ok {
			c.Restore(st)
		}
		if v, ok := r.vacuums[id]; ok {
			v.Restore(st)
		}
	}
	r.graph.RestoreVolumes(volumes)
}
