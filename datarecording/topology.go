package datarecording

import (
	"github.com/sarchlab/chiptop/chiptop"
	"github.com/sarchlab/chiptop/sim"
)

// Table names used by RecordTopology.
const (
	TopologyTable  = "topology"
	ComponentTable = "component"
	ParamTable     = "param"
	PortTable      = "port"
	WireTable      = "wire"
)

// TopologyEntry is one row per recorded elaboration.
type TopologyEntry struct {
	ID         string
	Chip       string
	Components int
	Wires      int
	Boundary   int
}

// ComponentEntry describes a component of the topology.
type ComponentEntry struct {
	Topology string
	Name     string
	Kind     string
	Parent   string
}

// ParamEntry is an elaboration parameter of a component.
type ParamEntry struct {
	Topology  string
	Component string
	Key       string
	Value     string
}

// PortEntry describes a port. Boundary is true for the ports of the chip
// domain.
type PortEntry struct {
	Topology  string
	Component string
	Name      string
	Protocol  string
	Dir       string
	Width     int
	Clock     string
	Wires     int
	Boundary  bool
}

// WireEntry describes a wire.
type WireEntry struct {
	Topology string
	ID       string
	PortA    string
	PortB    string
}

// CreateTopologyTables creates the tables RecordTopology writes into. It must
// be called once per recorder before the first RecordTopology.
func CreateTopologyTables(r DataRecorder) {
	r.CreateTable(TopologyTable, TopologyEntry{})
	r.CreateTable(ComponentTable, ComponentEntry{})
	r.CreateTable(ParamTable, ParamEntry{})
	r.CreateTable(PortTable, PortEntry{})
	r.CreateTable(WireTable, WireEntry{})
}

// TopologyTables maps each table RecordTopology writes to a sample entry.
func TopologyTables() map[string]any {
	return map[string]any{
		TopologyTable:  TopologyEntry{},
		ComponentTable: ComponentEntry{},
		ParamTable:     ParamEntry{},
		PortTable:      PortEntry{},
		WireTable:      WireEntry{},
	}
}

// MapTopologyTables prepares a reader for the tables RecordTopology writes.
func MapTopologyTables(r DataReader) {
	for name, sample := range TopologyTables() {
		r.MapTable(name, sample)
	}
}

// RecordTopology writes every component, parameter, port and wire of an
// elaborated topology and flushes the recorder.
func RecordTopology(r DataRecorder, t *chiptop.Topology) {
	id := t.ID()
	comps := t.Graph().Components()
	wires := t.Graph().Wires()

	r.InsertData(TopologyTable, TopologyEntry{
		ID:         id,
		Chip:       t.Chip().Name(),
		Components: len(comps),
		Wires:      len(wires),
		Boundary:   len(t.BoundaryPorts()),
	})

	for _, c := range comps {
		recordComponent(r, id, t.Chip(), c)
	}

	for _, w := range wires {
		r.InsertData(WireTable, WireEntry{
			Topology: id,
			ID:       w.ID(),
			PortA:    w.PortA().Name(),
			PortB:    w.PortB().Name(),
		})
	}

	r.Flush()
}

func recordComponent(r DataRecorder, id string, chip *sim.Domain, c sim.Component) {
	parent := ""
	if c.Parent() != nil {
		parent = c.Parent().Name()
	}

	r.InsertData(ComponentTable, ComponentEntry{
		Topology: id,
		Name:     c.Name(),
		Kind:     c.Kind(),
		Parent:   parent,
	})

	for _, p := range c.Params() {
		r.InsertData(ParamTable, ParamEntry{
			Topology:  id,
			Component: c.Name(),
			Key:       p.Key,
			Value:     p.Value,
		})
	}

	for _, p := range c.Ports() {
		spec := p.Spec()

		r.InsertData(PortTable, PortEntry{
			Topology:  id,
			Component: c.Name(),
			Name:      p.Name(),
			Protocol:  spec.Protocol.String(),
			Dir:       spec.Dir.String(),
			Width:     spec.Width,
			Clock:     spec.Clock.String(),
			Wires:     len(p.Wires()),
			Boundary:  c.Name() == chip.Name(),
		})
	}
}
