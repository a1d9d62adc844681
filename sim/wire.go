package sim

// A Wire is a connection between two ports.
type Wire struct {
	id   string
	name string

	portA Port
	portB Port
}

// ID returns the identifier assigned by the graph.
func (w *Wire) ID() string {
	return w.id
}

// Name returns the name of the wire.
func (w *Wire) Name() string {
	return w.name
}

// PortA returns the first port given to Connect.
func (w *Wire) PortA() Port {
	return w.portA
}

// PortB returns the second port given to Connect.
func (w *Wire) PortB() Port {
	return w.portB
}

// TheOtherPort returns the end of the wire that is not p. It panics if p is
// not on the wire.
func (w *Wire) TheOtherPort(p Port) Port {
	switch p {
	case w.portA:
		return w.portB
	case w.portB:
		return w.portA
	}

	panic("port not connected to this wire")
}

func newWire(id string, a, b Port) *Wire {
	w := &Wire{
		id:    id,
		name:  a.Name() + "-" + b.Name(),
		portA: a,
		portB: b,
	}

	a.plugIn(w)
	b.plugIn(w)

	return w
}
