package sim

// A Port is owned by a component and is used to plugin wires.
type Port interface {
	Named

	Spec() PortSpec
	Component() Component

	// Wires returns the wires plugged into the port, in connection order.
	Wires() []*Wire
	IsConnected() bool

	plugIn(w *Wire)
}

type defaultPort struct {
	name  string
	comp  Component
	spec  PortSpec
	wires []*Wire
}

// NewPort creates a new port with default behavior.
func NewPort(comp Component, name string, spec PortSpec) Port {
	p := new(defaultPort)
	p.comp = comp
	p.name = name
	p.spec = spec

	return p
}

// Name returns the name of the port.
func (p *defaultPort) Name() string {
	return p.name
}

// Spec returns the protocol, direction, width and clock of the port.
func (p *defaultPort) Spec() PortSpec {
	return p.spec
}

// Component returns the owner component of the port.
func (p *defaultPort) Component() Component {
	return p.comp
}

func (p *defaultPort) Wires() []*Wire {
	out := make([]*Wire, len(p.wires))
	copy(out, p.wires)

	return out
}

func (p *defaultPort) IsConnected() bool {
	return len(p.wires) > 0
}

func (p *defaultPort) plugIn(w *Wire) {
	p.wires = append(p.wires, w)
}
