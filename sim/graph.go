package sim

import (
	"github.com/pkg/errors"
)

// A Graph holds the components and wires of a topology under construction.
// It is owned by a single builder and becomes read-only once frozen.
type Graph struct {
	HookableBase

	idGenerator IDGenerator

	components    []Component
	compNameIndex map[string]int
	wires         []*Wire
	frozen        bool
}

// NewGraph creates an empty graph that numbers wires sequentially.
func NewGraph() *Graph {
	return &Graph{
		idGenerator:   NewSequentialIDGenerator(),
		compNameIndex: make(map[string]int),
	}
}

// WithIDGenerator replaces the generator used for wire IDs.
func (g *Graph) WithIDGenerator(gen IDGenerator) *Graph {
	g.idGenerator = gen
	return g
}

// Register adds a component to the graph.
func (g *Graph) Register(c Component) error {
	if g.frozen {
		return errors.Wrapf(ErrGraphFrozen, "registering %s", c.Name())
	}

	if _, found := g.compNameIndex[c.Name()]; found {
		return errors.Wrapf(ErrConfigInconsistent,
			"component %s registered twice", c.Name())
	}

	g.components = append(g.components, c)
	g.compNameIndex[c.Name()] = len(g.components) - 1

	g.InvokeHook(HookCtx{
		Domain: g,
		Pos:    HookPosComponentRegistered,
		Item:   c,
	})

	return nil
}

// RegisterIn registers a component and places it inside a domain.
func (g *Graph) RegisterIn(d *Domain, c Component) error {
	if err := d.AddChild(c); err != nil {
		return err
	}

	return g.Register(c)
}

// IsRegistered tells whether a component with the same name is in the graph.
func (g *Graph) IsRegistered(c Component) bool {
	_, found := g.compNameIndex[c.Name()]
	return found
}

// Connect wires two ports after checking that they are compatible.
func (g *Graph) Connect(a, b Port) (*Wire, error) {
	if g.frozen {
		return nil, errors.Wrapf(ErrGraphFrozen,
			"connecting %s to %s", a.Name(), b.Name())
	}

	for _, p := range []Port{a, b} {
		if p.Component() == nil || !g.IsRegistered(p.Component()) {
			return nil, errors.Errorf(
				"port %s belongs to an unregistered component", p.Name())
		}
	}

	if a == b {
		return nil, errors.Wrapf(ErrProtocolMismatch,
			"port %s connected to itself", a.Name())
	}

	if err := portsMustBeCompatible(a, b); err != nil {
		return nil, err
	}

	if err := portMustBeFree(a, b); err != nil {
		return nil, err
	}

	if err := portMustBeFree(b, a); err != nil {
		return nil, err
	}

	w := newWire(g.idGenerator.Generate(), a, b)
	g.wires = append(g.wires, w)

	g.InvokeHook(HookCtx{
		Domain: g,
		Pos:    HookPosWireConnected,
		Item:   w,
	})

	return w, nil
}

// portMustBeFree checks that p can take a wire to peer. Bus ports take one
// wire. A bus port on a domain takes one wire inside the domain and one
// outside it.
func portMustBeFree(p, peer Port) error {
	if !p.Spec().Protocol.singleWire() {
		return nil
	}

	inside := onAncestor(p, peer)

	for _, w := range p.Wires() {
		other := w.TheOtherPort(p)
		if onAncestor(p, other) == inside {
			return errors.Wrapf(ErrPortInUse, "%s is already wired to %s",
				p.Name(), other.Name())
		}
	}

	return nil
}

func portsMustBeCompatible(a, b Port) error {
	sa, sb := a.Spec(), b.Spec()

	if sa.Protocol != sb.Protocol {
		return errors.Wrapf(ErrProtocolMismatch, "%s is %s but %s is %s",
			a.Name(), sa.Protocol, b.Name(), sb.Protocol)
	}

	if sa.Width != sb.Width {
		return errors.Wrapf(ErrProtocolMismatch,
			"%s is %d bits wide but %s is %d bits wide",
			a.Name(), sa.Width, b.Name(), sb.Width)
	}

	if isExport(a, b) {
		if sa.Dir != sb.Dir {
			return errors.Wrapf(ErrProtocolMismatch,
				"boundary port %s (%s) must face the same way as %s (%s)",
				a.Name(), sa.Dir, b.Name(), sb.Dir)
		}
	} else if sa.Dir == sb.Dir {
		return errors.Wrapf(ErrProtocolMismatch, "%s and %s are both %s",
			a.Name(), b.Name(), sa.Dir)
	}

	if sa.Protocol.clocked() && sa.Clock != sb.Clock {
		return errors.Wrapf(ErrProtocolMismatch,
			"%s is clocked by %s but %s is clocked by %s",
			a.Name(), sa.Clock, b.Name(), sb.Clock)
	}

	return nil
}

// isExport tells whether one port sits on a domain that contains the other
// port's owner.
func isExport(a, b Port) bool {
	return onAncestor(a, b) || onAncestor(b, a)
}

func onAncestor(outer, inner Port) bool {
	h, ok := outer.Component().(DomainHolder)
	if !ok {
		return false
	}

	return IsAncestor(h.AsDomain(), inner.Component())
}

// Freeze ends elaboration. Every later Register or Connect fails.
func (g *Graph) Freeze() {
	if g.frozen {
		return
	}

	g.frozen = true

	g.InvokeHook(HookCtx{
		Domain: g,
		Pos:    HookPosGraphFrozen,
		Item:   g,
	})
}

// Frozen tells whether elaboration has completed.
func (g *Graph) Frozen() bool {
	return g.frozen
}

// Components returns the registered components in registration order.
func (g *Graph) Components() []Component {
	out := make([]Component, len(g.components))
	copy(out, g.components)

	return out
}

// Wires returns the wires in connection order.
func (g *Graph) Wires() []*Wire {
	out := make([]*Wire, len(g.wires))
	copy(out, g.wires)

	return out
}

// ComponentByName returns the component with the given name.
func (g *Graph) ComponentByName(name string) (Component, bool) {
	i, found := g.compNameIndex[name]
	if !found {
		return nil, false
	}

	return g.components[i], true
}

// PortByName returns the port with the given full name.
func (g *Graph) PortByName(name string) (Port, bool) {
	for _, c := range g.components {
		for _, p := range c.Ports() {
			if p.Name() == name {
				return p, true
			}
		}
	}

	return nil, false
}
