package sim

// A Bundle is an ordered set of ports addressed by local name. Extra ports
// travel through the hierarchy as bundles.
type Bundle struct {
	name  string
	names []string
	ports map[string]Port
}

// NewBundle creates an empty bundle.
func NewBundle(name string) *Bundle {
	return &Bundle{
		name:  name,
		ports: make(map[string]Port),
	}
}

// Name returns the name of the bundle.
func (b *Bundle) Name() string {
	return b.name
}

// Add appends a port. It panics if the local name is taken.
func (b *Bundle) Add(local string, p Port) {
	if _, found := b.ports[local]; found {
		panic("port " + local + " already in bundle " + b.name)
	}

	b.names = append(b.names, local)
	b.ports[local] = p
}

// Port returns the port with the given local name.
func (b *Bundle) Port(local string) (Port, bool) {
	p, ok := b.ports[local]
	return p, ok
}

// Names returns the local names in insertion order.
func (b *Bundle) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)

	return out
}

// Ports returns the ports in insertion order.
func (b *Bundle) Ports() []Port {
	out := make([]Port, 0, len(b.names))
	for _, n := range b.names {
		out = append(out, b.ports[n])
	}

	return out
}

// Len returns the number of ports in the bundle.
func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}

	return len(b.names)
}
