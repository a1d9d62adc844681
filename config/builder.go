package config

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/sim"
)

// DefaultExternalIORegion is the address-map region routed to MMIO ports
// unless another one is named.
const DefaultExternalIORegion = "ExtIO"

// Builder can be used to build a Config.
type Builder struct {
	memProtocol sim.Protocol
	memChannels int
	memAsync    bool

	busChannels  int
	busAsync     bool
	busBeatBytes int

	mmioChannels  [sim.NumBusFamilies]int
	mmioAsync     bool
	mmioBeatBytes int
	exportMMIO    bool

	debug      DebugTransport
	debugAsync bool

	narrowLink  bool
	narrowWidth int

	addressMap AddressMap
	externalIO string

	extraPorts   []ExtraPortDecl
	connectExtra ExtraPortsConnector
	devices      []Device

	success bool
}

// MakeBuilder creates a builder with one synchronous AXI4 memory channel, no
// bus or MMIO channels and a generic debug bus.
//
// MMIO export is on by default and routes the ExtIO region of the address
// map. The address map starts empty, so a configuration built without
// WithAddressMap must also call WithMMIOExport(false) before it resolves.
func MakeBuilder() Builder {
	return Builder{
		memProtocol:   sim.ProtocolAXI4,
		memChannels:   1,
		busBeatBytes:  8,
		mmioBeatBytes: 8,
		exportMMIO:    true,
		debug:         DebugDMI,
		externalIO:    DefaultExternalIORegion,
	}
}

// WithMemoryProtocol selects the protocol family of the memory channels.
func (b Builder) WithMemoryProtocol(p sim.Protocol) Builder {
	b.memProtocol = p
	return b
}

// WithMemoryChannels sets the number of memory channels.
func (b Builder) WithMemoryChannels(n int) Builder {
	b.memChannels = n
	return b
}

// WithAsyncMemory gives every memory channel its own clock and reset.
func (b Builder) WithAsyncMemory(async bool) Builder {
	b.memAsync = async
	return b
}

// WithBusChannels sets the number of external-bus ingress channels.
func (b Builder) WithBusChannels(n int) Builder {
	b.busChannels = n
	return b
}

// WithAsyncBus gives every bus channel its own clock and reset.
func (b Builder) WithAsyncBus(async bool) Builder {
	b.busAsync = async
	return b
}

// WithBusBeatBytes sets the data width of the bus channels.
func (b Builder) WithBusBeatBytes(n int) Builder {
	b.busBeatBytes = n
	return b
}

// WithMMIOChannels sets the number of external MMIO channels of one family.
func (b Builder) WithMMIOChannels(p sim.Protocol, n int) Builder {
	i := p.FamilyIndex()
	if i < 0 {
		panic("MMIO channels must use a bus family, got " + p.String())
	}

	b.mmioChannels[i] = n

	return b
}

// WithAsyncMMIO gives every MMIO channel its own clock and reset.
func (b Builder) WithAsyncMMIO(async bool) Builder {
	b.mmioAsync = async
	return b
}

// WithMMIOBeatBytes sets the data width of the MMIO channels.
func (b Builder) WithMMIOBeatBytes(n int) Builder {
	b.mmioBeatBytes = n
	return b
}

// WithMMIOExport turns the MMIO router on or off.
func (b Builder) WithMMIOExport(export bool) Builder {
	b.exportMMIO = export
	return b
}

// WithDebugTransport selects the debug transport.
func (b Builder) WithDebugTransport(t DebugTransport) Builder {
	b.debug = t
	return b
}

// WithAsyncDebug gives the generic debug bus its own clock and reset.
func (b Builder) WithAsyncDebug(async bool) Builder {
	b.debugAsync = async
	return b
}

// WithNarrowLink serializes the memory channel onto a link of width bits.
func (b Builder) WithNarrowLink(width int) Builder {
	b.narrowLink = true
	b.narrowWidth = width

	return b
}

// WithoutNarrowLink exposes memory channels directly.
func (b Builder) WithoutNarrowLink() Builder {
	b.narrowLink = false
	b.narrowWidth = 0

	return b
}

// WithAddressMap sets the address map.
func (b Builder) WithAddressMap(m AddressMap) Builder {
	b.addressMap = m.clone()
	return b
}

// WithExternalIORegion names the address-map sub-tree routed to MMIO ports.
func (b Builder) WithExternalIORegion(name string) Builder {
	b.externalIO = name
	return b
}

// WithExtraPort appends a port to the extra-ports bundle.
func (b Builder) WithExtraPort(decl ExtraPortDecl) Builder {
	b.extraPorts = append(append([]ExtraPortDecl(nil), b.extraPorts...), decl)
	return b
}

// WithExtraPortsConnector sets the callback that connects the extra ports.
func (b Builder) WithExtraPortsConnector(fn ExtraPortsConnector) Builder {
	b.connectExtra = fn
	return b
}

// WithDevice registers an extra device.
func (b Builder) WithDevice(d Device) Builder {
	b.devices = append(append([]Device(nil), b.devices...), d)
	return b
}

// WithSuccess declares that the compute subsystem reports success.
func (b Builder) WithSuccess(success bool) Builder {
	b.success = success
	return b
}

// Build validates the parameters and freezes them into a Config.
func (b Builder) Build() (*Config, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	c := &Config{
		memProtocol:   b.memProtocol,
		memChannels:   b.memChannels,
		memAsync:      b.memAsync,
		busChannels:   b.busChannels,
		busAsync:      b.busAsync,
		busBeatBytes:  b.busBeatBytes,
		mmioChannels:  b.mmioChannels,
		mmioAsync:     b.mmioAsync,
		mmioBeatBytes: b.mmioBeatBytes,
		exportMMIO:    b.exportMMIO,
		debug:         b.debug,
		debugAsync:    b.debugAsync,
		narrowLink:    b.narrowLink,
		narrowWidth:   b.narrowWidth,
		addressMap:    b.addressMap.clone(),
		externalIO:    b.externalIO,
		extraPorts:    append([]ExtraPortDecl(nil), b.extraPorts...),
		connectExtra:  b.connectExtra,
		devices:       append([]Device(nil), b.devices...),
		success:       b.success,
	}

	return c, nil
}

func (b Builder) parametersMustBeValid() error {
	if !b.memProtocol.IsBusFamily() {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"memory protocol must be AXI4, AHB or TL, got %s", b.memProtocol)
	}

	type count struct {
		what string
		n    int
	}

	counts := []count{
		{"memory channels", b.memChannels},
		{"bus channels", b.busChannels},
	}
	for i, f := range sim.BusFamilies {
		counts = append(counts, count{f.String() + " MMIO channels", b.mmioChannels[i]})
	}

	for _, c := range counts {
		if c.n < 0 {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"%s must not be negative, got %d", c.what, c.n)
		}
	}

	if err := beatBytesMustBeValid("bus", b.busBeatBytes); err != nil {
		return err
	}

	if err := beatBytesMustBeValid("MMIO", b.mmioBeatBytes); err != nil {
		return err
	}

	if err := b.addressMap.Validate(); err != nil {
		return err
	}

	if err := b.extraPortsMustBeValid(); err != nil {
		return err
	}

	return b.devicesMustBeValid()
}

func beatBytesMustBeValid(what string, n int) error {
	if n <= 0 || n&(n-1) != 0 {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"%s beat bytes must be a power of two, got %d", what, n)
	}

	return nil
}

func (b Builder) extraPortsMustBeValid() error {
	seen := make(map[string]bool)

	for _, p := range b.extraPorts {
		if err := sim.ValidateName(p.Name); err != nil {
			return errors.Wrap(sim.ErrConfigInconsistent, err.Error())
		}

		if seen[p.Name] {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"extra port %s declared twice", p.Name)
		}

		if p.Spec.Width <= 0 {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"extra port %s must be at least one bit wide", p.Name)
		}

		// The chip port is wired to both the periphery and the compute side.
		if !p.Spec.Protocol.FansOut() {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"extra port %s carries %s, extra ports must be signals, "+
					"clocks, resets or interrupts", p.Name, p.Spec.Protocol)
		}

		seen[p.Name] = true
	}

	return nil
}

func (b Builder) devicesMustBeValid() error {
	seen := make(map[string]bool)

	for _, d := range b.devices {
		if err := sim.ValidateName(d.Name); err != nil {
			return errors.Wrap(sim.ErrConfigInconsistent, err.Error())
		}

		if seen[d.Name] {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"device %s registered twice", d.Name)
		}

		if d.MMIOPorts < 0 || d.ClientPorts < 0 {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"device %s declares a negative port count", d.Name)
		}

		if d.Build == nil {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"device %s has no builder", d.Name)
		}

		seen[d.Name] = true
	}

	return nil
}
