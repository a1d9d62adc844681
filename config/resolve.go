package config

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/sim"
)

// A ChannelGroup is a same-protocol set of channels that is either present
// with a count or absent.
type ChannelGroup interface {
	Protocol() sim.Protocol
	isChannelGroup()
}

// PresentGroup is a channel group that exists.
type PresentGroup struct {
	Family sim.Protocol
	Count  int
	Async  bool
}

// Protocol returns the protocol of the channels.
func (g PresentGroup) Protocol() sim.Protocol { return g.Family }

func (PresentGroup) isChannelGroup() {}

// AbsentGroup is a channel group that does not exist.
type AbsentGroup struct {
	Family sim.Protocol
}

// Protocol returns the protocol the group would have had.
func (g AbsentGroup) Protocol() sim.Protocol { return g.Family }

func (AbsentGroup) isChannelGroup() {}

// CountOf returns the number of channels in a group, 0 when absent.
func CountOf(g ChannelGroup) int {
	if p, ok := g.(PresentGroup); ok {
		return p.Count
	}

	return 0
}

// IsAsync tells whether a group is present and crosses clock domains.
func IsAsync(g ChannelGroup) bool {
	p, ok := g.(PresentGroup)
	return ok && p.Async
}

func makeGroup(p sim.Protocol, count int, async bool) ChannelGroup {
	if count <= 0 {
		return AbsentGroup{Family: p}
	}

	return PresentGroup{Family: p, Count: count, Async: async}
}

// Site is the role a scope plays.
type Site int

// A scope sits either inside the chip, facing the compute subsystem, or
// outside, facing the chip boundary.
const (
	SiteInner Site = iota
	SiteOuter
)

func (s Site) String() string {
	if s == SiteOuter {
		return "Outer"
	}

	return "Inner"
}

// A Scope carries per-family channel counts seen from one hierarchy boundary.
type Scope struct {
	Name   string
	Site   Site
	counts [sim.NumBusFamilies]int
}

// Count returns the number of channels of a family in the scope.
func (s Scope) Count(p sim.Protocol) int {
	i := p.FamilyIndex()
	if i < 0 {
		return 0
	}

	return s.counts[i]
}

// Total returns the number of channels of all families in the scope.
func (s Scope) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}

	return total
}

// Scopes are the three parameter scopes of a chip. Inner counts memory
// channels at the compute side, Outer counts them at the chip boundary and
// OuterMMIO counts external MMIO channels. The periphery numbers its memory
// ports from Inner and its MMIO ports from OuterMMIO. The chip top exports
// memory ports by Outer.
type Scopes struct {
	Inner     Scope
	Outer     Scope
	OuterMMIO Scope
}

// Swap exchanges the inner and outer roles. Device builders see swapped
// scopes because a device is a master and a slave at the same time.
func (s Scopes) Swap() Scopes {
	s.Inner, s.Outer = s.Outer, s.Inner
	s.Inner.Site = SiteInner
	s.Outer.Site = SiteOuter

	return s
}

// Resolution is the set of topology decisions derived from a Config.
type Resolution struct {
	cfg *Config

	memory         []ChannelGroup
	boundaryMemory []ChannelGroup
	serialLink     ChannelGroup
	bus            ChannelGroup
	mmio           []ChannelGroup
	scopes         Scopes

	externalIO   Region
	hasExternal  bool
	boundDevices []Device
}

// Resolve turns a Config into concrete topology decisions.
func Resolve(cfg *Config) (*Resolution, error) {
	if err := narrowLinkMustBeConsistent(cfg); err != nil {
		return nil, err
	}

	r := &Resolution{cfg: cfg}

	r.resolveMemory()
	r.resolveBus()
	r.resolveMMIO()
	r.resolveScopes()

	if err := r.resolveExternalIO(); err != nil {
		return nil, err
	}

	return r, nil
}

func narrowLinkMustBeConsistent(cfg *Config) error {
	if !cfg.NarrowLink() {
		return nil
	}

	if cfg.MemoryChannels() != 1 {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"narrow link needs exactly 1 memory channel, got %d",
			cfg.MemoryChannels())
	}

	if cfg.NarrowLinkWidth() <= 0 {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"narrow link width must be positive, got %d",
			cfg.NarrowLinkWidth())
	}

	return nil
}

func (r *Resolution) resolveMemory() {
	cfg := r.cfg

	for _, f := range sim.BusFamilies {
		count := 0
		if f == cfg.MemoryProtocol() {
			count = cfg.MemoryChannels()
		}

		r.memory = append(r.memory, makeGroup(f, count, cfg.AsyncMemory()))

		if cfg.NarrowLink() && f == cfg.MemoryProtocol() {
			count = 0
		}

		r.boundaryMemory = append(r.boundaryMemory,
			makeGroup(f, count, cfg.AsyncMemory()))
	}

	r.serialLink = AbsentGroup{Family: sim.ProtocolSerial}
	if cfg.NarrowLink() {
		r.serialLink = PresentGroup{
			Family: sim.ProtocolSerial,
			Count:  1,
			Async:  cfg.AsyncMemory(),
		}
	}
}

func (r *Resolution) resolveBus() {
	r.bus = makeGroup(sim.ProtocolAXI4, r.cfg.BusChannels(), r.cfg.AsyncBus())
}

func (r *Resolution) resolveMMIO() {
	for _, f := range sim.BusFamilies {
		count := 0
		if r.cfg.ExportMMIO() {
			count = r.cfg.MMIOChannels(f)
		}

		r.mmio = append(r.mmio, makeGroup(f, count, r.cfg.AsyncMMIO()))
	}
}

func (r *Resolution) resolveScopes() {
	r.scopes.Inner = Scope{Name: "Inner", Site: SiteInner}
	r.scopes.Outer = Scope{Name: "Outer", Site: SiteOuter}
	r.scopes.OuterMMIO = Scope{Name: "OuterMMIO", Site: SiteOuter}

	for i := range sim.BusFamilies {
		r.scopes.Inner.counts[i] = CountOf(r.memory[i])
		r.scopes.Outer.counts[i] = CountOf(r.boundaryMemory[i])
		r.scopes.OuterMMIO.counts[i] = CountOf(r.mmio[i])
	}
}

func (r *Resolution) resolveExternalIO() error {
	region, found := r.cfg.AddressMap().Lookup(r.cfg.ExternalIORegion())

	if !r.cfg.ExportMMIO() {
		r.externalIO, r.hasExternal = region, found
		return nil
	}

	if !found {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"external I/O region %s is not in the address map",
			r.cfg.ExternalIORegion())
	}

	r.externalIO, r.hasExternal = region, true

	bound := make(map[string]bool)
	for _, leaf := range region.Leaves() {
		if leaf.Device != "" {
			bound[leaf.Device] = true
		}
	}

	for _, d := range r.cfg.Devices() {
		if bound[d.Name] {
			r.boundDevices = append(r.boundDevices, d)
			delete(bound, d.Name)
		}
	}

	for _, leaf := range region.Leaves() {
		if bound[leaf.Device] {
			return errors.Wrapf(sim.ErrConfigInconsistent,
				"entry %s names unregistered device %s",
				leaf.Name, leaf.Device)
		}
	}

	return nil
}

// Config returns the configuration the resolution was made from.
func (r *Resolution) Config() *Config { return r.cfg }

// Memory returns the memory channel groups at the compute side, in family
// order. Exactly the selected family is present.
func (r *Resolution) Memory() []ChannelGroup {
	return append([]ChannelGroup(nil), r.memory...)
}

// BoundaryMemory returns the memory channel groups exposed at the chip
// boundary, in family order. The narrow-linked family is absent.
func (r *Resolution) BoundaryMemory() []ChannelGroup {
	return append([]ChannelGroup(nil), r.boundaryMemory...)
}

// MemoryChannels returns the number of memory channels at the compute side.
func (r *Resolution) MemoryChannels() int {
	total := 0
	for _, g := range r.memory {
		total += CountOf(g)
	}

	return total
}

// SerialLink returns the narrow serial link group.
func (r *Resolution) SerialLink() ChannelGroup { return r.serialLink }

// NarrowLinkWidth returns the width of the serial link in bits.
func (r *Resolution) NarrowLinkWidth() int { return r.cfg.NarrowLinkWidth() }

// Bus returns the external-bus ingress group.
func (r *Resolution) Bus() ChannelGroup { return r.bus }

// MMIO returns the external MMIO groups in family order. All of them are
// absent when MMIO export is off.
func (r *Resolution) MMIO() []ChannelGroup {
	return append([]ChannelGroup(nil), r.mmio...)
}

// MMIOChannels returns the total number of external MMIO channels.
func (r *Resolution) MMIOChannels() int {
	total := 0
	for _, g := range r.mmio {
		total += CountOf(g)
	}

	return total
}

// Debug returns the debug transport.
func (r *Resolution) Debug() DebugTransport { return r.cfg.DebugTransport() }

// AsyncDebug tells whether the generic debug bus crosses clock domains. It is
// always false in JTAG mode, where the transport module synchronizes.
func (r *Resolution) AsyncDebug() bool {
	return r.cfg.DebugTransport() == DebugDMI && r.cfg.AsyncDebug()
}

// Scopes returns the parameter scopes.
func (r *Resolution) Scopes() Scopes { return r.scopes }

// ExternalIO returns the external-I/O sub-tree.
func (r *Resolution) ExternalIO() (Region, bool) {
	return r.externalIO, r.hasExternal
}

// BoundDevices returns the registered devices that own at least one
// external-I/O entry, in registration order. It is empty when MMIO export is
// off.
func (r *Resolution) BoundDevices() []Device {
	return append([]Device(nil), r.boundDevices...)
}

// ClientPortCount returns the number of client ports the compute subsystem
// must offer: one for the bus arbiter when there is a bus, plus the client
// ports of every bound device.
func (r *Resolution) ClientPortCount() int {
	n := 0
	if CountOf(r.bus) > 0 {
		n = 1
	}

	for _, d := range r.boundDevices {
		n += d.ClientPorts
	}

	return n
}
