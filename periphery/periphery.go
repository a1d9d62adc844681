// Package periphery elaborates the peripheral side of a chip: external-bus
// arbitration, MMIO routing to external ports and devices, and the per-channel
// memory conversion stages.
package periphery

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/noc/adapter"
	"github.com/sarchlab/chiptop/noc/arbitration"
	"github.com/sarchlab/chiptop/noc/xbar"
	"github.com/sarchlab/chiptop/sim"
)

// MMIOQueueDepth is the depth of the back-pressure queues on external MMIO
// ports.
const MMIOQueueDepth = 2

// A Binding records which external MMIO port serves an address-map entry.
type Binding struct {
	Entry  string
	Family sim.Protocol
	Index  int
	Port   sim.Port
}

// Comp is the periphery domain. Its ports face the chip top.
type Comp struct {
	*sim.Domain

	resolution *config.Resolution
	wiring     config.Wiring
	sub        compute.Subsystem

	memory []sim.PortGroup
	bus    sim.PortGroup
	mmio   []sim.PortGroup
	extra  *sim.Bundle

	arbiter  *arbitration.Arbiter
	router   *xbar.Router
	bindings []Binding
	devices  []string
}

// Memory returns the memory ports in family order.
func (c *Comp) Memory() []sim.PortGroup {
	return append([]sim.PortGroup(nil), c.memory...)
}

// MemoryPorts returns the memory ports of one family.
func (c *Comp) MemoryPorts(p sim.Protocol) sim.PortGroup {
	return groupOf(c.memory, p)
}

// Bus returns the external-bus ingress ports.
func (c *Comp) Bus() sim.PortGroup {
	return c.bus
}

// MMIO returns the external MMIO ports in family order.
func (c *Comp) MMIO() []sim.PortGroup {
	return append([]sim.PortGroup(nil), c.mmio...)
}

// MMIOPorts returns the external MMIO ports of one family.
func (c *Comp) MMIOPorts(p sim.Protocol) sim.PortGroup {
	return groupOf(c.mmio, p)
}

// ExtraPorts returns the extra-ports bundle.
func (c *Comp) ExtraPorts() *sim.Bundle {
	return c.extra
}

// Arbiter returns the bus arbiter, nil when there is no bus.
func (c *Comp) Arbiter() *arbitration.Arbiter {
	return c.arbiter
}

// Router returns the MMIO router, nil when MMIO export is off.
func (c *Comp) Router() *xbar.Router {
	return c.router
}

// Bindings returns the entries served by external MMIO ports, in entry
// order.
func (c *Comp) Bindings() []Binding {
	return append([]Binding(nil), c.bindings...)
}

// Devices returns the names of the elaborated devices.
func (c *Comp) Devices() []string {
	return append([]string(nil), c.devices...)
}

func groupOf(groups []sim.PortGroup, p sim.Protocol) sim.PortGroup {
	i := p.FamilyIndex()
	if i < 0 || i >= len(groups) {
		return sim.Absent{}
	}

	return groups[i]
}

func (c *Comp) local(name string) string {
	return sim.BuildName(c.Name(), name)
}

// entryLocal names a component built for an external MMIO entry. Entry
// components live under MMIO so that entry names cannot clash with the fixed
// components of the periphery.
func (c *Comp) entryLocal(entry, name string) string {
	return sim.BuildName(c.local("MMIO"), entry+name)
}

func (c *Comp) localIndexed(name string, i int) string {
	return sim.BuildNameWithIndex(c.Name(), name, i)
}

func (c *Comp) add(comps ...sim.Component) error {
	for _, comp := range comps {
		if err := c.wiring.RegisterIn(c.Domain, comp); err != nil {
			return err
		}
	}

	return nil
}

// chain connects the ports pairwise: ports[0] to ports[1], ports[2] to
// ports[3] and so on.
func (c *Comp) chain(ports ...sim.Port) error {
	for i := 0; i+1 < len(ports); i += 2 {
		if _, err := c.wiring.Connect(ports[i], ports[i+1]); err != nil {
			return err
		}
	}

	return nil
}

func (c *Comp) buildExtraPorts() error {
	for _, d := range c.resolution.Config().ExtraPorts() {
		p := sim.AddNewPort(c, sim.BuildName("Extra", d.Name), d.Spec)
		c.extra.Add(d.Name, p)
	}

	return nil
}

func (c *Comp) buildBus() error {
	n := config.CountOf(c.resolution.Bus())
	if n == 0 {
		return nil
	}

	width := c.resolution.Config().BusBeatBytes() * 8
	client := c.sub.ClientPorts()[0]

	c.arbiter = arbitration.NewArbiter(c.local("BusArbiter"), n,
		sim.PortSpec{Protocol: sim.ProtocolTL, Width: width})
	if err := c.add(c.arbiter); err != nil {
		return errors.Wrap(err, "bus arbiter")
	}

	ports := make([]sim.Port, 0, n)

	for i := 0; i < n; i++ {
		p := sim.AddNewPort(c, sim.BuildNameWithIndex("", "Bus", i),
			sim.PortSpec{Protocol: sim.ProtocolAXI4, Dir: sim.DirIn, Width: width})
		ports = append(ports, p)

		conv := adapter.NewAXI4ToTL(c.localIndexed("BusToTL", i), width)
		if err := c.add(conv); err != nil {
			return errors.Wrapf(err, "bus channel %d", i)
		}

		if err := c.chain(p, conv.In(), conv.Out(), c.arbiter.In(i)); err != nil {
			return errors.Wrapf(err, "bus channel %d", i)
		}
	}

	tail := c.arbiter.Out()

	if cw := client.Spec().Width; cw != width {
		ww, err := adapter.NewWidthWidget(c.local("BusWidth"),
			sim.ProtocolTL, width, cw)
		if err != nil {
			return err
		}

		if err := c.add(ww); err != nil {
			return err
		}

		if err := c.chain(tail, ww.In()); err != nil {
			return err
		}

		tail = ww.Out()
	}

	if err := c.chain(tail, client); err != nil {
		return errors.Wrap(err, "bus to compute client port")
	}

	c.bus = sim.Present{Ports: ports}

	return nil
}

func (c *Comp) buildMMIO() error {
	if !c.resolution.Config().ExportMMIO() {
		return nil
	}

	region, _ := c.resolution.ExternalIO()
	mmio := c.sub.MMIOPort()

	router, err := xbar.Build(c.wiring, c.Domain, c.local("MMIOXBar"),
		region, mmio.Spec().WithDir(sim.DirIn))
	if err != nil {
		return err
	}

	c.router = router

	if err := c.chain(mmio, router.In()); err != nil {
		return errors.Wrap(err, "compute MMIO port")
	}

	bound := make(map[string][]config.MMIOPort)
	remaining := make([]config.Region, 0)

	for _, e := range router.Entries() {
		if e.Device == "" {
			remaining = append(remaining, e)
			continue
		}

		p, _ := router.Port(e.Name)
		bound[e.Device] = append(bound[e.Device], config.MMIOPort{Entry: e, Port: p})
	}

	if err := c.bindDevices(bound); err != nil {
		return err
	}

	return c.routeExternal(remaining)
}

func (c *Comp) bindDevices(bound map[string][]config.MMIOPort) error {
	clients := c.sub.ClientPorts()

	next := 0
	if config.CountOf(c.resolution.Bus()) > 0 {
		next = 1
	}

	for _, d := range c.resolution.BoundDevices() {
		mmio := bound[d.Name]
		if len(mmio) != d.MMIOPorts {
			return errors.Wrapf(sim.ErrPortCountMismatch,
				"device %s is bound to %d entries but declares %d MMIO ports",
				d.Name, len(mmio), d.MMIOPorts)
		}

		ports := config.DevicePorts{
			Name:    d.Name,
			MMIO:    mmio,
			Clients: clients[next : next+d.ClientPorts],
			ExtraIO: c.extra,
			Scopes:  c.resolution.Scopes().Swap(),
			Parent:  c.Domain,
			Wiring:  c.wiring,
		}
		next += d.ClientPorts

		if err := d.Build(ports); err != nil {
			return errors.Wrapf(err, "building device %s", d.Name)
		}

		c.devices = append(c.devices, d.Name)
	}

	return nil
}

// rangeOf finds the MMIO port serving the k-th external entry. Entries fill
// the AXI4 ports first, then AHB, then TL.
func (c *Comp) rangeOf(k int) (sim.Protocol, int, bool) {
	for i, f := range sim.BusFamilies {
		n := len(sim.PortsOf(c.mmio[i]))
		if k < n {
			return f, k, true
		}

		k -= n
	}

	return sim.ProtocolNone, 0, false
}

func (c *Comp) routeExternal(entries []config.Region) error {
	width := c.resolution.Config().MMIOBeatBytes() * 8

	scope := c.resolution.Scopes().OuterMMIO

	for i, f := range sim.BusFamilies {
		n := scope.Count(f)
		if n == 0 {
			continue
		}

		ports := make([]sim.Port, 0, n)

		for j := 0; j < n; j++ {
			ports = append(ports, sim.AddNewPort(c,
				sim.BuildNameWithIndex("", "MMIO"+f.String(), j),
				sim.PortSpec{Protocol: f, Dir: sim.DirOut, Width: width}))
		}

		c.mmio[i] = sim.Present{Ports: ports}
	}

	for k, e := range entries {
		f, j, ok := c.rangeOf(k)
		if !ok {
			return errors.Wrapf(sim.ErrPortCountMismatch,
				"unconnected external MMIO port %s", e.Name)
		}

		if e.Protocol != sim.ProtocolNone && e.Protocol != f {
			return errors.Wrapf(sim.ErrProtocolMismatch,
				"entry %s expects %s but lands on %s port %d",
				e.Name, e.Protocol, f, j)
		}

		out := sim.PortsOf(c.MMIOPorts(f))[j]
		if err := c.routeEntry(e, f, width, out); err != nil {
			return errors.Wrapf(err, "external MMIO entry %s", e.Name)
		}

		c.bindings = append(c.bindings, Binding{
			Entry:  e.Name,
			Family: f,
			Index:  j,
			Port:   out,
		})
	}

	return nil
}

func (c *Comp) routeEntry(
	e config.Region,
	f sim.Protocol,
	width int,
	out sim.Port,
) error {
	tail, _ := c.router.Port(e.Name)

	if w := tail.Spec().Width; w != width {
		ww, err := adapter.NewWidthWidget(c.entryLocal(e.Name, "Width"),
			sim.ProtocolTL, w, width)
		if err != nil {
			return err
		}

		if err := c.add(ww); err != nil {
			return err
		}

		if err := c.chain(tail, ww.In()); err != nil {
			return err
		}

		tail = ww.Out()
	}

	switch f {
	case sim.ProtocolAXI4:
		conv := adapter.NewTLToAXI4(c.entryLocal(e.Name, "ToAXI4"), width)
		queue := adapter.NewBuffer(c.entryLocal(e.Name, "Queue"),
			sim.ProtocolAXI4, width, MMIOQueueDepth)

		if err := c.add(conv, queue); err != nil {
			return err
		}

		return c.chain(tail, conv.In(), conv.Out(), queue.In(), queue.Out(), out)
	case sim.ProtocolAHB:
		bridge := adapter.NewTLToAHB(c.entryLocal(e.Name, "ToAHB"), width, true)
		if err := c.add(bridge); err != nil {
			return err
		}

		return c.chain(tail, bridge.In(), bridge.Out(), out)
	default:
		queue := adapter.NewBuffer(c.entryLocal(e.Name, "Queue"),
			sim.ProtocolTL, width, MMIOQueueDepth)
		if err := c.add(queue); err != nil {
			return err
		}

		return c.chain(tail, queue.In(), queue.Out(), out)
	}
}

func (c *Comp) buildMemory() error {
	ports := c.sub.MemoryPorts()

	if expected := c.resolution.MemoryChannels(); len(ports) != expected {
		return errors.Wrapf(sim.ErrPortCountMismatch,
			"compute subsystem %s has %d memory ports, expected %d",
			c.sub.Name(), len(ports), expected)
	}

	k := 0
	scope := c.resolution.Scopes().Inner

	for i, f := range sim.BusFamilies {
		n := scope.Count(f)
		if n == 0 {
			continue
		}

		group := make([]sim.Port, 0, n)

		for j := 0; j < n; j++ {
			src := ports[k]
			k++

			out := sim.AddNewPort(c,
				sim.BuildNameWithIndex("", "Mem"+f.String(), j),
				sim.PortSpec{Protocol: f, Dir: sim.DirOut, Width: src.Spec().Width})
			group = append(group, out)

			if err := c.buildMemoryStage(f, j, src, out); err != nil {
				return errors.Wrapf(err, "memory channel %d", j)
			}
		}

		c.memory[i] = sim.Present{Ports: group}
	}

	return nil
}

func (c *Comp) buildMemoryStage(f sim.Protocol, i int, src, out sim.Port) error {
	width := src.Spec().Width

	switch f {
	case sim.ProtocolAXI4:
		conv := adapter.NewTLToAXI4(c.localIndexed("MemToAXI4", i), width)
		override := adapter.NewCacheOverride(
			c.localIndexed("MemCacheOverride", i), width)

		if err := c.add(conv, override); err != nil {
			return err
		}

		return c.chain(src, conv.In(), conv.Out(), override.In(),
			override.Out(), out)
	case sim.ProtocolAHB:
		bridge := adapter.NewTLToAHB(c.localIndexed("MemToAHB", i), width, false)
		if err := c.add(bridge); err != nil {
			return err
		}

		return c.chain(src, bridge.In(), bridge.Out(), out)
	default:
		queue := adapter.NewBuffer(c.localIndexed("MemQueue", i),
			sim.ProtocolTL, width, adapter.DefaultQueueDepth)
		if err := c.add(queue); err != nil {
			return err
		}

		return c.chain(src, queue.In(), queue.Out(), out)
	}
}
