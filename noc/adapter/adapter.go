// Package adapter provides the point-to-point protocol converters and
// clock-domain crossings inserted during elaboration. Each adapter is a black
// box described only by its ports and parameters.
package adapter

import (
	"github.com/sarchlab/chiptop/sim"
)

// DefaultQueueDepth is the depth of a Buffer when the caller has no opinion.
const DefaultQueueDepth = 2

// Comp is a two-port adapter. Traffic enters at In and leaves at Out.
type Comp struct {
	*sim.ComponentBase

	in  sim.Port
	out sim.Port
}

// In returns the port facing the request source.
func (c *Comp) In() sim.Port {
	return c.in
}

// Out returns the port facing the request destination.
func (c *Comp) Out() sim.Port {
	return c.out
}

func newComp(name, kind string, in, out sim.PortSpec) *Comp {
	c := &Comp{
		ComponentBase: sim.NewComponentBase(name, kind),
	}

	c.in = sim.AddNewPort(c, "In", in.WithDir(sim.DirIn))
	c.out = sim.AddNewPort(c, "Out", out.WithDir(sim.DirOut))

	return c
}

func busSpec(p sim.Protocol, width int) sim.PortSpec {
	return sim.PortSpec{Protocol: p, Width: width}
}

// NewAXI4ToTL creates a converter from AXI4 to TL.
func NewAXI4ToTL(name string, width int) *Comp {
	return newComp(name, "AXI4ToTL",
		busSpec(sim.ProtocolAXI4, width),
		busSpec(sim.ProtocolTL, width))
}

// NewTLToAXI4 creates a converter from TL to AXI4.
func NewTLToAXI4(name string, width int) *Comp {
	return newComp(name, "TLToAXI4",
		busSpec(sim.ProtocolTL, width),
		busSpec(sim.ProtocolAXI4, width))
}

// NewTLToAHB creates a one-way bridge from TL to AHB. With atomics enabled the
// bridge splits atomic operations into read-modify-write sequences.
func NewTLToAHB(name string, width int, atomics bool) *Comp {
	c := newComp(name, "TLToAHB",
		busSpec(sim.ProtocolTL, width),
		busSpec(sim.ProtocolAHB, width))
	c.SetParam("Atomics", atomics)

	return c
}

// NewBuffer creates a queued pass-through of the given depth.
func NewBuffer(name string, p sim.Protocol, width, depth int) *Comp {
	c := newComp(name, "Buffer", busSpec(p, width), busSpec(p, width))
	c.SetParam("Depth", depth)

	return c
}
