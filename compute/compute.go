// Package compute describes the compute subsystem that the chip top wires up,
// and provides a reference subsystem with the expected ports.
package compute

import (
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

// DMIWidth is the width of a debug-bus request: 7 address bits, 32 data bits
// and a 2-bit operation.
const DMIWidth = 41

// Subsystem is the compute side of the chip. List lengths must match the
// resolved channel counts and must not change between calls.
type Subsystem interface {
	sim.Component

	// MemoryPorts issue memory requests, one per memory channel.
	MemoryPorts() []sim.Port

	// MMIOPort issues requests to memory-mapped devices.
	MMIOPort() sim.Port

	// ClientPorts accept requests from external bus masters.
	ClientPorts() []sim.Port

	DebugPort() sim.Port
	ClockPort() sim.Port
	ResetPort() sim.Port

	// SuccessPort returns the success output if the subsystem has one.
	SuccessPort() (sim.Port, bool)

	InterruptPorts() []sim.Port
	ExtraPorts() *sim.Bundle
}

// Comp is a reference compute subsystem. It only has ports.
type Comp struct {
	*sim.ComponentBase

	mem        []sim.Port
	mmio       sim.Port
	clients    []sim.Port
	debug      sim.Port
	clock      sim.Port
	reset      sim.Port
	success    sim.Port
	interrupts []sim.Port
	extra      *sim.Bundle
}

// MemoryPorts returns the memory egress ports.
func (c *Comp) MemoryPorts() []sim.Port {
	return append([]sim.Port(nil), c.mem...)
}

// MMIOPort returns the MMIO egress port.
func (c *Comp) MMIOPort() sim.Port {
	return c.mmio
}

// ClientPorts returns the client ingress ports.
func (c *Comp) ClientPorts() []sim.Port {
	return append([]sim.Port(nil), c.clients...)
}

// DebugPort returns the debug-bus ingress.
func (c *Comp) DebugPort() sim.Port {
	return c.debug
}

// ClockPort returns the clock input.
func (c *Comp) ClockPort() sim.Port {
	return c.clock
}

// ResetPort returns the reset input.
func (c *Comp) ResetPort() sim.Port {
	return c.reset
}

// SuccessPort returns the success output, if any.
func (c *Comp) SuccessPort() (sim.Port, bool) {
	return c.success, c.success != nil
}

// InterruptPorts returns the interrupt inputs.
func (c *Comp) InterruptPorts() []sim.Port {
	return append([]sim.Port(nil), c.interrupts...)
}

// ExtraPorts returns the extra-ports bundle.
func (c *Comp) ExtraPorts() *sim.Bundle {
	return c.extra
}

// Builder can build reference compute subsystems.
type Builder struct {
	width       int
	memChannels int
	clients     int
	interrupts  int
	success     bool
	extraPorts  []config.ExtraPortDecl
}

// MakeBuilder creates a builder for a subsystem with one 64-bit memory
// channel and nothing else optional.
func MakeBuilder() Builder {
	return Builder{
		width:       64,
		memChannels: 1,
	}
}

// WithWidth sets the width of the bus ports in bits.
func (b Builder) WithWidth(bits int) Builder {
	b.width = bits
	return b
}

// WithMemoryChannels sets the number of memory egress ports.
func (b Builder) WithMemoryChannels(n int) Builder {
	b.memChannels = n
	return b
}

// WithClientPorts sets the number of client ingress ports.
func (b Builder) WithClientPorts(n int) Builder {
	b.clients = n
	return b
}

// WithInterrupts sets the number of interrupt inputs.
func (b Builder) WithInterrupts(n int) Builder {
	b.interrupts = n
	return b
}

// WithSuccess adds a success output.
func (b Builder) WithSuccess(success bool) Builder {
	b.success = success
	return b
}

// WithExtraPorts declares the extra ports.
func (b Builder) WithExtraPorts(decls []config.ExtraPortDecl) Builder {
	b.extraPorts = append([]config.ExtraPortDecl(nil), decls...)
	return b
}

// WithResolution sizes the subsystem so that it fits the resolution.
func (b Builder) WithResolution(r *config.Resolution) Builder {
	b.memChannels = r.MemoryChannels()
	b.clients = r.ClientPortCount()
	b.success = r.Config().Success()
	b.extraPorts = r.Config().ExtraPorts()

	return b
}

// Build creates the subsystem.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		ComponentBase: sim.NewComponentBase(name, "Compute"),
		extra:         sim.NewBundle("Extra"),
	}
	c.SetParam("Width", b.width)

	tl := sim.PortSpec{Protocol: sim.ProtocolTL, Width: b.width}

	for i := 0; i < b.memChannels; i++ {
		c.mem = append(c.mem, sim.AddNewPort(c,
			sim.BuildNameWithIndex("", "Mem", i), tl.WithDir(sim.DirOut)))
	}

	c.mmio = sim.AddNewPort(c, "MMIO", tl.WithDir(sim.DirOut))

	for i := 0; i < b.clients; i++ {
		c.clients = append(c.clients, sim.AddNewPort(c,
			sim.BuildNameWithIndex("", "Client", i), tl.WithDir(sim.DirIn)))
	}

	c.debug = sim.AddNewPort(c, "Debug",
		sim.PortSpec{Protocol: sim.ProtocolDMI, Dir: sim.DirIn, Width: DMIWidth})
	c.clock = sim.AddNewPort(c, "Clock",
		sim.PortSpec{Protocol: sim.ProtocolClock, Dir: sim.DirIn, Width: 1})
	c.reset = sim.AddNewPort(c, "Reset",
		sim.PortSpec{Protocol: sim.ProtocolReset, Dir: sim.DirIn, Width: 1})

	if b.success {
		c.success = sim.AddNewPort(c, "Success",
			sim.PortSpec{Protocol: sim.ProtocolSignal, Dir: sim.DirOut, Width: 1})
	}

	for i := 0; i < b.interrupts; i++ {
		c.interrupts = append(c.interrupts, sim.AddNewPort(c,
			sim.BuildNameWithIndex("", "Interrupt", i),
			sim.PortSpec{Protocol: sim.ProtocolInterrupt, Dir: sim.DirIn, Width: 1}))
	}

	for _, d := range b.extraPorts {
		p := sim.AddNewPort(c, sim.BuildName("Extra", d.Name), d.Spec)
		c.extra.Add(d.Name, p)
	}

	return c
}
