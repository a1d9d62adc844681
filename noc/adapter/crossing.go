package adapter

import (
	"github.com/sarchlab/chiptop/sim"
)

// CrossingDirection tells which side of an AsyncCrossing is in the foreign
// clock domain.
type CrossingDirection int

const (
	// ToOuter crossings take requests from the implicit clock and issue
	// them in the outer clock.
	ToOuter CrossingDirection = iota

	// FromOuter crossings take requests from the outer clock and issue
	// them in the implicit clock.
	FromOuter
)

// AsyncCrossing is a clock-domain crossing for one channel. It carries its
// own clock and reset inputs for the outer domain.
type AsyncCrossing struct {
	*Comp

	clock sim.Port
	reset sim.Port
	outer sim.ClockDomain
}

// NewAsyncCrossing creates a crossing between the implicit clock and outer.
func NewAsyncCrossing(
	name string,
	p sim.Protocol,
	width int,
	outer sim.ClockDomain,
	dir CrossingDirection,
) *AsyncCrossing {
	in := sim.PortSpec{Protocol: p, Width: width}
	out := in

	if dir == ToOuter {
		out.Clock = outer
	} else {
		in.Clock = outer
	}

	c := &AsyncCrossing{
		Comp:  newComp(name, "AsyncCrossing", in, out),
		outer: outer,
	}
	c.SetParam("OuterClock", outer)

	c.clock = sim.AddNewPort(c, "Clock",
		sim.PortSpec{Protocol: sim.ProtocolClock, Dir: sim.DirIn, Width: 1, Clock: outer})
	c.reset = sim.AddNewPort(c, "Reset",
		sim.PortSpec{Protocol: sim.ProtocolReset, Dir: sim.DirIn, Width: 1, Clock: outer})

	return c
}

// Clock returns the clock input of the outer domain.
func (c *AsyncCrossing) Clock() sim.Port {
	return c.clock
}

// Reset returns the reset input of the outer domain.
func (c *AsyncCrossing) Reset() sim.Port {
	return c.reset
}

// OuterClock returns the foreign clock domain.
func (c *AsyncCrossing) OuterClock() sim.ClockDomain {
	return c.outer
}
