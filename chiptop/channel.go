package chiptop

import (
	"github.com/sarchlab/chiptop/noc/adapter"
	"github.com/sarchlab/chiptop/sim"
)

// A channel is an inner port exported to the chip boundary, optionally
// through a clock-domain crossing with its own clock and reset pins.
type channel struct {
	inner    sim.Port
	name     string
	clock    string
	reset    string
	crossing string
	async    bool
}

// export creates the boundary port of a channel and wires it up. The boundary
// port faces the same way as the inner port.
func (a *assembler) export(ch channel) (sim.Port, error) {
	spec := ch.inner.Spec()

	if !ch.async {
		out := a.boundary(ch.name, spec)
		return out, a.connect(out, ch.inner)
	}

	clock := sim.ClockDomain(ch.clock)

	crossing, err := a.crossing(ch.crossing, ch.inner, clock)
	if err != nil {
		return nil, err
	}

	out := a.boundary(ch.name, spec.WithClock(clock))

	var outer sim.Port
	if spec.Dir == sim.DirOut {
		outer = crossing.Out()
	} else {
		outer = crossing.In()
	}

	clockPin := a.boundary(ch.clock, crossing.Clock().Spec())
	resetPin := a.boundary(ch.reset, crossing.Reset().Spec())

	err = a.connect(
		outer, out,
		clockPin, crossing.Clock(),
		resetPin, crossing.Reset(),
	)

	return out, err
}

// crossing inserts a clock-domain crossing between an inner port and the
// outer clock. Requests leaving through inner go out through the crossing;
// requests arriving at inner come in through it.
func (a *assembler) crossing(
	name string,
	inner sim.Port,
	outer sim.ClockDomain,
) (*adapter.AsyncCrossing, error) {
	spec := inner.Spec()

	dir := adapter.FromOuter
	if spec.Dir == sim.DirOut {
		dir = adapter.ToOuter
	}

	c := adapter.NewAsyncCrossing(a.local(name), spec.Protocol, spec.Width,
		outer, dir)
	if err := a.graph.RegisterIn(a.chip, c); err != nil {
		return nil, err
	}

	var err error
	if dir == adapter.ToOuter {
		err = a.connect(inner, c.In())
	} else {
		err = a.connect(c.Out(), inner)
	}

	if err != nil {
		return nil, err
	}

	return c, nil
}
