package adapter

import (
	"github.com/sarchlab/chiptop/sim"
)

// TieOff drives a constant onto a single output.
type TieOff struct {
	*sim.ComponentBase

	out   sim.Port
	value uint64
}

// NewTieOff creates a constant driver.
func NewTieOff(name string, p sim.Protocol, width int, value uint64) *TieOff {
	t := &TieOff{
		ComponentBase: sim.NewComponentBase(name, "TieOff"),
		value:         value,
	}
	t.SetParam("Value", value)
	t.out = sim.AddNewPort(t, "Out",
		sim.PortSpec{Protocol: p, Dir: sim.DirOut, Width: width})

	return t
}

// Out returns the driven port.
func (t *TieOff) Out() sim.Port {
	return t.out
}

// Value returns the constant.
func (t *TieOff) Value() uint64 {
	return t.value
}
