package adapter

import (
	"github.com/sarchlab/chiptop/sim"
)

// JTAGWidth is the number of JTAG pins: TCK, TMS, TDI and TDO.
const JTAGWidth = 4

// NewJTAGDTM creates a JTAG debug transport module. It synchronizes the JTAG
// clock domain internally and issues debug-bus requests in the implicit
// clock.
func NewJTAGDTM(name string, jtagClock sim.ClockDomain, dmiWidth int) *Comp {
	c := newComp(name, "JTAGDTM",
		sim.PortSpec{Protocol: sim.ProtocolJTAG, Width: JTAGWidth, Clock: jtagClock},
		sim.PortSpec{Protocol: sim.ProtocolDMI, Width: dmiWidth})
	c.SetParam("IDCode", "0x00000001")

	return c
}
