package adapter

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/sim"
)

// SerDes serializes a bus channel onto a narrow link.
type SerDes struct {
	*Comp

	linkWidth int
}

// NewSerDes creates a serializer from a bus port of the given protocol and
// width to a Serial link of linkWidth bits.
func NewSerDes(
	name string,
	p sim.Protocol,
	width, linkWidth int,
	linkClock sim.ClockDomain,
) (*SerDes, error) {
	if linkWidth <= 0 {
		return nil, errors.Wrapf(sim.ErrConfigInconsistent,
			"%s: link width must be positive, got %d", name, linkWidth)
	}

	s := &SerDes{
		Comp: newComp(name, "SerDes",
			sim.PortSpec{Protocol: p, Width: width, Clock: linkClock},
			sim.PortSpec{Protocol: sim.ProtocolSerial, Width: linkWidth, Clock: linkClock}),
		linkWidth: linkWidth,
	}
	s.SetParam("LinkWidth", linkWidth)

	return s, nil
}

// LinkWidth returns the width of the serial side.
func (s *SerDes) LinkWidth() int {
	return s.linkWidth
}

// BeatsPerMessage returns the number of link beats needed to carry a message
// of the given size in bits.
func (s *SerDes) BeatsPerMessage(bits int) int {
	if bits <= 0 {
		return 0
	}

	return (bits + s.linkWidth - 1) / s.linkWidth
}
