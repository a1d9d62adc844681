package sim

import (
	"fmt"
	"strings"
)

// Protocol is the wire protocol carried by a port.
type Protocol int

// The protocols a port can carry. AXI4, AHB and TL are the three
// interchangeable bus families, in their fixed family order.
const (
	ProtocolNone Protocol = iota
	ProtocolAXI4
	ProtocolAHB
	ProtocolTL
	ProtocolSerial
	ProtocolJTAG
	ProtocolDMI
	ProtocolClock
	ProtocolReset
	ProtocolInterrupt
	ProtocolSignal
)

// BusFamilies lists the bus protocol families in family order (A, B, C).
var BusFamilies = []Protocol{ProtocolAXI4, ProtocolAHB, ProtocolTL}

// NumBusFamilies is the number of bus protocol families.
const NumBusFamilies = 3

var protocolNames = map[Protocol]string{
	ProtocolNone:      "None",
	ProtocolAXI4:      "AXI4",
	ProtocolAHB:       "AHB",
	ProtocolTL:        "TL",
	ProtocolSerial:    "Serial",
	ProtocolJTAG:      "JTAG",
	ProtocolDMI:       "DMI",
	ProtocolClock:     "Clock",
	ProtocolReset:     "Reset",
	ProtocolInterrupt: "Interrupt",
	ProtocolSignal:    "Signal",
}

func (p Protocol) String() string {
	if n, ok := protocolNames[p]; ok {
		return n
	}

	return fmt.Sprintf("Protocol(%d)", int(p))
}

// ParseProtocol converts a protocol name, case-insensitively, into a
// Protocol.
func ParseProtocol(s string) (Protocol, error) {
	for p, n := range protocolNames {
		if strings.EqualFold(n, s) {
			return p, nil
		}
	}

	return ProtocolNone, fmt.Errorf("unknown protocol %q", s)
}

// IsBusFamily returns true for AXI4, AHB and TL.
func (p Protocol) IsBusFamily() bool {
	return p == ProtocolAXI4 || p == ProtocolAHB || p == ProtocolTL
}

// FamilyIndex returns the position of a bus family in BusFamilies, or -1.
func (p Protocol) FamilyIndex() int {
	for i, f := range BusFamilies {
		if f == p {
			return i
		}
	}

	return -1
}

// FansOut reports whether one port of this protocol may drive or be driven
// by several wires.
func (p Protocol) FansOut() bool {
	switch p {
	case ProtocolClock, ProtocolReset, ProtocolInterrupt, ProtocolSignal:
		return true
	default:
		return false
	}
}

func (p Protocol) singleWire() bool {
	return !p.FansOut()
}

// clocked reports whether both ends of a wire must share a clock domain.
func (p Protocol) clocked() bool {
	return p != ProtocolClock && p != ProtocolReset
}

// Direction tells whether a port issues or receives traffic.
type Direction int

// DirIn ports receive requests or are driven. DirOut ports issue requests or
// drive.
const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirOut {
		return "Out"
	}

	return "In"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == DirOut {
		return DirIn
	}

	return DirOut
}

// ParseDirection converts "in" or "out" into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "in", "":
		return DirIn, nil
	case "out":
		return DirOut, nil
	}

	return DirIn, fmt.Errorf("unknown direction %q", s)
}

// ClockDomain names the clock a port is synchronous to.
type ClockDomain string

// ImplicitClock is the chip's own clock.
const ImplicitClock ClockDomain = ""

func (c ClockDomain) String() string {
	if c == ImplicitClock {
		return "implicit"
	}

	return string(c)
}

// PortSpec is the shape of a port.
type PortSpec struct {
	Protocol Protocol
	Dir      Direction
	Width    int
	Clock    ClockDomain
}

// WithDir returns a copy of the spec with the direction replaced.
func (s PortSpec) WithDir(d Direction) PortSpec {
	s.Dir = d
	return s
}

// WithClock returns a copy of the spec with the clock domain replaced.
func (s PortSpec) WithClock(c ClockDomain) PortSpec {
	s.Clock = c
	return s
}

// WithWidth returns a copy of the spec with the width replaced.
func (s PortSpec) WithWidth(w int) PortSpec {
	s.Width = w
	return s
}

// WithProtocol returns a copy of the spec with the protocol replaced.
func (s PortSpec) WithProtocol(p Protocol) PortSpec {
	s.Protocol = p
	return s
}

func (s PortSpec) String() string {
	return fmt.Sprintf("%s/%s/%d@%s", s.Protocol, s.Dir, s.Width, s.Clock)
}
