// Package config holds the immutable chip configuration and resolves it into
// concrete topology decisions.
package config

import (
	"fmt"
	"strings"

	"github.com/sarchlab/chiptop/sim"
)

// DebugTransport selects how the debug module is reached from outside.
type DebugTransport int

const (
	// DebugDMI exposes the generic debug bus pins.
	DebugDMI DebugTransport = iota

	// DebugJTAG exposes JTAG pins and a debug transport module.
	DebugJTAG
)

func (t DebugTransport) String() string {
	if t == DebugJTAG {
		return "JTAG"
	}

	return "DMI"
}

// ParseDebugTransport converts "jtag" or "dmi" into a DebugTransport.
func ParseDebugTransport(s string) (DebugTransport, error) {
	switch strings.ToLower(s) {
	case "jtag":
		return DebugJTAG, nil
	case "dmi", "":
		return DebugDMI, nil
	}

	return DebugDMI, fmt.Errorf("unknown debug transport %q", s)
}

// Wiring is the part of the topology graph handed to callbacks.
type Wiring interface {
	RegisterIn(d *sim.Domain, c sim.Component) error
	Connect(a, b sim.Port) (*sim.Wire, error)
}

// ExtraPortDecl declares one port of the extra-ports bundle, as seen from the
// chip boundary.
type ExtraPortDecl struct {
	Name string
	Spec sim.PortSpec
}

// ExtraPortsConnector connects the chip-boundary extra ports to the compute
// subsystem's extra ports. It is the last wiring step of elaboration.
type ExtraPortsConnector func(chip, compute *sim.Bundle, w Wiring) error

// MMIOPort is an address-map entry together with the router port serving it.
type MMIOPort struct {
	Entry Region
	Port  sim.Port
}

// DevicePorts is everything an extra-device builder may use. The device is a
// bus slave through MMIO and a bus master through Clients.
type DevicePorts struct {
	Name    string
	MMIO    []MMIOPort
	Clients []sim.Port
	ExtraIO *sim.Bundle
	Scopes  Scopes
	Parent  *sim.Domain
	Wiring  Wiring
}

// DeviceBuilder elaborates an extra device.
type DeviceBuilder func(ports DevicePorts) error

// Device registers an extra device. Address-map entries whose Device field
// equals Name are bound to it.
type Device struct {
	Name        string
	MMIOPorts   int
	ClientPorts int
	Build       DeviceBuilder
}

// Config is the declarative description of a chip. It never changes after
// Build returns it.
type Config struct {
	memProtocol sim.Protocol
	memChannels int
	memAsync    bool

	busChannels  int
	busAsync     bool
	busBeatBytes int

	mmioChannels  [sim.NumBusFamilies]int
	mmioAsync     bool
	mmioBeatBytes int
	exportMMIO    bool

	debug      DebugTransport
	debugAsync bool

	narrowLink  bool
	narrowWidth int

	addressMap AddressMap
	externalIO string

	extraPorts   []ExtraPortDecl
	connectExtra ExtraPortsConnector
	devices      []Device

	success bool
}

// MemoryProtocol returns the protocol family of the memory channels.
func (c *Config) MemoryProtocol() sim.Protocol { return c.memProtocol }

// MemoryChannels returns the number of memory channels.
func (c *Config) MemoryChannels() int { return c.memChannels }

// AsyncMemory tells whether memory channels cross into their own clocks.
func (c *Config) AsyncMemory() bool { return c.memAsync }

// BusChannels returns the number of external-bus ingress channels.
func (c *Config) BusChannels() int { return c.busChannels }

// AsyncBus tells whether bus channels come from their own clocks.
func (c *Config) AsyncBus() bool { return c.busAsync }

// BusBeatBytes returns the data width of a bus channel in bytes.
func (c *Config) BusBeatBytes() int { return c.busBeatBytes }

// MMIOChannels returns the number of external MMIO channels of a family.
func (c *Config) MMIOChannels(p sim.Protocol) int {
	i := p.FamilyIndex()
	if i < 0 {
		return 0
	}

	return c.mmioChannels[i]
}

// AsyncMMIO tells whether MMIO channels cross into their own clocks.
func (c *Config) AsyncMMIO() bool { return c.mmioAsync }

// MMIOBeatBytes returns the data width of an MMIO channel in bytes.
func (c *Config) MMIOBeatBytes() int { return c.mmioBeatBytes }

// ExportMMIO tells whether the MMIO router is elaborated at all.
func (c *Config) ExportMMIO() bool { return c.exportMMIO }

// DebugTransport returns the debug transport mode.
func (c *Config) DebugTransport() DebugTransport { return c.debug }

// AsyncDebug tells whether the generic debug bus has its own clock.
func (c *Config) AsyncDebug() bool { return c.debugAsync }

// NarrowLink tells whether the memory channel is serialized.
func (c *Config) NarrowLink() bool { return c.narrowLink }

// NarrowLinkWidth returns the width of the serialized link in bits.
func (c *Config) NarrowLinkWidth() int { return c.narrowWidth }

// AddressMap returns the address map.
func (c *Config) AddressMap() AddressMap { return c.addressMap }

// ExternalIORegion names the address-map sub-tree routed to MMIO ports.
func (c *Config) ExternalIORegion() string { return c.externalIO }

// ExtraPorts returns the extra-port declarations.
func (c *Config) ExtraPorts() []ExtraPortDecl {
	out := make([]ExtraPortDecl, len(c.extraPorts))
	copy(out, c.extraPorts)

	return out
}

// ExtraPortsConnector returns the extra-ports callback. It never returns nil.
func (c *Config) ExtraPortsConnector() ExtraPortsConnector {
	if c.connectExtra == nil {
		return func(_, _ *sim.Bundle, _ Wiring) error { return nil }
	}

	return c.connectExtra
}

// Devices returns the registered extra devices in registration order.
func (c *Config) Devices() []Device {
	out := make([]Device, len(c.devices))
	copy(out, c.devices)

	return out
}

// Success tells whether the compute subsystem is expected to report success.
func (c *Config) Success() bool { return c.success }
