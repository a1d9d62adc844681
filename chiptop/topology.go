package chiptop

import (
	"fmt"
	"strings"

	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/periphery"
	"github.com/sarchlab/chiptop/sim"
)

// Topology is an elaborated chip. It never changes.
type Topology struct {
	id         string
	graph      *sim.Graph
	chip       *sim.Domain
	periphery  *periphery.Comp
	resolution *config.Resolution
	sub        compute.Subsystem
	extra      *sim.Bundle
}

// ID returns the identifier of this elaboration.
func (t *Topology) ID() string { return t.id }

// Graph returns the frozen topology graph.
func (t *Topology) Graph() *sim.Graph { return t.graph }

// Chip returns the chip domain. Its ports are the chip boundary.
func (t *Topology) Chip() *sim.Domain { return t.chip }

// Periphery returns the periphery domain.
func (t *Topology) Periphery() *periphery.Comp { return t.periphery }

// Resolution returns the decisions the topology was elaborated from.
func (t *Topology) Resolution() *config.Resolution { return t.resolution }

// Compute returns the compute subsystem.
func (t *Topology) Compute() compute.Subsystem { return t.sub }

// ExtraPorts returns the chip-boundary extra ports.
func (t *Topology) ExtraPorts() *sim.Bundle { return t.extra }

// BoundaryPorts returns the chip-boundary ports sorted by local name.
func (t *Topology) BoundaryPorts() []sim.Port {
	return t.chip.Ports()
}

// BoundaryPort looks up a chip-boundary port by local name, e.g. "Bus[0]".
func (t *Topology) BoundaryPort(name string) (sim.Port, bool) {
	return t.chip.LookupPort(name)
}

// HasBoundaryPort tells whether the chip boundary has a port with the local
// name.
func (t *Topology) HasBoundaryPort(name string) bool {
	_, ok := t.chip.LookupPort(name)
	return ok
}

// CountBoundary returns the number of chip-boundary ports of a protocol.
func (t *Topology) CountBoundary(p sim.Protocol) int {
	n := 0

	for _, port := range t.chip.Ports() {
		if port.Spec().Protocol == p {
			n++
		}
	}

	return n
}

// Signature describes the structure of the topology: every component with its
// parameters and ports, and every wire. IDs are left out, so two elaborations
// of the same configuration have the same signature.
func (t *Topology) Signature() string {
	var b strings.Builder

	for _, c := range t.graph.Components() {
		fmt.Fprintf(&b, "component %s %s", c.Name(), c.Kind())

		for _, p := range c.Params() {
			fmt.Fprintf(&b, " %s=%s", p.Key, p.Value)
		}

		b.WriteString("\n")

		for _, p := range c.Ports() {
			fmt.Fprintf(&b, "  port %s %s\n", p.Name(), p.Spec())
		}
	}

	for _, w := range t.graph.Wires() {
		fmt.Fprintf(&b, "wire %s\n", w.Name())
	}

	return b.String()
}
