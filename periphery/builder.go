package periphery

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

// Builder can build the periphery of a chip.
type Builder struct {
	wiring     config.Wiring
	resolution *config.Resolution
	name       string
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{name: "Periphery"}
}

// WithGraph sets the graph the periphery is elaborated into.
func (b Builder) WithGraph(w config.Wiring) Builder {
	b.wiring = w
	return b
}

// WithResolution sets the topology decisions to follow.
func (b Builder) WithResolution(r *config.Resolution) Builder {
	b.resolution = r
	return b
}

// WithName sets the local name of the periphery domain.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// Build elaborates the periphery inside parent and wires it to the compute
// subsystem.
func (b Builder) Build(parent *sim.Domain, sub compute.Subsystem) (*Comp, error) {
	b.parametersMustBeValid()

	if err := b.clientPortsMustMatch(sub); err != nil {
		return nil, err
	}

	c := &Comp{
		Domain:     sim.NewDomain(sim.BuildName(parent.Name(), b.name)),
		resolution: b.resolution,
		wiring:     b.wiring,
		sub:        sub,
		extra:      sim.NewBundle("Extra"),
		bus:        sim.Absent{},
	}
	c.Domain.SetParam("MMIOQueueDepth", MMIOQueueDepth)

	for range sim.BusFamilies {
		c.memory = append(c.memory, sim.Absent{})
		c.mmio = append(c.mmio, sim.Absent{})
	}

	if err := b.wiring.RegisterIn(parent, c); err != nil {
		return nil, errors.Wrap(err, "registering periphery")
	}

	steps := []func() error{
		c.buildExtraPorts,
		c.buildBus,
		c.buildMMIO,
		c.buildMemory,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (b Builder) parametersMustBeValid() {
	if b.wiring == nil {
		panic("periphery needs a graph")
	}

	if b.resolution == nil {
		panic("periphery needs a resolution")
	}
}

func (b Builder) clientPortsMustMatch(sub compute.Subsystem) error {
	expected := b.resolution.ClientPortCount()
	actual := len(sub.ClientPorts())

	if expected != actual {
		return errors.Wrapf(sim.ErrPortCountMismatch,
			"compute subsystem %s has %d client ports, expected %d",
			sub.Name(), actual, expected)
	}

	return nil
}
