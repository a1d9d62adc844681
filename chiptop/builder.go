// Package chiptop assembles the top level of a chip: it wires the compute
// subsystem to the periphery, applies clock-domain crossings, selects the
// debug transport and exposes the chip boundary.
package chiptop

import (
	"log"

	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

// InactiveInterrupt is the level driven onto unconnected interrupt inputs.
const InactiveInterrupt = 0

// Builder can build a Topology.
type Builder struct {
	cfg    *config.Config
	logger *log.Logger
	name   string
	idGen  sim.IDGenerator
	hooks  []sim.Hook
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		name:  "ChipTop",
		idGen: sim.NewXIDGenerator(),
	}
}

// WithConfig sets the configuration to elaborate.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogger logs every elaboration step to the logger.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithName sets the name of the chip domain.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithIDGenerator sets the generator of topology IDs.
func (b Builder) WithIDGenerator(gen sim.IDGenerator) Builder {
	b.idGen = gen
	return b
}

// WithHook attaches a hook to the graph under construction.
func (b Builder) WithHook(h sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), h)
	return b
}

// Build elaborates the chip around the compute subsystem. Either the whole
// topology is returned, frozen, or the first error found.
func (b Builder) Build(sub compute.Subsystem) (*Topology, error) {
	if b.cfg == nil {
		panic("chip top needs a configuration")
	}

	res, err := config.Resolve(b.cfg)
	if err != nil {
		return nil, err
	}

	g := sim.NewGraph()
	if b.logger != nil {
		g.AcceptHook(sim.NewElaborationLogHook(b.logger))
	}

	for _, h := range b.hooks {
		g.AcceptHook(h)
	}

	a := &assembler{
		graph:      g,
		resolution: res,
		cfg:        b.cfg,
		sub:        sub,
		chip:       sim.NewDomain(b.name),
		extra:      sim.NewBundle("Extra"),
	}

	if err := a.assemble(); err != nil {
		return nil, errors.Wrapf(err, "elaborating %s", b.name)
	}

	g.Freeze()

	t := &Topology{
		id:         b.idGen.Generate(),
		graph:      g,
		chip:       a.chip,
		periphery:  a.periphery,
		resolution: res,
		sub:        sub,
		extra:      a.extra,
	}

	return t, nil
}
