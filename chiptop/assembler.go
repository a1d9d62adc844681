package chiptop

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/noc/adapter"
	"github.com/sarchlab/chiptop/periphery"
	"github.com/sarchlab/chiptop/sim"
)

type assembler struct {
	graph      *sim.Graph
	resolution *config.Resolution
	cfg        *config.Config
	sub        compute.Subsystem
	chip       *sim.Domain
	periphery  *periphery.Comp
	extra      *sim.Bundle
}

func (a *assembler) assemble() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"registering components", a.register},
		{"clock and reset", a.connectClockAndReset},
		{"periphery", a.buildPeriphery},
		{"debug", a.connectDebug},
		{"memory", a.exportMemory},
		{"bus", a.exportBus},
		{"MMIO", a.exportMMIO},
		{"success", a.exportSuccess},
		{"extra ports", a.connectExtraPorts},
		{"interrupts", a.tieOffInterrupts},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			return errors.Wrap(err, s.name)
		}
	}

	return nil
}

func (a *assembler) local(name string) string {
	return sim.BuildName(a.chip.Name(), name)
}

func (a *assembler) register() error {
	if err := a.graph.Register(a.chip); err != nil {
		return err
	}

	return a.graph.RegisterIn(a.chip, a.sub)
}

func (a *assembler) boundary(name string, spec sim.PortSpec) sim.Port {
	return sim.AddNewPort(a.chip, name, spec)
}

func (a *assembler) connect(ports ...sim.Port) error {
	for i := 0; i+1 < len(ports); i += 2 {
		if _, err := a.graph.Connect(ports[i], ports[i+1]); err != nil {
			return err
		}
	}

	return nil
}

func (a *assembler) connectClockAndReset() error {
	clock := a.boundary("Clock", a.sub.ClockPort().Spec())
	reset := a.boundary("Reset", a.sub.ResetPort().Spec())

	return a.connect(clock, a.sub.ClockPort(), reset, a.sub.ResetPort())
}

func (a *assembler) buildPeriphery() error {
	p, err := periphery.MakeBuilder().
		WithGraph(a.graph).
		WithResolution(a.resolution).
		Build(a.chip, a.sub)
	if err != nil {
		return err
	}

	a.periphery = p

	return nil
}

func (a *assembler) connectDebug() error {
	debug := a.sub.DebugPort()

	if a.resolution.Debug() == config.DebugJTAG {
		dtm := adapter.NewJTAGDTM(a.local("DTM"), "JTAG", debug.Spec().Width)
		if err := a.graph.RegisterIn(a.chip, dtm); err != nil {
			return err
		}

		jtag := a.boundary("JTAG", dtm.In().Spec())

		return a.connect(jtag, dtm.In(), dtm.Out(), debug)
	}

	_, err := a.export(channel{
		inner:    debug,
		name:     "Debug",
		clock:    "DebugClock",
		reset:    "DebugReset",
		crossing: "DebugCrossing",
		async:    a.resolution.AsyncDebug(),
	})

	return err
}

func (a *assembler) exportMemory() error {
	scope := a.resolution.Scopes().Outer

	for i, g := range a.resolution.BoundaryMemory() {
		f := sim.BusFamilies[i]

		n := scope.Count(f)
		if n == 0 {
			continue
		}

		ports := sim.PortsOf(a.periphery.MemoryPorts(f))

		for j := 0; j < n; j++ {
			_, err := a.export(channel{
				inner:    ports[j],
				name:     indexed("Mem"+f.String(), j),
				clock:    indexed("Mem"+f.String()+"Clock", j),
				reset:    indexed("Mem"+f.String()+"Reset", j),
				crossing: indexed("Mem"+f.String()+"Crossing", j),
				async:    config.IsAsync(g),
			})
			if err != nil {
				return err
			}
		}
	}

	return a.exportSerialLink()
}

func (a *assembler) exportSerialLink() error {
	link := a.resolution.SerialLink()
	if config.CountOf(link) == 0 {
		return nil
	}

	f := a.cfg.MemoryProtocol()
	src := sim.PortsOf(a.periphery.MemoryPorts(f))[0]
	width := src.Spec().Width

	clock := sim.ImplicitClock
	if config.IsAsync(link) {
		clock = "SerialClock"

		crossing, err := a.crossing("SerialCrossing", src, clock)
		if err != nil {
			return err
		}

		clockPin := a.boundary("SerialClock", crossing.Clock().Spec())
		resetPin := a.boundary("SerialReset", crossing.Reset().Spec())

		err = a.connect(clockPin, crossing.Clock(), resetPin, crossing.Reset())
		if err != nil {
			return err
		}

		src = crossing.Out()
	}

	serdes, err := adapter.NewSerDes(a.local("SerDes"), f, width,
		a.resolution.NarrowLinkWidth(), clock)
	if err != nil {
		return err
	}

	if err := a.graph.RegisterIn(a.chip, serdes); err != nil {
		return err
	}

	out := a.boundary("SerialLink", serdes.Out().Spec())

	return a.connect(src, serdes.In(), serdes.Out(), out)
}

func (a *assembler) exportBus() error {
	ports := sim.PortsOf(a.periphery.Bus())

	for i, p := range ports {
		_, err := a.export(channel{
			inner:    p,
			name:     indexed("Bus", i),
			clock:    indexed("BusClock", i),
			reset:    indexed("BusReset", i),
			crossing: indexed("BusCrossing", i),
			async:    config.IsAsync(a.resolution.Bus()),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *assembler) exportMMIO() error {
	for i, g := range a.resolution.MMIO() {
		f := sim.BusFamilies[i]
		prefix := "MMIO" + f.String()

		for j, p := range sim.PortsOf(a.periphery.MMIOPorts(f)) {
			_, err := a.export(channel{
				inner:    p,
				name:     indexed(prefix, j),
				clock:    indexed(prefix+"Clock", j),
				reset:    indexed(prefix+"Reset", j),
				crossing: indexed(prefix+"Crossing", j),
				async:    config.IsAsync(g),
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *assembler) exportSuccess() error {
	p, ok := a.sub.SuccessPort()
	if !ok {
		return nil
	}

	return a.connect(a.boundary("Success", p.Spec()), p)
}

func (a *assembler) connectExtraPorts() error {
	inner := a.periphery.ExtraPorts()

	for _, name := range inner.Names() {
		p, _ := inner.Port(name)

		out := a.boundary(sim.BuildName("Extra", name), p.Spec())
		a.extra.Add(name, out)

		if err := a.connect(p, out); err != nil {
			return err
		}
	}

	connect := a.cfg.ExtraPortsConnector()
	if err := connect(a.extra, a.sub.ExtraPorts(), a.graph); err != nil {
		return errors.Wrap(err, "extra-ports callback")
	}

	return nil
}

func (a *assembler) tieOffInterrupts() error {
	for i, p := range a.sub.InterruptPorts() {
		if p.IsConnected() {
			continue
		}

		tie := adapter.NewTieOff(a.local(indexed("InterruptTieOff", i)),
			p.Spec().Protocol, p.Spec().Width, InactiveInterrupt)
		if err := a.graph.RegisterIn(a.chip, tie); err != nil {
			return err
		}

		if err := a.connect(tie.Out(), p); err != nil {
			return err
		}
	}

	return nil
}

func indexed(name string, i int) string {
	return sim.BuildNameWithIndex("", name, i)
}
