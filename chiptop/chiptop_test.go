package chiptop

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chiptop/compute"
	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

func extIO(entries ...string) config.AddressMap {
	r := config.Region{Name: "ExtIO", Base: 0x6000_0000, Size: 0x1000_0000}
	for i, e := range entries {
		r.Children = append(r.Children, config.Region{
			Name: e, Base: r.Base + uint64(i)*0x1000, Size: 0x1000})
	}

	return config.AddressMap{Regions: []config.Region{r}}
}

func elaborate(b config.Builder, sub compute.Builder) (*Topology, error) {
	cfg, err := b.Build()
	Expect(err).NotTo(HaveOccurred())

	res, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	return MakeBuilder().
		WithConfig(cfg).
		WithIDGenerator(sim.NewSequentialIDGenerator()).
		Build(sub.WithResolution(res).Build("ChipTop.Compute"))
}

func mustElaborate(b config.Builder) *Topology {
	t, err := elaborate(b, compute.MakeBuilder())
	Expect(err).NotTo(HaveOccurred())

	return t
}

var _ = Describe("ChipTop", func() {
	var b config.Builder

	BeforeEach(func() {
		b = config.MakeBuilder().WithMMIOExport(false)
	})

	It("should freeze the graph", func() {
		t := mustElaborate(b)

		Expect(t.Graph().Frozen()).To(BeTrue())

		_, err := t.Graph().Connect(t.BoundaryPorts()[0], t.BoundaryPorts()[1])
		Expect(err).To(MatchError(sim.ErrGraphFrozen))
	})

	It("should wire clock and reset", func() {
		t := mustElaborate(b)

		Expect(t.Compute().ClockPort().IsConnected()).To(BeTrue())
		Expect(t.Compute().ResetPort().IsConnected()).To(BeTrue())
		Expect(t.HasBoundaryPort("Clock")).To(BeTrue())
		Expect(t.HasBoundaryPort("Reset")).To(BeTrue())
	})

	Context("memory", func() {
		It("should expose one port per channel of the selected family", func() {
			t := mustElaborate(b.WithMemoryChannels(3))

			Expect(t.CountBoundary(sim.ProtocolAXI4)).To(Equal(3))
			Expect(t.CountBoundary(sim.ProtocolAHB)).To(Equal(0))
			Expect(t.CountBoundary(sim.ProtocolTL)).To(Equal(0))

			for _, n := range []string{"MemAXI4[0]", "MemAXI4[1]", "MemAXI4[2]"} {
				p, ok := t.BoundaryPort(n)
				Expect(ok).To(BeTrue())
				Expect(p.IsConnected()).To(BeTrue())
				Expect(p.Spec().Dir).To(Equal(sim.DirOut))
			}
		})

		It("should wire periphery memory ports inside and out", func() {
			t := mustElaborate(b.
				WithMemoryProtocol(sim.ProtocolAXI4).
				WithMemoryChannels(2))

			for j, p := range sim.PortsOf(t.Periphery().MemoryPorts(sim.ProtocolAXI4)) {
				Expect(p.Wires()).To(HaveLen(2))

				peers := []string{}
				for _, w := range p.Wires() {
					peers = append(peers, w.TheOtherPort(p).Name())
				}

				Expect(peers).To(ConsistOf(
					sim.BuildNameWithIndex("ChipTop.Periphery", "MemCacheOverride", j)+".Out",
					sim.BuildNameWithIndex("ChipTop", "MemAXI4", j)))
			}
		})

		It("should follow the memory protocol selector", func() {
			t := mustElaborate(b.
				WithMemoryProtocol(sim.ProtocolTL).
				WithMemoryChannels(2))

			Expect(t.CountBoundary(sim.ProtocolTL)).To(Equal(2))
			Expect(t.CountBoundary(sim.ProtocolAXI4)).To(Equal(0))
		})

		It("should give every async channel its own clock and reset", func() {
			t := mustElaborate(b.WithMemoryChannels(2).WithAsyncMemory(true))

			for i, n := range []string{"0", "1"} {
				Expect(t.HasBoundaryPort("MemAXI4Clock[" + n + "]")).To(BeTrue())
				Expect(t.HasBoundaryPort("MemAXI4Reset[" + n + "]")).To(BeTrue())

				mem, _ := t.BoundaryPort("MemAXI4[" + n + "]")
				Expect(mem.Spec().Clock).
					To(Equal(sim.ClockDomain(indexed("MemAXI4Clock", i))))

				clock, _ := t.BoundaryPort("MemAXI4Clock[" + n + "]")
				Expect(clock.Wires()).To(HaveLen(1))
				Expect(clock.Wires()[0].TheOtherPort(clock).Component().Kind()).
					To(Equal("AsyncCrossing"))
			}

			Expect(t.CountBoundary(sim.ProtocolClock)).To(Equal(3))
			Expect(t.CountBoundary(sim.ProtocolReset)).To(Equal(3))
		})

		It("should not add clock pairs to synchronous channels", func() {
			t := mustElaborate(b.WithMemoryChannels(2))

			Expect(t.HasBoundaryPort("MemAXI4Clock[0]")).To(BeFalse())
			Expect(t.HasBoundaryPort("MemAXI4Reset[1]")).To(BeFalse())
			Expect(t.CountBoundary(sim.ProtocolClock)).To(Equal(1))
		})

		It("should serialize the narrow link", func() {
			t := mustElaborate(b.WithNarrowLink(8))

			Expect(t.CountBoundary(sim.ProtocolAXI4)).To(Equal(0))
			Expect(t.CountBoundary(sim.ProtocolSerial)).To(Equal(1))

			link, ok := t.BoundaryPort("SerialLink")
			Expect(ok).To(BeTrue())
			Expect(link.Spec().Width).To(Equal(8))
			Expect(link.Wires()[0].TheOtherPort(link).Component().Kind()).
				To(Equal("SerDes"))
			Expect(t.HasBoundaryPort("SerialClock")).To(BeFalse())
		})

		It("should cross the narrow link into its own clock", func() {
			t := mustElaborate(b.WithNarrowLink(4).WithAsyncMemory(true))

			link, _ := t.BoundaryPort("SerialLink")
			Expect(link.Spec().Clock).To(Equal(sim.ClockDomain("SerialClock")))
			Expect(t.HasBoundaryPort("SerialClock")).To(BeTrue())
			Expect(t.HasBoundaryPort("SerialReset")).To(BeTrue())
			Expect(t.HasBoundaryPort("MemAXI4Clock[0]")).To(BeFalse())
		})

		DescribeTable("narrow link with the wrong channel count",
			func(n int) {
				_, err := elaborate(b.WithNarrowLink(8).WithMemoryChannels(n),
					compute.MakeBuilder())

				Expect(errors.Is(err, sim.ErrConfigInconsistent)).To(BeTrue())
			},
			Entry("no channel", 0),
			Entry("two channels", 2),
		)

		It("should fail before building anything on a bad configuration", func() {
			cfg, _ := b.WithNarrowLink(8).WithMemoryChannels(2).Build()
			sub := compute.MakeBuilder().Build("ChipTop.Compute")

			_, err := MakeBuilder().WithConfig(cfg).Build(sub)

			Expect(err).To(MatchError(sim.ErrConfigInconsistent))
			Expect(sub.Parent()).To(BeNil())
		})
	})

	Context("bus", func() {
		It("should forward bus channels to the periphery", func() {
			t := mustElaborate(b.WithBusChannels(2))

			bus, ok := t.BoundaryPort("Bus[1]")
			Expect(ok).To(BeTrue())
			Expect(bus.Spec().Dir).To(Equal(sim.DirIn))
			Expect(bus.Wires()[0].TheOtherPort(bus).Name()).
				To(Equal("ChipTop.Periphery.Bus[1]"))
			Expect(t.HasBoundaryPort("BusClock[0]")).To(BeFalse())
		})

		It("should cross async bus channels", func() {
			t := mustElaborate(b.WithBusChannels(2).WithAsyncBus(true))

			Expect(t.HasBoundaryPort("BusClock[1]")).To(BeTrue())
			Expect(t.HasBoundaryPort("BusReset[1]")).To(BeTrue())

			c, ok := t.Graph().ComponentByName("ChipTop.BusCrossing[0]")
			Expect(ok).To(BeTrue())
			Expect(c.Params()).To(ContainElement(
				sim.Param{Key: "OuterClock", Value: "BusClock[0]"}))
		})
	})

	Context("MMIO", func() {
		BeforeEach(func() {
			b = b.WithMMIOExport(true)
		})

		It("should bind entries to AXI4, AHB and TL ports in order", func() {
			t := mustElaborate(b.
				WithAddressMap(extIO("Uart", "Gpio", "Spi")).
				WithMMIOChannels(sim.ProtocolAXI4, 1).
				WithMMIOChannels(sim.ProtocolAHB, 1).
				WithMMIOChannels(sim.ProtocolTL, 1))

			bindings := t.Periphery().Bindings()
			Expect(bindings[0].Entry).To(Equal("Uart"))
			Expect(bindings[0].Family).To(Equal(sim.ProtocolAXI4))
			Expect(bindings[1].Family).To(Equal(sim.ProtocolAHB))
			Expect(bindings[2].Family).To(Equal(sim.ProtocolTL))

			for _, n := range []string{"MMIOAXI4[0]", "MMIOAHB[0]", "MMIOTL[0]"} {
				p, ok := t.BoundaryPort(n)
				Expect(ok).To(BeTrue())
				Expect(p.IsConnected()).To(BeTrue())
			}
		})

		It("should name the first entry no port covers", func() {
			_, err := elaborate(b.
				WithAddressMap(extIO("Uart", "Gpio", "Spi", "Timer")).
				WithMMIOChannels(sim.ProtocolAHB, 1).
				WithMMIOChannels(sim.ProtocolTL, 1),
				compute.MakeBuilder())

			Expect(errors.Is(err, sim.ErrPortCountMismatch)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(
				"unconnected external MMIO port Spi"))
		})

		It("should cross async MMIO channels", func() {
			t := mustElaborate(b.
				WithAddressMap(extIO("Uart")).
				WithMMIOChannels(sim.ProtocolTL, 1).
				WithAsyncMMIO(true))

			Expect(t.HasBoundaryPort("MMIOTLClock[0]")).To(BeTrue())
			Expect(t.HasBoundaryPort("MMIOTLReset[0]")).To(BeTrue())
		})
	})

	Context("debug", func() {
		DescribeTable("exactly one debug transport",
			func(transport config.DebugTransport, async bool, present string) {
				t := mustElaborate(b.
					WithDebugTransport(transport).
					WithAsyncDebug(async))

				hasJTAG := t.HasBoundaryPort("JTAG")
				hasDMI := t.HasBoundaryPort("Debug")

				Expect(hasJTAG).NotTo(Equal(hasDMI))
				Expect(t.HasBoundaryPort(present)).To(BeTrue())
				Expect(t.Compute().DebugPort().IsConnected()).To(BeTrue())
			},
			Entry("JTAG", config.DebugJTAG, false, "JTAG"),
			Entry("JTAG with async flag", config.DebugJTAG, true, "JTAG"),
			Entry("DMI", config.DebugDMI, false, "Debug"),
			Entry("async DMI", config.DebugDMI, true, "Debug"),
		)

		It("should drive the debug port from the transport module", func() {
			t := mustElaborate(b.WithDebugTransport(config.DebugJTAG))

			dtm, ok := t.Graph().ComponentByName("ChipTop.DTM")
			Expect(ok).To(BeTrue())
			Expect(dtm.Kind()).To(Equal("JTAGDTM"))
			Expect(t.HasBoundaryPort("DebugClock")).To(BeFalse())
		})

		It("should bridge the async debug bus", func() {
			t := mustElaborate(b.WithAsyncDebug(true))

			Expect(t.HasBoundaryPort("DebugClock")).To(BeTrue())
			Expect(t.HasBoundaryPort("DebugReset")).To(BeTrue())

			debug, _ := t.BoundaryPort("Debug")
			Expect(debug.Spec().Clock).To(Equal(sim.ClockDomain("DebugClock")))
		})
	})

	Context("success", func() {
		It("should expose success when the compute subsystem has it", func() {
			t := mustElaborate(b.WithSuccess(true))

			Expect(t.HasBoundaryPort("Success")).To(BeTrue())
		})

		It("should not expose success otherwise", func() {
			t := mustElaborate(b)

			Expect(t.HasBoundaryPort("Success")).To(BeFalse())
		})
	})

	Context("extra ports", func() {
		var gpio config.ExtraPortDecl

		BeforeEach(func() {
			gpio = config.ExtraPortDecl{
				Name: "Gpio",
				Spec: sim.PortSpec{Protocol: sim.ProtocolSignal, Dir: sim.DirOut, Width: 4},
			}
		})

		It("should forward extra ports and connect them by name", func() {
			t := mustElaborate(b.
				WithExtraPort(gpio).
				WithExtraPortsConnector(config.ConnectExtraPortsByName))

			p, ok := t.ExtraPorts().Port("Gpio")
			Expect(ok).To(BeTrue())
			Expect(p.Name()).To(Equal("ChipTop.Extra.Gpio"))
			Expect(p.Wires()).To(HaveLen(2))

			inner, _ := t.Compute().ExtraPorts().Port("Gpio")
			Expect(inner.IsConnected()).To(BeTrue())
		})

		It("should always invoke the callback last", func() {
			calls := 0
			var wiresBefore int

			t, err := elaborate(b.WithExtraPortsConnector(
				func(chip, compute *sim.Bundle, w config.Wiring) error {
					calls++
					Expect(chip.Len()).To(Equal(0))
					wiresBefore = len(w.(*sim.Graph).Wires())
					return nil
				}), compute.MakeBuilder())

			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(1))
			Expect(wiresBefore).To(Equal(len(t.Graph().Wires())))
		})

		It("should report callback failures", func() {
			_, err := elaborate(b.WithExtraPortsConnector(
				func(_, _ *sim.Bundle, _ config.Wiring) error {
					return sim.ErrPortCountMismatch
				}), compute.MakeBuilder())

			Expect(errors.Is(err, sim.ErrPortCountMismatch)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("extra-ports callback"))
		})
	})

	Context("interrupts", func() {
		It("should tie off every unconnected interrupt", func() {
			t, err := elaborate(b, compute.MakeBuilder().WithInterrupts(2))

			Expect(err).NotTo(HaveOccurred())

			for i, p := range t.Compute().InterruptPorts() {
				Expect(p.IsConnected()).To(BeTrue())

				tie, ok := t.Graph().ComponentByName(
					sim.BuildNameWithIndex("ChipTop", "InterruptTieOff", i))
				Expect(ok).To(BeTrue())
				Expect(tie.Params()).To(ContainElement(
					sim.Param{Key: "Value", Value: "0"}))
			}
		})

		It("should leave interrupts wired by the callback alone", func() {
			var sub *compute.Comp

			irq := config.ExtraPortDecl{
				Name: "Irq",
				Spec: sim.PortSpec{Protocol: sim.ProtocolInterrupt, Dir: sim.DirIn, Width: 1},
			}

			cfg, err := b.
				WithExtraPort(irq).
				WithExtraPortsConnector(func(chip, _ *sim.Bundle, w config.Wiring) error {
					p, _ := chip.Port("Irq")
					_, err := w.Connect(p, sub.InterruptPorts()[0])
					return err
				}).
				Build()
			Expect(err).NotTo(HaveOccurred())

			sub = compute.MakeBuilder().WithInterrupts(2).Build("ChipTop.Compute")

			t, err := MakeBuilder().WithConfig(cfg).Build(sub)

			Expect(err).NotTo(HaveOccurred())
			_, tied := t.Graph().ComponentByName("ChipTop.InterruptTieOff[0]")
			Expect(tied).To(BeFalse())
			_, tied = t.Graph().ComponentByName("ChipTop.InterruptTieOff[1]")
			Expect(tied).To(BeTrue())
		})
	})

	Context("determinism", func() {
		It("should elaborate the same structure twice", func() {
			full := b.
				WithMMIOExport(true).
				WithAddressMap(extIO("Uart", "Gpio")).
				WithMMIOChannels(sim.ProtocolAXI4, 1).
				WithMMIOChannels(sim.ProtocolTL, 1).
				WithMemoryChannels(2).
				WithAsyncMemory(true).
				WithBusChannels(3).
				WithDebugTransport(config.DebugJTAG)

			cfg, err := full.Build()
			Expect(err).NotTo(HaveOccurred())

			res, _ := config.Resolve(cfg)
			build := func() *Topology {
				t, err := MakeBuilder().WithConfig(cfg).Build(
					compute.MakeBuilder().WithResolution(res).Build("ChipTop.Compute"))
				Expect(err).NotTo(HaveOccurred())

				return t
			}

			t1, t2 := build(), build()

			Expect(t1.ID()).NotTo(Equal(t2.ID()))
			Expect(t1.Signature()).To(Equal(t2.Signature()))
			Expect(t1.Signature()).To(ContainSubstring("ChipTop.Periphery.MMIO.UartToAXI4"))
		})
	})

	It("should log elaboration steps", func() {
		var buf bytes.Buffer
		cfg, _ := b.Build()

		_, err := MakeBuilder().
			WithConfig(cfg).
			WithLogger(log.New(&buf, "", 0)).
			Build(compute.MakeBuilder().Build("ChipTop.Compute"))

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("component ChipTop.Compute (Compute)"))
		Expect(buf.String()).To(ContainSubstring("elaboration done"))
	})

	It("should panic without a configuration", func() {
		Expect(func() {
			_, _ = MakeBuilder().Build(compute.MakeBuilder().Build("ChipTop.Compute"))
		}).To(Panic())
	})
})
