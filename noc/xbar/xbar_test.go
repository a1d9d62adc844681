package xbar

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

var tlSpec = sim.PortSpec{Protocol: sim.ProtocolTL, Width: 64}

func extIO() config.Region {
	return config.Region{
		Name: "ExtIO", Base: 0x6000_0000, Size: 0x2000_0000,
		Children: []config.Region{
			{Name: "Uart", Base: 0x6000_0000, Size: 0x1000},
			{
				Name: "Slow", Base: 0x6100_0000, Size: 0x10_0000,
				Children: []config.Region{
					{Name: "Gpio", Base: 0x6100_0000, Size: 0x1000},
					{Name: "Spi", Base: 0x6100_1000, Size: 0x1000},
				},
			},
			{Name: "Timer", Base: 0x6200_0000, Size: 0x1000},
		},
	}
}

var _ = Describe("Table", func() {
	It("should find ports by address range", func() {
		a := sim.NewPort(nil, "A", tlSpec)
		b := sim.NewPort(nil, "B", tlSpec)

		t := NewTable()
		t.DefineRoute(0x2000, 0x1000, b)
		t.DefineRoute(0x1000, 0x1000, a)

		p, ok := t.FindPort(0x1fff)
		Expect(ok).To(BeTrue())
		Expect(p).To(BeIdenticalTo(a))

		p, ok = t.FindPort(0x2000)
		Expect(ok).To(BeTrue())
		Expect(p).To(BeIdenticalTo(b))

		_, ok = t.FindPort(0x3000)
		Expect(ok).To(BeFalse())

		_, ok = t.FindPort(0x0)
		Expect(ok).To(BeFalse())

		Expect(t.Routes()[0].Port).To(BeIdenticalTo(a))
	})

	It("should find a route that ends at the top of the address space", func() {
		top := sim.NewPort(nil, "Top", tlSpec)

		t := NewTable()
		t.DefineRoute(0xFFFF_FFFF_FFFF_F000, 0x1000, top)

		p, ok := t.FindPort(0xFFFF_FFFF_FFFF_FFFF)
		Expect(ok).To(BeTrue())
		Expect(p).To(BeIdenticalTo(top))

		_, ok = t.FindPort(0xFFFF_FFFF_FFFF_EFFF)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Router", func() {
	var (
		g   *sim.Graph
		top *sim.Domain
	)

	BeforeEach(func() {
		g = sim.NewGraph()
		top = sim.NewDomain("Top")
		Expect(g.Register(top)).To(Succeed())
	})

	It("should expose one port per entry in declaration order", func() {
		r, err := Build(g, top, "Top.XBar", extIO(), tlSpec)

		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, e := range r.Entries() {
			names = append(names, e.Name)
		}
		Expect(names).To(Equal([]string{"Uart", "Gpio", "Spi", "Timer"}))

		p, ok := r.Port("Spi")
		Expect(ok).To(BeTrue())
		Expect(p.Name()).To(Equal("Top.XBar.Slow.Out.Spi"))
		Expect(p.Spec().Dir).To(Equal(sim.DirOut))

		_, ok = r.Port("Slow")
		Expect(ok).To(BeFalse())
	})

	It("should chain one crossbar per interior region", func() {
		r, err := Build(g, top, "Top.XBar", extIO(), tlSpec)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.XBars()).To(Equal(2))
		Expect(top.Children()).To(HaveLen(2))
		Expect(g.Wires()).To(HaveLen(1))
		Expect(g.Wires()[0].PortB().Name()).To(Equal("Top.XBar.Slow.In"))
		Expect(r.In().Name()).To(Equal("Top.XBar.In"))
	})

	It("should decode addresses recursively", func() {
		r, _ := Build(g, top, "Top.XBar", extIO(), tlSpec)

		entry, ok := r.Find(0x6100_1010)
		Expect(ok).To(BeTrue())
		Expect(entry).To(Equal("Spi"))

		entry, ok = r.Find(0x6000_0004)
		Expect(ok).To(BeTrue())
		Expect(entry).To(Equal("Uart"))

		_, ok = r.Find(0x6100_8000)
		Expect(ok).To(BeFalse())
	})

	It("should serve a leaf region through a single egress", func() {
		r, err := Build(g, top, "Top.XBar",
			config.Region{Name: "Uart", Base: 0x1000, Size: 0x100}, tlSpec)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Entries()).To(HaveLen(1))

		entry, ok := r.Find(0x1010)
		Expect(ok).To(BeTrue())
		Expect(entry).To(Equal("Uart"))
	})

	It("should fail on a frozen graph", func() {
		g.Freeze()

		_, err := Build(g, top, "Top.XBar", extIO(), tlSpec)

		Expect(err).To(MatchError(sim.ErrGraphFrozen))
	})
})
