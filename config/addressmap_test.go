package config

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chiptop/sim"
)

func sampleMap() AddressMap {
	return AddressMap{Regions: []Region{
		{Name: "DRAM", Base: 0x8000_0000, Size: 0x8000_0000},
		{
			Name: "ExtIO", Base: 0x6000_0000, Size: 0x2000_0000,
			Children: []Region{
				{Name: "UART", Base: 0x6000_0000, Size: 0x1000},
				{
					Name: "Slow", Base: 0x6100_0000, Size: 0x10_0000,
					Children: []Region{
						{Name: "GPIO", Base: 0x6100_0000, Size: 0x1000},
						{Name: "SPI", Base: 0x6100_1000, Size: 0x1000},
					},
				},
			},
		},
	}}
}

var _ = Describe("AddressMap", func() {
	It("should accept a well-formed map", func() {
		Expect(sampleMap().Validate()).To(Succeed())
	})

	It("should list leaves in declaration order", func() {
		extIO, ok := sampleMap().Lookup("ExtIO")

		Expect(ok).To(BeTrue())

		names := []string{}
		for _, l := range extIO.Leaves() {
			names = append(names, l.Name)
		}
		Expect(names).To(Equal([]string{"UART", "GPIO", "SPI"}))
	})

	It("should treat a leaf as its own only entry", func() {
		uart, _ := sampleMap().Lookup("UART")

		Expect(uart.Leaves()).To(HaveLen(1))
		Expect(uart.Leaves()[0].Name).To(Equal("UART"))
	})

	It("should find the deepest region", func() {
		m := sampleMap()

		r, ok := m.Find(0x6100_1004)
		Expect(ok).To(BeTrue())
		Expect(r.Name).To(Equal("SPI"))

		r, ok = m.Find(0x6000_2000)
		Expect(ok).To(BeTrue())
		Expect(r.Name).To(Equal("ExtIO"))

		_, ok = m.Find(0x10)
		Expect(ok).To(BeFalse())
	})

	It("should reject duplicated names", func() {
		m := sampleMap()
		m.Regions[1].Children[0].Name = "DRAM"

		err := m.Validate()

		Expect(errors.Is(err, sim.ErrConfigInconsistent)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("DRAM declared twice"))
	})

	It("should reject overlapping siblings", func() {
		m := sampleMap()
		m.Regions[1].Children[1].Children[1].Base = 0x6100_0800

		Expect(m.Validate()).To(MatchError(ContainSubstring("overlaps")))
	})

	It("should reject children outside the parent", func() {
		m := sampleMap()
		m.Regions[1].Children[0].Base = 0x5000_0000

		Expect(m.Validate()).To(MatchError(ContainSubstring("outside")))
	})

	It("should reject empty regions", func() {
		m := sampleMap()
		m.Regions[0].Size = 0

		Expect(m.Validate()).To(MatchError(ContainSubstring("empty")))
	})

	It("should accept a region that ends at the top of the address space", func() {
		m := AddressMap{Regions: []Region{{
			Name: "ExtIO", Base: 0xFFFF_FFFF_FFFF_0000, Size: 0x1_0000,
			Children: []Region{
				{Name: "Uart", Base: 0xFFFF_FFFF_FFFF_E000, Size: 0x1000},
				{Name: "Gpio", Base: 0xFFFF_FFFF_FFFF_F000, Size: 0x1000},
			},
		}}}

		Expect(m.Validate()).To(Succeed())

		r, ok := m.Find(0xFFFF_FFFF_FFFF_FFFF)
		Expect(ok).To(BeTrue())
		Expect(r.Name).To(Equal("Gpio"))
		Expect(r.Last()).To(Equal(uint64(0xFFFF_FFFF_FFFF_FFFF)))
	})

	It("should reject a region that wraps around", func() {
		m := AddressMap{Regions: []Region{
			{Name: "ExtIO", Base: 0xFFFF_FFFF_FFFF_F000, Size: 0x1001},
		}}

		Expect(m.Validate()).To(MatchError(ContainSubstring("wraps around")))
	})

	It("should reject overlaps at the top of the address space", func() {
		m := AddressMap{Regions: []Region{
			{Name: "A", Base: 0xFFFF_FFFF_FFFF_E000, Size: 0x2000},
			{Name: "B", Base: 0xFFFF_FFFF_FFFF_F000, Size: 0x1000},
		}}

		Expect(m.Validate()).To(MatchError(ContainSubstring("overlaps")))
	})

	It("should reject invalid names", func() {
		m := sampleMap()
		m.Regions[0].Name = "dram"

		Expect(m.Validate()).NotTo(Succeed())
	})

	It("should not share children between copies", func() {
		m := sampleMap()
		c := m.clone()
		c.Regions[1].Children[0].Name = "Changed"

		Expect(m.Regions[1].Children[0].Name).To(Equal("UART"))
	})
})
