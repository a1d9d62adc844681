package config

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chiptop/sim"
)

const sampleYAML = `
memory:
  protocol: AHB
  channels: 2
  async: true
bus:
  channels: 2
  beatBytes: 16
mmio:
  axi4: 1
  ahb: 1
  tl: 1
debug:
  transport: jtag
success: true
addressMap:
  - name: ExtIO
    base: 0x60000000
    size: 0x20000000
    children:
      - name: Uart
        base: 0x60000000
        size: 0x1000
        protocol: AXI4
      - name: Dma
        base: 0x60001000
        size: 0x1000
        device: Dma
extraPorts:
  - name: Gpio
    protocol: Signal
    dir: out
    width: 8
connectExtraPorts: name
devices:
  - name: Dma
    kind: generic
    mmioPorts: 1
    clientPorts: 1
`

var _ = Describe("Parse", func() {
	var catalog Catalog

	BeforeEach(func() {
		catalog = Catalog{"generic": noopDevice}
	})

	It("should load every section", func() {
		b, err := Parse([]byte(sampleYAML), catalog)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.MemoryProtocol()).To(Equal(sim.ProtocolAHB))
		Expect(cfg.MemoryChannels()).To(Equal(2))
		Expect(cfg.AsyncMemory()).To(BeTrue())
		Expect(cfg.BusChannels()).To(Equal(2))
		Expect(cfg.BusBeatBytes()).To(Equal(16))
		Expect(cfg.MMIOChannels(sim.ProtocolAHB)).To(Equal(1))
		Expect(cfg.DebugTransport()).To(Equal(DebugJTAG))
		Expect(cfg.Success()).To(BeTrue())

		uart, ok := cfg.AddressMap().Lookup("Uart")
		Expect(ok).To(BeTrue())
		Expect(uart.Base).To(Equal(uint64(0x60000000)))
		Expect(uart.Protocol).To(Equal(sim.ProtocolAXI4))

		Expect(cfg.ExtraPorts()).To(Equal([]ExtraPortDecl{{
			Name: "Gpio",
			Spec: sim.PortSpec{
				Protocol: sim.ProtocolSignal, Dir: sim.DirOut, Width: 8},
		}}))

		Expect(cfg.Devices()).To(HaveLen(1))
		Expect(cfg.Devices()[0].ClientPorts).To(Equal(1))
	})

	It("should keep defaults for missing sections", func() {
		b, err := Parse([]byte("success: false\n"), catalog)
		Expect(err).NotTo(HaveOccurred())

		cfg, _ := b.Build()
		Expect(cfg.MemoryChannels()).To(Equal(1))
		Expect(cfg.MemoryProtocol()).To(Equal(sim.ProtocolAXI4))
	})

	It("should enable the narrow link", func() {
		b, err := Parse([]byte("narrowLink:\n  width: 4\n"), catalog)
		Expect(err).NotTo(HaveOccurred())

		cfg, _ := b.Build()
		Expect(cfg.NarrowLink()).To(BeTrue())
		Expect(cfg.NarrowLinkWidth()).To(Equal(4))
	})

	DescribeTable("rejected documents",
		func(doc string) {
			_, err := Parse([]byte(doc), catalog)

			Expect(errors.Is(err, sim.ErrConfigInconsistent)).To(BeTrue())
		},
		Entry("unknown key", "memroy:\n  channels: 1\n"),
		Entry("non-family memory", "memory:\n  protocol: JTAG\n"),
		Entry("unknown device kind",
			"devices:\n  - name: Dma\n    kind: nothing\n"),
		Entry("unknown debug transport", "debug:\n  transport: swd\n"),
		Entry("unknown direction",
			"extraPorts:\n  - name: A\n    protocol: Signal\n    dir: up\n"),
		Entry("unknown connection strategy", "connectExtraPorts: magic\n"),
	)

	It("should load files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "chip.yaml")
		Expect(os.WriteFile(path, []byte(sampleYAML), 0o600)).To(Succeed())

		b, err := LoadFile(path, catalog)

		Expect(err).NotTo(HaveOccurred())
		_, err = b.Build()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report missing files", func() {
		_, err := LoadFile("/does/not/exist.yaml", catalog)

		Expect(err).To(MatchError(ContainSubstring("reading")))
	})
})
