package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Port Owner", func() {
	var (
		po   *PortOwnerBase
		spec PortSpec
	)

	BeforeEach(func() {
		po = NewPortOwnerBase()
		spec = PortSpec{Protocol: ProtocolTL, Dir: DirIn, Width: 64}
	})

	It("shoud panic if the same name is added twice", func() {
		port1 := NewPort(nil, "Port1", spec)
		port2 := NewPort(nil, "Port2", spec)

		po.AddPort("LocalPort", port1)
		Expect(func() { po.AddPort("LocalPort", port2) }).To(Panic())
	})

	It("should add and get port", func() {
		port := NewPort(nil, "PortA", spec)

		po.AddPort("LocalPort", port)

		Expect(po.GetPortByName("LocalPort")).To(BeIdenticalTo(port))

		_, found := po.LookupPort("Missing")
		Expect(found).To(BeFalse())
	})

	It("should list ports sorted by local name", func() {
		b := NewPort(nil, "B", spec)
		a := NewPort(nil, "A", spec)

		po.AddPort("B", b)
		po.AddPort("A", a)

		Expect(po.Ports()).To(Equal([]Port{a, b}))
	})

	It("should list available ports when a name is missing", func() {
		po.AddPort("Out", NewPort(nil, "Out", spec))
		po.AddPort("In", NewPort(nil, "In", spec))

		Expect(func() { po.GetPortByName("Clock") }).To(
			PanicWith("port Clock not found, available ports: In, Out"))
	})
})
