package arbitration

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chiptop/sim"
)

var _ = Describe("Arbiter", func() {
	var a *Arbiter

	BeforeEach(func() {
		a = NewArbiter("Arb", 3, sim.PortSpec{Protocol: sim.ProtocolTL, Width: 64})
	})

	It("should have one port per input and one output", func() {
		Expect(a.NumInputs()).To(Equal(3))
		Expect(a.In(2).Name()).To(Equal("Arb.In[2]"))
		Expect(a.In(0).Spec().Dir).To(Equal(sim.DirIn))
		Expect(a.Out().Spec().Dir).To(Equal(sim.DirOut))
		Expect(a.Ports()).To(HaveLen(4))
	})

	It("should give every input a disjoint source window", func() {
		r0, r1, r2 := a.SourceRange(0), a.SourceRange(1), a.SourceRange(2)

		Expect(r0).To(Equal(SourceRange{Lo: 0, Hi: DefaultSourceIDs}))
		Expect(r1.Lo).To(Equal(r0.Hi))
		Expect(r2.Lo).To(Equal(r1.Hi))
	})

	It("should route responses back to the issuing input", func() {
		for i := 0; i < 3; i++ {
			r := a.SourceRange(i)
			for id := r.Lo; id < r.Hi; id++ {
				in, ok := a.RouteResponse(id)
				Expect(ok).To(BeTrue())
				Expect(in).To(Equal(i))
			}
		}

		_, ok := a.RouteResponse(3 * DefaultSourceIDs)
		Expect(ok).To(BeFalse())
	})

	It("should panic without inputs", func() {
		Expect(func() {
			NewArbiter("Arb", 0, sim.PortSpec{Protocol: sim.ProtocolTL, Width: 8})
		}).To(Panic())
	})
})

var _ = Describe("RoundRobin", func() {
	It("should rotate grants", func() {
		req := []bool{true, true, true}

		i, _ := RoundRobin(req, 0)
		Expect(i).To(Equal(1))
		i, _ = RoundRobin(req, i)
		Expect(i).To(Equal(2))
		i, _ = RoundRobin(req, i)
		Expect(i).To(Equal(0))
	})

	It("should skip idle inputs", func() {
		i, ok := RoundRobin([]bool{false, false, true, false}, 2)

		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(2))
	})

	It("should report no grant", func() {
		_, ok := RoundRobin([]bool{false, false}, 1)
		Expect(ok).To(BeFalse())

		_, ok = RoundRobin(nil, 0)
		Expect(ok).To(BeFalse())
	})

	It("should start from the first input", func() {
		i, ok := RoundRobin([]bool{true, false}, -1)

		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(0))
	})
})
