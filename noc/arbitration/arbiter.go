// Package arbitration provides the N-to-1 arbiter that merges several bus
// masters onto one port.
package arbitration

import (
	"github.com/sarchlab/chiptop/sim"
)

// DefaultSourceIDs is the number of in-flight source IDs each input owns.
const DefaultSourceIDs = 4

// SourceRange is a half-open window of source IDs, [Lo, Hi).
type SourceRange struct {
	Lo uint64
	Hi uint64
}

// Contains checks if an ID falls into the window.
func (r SourceRange) Contains(id uint64) bool {
	return id >= r.Lo && id < r.Hi
}

// Arbiter merges N request streams onto one. Requests from input i carry
// source IDs from the i-th window so that responses find their way back.
type Arbiter struct {
	*sim.ComponentBase

	ins       []sim.Port
	out       sim.Port
	sourceIDs uint64
}

// NewArbiter creates an arbiter with n inputs of the given shape. It panics
// if n is not positive.
func NewArbiter(name string, n int, spec sim.PortSpec) *Arbiter {
	if n <= 0 {
		panic("arbiter must have at least one input")
	}

	a := &Arbiter{
		ComponentBase: sim.NewComponentBase(name, "Arbiter"),
		sourceIDs:     DefaultSourceIDs,
	}
	a.SetParam("Inputs", n)
	a.SetParam("Policy", "RoundRobin")
	a.SetParam("SourceIDs", a.sourceIDs)

	for i := 0; i < n; i++ {
		a.ins = append(a.ins, sim.AddNewPort(a,
			sim.BuildNameWithIndex("", "In", i), spec.WithDir(sim.DirIn)))
	}

	a.out = sim.AddNewPort(a, "Out", spec.WithDir(sim.DirOut))

	return a
}

// In returns the i-th input.
func (a *Arbiter) In(i int) sim.Port {
	return a.ins[i]
}

// Ins returns all inputs in index order.
func (a *Arbiter) Ins() []sim.Port {
	out := make([]sim.Port, len(a.ins))
	copy(out, a.ins)

	return out
}

// Out returns the merged output.
func (a *Arbiter) Out() sim.Port {
	return a.out
}

// NumInputs returns the number of inputs.
func (a *Arbiter) NumInputs() int {
	return len(a.ins)
}

// SourceRange returns the source-ID window of input i.
func (a *Arbiter) SourceRange(i int) SourceRange {
	lo := uint64(i) * a.sourceIDs
	return SourceRange{Lo: lo, Hi: lo + a.sourceIDs}
}

// RouteResponse returns the input a response with the given source ID goes
// back to.
func (a *Arbiter) RouteResponse(id uint64) (int, bool) {
	i := id / a.sourceIDs
	if i >= uint64(len(a.ins)) {
		return 0, false
	}

	return int(i), true
}

// RoundRobin picks the next requesting input after last. It returns false if
// nothing requests.
func RoundRobin(requests []bool, last int) (int, bool) {
	n := len(requests)

	for k := 1; k <= n; k++ {
		i := (last + k) % n
		if i < 0 {
			i += n
		}

		if requests[i] {
			return i, true
		}
	}

	return 0, false
}
