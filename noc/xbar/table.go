package xbar

import (
	"sort"

	"github.com/sarchlab/chiptop/sim"
)

// A Route sends an address range to an egress port.
type Route struct {
	Base uint64
	Size uint64
	Port sim.Port
}

// Contains checks if an address falls into the route.
func (r Route) Contains(addr uint64) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

// Table is a routing table that finds the egress port of an address.
type Table interface {
	FindPort(addr uint64) (sim.Port, bool)
	DefineRoute(base, size uint64, port sim.Port)
	Routes() []Route
}

// NewTable creates a new Table.
func NewTable() Table {
	return &table{}
}

type table struct {
	routes []Route
}

func (t *table) FindPort(addr uint64) (sim.Port, bool) {
	i := sort.Search(len(t.routes), func(i int) bool {
		return t.routes[i].Base+(t.routes[i].Size-1) >= addr
	})

	if i < len(t.routes) && t.routes[i].Contains(addr) {
		return t.routes[i].Port, true
	}

	return nil, false
}

func (t *table) DefineRoute(base, size uint64, port sim.Port) {
	t.routes = append(t.routes, Route{Base: base, Size: size, Port: port})

	sort.SliceStable(t.routes, func(i, j int) bool {
		return t.routes[i].Base < t.routes[j].Base
	})
}

func (t *table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)

	return out
}
