// Package xbar elaborates address-decoding crossbars from an address map.
package xbar

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

// XBar decodes one ingress into one egress per child region. Responses return
// through the single ingress.
type XBar struct {
	*sim.ComponentBase

	in    sim.Port
	outs  map[string]sim.Port
	order []string
	table Table
}

func newXBar(name string, region config.Region, ingress sim.PortSpec) *XBar {
	x := &XBar{
		ComponentBase: sim.NewComponentBase(name, "XBar"),
		outs:          make(map[string]sim.Port),
		table:         NewTable(),
	}
	x.SetParam("Base", region.Base)
	x.SetParam("Size", region.Size)

	x.in = sim.AddNewPort(x, "In", ingress.WithDir(sim.DirIn))

	targets := region.Children
	if region.IsLeaf() {
		targets = []config.Region{region}
	}

	for _, t := range targets {
		out := sim.AddNewPort(x, sim.BuildName("Out", t.Name),
			ingress.WithDir(sim.DirOut))

		x.outs[t.Name] = out
		x.order = append(x.order, t.Name)
		x.table.DefineRoute(t.Base, t.Size, out)
	}

	return x
}

// In returns the ingress port.
func (x *XBar) In() sim.Port {
	return x.in
}

// Out returns the egress port serving a child region.
func (x *XBar) Out(child string) (sim.Port, bool) {
	p, ok := x.outs[child]
	return p, ok
}

// Table returns the routing table.
func (x *XBar) Table() Table {
	return x.table
}

// Route returns the name of the child region that serves an address.
func (x *XBar) Route(addr uint64) (string, bool) {
	p, found := x.table.FindPort(addr)
	if !found {
		return "", false
	}

	for _, name := range x.order {
		if x.outs[name] == p {
			return name, true
		}
	}

	return "", false
}

// Router is a tree of crossbars that covers an address-map sub-tree.
type Router struct {
	root    *XBar
	xbars   map[string]*XBar
	entries []config.Region
	ports   map[string]sim.Port
}

// Build elaborates a router for the region. One XBar is created for every
// interior region and registered in parent. Child crossbars hang off their
// parent's egress ports. The leaves of the region become the named egress
// ports of the router.
func Build(
	w config.Wiring,
	parent *sim.Domain,
	name string,
	region config.Region,
	ingress sim.PortSpec,
) (*Router, error) {
	r := &Router{
		xbars: make(map[string]*XBar),
		ports: make(map[string]sim.Port),
	}

	root, err := r.build(w, parent, name, region, ingress)
	if err != nil {
		return nil, err
	}

	r.root = root

	return r, nil
}

func (r *Router) build(
	w config.Wiring,
	parent *sim.Domain,
	name string,
	region config.Region,
	ingress sim.PortSpec,
) (*XBar, error) {
	x := newXBar(name, region, ingress)
	if err := w.RegisterIn(parent, x); err != nil {
		return nil, errors.Wrapf(err, "registering crossbar for %s", region.Name)
	}

	r.xbars[region.Name] = x

	if region.IsLeaf() {
		r.addEntry(region, x.outs[region.Name])
		return x, nil
	}

	for _, child := range region.Children {
		out := x.outs[child.Name]

		if child.IsLeaf() {
			r.addEntry(child, out)
			continue
		}

		sub, err := r.build(w, parent, sim.BuildName(name, child.Name),
			child, ingress)
		if err != nil {
			return nil, err
		}

		if _, err := w.Connect(out, sub.In()); err != nil {
			return nil, errors.Wrapf(err, "chaining crossbar %s", child.Name)
		}
	}

	return x, nil
}

func (r *Router) addEntry(region config.Region, p sim.Port) {
	r.entries = append(r.entries, region)
	r.ports[region.Name] = p
}

// In returns the single ingress port.
func (r *Router) In() sim.Port {
	return r.root.In()
}

// Entries returns the leaf regions served by the router in declaration order.
func (r *Router) Entries() []config.Region {
	out := make([]config.Region, len(r.entries))
	copy(out, r.entries)

	return out
}

// Port looks up the egress port of an entry by name.
func (r *Router) Port(entry string) (sim.Port, bool) {
	p, ok := r.ports[entry]
	return p, ok
}

// XBars returns the number of crossbars in the router.
func (r *Router) XBars() int {
	return len(r.xbars)
}

// Find decodes an address down the tree and returns the entry serving it.
func (r *Router) Find(addr uint64) (string, bool) {
	x := r.root

	for {
		child, ok := x.Route(addr)
		if !ok {
			return "", false
		}

		if _, isEntry := r.ports[child]; isEntry {
			return child, true
		}

		x = r.xbars[child]
	}
}
