package sim

import (
	"fmt"
)

// A Component is an element of the topology: a converter, a router, a
// subsystem or a domain.
type Component interface {
	Named
	PortOwner

	// Kind names what the component is, e.g. "TLToAXI4".
	Kind() string

	// Params lists the elaboration parameters of the component in the order
	// they were set.
	Params() []Param

	// Parent returns the domain that contains the component.
	Parent() *Domain

	setParent(d *Domain)
}

// Param is a named elaboration parameter of a component.
type Param struct {
	Key   string
	Value string
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	NamedBase
	*PortOwnerBase

	kind   string
	params []Param
	parent *Domain
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name, kind string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.NamedBase = MakeNamedBase(name)
	c.PortOwnerBase = NewPortOwnerBase()
	c.kind = kind

	return c
}

// Kind returns the kind of the component.
func (c *ComponentBase) Kind() string {
	return c.kind
}

// Params returns the parameters of the component.
func (c *ComponentBase) Params() []Param {
	out := make([]Param, len(c.params))
	copy(out, c.params)

	return out
}

// SetParam records a parameter, replacing an earlier value with the same key.
func (c *ComponentBase) SetParam(key string, value any) {
	v := fmt.Sprint(value)

	for i := range c.params {
		if c.params[i].Key == key {
			c.params[i].Value = v
			return
		}
	}

	c.params = append(c.params, Param{Key: key, Value: v})
}

// Param returns the value of a parameter.
func (c *ComponentBase) Param(key string) (string, bool) {
	for _, p := range c.params {
		if p.Key == key {
			return p.Value, true
		}
	}

	return "", false
}

// Parent returns the domain that contains the component.
func (c *ComponentBase) Parent() *Domain {
	return c.parent
}

func (c *ComponentBase) setParent(d *Domain) {
	c.parent = d
}

// AddNewPort creates a port named after the component and adds it to the
// component under the local name.
func AddNewPort(c Component, local string, spec PortSpec) Port {
	p := NewPort(c, BuildName(c.Name(), local), spec)
	c.AddPort(local, p)

	return p
}
