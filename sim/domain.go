package sim

import "github.com/pkg/errors"

// Domain is a group of components that are closely connected. The ports of a
// domain form the boundary of one level of the hierarchy.
type Domain struct {
	*ComponentBase

	children []Component
}

// NewDomain creates a new Domain
func NewDomain(name string) *Domain {
	d := new(Domain)
	d.ComponentBase = NewComponentBase(name, "Domain")

	return d
}

// AsDomain returns the domain itself. Types that embed a *Domain use it to
// expose the embedded domain.
func (d *Domain) AsDomain() *Domain {
	return d
}

// AddChild places a component inside the domain.
func (d *Domain) AddChild(c Component) error {
	if c.Parent() != nil {
		return errors.Errorf("component %s is already inside %s",
			c.Name(), c.Parent().Name())
	}

	c.setParent(d)
	d.children = append(d.children, c)

	return nil
}

// Children returns the direct children of the domain in insertion order.
func (d *Domain) Children() []Component {
	out := make([]Component, len(d.children))
	copy(out, d.children)

	return out
}

// DomainHolder is implemented by Domain and every type that embeds one.
type DomainHolder interface {
	AsDomain() *Domain
}

// IsAncestor tells whether d contains c, directly or through nested domains.
func IsAncestor(d *Domain, c Component) bool {
	for p := c.Parent(); p != nil; p = p.Parent() {
		if p == d {
			return true
		}
	}

	return false
}
