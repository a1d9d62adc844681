package config

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/sim"
)

// A Region is a named address range. A region with children is a sub-tree of
// the address map. A region without children is an address-map entry.
type Region struct {
	Name string
	Base uint64
	Size uint64

	// Protocol is the family an entry expects on its port. ProtocolNone means
	// any family.
	Protocol sim.Protocol

	// Device names the extra device the entry is bound to, if any.
	Device string

	Children []Region
}

// End returns the first address after the region. It is 0 for a region that
// ends at the top of the address space.
func (r Region) End() uint64 {
	return r.Base + r.Size
}

// Last returns the last address of a non-empty region.
func (r Region) Last() uint64 {
	return r.Base + (r.Size - 1)
}

// Contains checks if an address falls into the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

// IsLeaf returns true if the region has no children.
func (r Region) IsLeaf() bool {
	return len(r.Children) == 0
}

// Leaves returns the entries of the sub-tree in declaration order. A leaf
// returns itself.
func (r Region) Leaves() []Region {
	if r.IsLeaf() {
		return []Region{r}
	}

	var leaves []Region
	for _, c := range r.Children {
		leaves = append(leaves, c.Leaves()...)
	}

	return leaves
}

func (r Region) String() string {
	return fmt.Sprintf("%s[0x%x, 0x%x)", r.Name, r.Base, r.End())
}

func (r Region) clone() Region {
	c := r
	if r.Children != nil {
		c.Children = make([]Region, len(r.Children))
		for i, child := range r.Children {
			c.Children[i] = child.clone()
		}
	}

	return c
}

// An AddressMap is an ordered list of top-level regions.
type AddressMap struct {
	Regions []Region
}

func (m AddressMap) clone() AddressMap {
	if m.Regions == nil {
		return AddressMap{}
	}

	c := AddressMap{Regions: make([]Region, len(m.Regions))}
	for i, r := range m.Regions {
		c.Regions[i] = r.clone()
	}

	return c
}

// Lookup finds a region anywhere in the map by name.
func (m AddressMap) Lookup(name string) (Region, bool) {
	return lookupRegion(m.Regions, name)
}

func lookupRegion(regions []Region, name string) (Region, bool) {
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}

		if found, ok := lookupRegion(r.Children, name); ok {
			return found, true
		}
	}

	return Region{}, false
}

// Find returns the deepest region that contains the address.
func (m AddressMap) Find(addr uint64) (Region, bool) {
	return findRegion(m.Regions, addr)
}

func findRegion(regions []Region, addr uint64) (Region, bool) {
	for _, r := range regions {
		if !r.Contains(addr) {
			continue
		}

		if child, ok := findRegion(r.Children, addr); ok {
			return child, true
		}

		return r, true
	}

	return Region{}, false
}

// Validate checks that names are valid and unique across the map, that every
// region is non-empty, that siblings do not overlap and that children stay
// inside their parent.
func (m AddressMap) Validate() error {
	names := make(map[string]bool)
	return validateRegions(m.Regions, nil, names)
}

func validateRegions(
	regions []Region,
	parent *Region,
	names map[string]bool,
) error {
	for i, r := range regions {
		if err := regionMustBeValid(r, parent, names); err != nil {
			return err
		}

		for _, prev := range regions[:i] {
			if r.Base <= prev.Last() && prev.Base <= r.Last() {
				return errors.Wrapf(sim.ErrConfigInconsistent,
					"region %s overlaps %s", r, prev)
			}
		}

		if err := validateRegions(r.Children, &regions[i], names); err != nil {
			return err
		}
	}

	return nil
}

func regionMustBeValid(r Region, parent *Region, names map[string]bool) error {
	if err := sim.ValidateName(r.Name); err != nil {
		return errors.Wrap(sim.ErrConfigInconsistent, err.Error())
	}

	if names[r.Name] {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"region %s declared twice", r.Name)
	}

	names[r.Name] = true

	if r.Size == 0 {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"region %s is empty", r.Name)
	}

	if r.Size-1 > math.MaxUint64-r.Base {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"region %s wraps around the address space", r.Name)
	}

	if r.Protocol != sim.ProtocolNone && !r.Protocol.IsBusFamily() {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"region %s targets %s, which is not a bus family",
			r.Name, r.Protocol)
	}

	if parent != nil && (r.Base < parent.Base || r.Last() > parent.Last()) {
		return errors.Wrapf(sim.ErrConfigInconsistent,
			"region %s is outside its parent %s", r, *parent)
	}

	return nil
}
