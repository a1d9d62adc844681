package sim

import (
	"fmt"
	"sort"
	"strings"
)

// A PortOwner holds ports under local names. The full name of a port is the
// owner's name followed by the local name.
type PortOwner interface {
	AddPort(local string, port Port)
	GetPortByName(local string) Port
	LookupPort(local string) (Port, bool)
	Ports() []Port
}

// PortOwnerBase provides an implementation of the PortOwner interface.
type PortOwnerBase struct {
	ports map[string]Port
}

// NewPortOwnerBase creates a new PortOwnerBase
func NewPortOwnerBase() *PortOwnerBase {
	return &PortOwnerBase{
		ports: make(map[string]Port),
	}
}

// AddPort adds a port under a local name. Local names are unique per owner,
// so adding a second port with the same name panics.
func (po *PortOwnerBase) AddPort(local string, port Port) {
	if _, found := po.ports[local]; found {
		panic(fmt.Sprintf("port %s already exists", local))
	}

	po.ports[local] = port
}

// LookupPort returns the port with the given local name, if any.
func (po *PortOwnerBase) LookupPort(local string) (Port, bool) {
	port, found := po.ports[local]
	return port, found
}

// GetPortByName returns the port with the given local name. It panics with
// the list of available names when there is no such port.
func (po *PortOwnerBase) GetPortByName(local string) Port {
	port, found := po.ports[local]
	if !found {
		panic(fmt.Sprintf("port %s not found, available ports: %s",
			local, strings.Join(po.localNames(), ", ")))
	}

	return port
}

// Ports returns the ports sorted by local name.
func (po *PortOwnerBase) Ports() []Port {
	names := po.localNames()

	list := make([]Port, 0, len(names))
	for _, n := range names {
		list = append(list, po.ports[n])
	}

	return list
}

func (po *PortOwnerBase) localNames() []string {
	names := make([]string, 0, len(po.ports))
	for n := range po.ports {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
