// Package device provides device builders that configuration files can refer
// to by kind.
package device

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/config"
	"github.com/sarchlab/chiptop/sim"
)

// Comp is a device that is a bus slave through its MMIO ports and a bus
// master through its client ports.
type Comp struct {
	*sim.ComponentBase

	mmio    []sim.Port
	clients []sim.Port
}

// MMIOPorts returns the slave ports in entry order.
func (c *Comp) MMIOPorts() []sim.Port {
	return append([]sim.Port(nil), c.mmio...)
}

// ClientPorts returns the master ports.
func (c *Comp) ClientPorts() []sim.Port {
	return append([]sim.Port(nil), c.clients...)
}

// Generic elaborates a device with one slave port per bound entry and one
// master port per client port. It is registered in the parent domain and
// wired to the ports it receives.
func Generic(ports config.DevicePorts) error {
	_, err := Build(ports)
	return err
}

// Build is Generic that also returns the device.
func Build(ports config.DevicePorts) (*Comp, error) {
	name := ports.Name
	if ports.Parent != nil {
		name = sim.BuildName(ports.Parent.Name(), ports.Name)
	}

	c := &Comp{ComponentBase: sim.NewComponentBase(name, "Device")}
	c.SetParam("SlaveScope", ports.Scopes.Inner.Name)
	c.SetParam("MasterScope", ports.Scopes.Outer.Name)
	c.SetParam("ExtraIO", ports.ExtraIO.Len())

	for _, m := range ports.MMIO {
		c.mmio = append(c.mmio, sim.AddNewPort(c,
			sim.BuildName("MMIO", m.Entry.Name), m.Port.Spec().WithDir(sim.DirIn)))
	}

	for i, client := range ports.Clients {
		c.clients = append(c.clients, sim.AddNewPort(c,
			sim.BuildNameWithIndex("", "Client", i),
			client.Spec().WithDir(sim.DirOut)))
	}

	if err := ports.Wiring.RegisterIn(ports.Parent, c); err != nil {
		return nil, errors.Wrapf(err, "registering device %s", ports.Name)
	}

	for i, m := range ports.MMIO {
		if _, err := ports.Wiring.Connect(m.Port, c.mmio[i]); err != nil {
			return nil, errors.Wrapf(err, "device %s entry %s",
				ports.Name, m.Entry.Name)
		}
	}

	for i, client := range ports.Clients {
		if _, err := ports.Wiring.Connect(c.clients[i], client); err != nil {
			return nil, errors.Wrapf(err, "device %s client %d", ports.Name, i)
		}
	}

	return c, nil
}

// Catalog returns the device kinds that configuration files can use.
func Catalog() config.Catalog {
	return config.Catalog{
		"generic": Generic,
	}
}
