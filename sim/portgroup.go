package sim

// A PortGroup is an optional, ordered group of same-protocol ports. It is
// either Present or Absent and is decided once during elaboration.
type PortGroup interface {
	isPortGroup()
}

// Present is a port group that exists.
type Present struct {
	Ports []Port
}

// Absent is a port group that the configuration left out.
type Absent struct{}

func (Present) isPortGroup() {}
func (Absent) isPortGroup()  {}

// PortsOf returns the ports of a group, nil when it is absent.
func PortsOf(g PortGroup) []Port {
	if p, ok := g.(Present); ok {
		return p.Ports
	}

	return nil
}

// IsPresent tells whether the group holds ports.
func IsPresent(g PortGroup) bool {
	_, ok := g.(Present)
	return ok
}
