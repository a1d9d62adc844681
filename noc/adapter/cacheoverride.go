package adapter

import (
	"fmt"

	"github.com/sarchlab/chiptop/sim"
)

// NormalNonCacheableBufferable is the AXI4 AxCACHE value forced onto every
// read and write command leaving through an AXI4 memory channel.
const NormalNonCacheableBufferable uint8 = 0x3

// NewCacheOverride creates an AXI4 pass-through that replaces the cache
// attribute of every command with NormalNonCacheableBufferable, regardless of
// what the requester asked for.
func NewCacheOverride(name string, width int) *Comp {
	c := newComp(name, "AXI4CacheOverride",
		busSpec(sim.ProtocolAXI4, width),
		busSpec(sim.ProtocolAXI4, width))
	c.SetParam("Cache", fmt.Sprintf("0x%x", NormalNonCacheableBufferable))

	return c
}
