package config

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/sim"
)

// ConnectExtraPortsByName connects every chip-boundary extra port to the
// compute extra port with the same local name. A chip port without a partner
// is an error. Compute ports without a partner stay unconnected.
func ConnectExtraPortsByName(chip, compute *sim.Bundle, w Wiring) error {
	if chip.Len() == 0 {
		return nil
	}

	for _, name := range chip.Names() {
		outer, _ := chip.Port(name)

		var inner sim.Port
		if compute != nil {
			inner, _ = compute.Port(name)
		}

		if inner == nil {
			return errors.Wrapf(sim.ErrPortCountMismatch,
				"extra port %s has no compute-side partner", name)
		}

		if _, err := w.Connect(outer, inner); err != nil {
			return errors.Wrapf(err, "connecting extra port %s", name)
		}
	}

	return nil
}
