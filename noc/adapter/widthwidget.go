package adapter

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/chiptop/sim"
)

// WidthWidget adapts a bus between two data widths of the same protocol.
type WidthWidget struct {
	*Comp

	inWidth  int
	outWidth int
}

// NewWidthWidget creates a width adapter. One width must divide the other.
func NewWidthWidget(
	name string,
	p sim.Protocol,
	inWidth, outWidth int,
) (*WidthWidget, error) {
	if inWidth <= 0 || outWidth <= 0 {
		return nil, errors.Wrapf(sim.ErrProtocolMismatch,
			"%s: widths must be positive, got %d and %d",
			name, inWidth, outWidth)
	}

	if inWidth%outWidth != 0 && outWidth%inWidth != 0 {
		return nil, errors.Wrapf(sim.ErrProtocolMismatch,
			"%s: cannot adapt %d bits to %d bits", name, inWidth, outWidth)
	}

	w := &WidthWidget{
		Comp:     newComp(name, "WidthWidget", busSpec(p, inWidth), busSpec(p, outWidth)),
		inWidth:  inWidth,
		outWidth: outWidth,
	}
	w.SetParam("InWidth", inWidth)
	w.SetParam("OutWidth", outWidth)
	w.SetParam("Ratio", w.Ratio())

	return w, nil
}

// Ratio returns how many narrow beats make up one wide beat.
func (w *WidthWidget) Ratio() int {
	if w.inWidth > w.outWidth {
		return w.inWidth / w.outWidth
	}

	return w.outWidth / w.inWidth
}

// Narrowing tells whether the widget splits beats rather than merging them.
func (w *WidthWidget) Narrowing() bool {
	return w.inWidth > w.outWidth
}
