package sim

import (
	"log"
)

// A LogHook is a hook that is resonsible for recording elaboration steps.
type LogHook interface {
	Hook
}

// LogHookBase proovides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// ElaborationLogHook prints every registered component and every wire.
type ElaborationLogHook struct {
	LogHookBase
}

// NewElaborationLogHook creates a hook that writes to the given logger.
func NewElaborationLogHook(logger *log.Logger) *ElaborationLogHook {
	h := new(ElaborationLogHook)
	h.Logger = logger

	return h
}

// Func writes one line per hook invocation.
func (h *ElaborationLogHook) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosComponentRegistered:
		c := ctx.Item.(Component)
		h.Printf("component %s (%s), %d ports", c.Name(), c.Kind(), len(c.Ports()))
	case HookPosWireConnected:
		w := ctx.Item.(*Wire)
		h.Printf("wire %s: %s -> %s [%s]",
			w.ID(), w.PortA().Name(), w.PortB().Name(), w.PortA().Spec().Protocol)
	case HookPosGraphFrozen:
		g := ctx.Item.(*Graph)
		h.Printf("elaboration done, %d components, %d wires",
			len(g.Components()), len(g.Wires()))
	}
}
