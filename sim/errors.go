package sim

import "github.com/pkg/errors"

// Elaboration failures. Every error returned while building a topology wraps
// exactly one of these, so callers can classify it with errors.Is.
var (
	// ErrConfigInconsistent marks configuration parameters that contradict
	// each other.
	ErrConfigInconsistent = errors.New("configuration inconsistency")

	// ErrPortCountMismatch marks a port list whose length does not match
	// what the configuration or a builder declared.
	ErrPortCountMismatch = errors.New("port count mismatch")

	// ErrProtocolMismatch marks an attempt to wire incompatible ports.
	ErrProtocolMismatch = errors.New("protocol mismatch")

	// ErrPortInUse marks a single-wire port that is already wired.
	ErrPortInUse = errors.New("port already connected")

	// ErrGraphFrozen marks a mutation after elaboration completed.
	ErrGraphFrozen = errors.New("graph is frozen")
)
