// Package algorithm defines the Algorithm contract Island drives: an opaque,
// clone-capable operator that evolves a Population in place.
package algorithm

import "islandopt/internal/population"

// Algorithm evolves a Population in place. It is value-type polymorphic:
// Clone must return an independently mutable copy, including any
// per-instance adaptive state (e.g. SA-DE's F/CR arrays).
type Algorithm interface {
	// Evolve advances pop by one algorithm-defined evolutionary step. For
	// SA-DE this comprises up to Gen internal generations, possibly fewer if
	// a convergence exit test fires early.
	Evolve(pop *population.Population) error
	// Blocking reports whether this Algorithm must run inline on the
	// caller's goroutine rather than inside an Island's background worker.
	Blocking() bool
	// Clone returns an independent deep copy of this Algorithm.
	Clone() Algorithm
}
