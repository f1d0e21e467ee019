// Package planner defines the synchronous planner capability consumed by
// the arbiter, with implementations in subpackages.
package planner

import (
	"errors"

	"github.com/tickwise/cortex/internal/core"
)

// ErrNoViableAction is returned by a planner that cannot produce any
// action for the given snapshot. The fallback planner must never return
// it.
var ErrNoViableAction = errors.New("no viable action for snapshot")

// Planner produces the next atomic action for a snapshot. Implementations
// must be deterministic, synchronous, and fast enough to run every tick.
type Planner interface {
	NextAction(snap *core.WorldSnapshot) (core.ActionStep, error)
	Name() string
}
