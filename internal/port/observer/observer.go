// Package observer defines the observe() contract of spec.md §4.2:
// turn the current agent state into a fresh Observation of the world.
package observer

import (
	"context"

	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/observation"
)

// Observer produces one Observation per call, given the state at the
// start of the run.
type Observer interface {
	Observe(ctx context.Context, state agentstate.State) (observation.Observation, error)
}
