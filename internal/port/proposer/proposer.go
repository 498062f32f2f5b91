// Package proposer defines the candidate-proposer contract the
// pipeline runner consumes (spec.md §6.3): turn an observation plus
// current state into at most three candidate actions.
package proposer

import (
	"context"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/observation"
)

// MaxCandidates is the contract ceiling on proposed candidates per
// call; proposers that exceed it are truncated by the runner.
const MaxCandidates = 3

// CandidateProposer turns one observation into scoreable candidates.
// Implementations typically wrap an LLM call; a malformed or empty
// response is the caller's concern (spec.md §7 "downstream persona
// error" falls back to a single IGNORE candidate), not this
// interface's.
type CandidateProposer interface {
	Propose(ctx context.Context, obs observation.Observation, state agentstate.State) ([]action.Candidate, error)
}

// ApplyConsentRule enforces spec.md §6.3's consent rule: when actor is
// non-bot, not in consented_users, and has at least one prior
// interaction, every candidate but IGNORE/QUEUE is filtered out. An
// empty actor (no single clear addressee, e.g. a POST) is left
// unfiltered.
func ApplyConsentRule(cands []action.Candidate, state agentstate.State, actor string, isBot bool) []action.Candidate {
	if actor == "" || isBot {
		return cands
	}
	if state.ConsentedUsers[actor] {
		return cands
	}
	if state.PerUserCounts[actor] < 1 {
		return cands
	}

	out := make([]action.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Kind == action.Ignore || c.Kind == action.Queue {
			out = append(out, c)
		}
	}
	return out
}

// FallbackIgnore returns the single-candidate IGNORE list the runner
// falls back to when a proposer errors or returns nothing.
func FallbackIgnore() []action.Candidate {
	return []action.Candidate{{Kind: action.Ignore, Intent: "proposer_unavailable", Confidence: 1}}
}
