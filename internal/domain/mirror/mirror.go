// Package mirror implements the pure per-field reconciliation rules of
// spec.md §4.4: given two InteroceptionState snapshots (local and
// remote-pulled), decide which value each field should end up with.
// This package has no I/O — the passage store round-trip lives in
// internal/adapter/nats and the orchestration that drives when to call
// Pull/Push lives in internal/service.
package mirror

import (
	"time"

	"github.com/quietsignal/persona-core/internal/domain/signal"
)

// Pull merges remote into local per spec.md §4.4 "Reconciliation
// (pull)": per-signal last_updated recency wins, known_pending and
// last_outcomes union with remote as overlay, emission_count and
// total_emissions take the max, quiet_until/last_wake take the newer
// non-null timestamp. Pull is idempotent: Pull(Pull(local, remote),
// remote) == Pull(local, remote), since every rule is a deterministic
// function of the two inputs, not of prior merge history.
func Pull(local, remote signal.InteroceptionState) signal.InteroceptionState {
	out := signal.InteroceptionState{
		Pressures: make(map[signal.Kind]signal.PressureState, len(local.Pressures)+len(remote.Pressures)),
	}

	kinds := make(map[signal.Kind]struct{}, len(local.Pressures)+len(remote.Pressures))
	for k := range local.Pressures {
		kinds[k] = struct{}{}
	}
	for k := range remote.Pressures {
		kinds[k] = struct{}{}
	}

	for k := range kinds {
		lp, lok := local.Pressures[k]
		rp, rok := remote.Pressures[k]
		switch {
		case lok && rok:
			out.Pressures[k] = mergePressure(lp, rp)
		case rok:
			out.Pressures[k] = rp.Clone()
		default:
			out.Pressures[k] = lp.Clone()
		}
	}

	out.QuietUntil = newerTimestampPtr(local.QuietUntil, remote.QuietUntil)
	out.LastWake = newerTimestamp(local.LastWake, remote.LastWake)
	out.TotalEmissions = maxInt(local.TotalEmissions, remote.TotalEmissions)

	return out
}

// mergePressure applies the per-field recency/union rules to one
// signal kind present on both sides. The side with the newer
// LastUpdated supplies every scalar field not explicitly unioned
// below; LastEmitted and LastAction always take the later of the two,
// regardless of which side carries the newer LastUpdated, since an
// emission is a fact that happened and should never be un-recorded by
// a stale-looking update.
func mergePressure(local, remote signal.PressureState) signal.PressureState {
	var base signal.PressureState
	if remote.LastUpdated.After(local.LastUpdated) {
		base = remote.Clone()
	} else {
		base = local.Clone()
	}

	base.KnownPending = unionIntMaps(local.KnownPending, remote.KnownPending)
	base.LastOutcomes = unionOutcomeMaps(local.LastOutcomes, remote.LastOutcomes)
	base.EmissionCount = maxInt(local.EmissionCount, remote.EmissionCount)
	base.LastEmitted = newerTimestamp(local.LastEmitted, remote.LastEmitted)
	base.LastAction = newerTimestamp(local.LastAction, remote.LastAction)

	return base
}

// unionIntMaps unions two maps, with remote entries overwriting local
// ones on key conflict (spec.md §4.4: "remote overlay wins").
func unionIntMaps(local, remote map[string]int) map[string]int {
	if len(local) == 0 && len(remote) == 0 {
		return nil
	}
	out := make(map[string]int, len(local)+len(remote))
	for k, v := range local {
		out[k] = v
	}
	for k, v := range remote {
		out[k] = v
	}
	return out
}

func unionOutcomeMaps(local, remote map[string]signal.Outcome) map[string]signal.Outcome {
	if len(local) == 0 && len(remote) == 0 {
		return nil
	}
	out := make(map[string]signal.Outcome, len(local)+len(remote))
	for k, v := range local {
		out[k] = v
	}
	for k, v := range remote {
		out[k] = v
	}
	return out
}

// newerTimestamp returns the later of two timestamps.
func newerTimestamp(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// newerTimestampPtr implements "non-null preferred" tiebreaking: a
// present value beats a nil one regardless of side; between two
// present values the later one wins.
func newerTimestampPtr(local, remote *time.Time) *time.Time {
	winner := local
	if local == nil {
		winner = remote
	} else if remote != nil && remote.After(*local) {
		winner = remote
	}
	if winner == nil {
		return nil
	}
	t := *winner
	return &t
}

func maxInt(a, b int) int {
	if b > a {
		return b
	}
	return a
}
