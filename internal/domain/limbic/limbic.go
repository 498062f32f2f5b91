// Package limbic implements the pressure-based emission engine of
// spec.md §4.1: the pure tick algorithm that accumulates per-signal
// pressure, applies cooldowns and cron floors, and picks at most one
// signal to emit per tick.
package limbic

import (
	"math/rand"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/signal"
)

// Boosts are the externally-computed additive pressure contributions
// for this tick (spec.md §4.1 step 2). KnownPending is stored onto the
// SOCIAL pressure state regardless of whether SOCIAL emits.
type Boosts struct {
	Social       float64
	Maintenance  float64
	Anxiety      float64
	Boredom      float64
	Drift        float64
	KnownPending map[string]int
}

// Candidate is one signal's computed emission eligibility for this tick.
type Candidate struct {
	Kind     signal.Kind
	Priority int
	Pressure float64
	Forced   bool
	Reason   string
}

// Result is the outcome of one tick: at most one emission.
type Result struct {
	Emitted          bool
	Signal           signal.Kind
	Reason           string
	Forced           bool
	Pressure         float64
	PendingTotal     int
	SecondsSinceLast float64
	QuietSuppressed  bool
}

// cooldownFloors are the hard/soft per-signal cooldown floors of
// spec.md §4.1 step 4, keyed by signal kind. Values not listed here use
// the signal's own Config.CooldownSeconds.
const (
	uncannyCooldownSeconds = 600
	anxietyCooldownSeconds = 180
	boredomCooldownSeconds = 1800
	anxietyBypassPressure  = 1.0
)

// Tick runs one scheduler cycle. prev is left unchanged and the updated
// state is returned as next; rng supplies
// jitter and must be owned by the caller for reproducibility.
func Tick(prev signal.InteroceptionState, cfgs []signal.Config, boosts Boosts, now time.Time, rng *rand.Rand) (signal.InteroceptionState, Result) {
	next := cloneState(prev)

	if next.IsQuiet(now) {
		return next, Result{QuietSuppressed: true}
	}

	pending := 0
	for _, v := range boosts.KnownPending {
		pending += v
	}

	candidates := make([]Candidate, 0, len(cfgs))
	for _, cfg := range cfgs {
		ps := next.Pressures[cfg.Kind]
		if boosts.KnownPending != nil && cfg.Kind == signal.Social {
			ps.KnownPending = boosts.KnownPending
		}

		boost := boostFor(cfg.Kind, boosts)
		ps = updatePressure(ps, cfg, boost, now, rng)
		next.Pressures[cfg.Kind] = ps

		if c, ok := evaluateCandidate(cfg, ps, now, rng); ok {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return next, Result{PendingTotal: pending}
	}

	winner := pickCandidate(candidates)
	ps := next.Pressures[winner.Kind]
	secondsSince := now.Sub(ps.LastEmitted).Seconds()
	if ps.LastEmitted.IsZero() {
		secondsSince = 0
	}

	ps.Pressure = 0
	ps.LastEmitted = now
	ps.EmissionCount++
	next.Pressures[winner.Kind] = ps
	next.LastWake = now
	next.TotalEmissions++

	return next, Result{
		Emitted:          true,
		Signal:           winner.Kind,
		Reason:           winner.Reason,
		Forced:           winner.Forced,
		Pressure:         winner.Pressure,
		PendingTotal:     pending,
		SecondsSinceLast: secondsSince,
	}
}

func boostFor(kind signal.Kind, b Boosts) float64 {
	switch kind {
	case signal.Social:
		return b.Social
	case signal.Maintenance:
		return b.Maintenance
	case signal.Anxiety:
		return b.Anxiety
	case signal.Boredom:
		return b.Boredom
	case signal.Drift:
		return b.Drift
	default:
		return 0
	}
}

// updatePressure applies spec.md §4.1 step 3: no time-based accumulation
// while T <= base interval, then accumulate, jitter, add boost, clamp.
func updatePressure(ps signal.PressureState, cfg signal.Config, boost float64, now time.Time, rng *rand.Rand) signal.PressureState {
	out := ps.Clone()
	if out.LastUpdated.IsZero() {
		out.LastUpdated = now
	}

	reference := out.LastEmitted
	if reference.IsZero() {
		reference = out.LastUpdated
	}
	t := now.Sub(reference).Seconds()
	dtSinceUpdate := now.Sub(out.LastUpdated).Seconds()
	if dtSinceUpdate < 0 {
		dtSinceUpdate = 0
	}

	if t > cfg.BaseIntervalSeconds {
		accrue := t - cfg.BaseIntervalSeconds
		if dtSinceUpdate < accrue {
			accrue = dtSinceUpdate
		}
		if accrue > 0 {
			out.Pressure += accrue * cfg.AccumulationRate
		}
	}

	if cfg.JitterFactor > 0 {
		j := cfg.JitterFactor
		out.Pressure *= 1 + (rng.Float64()*2-1)*j
	}

	out.Pressure += boost
	if out.Pressure < 0 {
		out.Pressure = 0
	}
	if out.Pressure > cfg.MaxPressure {
		out.Pressure = cfg.MaxPressure
	}
	out.LastUpdated = now
	return out
}

// evaluateCandidate applies spec.md §4.1 step 4: cooldowns suppress
// emission outright; forced emission triggers on the cron floor; else
// threshold emission triggers once pressure crosses a jittered threshold.
func evaluateCandidate(cfg signal.Config, ps signal.PressureState, now time.Time, rng *rand.Rand) (Candidate, bool) {
	reference := ps.LastEmitted
	if reference.IsZero() {
		// Never emitted: treat as emitted "at the dawn of time" so cooldowns
		// don't block the very first emission.
		reference = now.Add(-365 * 24 * time.Hour)
	}
	t := now.Sub(reference).Seconds()

	cooldown := cfg.CooldownSeconds
	switch cfg.Kind {
	case signal.Uncanny:
		cooldown = uncannyCooldownSeconds
	case signal.Anxiety:
		cooldown = anxietyCooldownSeconds
	case signal.Boredom:
		cooldown = boredomCooldownSeconds
	}

	anxietyBypass := cfg.Kind == signal.Anxiety && ps.Pressure >= anxietyBypassPressure
	if t < cooldown && !anxietyBypass {
		return Candidate{}, false
	}

	if cfg.HasCronFloor() && t >= cfg.MaxIntervalSeconds {
		return Candidate{
			Kind: cfg.Kind, Priority: cfg.Priority, Pressure: ps.Pressure,
			Forced: true, Reason: "max_interval_exceeded",
		}, true
	}

	threshold := cfg.EmitThreshold
	if cfg.JitterFactor > 0 {
		threshold *= 1 + (rng.Float64()*2-1)*cfg.JitterFactor
	}
	if ps.Pressure >= threshold {
		return Candidate{
			Kind: cfg.Kind, Priority: cfg.Priority, Pressure: ps.Pressure,
			Reason: "threshold_crossed",
		}, true
	}

	return Candidate{}, false
}

// pickCandidate sorts by (priority desc, pressure desc) and returns the
// top candidate (spec.md §4.1 step 5).
func pickCandidate(cands []Candidate) Candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Priority > best.Priority {
			best = c
			continue
		}
		if c.Priority == best.Priority && c.Pressure > best.Pressure {
			best = c
		}
	}
	return best
}

// ForceEmit implements the manual-force entry point of spec.md §4.1.a:
// bypass accumulation and emit kind unconditionally, subject only to
// quiet mode (never bypassed).
func ForceEmit(prev signal.InteroceptionState, kind signal.Kind, now time.Time) (signal.InteroceptionState, Result) {
	next := cloneState(prev)
	if next.IsQuiet(now) {
		return next, Result{QuietSuppressed: true}
	}
	ps := next.Pressures[kind]
	ps.Pressure = 0
	ps.LastEmitted = now
	ps.EmissionCount++
	next.Pressures[kind] = ps
	next.LastWake = now
	next.TotalEmissions++
	return next, Result{Emitted: true, Signal: kind, Reason: "manual_force", Forced: true}
}

// SetQuiet sets quiet_until to until.
func SetQuiet(s signal.InteroceptionState, until time.Time) signal.InteroceptionState {
	next := cloneState(s)
	u := until
	next.QuietUntil = &u
	return next
}

// ClearQuiet clears quiet_until.
func ClearQuiet(s signal.InteroceptionState) signal.InteroceptionState {
	next := cloneState(s)
	next.QuietUntil = nil
	return next
}

// RecordOutcome stamps a dispatch outcome against kind's LastOutcomes map,
// keyed by an opaque emission id (spec.md §4.1 "Failure semantics").
func RecordOutcome(s signal.InteroceptionState, kind signal.Kind, emissionID string, outcome signal.Outcome) signal.InteroceptionState {
	next := cloneState(s)
	ps := next.Pressures[kind]
	if ps.LastOutcomes == nil {
		ps.LastOutcomes = map[string]signal.Outcome{}
	}
	ps.LastOutcomes[emissionID] = outcome
	next.Pressures[kind] = ps
	return next
}

func cloneState(s signal.InteroceptionState) signal.InteroceptionState {
	out := s
	out.Pressures = make(map[signal.Kind]signal.PressureState, len(s.Pressures))
	for k, v := range s.Pressures {
		out.Pressures[k] = v.Clone()
	}
	if s.QuietUntil != nil {
		u := *s.QuietUntil
		out.QuietUntil = &u
	}
	return out
}
