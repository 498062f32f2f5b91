// Package signal defines the drive signals tracked by the limbic scheduler:
// their static configuration, their mutable pressure state, and the
// process-wide interoception snapshot that bundles them.
package signal

import "time"

// Kind is one of the closed set of drive signals. QUIET is a suppression
// sentinel, never emitted.
type Kind string

const (
	Social      Kind = "SOCIAL"
	Curiosity   Kind = "CURIOSITY"
	Maintenance Kind = "MAINTENANCE"
	Boredom     Kind = "BOREDOM"
	Anxiety     Kind = "ANXIETY"
	Drift       Kind = "DRIFT"
	Stale       Kind = "STALE"
	Uncanny     Kind = "UNCANNY"
	Quiet       Kind = "QUIET"
)

// All lists every emittable signal kind, in a fixed order used for
// deterministic iteration (config loading, state file key ordering).
func All() []Kind {
	return []Kind{Social, Curiosity, Maintenance, Boredom, Anxiety, Drift, Stale, Uncanny}
}

// Config holds the static, per-kind tuning for one signal.
type Config struct {
	Kind                Kind
	BaseIntervalSeconds float64
	AccumulationRate    float64
	DecayRate           float64
	EmitThreshold       float64
	MaxPressure         float64
	JitterFactor        float64 // in [0,1]
	Priority            int     // higher wins tiebreaks
	MaxIntervalSeconds  float64 // 0 means no cron floor
	CooldownSeconds     float64
}

// HasCronFloor reports whether this signal forces emission after
// MaxIntervalSeconds regardless of pressure.
func (c Config) HasCronFloor() bool {
	return c.MaxIntervalSeconds > 0
}

// Outcome classifies how a past emission resolved, feeding ANXIETY's
// errors_last_hour boost on the following ticks.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// PressureState is the mutable, persisted state for one signal kind.
type PressureState struct {
	Kind           Kind               `json:"kind"`
	Pressure       float64            `json:"pressure"`
	LastUpdated    time.Time          `json:"last_updated"`
	LastEmitted    time.Time          `json:"last_emitted"`
	LastAction     time.Time          `json:"last_action"`
	EmissionCount  int                `json:"emission_count"`
	KnownPending   map[string]int     `json:"known_pending,omitempty"`
	LastOutcomes   map[string]Outcome `json:"last_outcomes,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing maps.
func (p PressureState) Clone() PressureState {
	out := p
	if p.KnownPending != nil {
		out.KnownPending = make(map[string]int, len(p.KnownPending))
		for k, v := range p.KnownPending {
			out.KnownPending[k] = v
		}
	}
	if p.LastOutcomes != nil {
		out.LastOutcomes = make(map[string]Outcome, len(p.LastOutcomes))
		for k, v := range p.LastOutcomes {
			out.LastOutcomes[k] = v
		}
	}
	return out
}

// InteroceptionState is the process-wide persisted snapshot of every
// signal's pressure plus scheduler-level bookkeeping.
type InteroceptionState struct {
	Pressures      map[Kind]PressureState `json:"pressures"`
	QuietUntil     *time.Time             `json:"quiet_until,omitempty"`
	LastWake       time.Time              `json:"last_wake"`
	TotalEmissions int                    `json:"total_emissions"`
}

// New returns a fresh InteroceptionState with zeroed pressure for every
// signal kind in cfgs.
func New(cfgs []Config) InteroceptionState {
	pressures := make(map[Kind]PressureState, len(cfgs))
	for _, c := range cfgs {
		pressures[c.Kind] = PressureState{Kind: c.Kind}
	}
	return InteroceptionState{Pressures: pressures}
}

// IsQuiet reports whether now falls within the one-shot quiet window.
func (s InteroceptionState) IsQuiet(now time.Time) bool {
	return s.QuietUntil != nil && now.Before(*s.QuietUntil)
}

// DefaultConfigs returns the signal configuration table used unless
// overridden by policy/config. Values are taken from spec.md §4.1 and
// the cooldown floors in its emission-candidate step.
func DefaultConfigs() []Config {
	return []Config{
		{
			Kind: Social, BaseIntervalSeconds: 1800, AccumulationRate: 0.02,
			DecayRate: 0, EmitThreshold: 0.6, MaxPressure: 1.5,
			JitterFactor: 0.15, Priority: 5, MaxIntervalSeconds: 7200,
			CooldownSeconds: 60,
		},
		{
			Kind: Curiosity, BaseIntervalSeconds: 3600, AccumulationRate: 0.015,
			EmitThreshold: 0.65, MaxPressure: 1.5, JitterFactor: 0.2,
			Priority: 3, CooldownSeconds: 120,
		},
		{
			Kind: Maintenance, BaseIntervalSeconds: 1800, AccumulationRate: 0.02,
			EmitThreshold: 0.55, MaxPressure: 1.5, JitterFactor: 0.1,
			Priority: 7, CooldownSeconds: 60,
		},
		{
			Kind: Boredom, BaseIntervalSeconds: 7200, AccumulationRate: 0.01,
			EmitThreshold: 0.6, MaxPressure: 1.5, JitterFactor: 0.25,
			Priority: 2, CooldownSeconds: 1800,
		},
		{
			Kind: Anxiety, BaseIntervalSeconds: 900, AccumulationRate: 0.03,
			EmitThreshold: 0.5, MaxPressure: 1.5, JitterFactor: 0.1,
			Priority: 9, CooldownSeconds: 180,
		},
		{
			Kind: Drift, BaseIntervalSeconds: 3600, AccumulationRate: 0.02,
			EmitThreshold: 0.6, MaxPressure: 1.5, JitterFactor: 0.15,
			Priority: 4, CooldownSeconds: 300,
		},
		{
			Kind: Stale, BaseIntervalSeconds: 14400, AccumulationRate: 0.008,
			EmitThreshold: 0.6, MaxPressure: 1.5, JitterFactor: 0.1,
			Priority: 1, MaxIntervalSeconds: 86400, CooldownSeconds: 600,
		},
		{
			Kind: Uncanny, BaseIntervalSeconds: 3600, AccumulationRate: 0.02,
			EmitThreshold: 0.6, MaxPressure: 1.5, JitterFactor: 0.1,
			Priority: 8, CooldownSeconds: 600,
		},
	}
}
