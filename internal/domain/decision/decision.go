// Package decision implements the scoring and selection math of
// spec.md §4.6: the J utility score, salience clamp, and ε-greedy
// softmax selection over candidate actions.
package decision

import (
	"math"
	"math/rand"

	"github.com/quietsignal/persona-core/internal/domain/action"
)

// Weights holds the tunable coefficients of the J score and salience
// formulas. Defaults match spec.md §4.2/§4.6 in spirit; a policy profile
// may override them (see internal/domain/policy).
type Weights struct {
	VOI         float64
	Optionality float64
	Risk        float64
	Fatigue     float64

	SalienceDeltaU float64
	SalienceRisk   float64
	SalienceVOI    float64
}

// DefaultWeights returns the scoring weights used unless a policy
// profile overrides them.
func DefaultWeights() Weights {
	return Weights{
		VOI: 1.0, Optionality: 0.5, Risk: 1.0, Fatigue: 0.5,
		SalienceDeltaU: 0.5, SalienceRisk: 0.3, SalienceVOI: 0.2,
	}
}

// Score computes J = Δu + w_voi·voi + w_opt·optionality − cost − w_risk·risk − w_fatigue·fatigue.
func Score(c action.Candidate, w Weights) float64 {
	u := c.Utility
	return u.DeltaU + w.VOI*u.VOI + w.Optionality*u.Optionality -
		u.Cost - w.Risk*u.Risk - w.Fatigue*u.Fatigue
}

// ScoreAll scores every candidate, returning them paired with their J.
func ScoreAll(cands []action.Candidate, w Weights) []action.Scored {
	out := make([]action.Scored, len(cands))
	for i, c := range cands {
		out[i] = action.Scored{Candidate: c, J: Score(c, w)}
	}
	return out
}

// Salience computes S = clamp(Σ w_k·component_k, 0, 1) from the
// candidate's utility components, used for the low/high salience gates.
func Salience(c action.Candidate, w Weights) float64 {
	u := c.Utility
	s := w.SalienceDeltaU*u.DeltaU + w.SalienceVOI*u.VOI - w.SalienceRisk*u.Risk
	return clamp01(s)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Thresholds holds the salience and J gates used by the pipeline runner.
type Thresholds struct {
	LowSalience  float64
	HighSalience float64
	LowActionJ   float64
}

// DefaultThresholds matches spec.md §4.2/§4.6 defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{LowSalience: 0.35, HighSalience: 0.7, LowActionJ: 0}
}

// SelectionParams tunes the ε-greedy softmax pick in spec.md §4.2.
type SelectionParams struct {
	Epsilon     float64 // default 0.15
	Temperature float64 // default 0.8
}

// DefaultSelectionParams matches spec.md §4.2's pick_action contract.
func DefaultSelectionParams() SelectionParams {
	return SelectionParams{Epsilon: 0.15, Temperature: 0.8}
}

// Pick implements pick_action: with probability ε choose uniformly at
// random; otherwise draw from softmax(J/T); fall back to argmax when
// weights collapse to zero. rng must be non-nil; callers own its seeding
// so scheduler/runner behavior is reproducible in tests.
func Pick(scored []action.Scored, p SelectionParams, rng *rand.Rand) action.Scored {
	if len(scored) == 0 {
		return action.Scored{}
	}
	if len(scored) == 1 {
		return scored[0]
	}

	if rng.Float64() < p.Epsilon {
		return scored[rng.Intn(len(scored))]
	}

	weights := make([]float64, len(scored))
	var total float64
	t := p.Temperature
	if t <= 0 {
		t = 0.8
	}
	maxJ := scored[0].J
	for _, s := range scored {
		if s.J > maxJ {
			maxJ = s.J
		}
	}
	for i, s := range scored {
		w := math.Exp((s.J - maxJ) / t)
		weights[i] = w
		total += w
	}

	if total <= 0 {
		return argmax(scored)
	}

	r := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if r <= cum {
			return scored[i]
		}
	}
	return scored[len(scored)-1]
}

func argmax(scored []action.Scored) action.Scored {
	best := scored[0]
	for _, s := range scored[1:] {
		if s.J > best.J {
			best = s
		}
	}
	return best
}
