package decision

import (
	"math/rand"
	"testing"

	"github.com/quietsignal/persona-core/internal/domain/action"
)

func candidate(deltaU, voi, risk float64) action.Candidate {
	return action.Candidate{
		Kind:    action.Reply,
		Utility: action.UtilityComponents{DeltaU: deltaU, VOI: voi, Risk: risk},
	}
}

func TestScore(t *testing.T) {
	w := DefaultWeights()
	c := action.Candidate{Utility: action.UtilityComponents{
		DeltaU: 0.5, VOI: 0.2, Optionality: 0.1, Cost: 0.05, Risk: 0.1, Fatigue: 0.05,
	}}
	got := Score(c, w)
	want := 0.5 + w.VOI*0.2 + w.Optionality*0.1 - 0.05 - w.Risk*0.1 - w.Fatigue*0.05
	if got != want {
		t.Errorf("Score() = %v, want %v", got, want)
	}
}

func TestSalienceClampsToUnitRange(t *testing.T) {
	w := DefaultWeights()
	high := Salience(candidate(5, 5, 0), w)
	if high != 1 {
		t.Errorf("expected clamp to 1, got %v", high)
	}
	low := Salience(candidate(0, 0, 5), w)
	if low != 0 {
		t.Errorf("expected clamp to 0, got %v", low)
	}
}

func TestPickSingleCandidateReturnsIt(t *testing.T) {
	scored := []action.Scored{{Candidate: candidate(1, 0, 0), J: 1}}
	got := Pick(scored, DefaultSelectionParams(), rand.New(rand.NewSource(1)))
	if got.J != 1 {
		t.Errorf("expected the sole candidate, got %+v", got)
	}
}

func TestPickEpsilonGreedyExploresUniformly(t *testing.T) {
	scored := []action.Scored{
		{Candidate: candidate(1, 0, 0), J: 10},
		{Candidate: candidate(0, 0, 0), J: -10},
	}
	params := SelectionParams{Epsilon: 1.0, Temperature: 0.8}
	rng := rand.New(rand.NewSource(42))
	seen := map[float64]bool{}
	for i := 0; i < 50; i++ {
		seen[Pick(scored, params, rng).J] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected epsilon=1 to explore both candidates, saw %v", seen)
	}
}

func TestPickZeroTemperatureUsesDefaultAndFavorsHighestJ(t *testing.T) {
	scored := []action.Scored{
		{Candidate: candidate(1, 0, 0), J: 1},
		{Candidate: candidate(0, 0, 0), J: 5},
	}
	params := SelectionParams{Epsilon: 0, Temperature: 0}
	rng := rand.New(rand.NewSource(1))
	got := Pick(scored, params, rng)
	if got.J != 5 {
		t.Errorf("expected softmax at the default temperature to pick J=5, got %v", got.J)
	}
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.LowSalience != 0.35 || th.HighSalience != 0.7 || th.LowActionJ != 0 {
		t.Errorf("unexpected defaults: %+v", th)
	}
}
