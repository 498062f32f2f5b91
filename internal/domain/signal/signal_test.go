package signal

import (
	"testing"
	"time"
)

func TestAllExcludesQuiet(t *testing.T) {
	for _, k := range All() {
		if k == Quiet {
			t.Error("QUIET is a suppression sentinel, not emittable")
		}
	}
	if len(All()) != 8 {
		t.Errorf("expected 8 emittable kinds, got %d", len(All()))
	}
}

func TestHasCronFloor(t *testing.T) {
	if (Config{}).HasCronFloor() {
		t.Error("zero MaxIntervalSeconds must not have a cron floor")
	}
	if !(Config{MaxIntervalSeconds: 60}).HasCronFloor() {
		t.Error("positive MaxIntervalSeconds must have a cron floor")
	}
}

func TestCloneDeepCopiesMaps(t *testing.T) {
	p := PressureState{KnownPending: map[string]int{"a": 1}, LastOutcomes: map[string]Outcome{"e1": OutcomeOK}}
	clone := p.Clone()
	clone.KnownPending["a"] = 99
	clone.LastOutcomes["e1"] = OutcomeError
	if p.KnownPending["a"] != 1 {
		t.Error("mutating clone leaked into original KnownPending")
	}
	if p.LastOutcomes["e1"] != OutcomeOK {
		t.Error("mutating clone leaked into original LastOutcomes")
	}
}

func TestNewInitializesEveryConfiguredKind(t *testing.T) {
	s := New(DefaultConfigs())
	for _, cfg := range DefaultConfigs() {
		if _, ok := s.Pressures[cfg.Kind]; !ok {
			t.Errorf("expected pressure state for %v", cfg.Kind)
		}
	}
}

func TestIsQuiet(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	s := InteroceptionState{QuietUntil: &future}
	if !s.IsQuiet(now) {
		t.Error("expected quiet while before quiet_until")
	}
	past := now.Add(-time.Hour)
	s2 := InteroceptionState{QuietUntil: &past}
	if s2.IsQuiet(now) {
		t.Error("expected not quiet once quiet_until has passed")
	}
	s3 := InteroceptionState{}
	if s3.IsQuiet(now) {
		t.Error("expected not quiet with no quiet_until set")
	}
}

func TestDefaultConfigsCoverEveryEmittableKind(t *testing.T) {
	cfgs := DefaultConfigs()
	if len(cfgs) != len(All()) {
		t.Fatalf("expected a config per emittable kind, got %d configs for %d kinds", len(cfgs), len(All()))
	}
	for _, cfg := range cfgs {
		if cfg.EmitThreshold <= 0 || cfg.MaxPressure <= 0 {
			t.Errorf("config %v has non-positive threshold/cap", cfg.Kind)
		}
	}
}
