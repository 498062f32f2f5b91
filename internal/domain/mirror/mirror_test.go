package mirror

import (
	"testing"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/signal"
)

func stateAt(t time.Time, pressure float64, pending map[string]int) signal.InteroceptionState {
	return signal.InteroceptionState{
		Pressures: map[signal.Kind]signal.PressureState{
			signal.Social: {
				Kind: signal.Social, Pressure: pressure, LastUpdated: t,
				KnownPending: pending,
			},
		},
	}
}

func TestPullTakesNewerLastUpdated(t *testing.T) {
	now := time.Now()
	local := stateAt(now.Add(-time.Hour), 0.3, nil)
	remote := stateAt(now, 0.9, nil)

	merged := Pull(local, remote)
	if merged.Pressures[signal.Social].Pressure != 0.9 {
		t.Errorf("expected newer remote pressure 0.9, got %v", merged.Pressures[signal.Social].Pressure)
	}
}

func TestPullUnionsKnownPendingRemoteWins(t *testing.T) {
	now := time.Now()
	local := stateAt(now, 0.3, map[string]int{"bsky": 2, "shared": 1})
	remote := stateAt(now, 0.3, map[string]int{"mastodon": 3, "shared": 9})

	merged := Pull(local, remote)
	kp := merged.Pressures[signal.Social].KnownPending
	if kp["bsky"] != 2 || kp["mastodon"] != 3 {
		t.Errorf("expected union of both sides, got %+v", kp)
	}
	if kp["shared"] != 9 {
		t.Errorf("remote should win on key conflict, got shared=%v", kp["shared"])
	}
}

func TestPullEmissionCountTakesMax(t *testing.T) {
	now := time.Now()
	local := signal.InteroceptionState{Pressures: map[signal.Kind]signal.PressureState{
		signal.Social: {Kind: signal.Social, LastUpdated: now, EmissionCount: 5},
	}}
	remote := signal.InteroceptionState{Pressures: map[signal.Kind]signal.PressureState{
		signal.Social: {Kind: signal.Social, LastUpdated: now, EmissionCount: 2},
	}}
	merged := Pull(local, remote)
	if merged.Pressures[signal.Social].EmissionCount != 5 {
		t.Errorf("expected max(5,2)=5, got %v", merged.Pressures[signal.Social].EmissionCount)
	}
}

func TestPullTotalEmissionsTakesMax(t *testing.T) {
	local := signal.InteroceptionState{TotalEmissions: 10, Pressures: map[signal.Kind]signal.PressureState{}}
	remote := signal.InteroceptionState{TotalEmissions: 20, Pressures: map[signal.Kind]signal.PressureState{}}
	merged := Pull(local, remote)
	if merged.TotalEmissions != 20 {
		t.Errorf("expected max(10,20)=20, got %v", merged.TotalEmissions)
	}
}

func TestPullQuietUntilPrefersNonNil(t *testing.T) {
	now := time.Now()
	local := signal.InteroceptionState{Pressures: map[signal.Kind]signal.PressureState{}}
	remote := signal.InteroceptionState{QuietUntil: &now, Pressures: map[signal.Kind]signal.PressureState{}}

	merged := Pull(local, remote)
	if merged.QuietUntil == nil || !merged.QuietUntil.Equal(now) {
		t.Errorf("expected non-nil remote quiet_until to win, got %v", merged.QuietUntil)
	}
}

func TestPullIsIdempotent(t *testing.T) {
	now := time.Now()
	local := stateAt(now.Add(-time.Minute), 0.4, map[string]int{"a": 1})
	remote := stateAt(now, 0.7, map[string]int{"b": 2})

	once := Pull(local, remote)
	twice := Pull(once, remote)

	onceJSON, _ := EncodeBody(once)
	twiceJSON, _ := EncodeBody(twice)
	if onceJSON != twiceJSON {
		t.Errorf("Pull must be idempotent:\nonce=%s\ntwice=%s", onceJSON, twiceJSON)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	st := stateAt(now, 0.55, map[string]int{"bsky": 1})
	st.LastWake = now
	st.TotalEmissions = 7

	body, err := EncodeBody(st)
	if err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	decoded, err := DecodeBody(body)
	if err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if decoded.TotalEmissions != 7 {
		t.Errorf("round trip lost TotalEmissions: %+v", decoded)
	}
	if !decoded.LastWake.Equal(now) {
		t.Errorf("round trip lost LastWake: got %v want %v", decoded.LastWake, now)
	}
}

func TestDecodeBodyRejectsMissingSentinel(t *testing.T) {
	if _, err := DecodeBody(`{"total_emissions":1}`); err == nil {
		t.Error("expected error for body without sentinel prefix")
	}
}
