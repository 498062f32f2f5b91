package limbic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/port/stateprovider"
)

type fakeProvider struct {
	pending     stateprovider.PendingCounts
	pendingErr  error
	usage       float64
	usageErr    error
	errCount    int
	errCountErr error
	idle        float64
	idleErr     error
	humanActive bool
	stats       stateprovider.OutputStats
	statsErr    error
}

func (f fakeProvider) PendingNotifications(context.Context) (stateprovider.PendingCounts, error) {
	return f.pending, f.pendingErr
}
func (f fakeProvider) ContextUsage(context.Context) (float64, error) { return f.usage, f.usageErr }
func (f fakeProvider) TimeSinceLastAction(context.Context) (float64, error) {
	return f.idle, f.idleErr
}
func (f fakeProvider) ErrorCountLastHour(context.Context) (int, error) {
	return f.errCount, f.errCountErr
}
func (f fakeProvider) IsHumanActive(context.Context) (bool, error) { return f.humanActive, nil }
func (f fakeProvider) OutputStatsSnapshot(context.Context) (stateprovider.OutputStats, error) {
	return f.stats, f.statsErr
}

func TestComputeBoostsSocialCapped(t *testing.T) {
	p := fakeProvider{pending: stateprovider.PendingCounts{Total: 100, PerPlatform: map[string]int{"x": 100}}}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	if b.Social != 0.3 {
		t.Errorf("SOCIAL boost should cap at 0.3, got %v", b.Social)
	}
	if b.KnownPending["x"] != 100 {
		t.Error("known_pending must be stored regardless of cap")
	}
}

func TestComputeBoostsMaintenanceHighUsageBonus(t *testing.T) {
	p := fakeProvider{usage: 0.75}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	want := (0.75-0.5)*0.5 + 0.2
	if b.Maintenance != want {
		t.Errorf("MAINTENANCE boost = %v, want %v", b.Maintenance, want)
	}
}

func TestComputeBoostsMaintenanceBelowThreshold(t *testing.T) {
	p := fakeProvider{usage: 0.4}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	if b.Maintenance != 0 {
		t.Errorf("MAINTENANCE boost should be 0 below 0.5 usage, got %v", b.Maintenance)
	}
}

func TestComputeBoostsAnxietyCapped(t *testing.T) {
	p := fakeProvider{errCount: 100}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	if b.Anxiety != 0.4 {
		t.Errorf("ANXIETY boost should cap at 0.4, got %v", b.Anxiety)
	}
}

func TestComputeBoostsBoredomIdleTiers(t *testing.T) {
	now := time.Now()
	p := fakeProvider{idle: (3 * time.Hour).Seconds()}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), now)
	if b.Boredom != 0.1 {
		t.Errorf("BOREDOM boost at 3h idle = %v, want 0.1", b.Boredom)
	}

	p.idle = (5 * time.Hour).Seconds()
	b = ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), now)
	if b.Boredom != 0.3 {
		t.Errorf("BOREDOM boost at 5h idle = %v, want 0.3", b.Boredom)
	}
}

func TestComputeBoostsBoredomSuppressedAfterRecentEmit(t *testing.T) {
	now := time.Now()
	state := signal.New(signal.DefaultConfigs())
	ps := state.Pressures[signal.Boredom]
	ps.LastEmitted = now.Add(-10 * time.Minute)
	state.Pressures[signal.Boredom] = ps

	p := fakeProvider{idle: (5 * time.Hour).Seconds()}
	b := ComputeBoosts(context.Background(), p, state, now)
	if b.Boredom != 0 {
		t.Errorf("BOREDOM boost should be suppressed shortly after emission, got %v", b.Boredom)
	}
}

func TestComputeBoostsDriftDeviation(t *testing.T) {
	p := fakeProvider{stats: stateprovider.OutputStats{AvgLength: 200, BaselineLength: 100, SampleCount: 10}}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	if b.Drift != 0.3 {
		t.Errorf("DRIFT boost = %v, want 0.3 for 100%% deviation", b.Drift)
	}
}

func TestComputeBoostsDriftWithinTolerance(t *testing.T) {
	p := fakeProvider{stats: stateprovider.OutputStats{AvgLength: 110, BaselineLength: 100, SampleCount: 10}}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	if b.Drift != 0 {
		t.Errorf("DRIFT boost should be 0 within 30%% tolerance, got %v", b.Drift)
	}
}

func TestComputeBoostsProviderErrorsAreNeutral(t *testing.T) {
	p := fakeProvider{
		pendingErr:  errors.New("down"),
		usageErr:    errors.New("down"),
		errCountErr: errors.New("down"),
		idleErr:     errors.New("down"),
		statsErr:    errors.New("down"),
	}
	b := ComputeBoosts(context.Background(), p, signal.New(signal.DefaultConfigs()), time.Now())
	if b.Social != 0 || b.Maintenance != 0 || b.Anxiety != 0 || b.Boredom != 0 || b.Drift != 0 {
		t.Errorf("all-failing provider must yield zero boosts, got %+v", b)
	}
}
