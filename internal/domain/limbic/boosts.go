package limbic

import (
	"context"
	"log/slog"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/port/stateprovider"
)

// boredomReinflationWindow is how long BOREDOM's idle boosts stay
// suppressed after it last emitted, so a wake doesn't immediately
// re-inflate the same pressure (spec.md §4.1 step 2, "suppresses
// re-inflation loops").
const boredomReinflationWindow = 1800 * time.Second

// ComputeBoosts implements spec.md §4.1 step 2: read the external state
// provider and turn its readings into the additive per-signal boosts
// Tick consumes. Each sub-reading fails independently — a provider
// error on one call zeroes only that boost, matching §6.2's "missing
// providers return neutral values".
func ComputeBoosts(ctx context.Context, p stateprovider.Provider, prev signal.InteroceptionState, now time.Time) Boosts {
	var b Boosts

	pending, err := p.PendingNotifications(ctx)
	if err != nil {
		slog.Warn("limbic: pending_notifications failed", "error", err)
		pending = stateprovider.Neutral
	}
	b.KnownPending = pending.PerPlatform
	b.Social = min(0.3, 0.05*float64(pending.Total))

	usage, err := p.ContextUsage(ctx)
	if err != nil {
		slog.Warn("limbic: context_usage failed", "error", err)
		usage = 0
	}
	if usage > 0.5 {
		b.Maintenance = (usage - 0.5) * 0.5
		if usage > 0.7 {
			b.Maintenance += 0.2
		}
	}

	errCount, err := p.ErrorCountLastHour(ctx)
	if err != nil {
		slog.Warn("limbic: error_count_last_hour failed", "error", err)
		errCount = 0
	}
	b.Anxiety = min(0.4, 0.1*float64(errCount))

	idleSeconds, err := p.TimeSinceLastAction(ctx)
	if err != nil {
		slog.Warn("limbic: time_since_last_action failed", "error", err)
		idleSeconds = 0
	}
	boredomPS := prev.Pressures[signal.Boredom]
	reinflating := !boredomPS.LastEmitted.IsZero() && now.Sub(boredomPS.LastEmitted) < boredomReinflationWindow
	if !reinflating {
		idle := time.Duration(idleSeconds * float64(time.Second))
		if idle > 2*time.Hour {
			b.Boredom = 0.1
			if idle > 4*time.Hour {
				b.Boredom = 0.1 + 0.2
			}
		}
	}

	stats, err := p.OutputStatsSnapshot(ctx)
	if err != nil {
		slog.Warn("limbic: output_stats failed", "error", err)
		stats = stateprovider.OutputStats{}
	}
	if stats.BaselineLength > 0 && stats.SampleCount > 0 {
		deviation := (stats.AvgLength - stats.BaselineLength) / stats.BaselineLength
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > 0.3 {
			b.Drift = deviation * 0.3
		}
	}

	return b
}
