// Package noop provides the default Observer and CandidateProposer a
// deployment runs with until it registers real platform glue (spec.md
// §1 Non-goals: "does not implement the wire protocols of the
// downstream services" — this package only exercises the contracts
// those wire protocols would otherwise fill). Observer.Observe returns
// an empty observation decorated with whatever forum messages have
// queued since the last call; Proposer.Propose returns no candidates,
// which the pipeline runner's own fallback already turns into a
// single IGNORE (internal/port/proposer.FallbackIgnore).
package noop

import (
	"context"
	"log/slog"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	domainmemory "github.com/quietsignal/persona-core/internal/domain/memory"
	"github.com/quietsignal/persona-core/internal/domain/observation"
	"github.com/quietsignal/persona-core/internal/port/stateprovider"
)

// ForumDrainer supplies any agent-to-agent forum messages queued since
// the last Observe call; *a2a.Handler satisfies this.
type ForumDrainer interface {
	Drain() []observation.ForumMessage
}

// Observer is the default observer: no platform notifications, just
// whatever arrived over the forum surface.
type Observer struct {
	Forum ForumDrainer
}

func (o *Observer) Observe(_ context.Context, _ agentstate.State) (observation.Observation, error) {
	obs := observation.Observation{}
	if o.Forum != nil {
		obs.Local.ForumMessages = o.Forum.Drain()
	}
	return obs, nil
}

// Proposer is the default candidate proposer: it proposes nothing,
// relying on the runner's built-in IGNORE fallback.
type Proposer struct{}

func (Proposer) Propose(_ context.Context, _ observation.Observation, _ agentstate.State) ([]action.Candidate, error) {
	return nil, nil
}

// Provider is the default external state provider: it reports neutral
// readings on every method, so every limbic boost computes to zero
// until a deployment wires a real stateprovider.Provider for its
// interaction surface.
type Provider struct{}

func (Provider) PendingNotifications(_ context.Context) (stateprovider.PendingCounts, error) {
	return stateprovider.Neutral, nil
}

func (Provider) ContextUsage(_ context.Context) (float64, error) { return 0, nil }

func (Provider) TimeSinceLastAction(_ context.Context) (float64, error) { return 0, nil }

func (Provider) ErrorCountLastHour(_ context.Context) (int, error) { return 0, nil }

func (Provider) IsHumanActive(_ context.Context) (bool, error) { return false, nil }

func (Provider) OutputStatsSnapshot(_ context.Context) (stateprovider.OutputStats, error) {
	return stateprovider.OutputStats{}, nil
}

// MemoryWriter is the default memory surface: it logs the write rather
// than discarding it silently, since a dropped memory write with no
// trace at all would be harder to diagnose than a no-op that says so.
type MemoryWriter struct{}

func (MemoryWriter) Write(_ context.Context, req domainmemory.WriteRequest) error {
	slog.Info("memory write: no memory surface configured, logging only",
		"kind", req.Kind, "block", req.Block, "text", req.Text)
	return nil
}
