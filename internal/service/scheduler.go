package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/quietsignal/persona-core/internal/adapter/otel"
	"github.com/quietsignal/persona-core/internal/domain/limbic"
	"github.com/quietsignal/persona-core/internal/domain/pipeline"
	"github.com/quietsignal/persona-core/internal/domain/schedule"
	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/port/stateprovider"
	"github.com/quietsignal/persona-core/internal/port/store"
)

// Scheduler drives the limbic tick loop of spec.md §4.1: on every tick
// it reads the external state provider, runs limbic.Tick, persists the
// result, mirrors quiet_until (and, every MirrorFullEveryN ticks, the
// full interoception state) against the remote passage store, and
// dispatches any emitted signal into the pipeline runner.
type Scheduler struct {
	Configs  []signal.Config
	Interop  store.InteroceptionStore
	Provider stateprovider.Provider
	Mirror   *StateMirror
	Runner   *pipeline.Runner
	Quiet    *schedule.QuietWindow

	TickInterval     time.Duration
	MirrorFullEveryN int
	QueueRunnerLimit int

	Rng *rand.Rand
	Now func() time.Time

	tickCount int
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) rng() *rand.Rand {
	if s.Rng != nil {
		return s.Rng
	}
	s.Rng = rand.New(rand.NewSource(s.now().UnixNano()))
	return s.Rng
}

// Run blocks ticking on TickInterval until ctx is cancelled. Per
// spec.md §5, shutdown is only observed between ticks, never mid-tick.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.TickInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("limbic scheduler: stopping")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs exactly one scheduler cycle: this is also the entrypoint
// the CLI's "run scheduler once" subcommand calls directly.
func (s *Scheduler) Tick(ctx context.Context) {
	ctx, span := otel.StartTickSpan(ctx)
	defer span.End()

	now := s.now()
	s.tickCount++

	if err := s.syncQuiet(ctx); err != nil {
		slog.Warn("limbic scheduler: quiet sync failed", "error", err)
	}

	prev, err := s.Interop.Load(ctx)
	if err != nil {
		slog.Error("limbic scheduler: load interoception state failed", "error", err)
		return
	}

	if s.Quiet != nil {
		if inWindow, end := s.Quiet.Contains(now); inWindow {
			u := end
			prev.QuietUntil = &u
		}
	}

	if s.mirrorFullDue() {
		if err := s.syncFull(ctx); err != nil {
			slog.Warn("limbic scheduler: full mirror pull failed", "error", err)
		}
		prev, err = s.Interop.Load(ctx)
		if err != nil {
			slog.Error("limbic scheduler: reload interoception state after mirror pull failed", "error", err)
			return
		}
		if s.Quiet != nil {
			if inWindow, end := s.Quiet.Contains(now); inWindow {
				u := end
				prev.QuietUntil = &u
			}
		}
	}

	boosts := limbic.ComputeBoosts(ctx, s.Provider, prev, now)
	next, result := limbic.Tick(prev, s.Configs, boosts, now, s.rng())

	if err := s.Interop.Save(ctx, next); err != nil {
		slog.Error("limbic scheduler: save interoception state failed", "error", err)
		return
	}

	if result.QuietSuppressed {
		slog.Debug("limbic scheduler: tick suppressed, quiet mode active")
		return
	}

	if !result.Emitted {
		slog.Debug("limbic scheduler: tick produced no emission", "pending_total", result.PendingTotal)
		return
	}

	slog.Info("limbic scheduler: signal emitted",
		"signal", result.Signal, "reason", result.Reason, "forced", result.Forced,
		"pressure", result.Pressure)

	if err := s.push(ctx); err != nil {
		slog.Warn("limbic scheduler: push after emission failed", "error", err)
	}

	s.dispatch(ctx, result)
}

func (s *Scheduler) mirrorFullDue() bool {
	n := s.MirrorFullEveryN
	if n <= 0 {
		n = 5
	}
	return s.tickCount%n == 0
}

func (s *Scheduler) syncQuiet(ctx context.Context) error {
	if s.Mirror == nil {
		return nil
	}
	return s.Mirror.PullQuiet(ctx)
}

func (s *Scheduler) syncFull(ctx context.Context) error {
	if s.Mirror == nil {
		return nil
	}
	return s.Mirror.PullFull(ctx)
}

func (s *Scheduler) push(ctx context.Context) error {
	if s.Mirror == nil {
		return nil
	}
	return s.Mirror.Push(ctx)
}

// dispatch routes an emitted signal to either the pipeline runner
// (every emittable signal triggers one pipeline.Run, spec.md §4.1 "An
// emission's only effect is to trigger the pipeline") or, should the
// runner be unset (e.g. a scheduler-only deployment), logs the
// generated prompt as a no-op observation point.
func (s *Scheduler) dispatch(ctx context.Context, result limbic.Result) {
	if s.Runner == nil {
		prompt := limbic.Prompt(result.Signal, limbic.PromptContext{
			Pressure:         result.Pressure,
			PendingTotal:     result.PendingTotal,
			SecondsSinceLast: result.SecondsSinceLast,
			Forced:           result.Forced,
			Reason:           result.Reason,
		})
		slog.Info("limbic scheduler: no pipeline runner configured, dropping emission", "prompt", prompt)
		return
	}

	runResult, err := s.Runner.Run(ctx)
	if err != nil {
		slog.Error("pipeline run failed", "signal", result.Signal, "error", err)
		return
	}
	slog.Info("pipeline run complete", "signal", result.Signal, "outcome", runResult.Outcome, "draft_id", runResult.DraftID)
}

// RunQueueOnce drains the outbox queue once, for the CLI's "run queue
// once" subcommand (spec.md §4.2 "Queue runner", §6.5).
func (s *Scheduler) RunQueueOnce(ctx context.Context) (pipeline.RunResult, error) {
	if s.Runner == nil {
		return pipeline.RunResult{}, fmt.Errorf("limbic scheduler: no pipeline runner configured")
	}
	limit := s.QueueRunnerLimit
	if limit <= 0 {
		limit = 10
	}
	return s.Runner.RunQueue(ctx, limit)
}
