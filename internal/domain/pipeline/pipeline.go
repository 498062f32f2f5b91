// Package pipeline implements the Observe→Decide→Draft→Preflight→Commit
// runner of spec.md §4.2: the one entry point that may turn an
// observation into a committed side effect, and the queue runner that
// drains previously-queued drafts.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/decision"
	"github.com/quietsignal/persona-core/internal/domain/draft"
	domainmemory "github.com/quietsignal/persona-core/internal/domain/memory"
	"github.com/quietsignal/persona-core/internal/domain/policy"
	"github.com/quietsignal/persona-core/internal/domain/preflight"
	"github.com/quietsignal/persona-core/internal/port/executor"
	memoryport "github.com/quietsignal/persona-core/internal/port/memory"
	"github.com/quietsignal/persona-core/internal/port/observer"
	"github.com/quietsignal/persona-core/internal/port/proposer"
	"github.com/quietsignal/persona-core/internal/port/store"
)

// Outcome is the closed set of terminal reasons a run reports via
// telemetry (spec.md §4.2 steps 2,5,6,7,8,9,10).
type Outcome string

const (
	OutcomeCommitted      Outcome = "committed"
	OutcomeQueued         Outcome = "queued"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeAborted        Outcome = "aborted"
	OutcomeRequireHuman   Outcome = "require_human"
	OutcomeNoActions      Outcome = "no_actions"
	OutcomeJBelowThreshold Outcome = "j_below_threshold"
	OutcomeSalienceTooLow Outcome = "salience_too_low"
	OutcomeCommitFailed   Outcome = "commit_failed"
)

// RunResult summarizes one pipeline invocation for the caller/host.
type RunResult struct {
	Outcome Outcome
	DraftID string
	Reasons []string
}

// Runner wires every external dependency the Observe→Decide→Draft→
// Preflight→Commit algorithm needs. Every field is a port; the runner
// itself holds no network or file-system code.
type Runner struct {
	Observer  observer.Observer
	Proposer  proposer.CandidateProposer
	Executor  executor.ActionExecutor
	States    store.AgentStateStore
	Outbox    store.OutboxStore
	Telemetry store.TelemetrySink
	Sync      store.SyncSnapshotStore
	Memory    memoryport.MemoryWriter

	Policy        policy.Profile
	Weights       decision.Weights
	Thresholds    decision.Thresholds
	Selection     decision.SelectionParams
	Summarize     domainmemory.SummarizeThreshold
	EventsSinceSummary int
	TimeSinceSummary   time.Duration

	Rng *rand.Rand
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) emit(ctx context.Context, event string, fields map[string]any) {
	if r.Telemetry == nil {
		return
	}
	_ = r.Telemetry.Emit(ctx, event, fields)
}

// Run performs one full pipeline invocation. It returns at most one
// commit; every other path is a documented early return.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	now := r.now()

	state, err := r.States.Load(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: load agent state: %w", err)
	}

	obs, err := r.Observer.Observe(ctx, state)
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: observe: %w", err)
	}
	state.RecordPoll(obs.PollHash)
	if err := r.States.Save(ctx, state); err != nil {
		return RunResult{}, fmt.Errorf("pipeline: persist state after observe: %w", err)
	}

	cands, err := r.Proposer.Propose(ctx, obs, state)
	if err != nil || len(cands) == 0 {
		cands = proposer.FallbackIgnore()
	}
	if len(cands) > proposer.MaxCandidates {
		cands = cands[:proposer.MaxCandidates]
	}
	cands = r.applyConsent(cands, state)
	if len(cands) == 0 {
		r.emit(ctx, "no_actions", nil)
		return RunResult{Outcome: OutcomeNoActions}, nil
	}

	scored := decision.ScoreAll(cands, r.Weights)
	chosen := decision.Pick(scored, r.Selection, r.Rng)

	chosen = r.applyCommitmentGate(chosen, state)

	if chosen.J < r.Thresholds.LowActionJ {
		r.emit(ctx, "j_below_threshold", map[string]any{"j": chosen.J})
		return RunResult{Outcome: OutcomeJBelowThreshold}, nil
	}

	if chosen.Candidate.Kind == action.Ignore || chosen.Candidate.Kind == action.Queue {
		if chosen.Candidate.Metadata.NotificationID != "" {
			state.MarkNotificationProcessed(chosen.Candidate.Metadata.NotificationID)
		}
		if err := r.States.Save(ctx, state); err != nil {
			return RunResult{}, fmt.Errorf("pipeline: persist state after ignore/queue: %w", err)
		}
		outcome := OutcomeIgnored
		if chosen.Candidate.Kind == action.Queue {
			outcome = OutcomeQueued
		}
		r.emit(ctx, string(outcome), map[string]any{"kind": chosen.Candidate.Kind})
		return RunResult{Outcome: outcome}, nil
	}

	salience := chosen.Candidate.Salience
	if salience < r.Thresholds.LowSalience && chosen.Candidate.Kind != action.Like {
		r.emit(ctx, "salience_too_low", map[string]any{"salience": salience})
		return RunResult{Outcome: OutcomeSalienceTooLow}, nil
	}

	d := draft.New(chosen.Candidate, now)

	if salience < r.Thresholds.HighSalience {
		if err := r.Outbox.SaveDraft(ctx, d); err != nil {
			return RunResult{}, fmt.Errorf("pipeline: save medium-salience draft: %w", err)
		}
		d = d.MarkQueued("medium_salience", now)
		if err := r.Outbox.SaveDraft(ctx, d); err != nil {
			return RunResult{}, fmt.Errorf("pipeline: save medium-salience draft: %w", err)
		}
		r.emit(ctx, "medium_salience", map[string]any{"draft_id": d.ID})
		return RunResult{Outcome: OutcomeQueued, DraftID: d.ID}, nil
	}

	if err := r.Outbox.SaveDraft(ctx, d); err != nil {
		return RunResult{}, fmt.Errorf("pipeline: save draft: %w", err)
	}

	var sync *preflight.SyncSnapshot
	if r.Sync != nil {
		sync, _ = r.Sync.Load(ctx)
	}

	pf := preflight.Validate(d, state, r.Policy, sync, now)
	if !pf.Passed {
		reason := strings.Join(pf.Reasons, ";")
		d = d.MarkAborted(reason, now)
		if err := r.Outbox.SaveDraft(ctx, d); err != nil {
			return RunResult{}, fmt.Errorf("pipeline: save aborted draft: %w", err)
		}
		outcome := OutcomeAborted
		if pf.RequireHuman {
			outcome = OutcomeRequireHuman
		}
		r.emit(ctx, "preflight_failed", map[string]any{"draft_id": d.ID, "reasons": pf.Reasons})
		return RunResult{Outcome: outcome, DraftID: d.ID, Reasons: pf.Reasons}, nil
	}

	result, err := r.commit(ctx, d, &state, now)
	if err != nil {
		return RunResult{}, err
	}

	if err := r.States.Save(ctx, state); err != nil {
		return RunResult{}, fmt.Errorf("pipeline: persist state after run: %w", err)
	}

	r.maybeSummarize(ctx, now)
	r.emit(ctx, "run_complete", map[string]any{"outcome": result.Outcome, "draft_id": result.DraftID})
	return result, nil
}

// RunQueue drains up to limit queued drafts, preflighting and
// committing each in turn. The first successful commit is terminal
// for the run (spec.md §4.2 "Queue runner").
func (r *Runner) RunQueue(ctx context.Context, limit int) (RunResult, error) {
	now := r.now()

	state, err := r.States.Load(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: load agent state: %w", err)
	}

	queued, err := r.Outbox.LoadQueued(ctx, limit)
	if err != nil {
		return RunResult{}, fmt.Errorf("pipeline: load queued drafts: %w", err)
	}

	var sync *preflight.SyncSnapshot
	if r.Sync != nil {
		sync, _ = r.Sync.Load(ctx)
	}

	for _, d := range queued {
		pf := preflight.Validate(d, state, r.Policy, sync, now)
		if !pf.Passed {
			reason := strings.Join(pf.Reasons, ";")
			d = d.MarkAborted(reason, now)
			if err := r.Outbox.SaveDraft(ctx, d); err != nil {
				return RunResult{}, fmt.Errorf("pipeline: save aborted queued draft: %w", err)
			}
			r.emit(ctx, "preflight_failed", map[string]any{"draft_id": d.ID, "reasons": pf.Reasons})
			continue
		}

		result, err := r.commit(ctx, d, &state, now)
		if err != nil {
			return RunResult{}, err
		}
		if err := r.States.Save(ctx, state); err != nil {
			return RunResult{}, fmt.Errorf("pipeline: persist state after queue commit: %w", err)
		}
		if result.Outcome == OutcomeCommitted {
			return result, nil
		}
	}

	if err := r.States.Save(ctx, state); err != nil {
		return RunResult{}, fmt.Errorf("pipeline: persist state after queue run: %w", err)
	}
	return RunResult{Outcome: OutcomeNoActions}, nil
}

// commit dispatches d through the executor and applies every state
// mutation a successful commit makes (spec.md §4.2 step 10).
func (r *Runner) commit(ctx context.Context, d draft.Draft, state *agentstate.State, now time.Time) (RunResult, error) {
	res, err := r.Executor.Commit(ctx, d)
	if err != nil || !res.Success {
		msg := res.Error
		if msg == "" && err != nil {
			msg = err.Error()
		}
		d = d.MarkError(msg, now)
		if saveErr := r.Outbox.SaveDraft(ctx, d); saveErr != nil {
			return RunResult{}, fmt.Errorf("pipeline: save errored draft: %w", saveErr)
		}
		r.emit(ctx, "commit_failed", map[string]any{"draft_id": d.ID, "error": msg})
		return RunResult{Outcome: OutcomeCommitFailed, DraftID: d.ID, Reasons: []string{msg}}, nil
	}

	d = d.MarkCommitted(res.ExternalURI, now)
	if err := r.Outbox.SaveDraft(ctx, d); err != nil {
		return RunResult{}, fmt.Errorf("pipeline: save committed draft: %w", err)
	}

	state.RecordCommit(d.Metadata.Actor, d.TargetURI, d.Metadata.RootURI, d.Text, string(d.Type), now)
	r.emit(ctx, "committed", map[string]any{"draft_id": d.ID, "external_uri": res.ExternalURI})
	return RunResult{Outcome: OutcomeCommitted, DraftID: d.ID}, nil
}

// applyCommitmentGate implements spec.md §4.2 step 4: when there are
// open commitments and the chosen action doesn't reference one of
// them via REPLY/QUOTE, rewrite it to a QUEUE of the same payload.
func (r *Runner) applyCommitmentGate(chosen action.Scored, state agentstate.State) action.Scored {
	if len(state.OpenCommitments) == 0 {
		return chosen
	}
	c := chosen.Candidate
	isReplyOrQuote := c.Kind == action.Reply || c.Kind == action.Quote
	referencesCommitment := state.HasOpenCommitmentFor(c.Metadata.RootURI, c.TargetURI)
	if isReplyOrQuote && referencesCommitment {
		return chosen
	}
	c.Kind = action.Queue
	c.Intent = "queued_for_open_commitments"
	chosen.Candidate = c
	return chosen
}

// applyConsent runs the §6.3 consent rule against each candidate's own
// metadata actor.
func (r *Runner) applyConsent(cands []action.Candidate, state agentstate.State) []action.Candidate {
	out := make([]action.Candidate, 0, len(cands))
	for _, c := range cands {
		actor := c.Metadata.Actor
		isBot := c.IsBot()
		filtered := proposer.ApplyConsentRule([]action.Candidate{c}, state, actor, isBot)
		out = append(out, filtered...)
	}
	return out
}

// maybeSummarize emits an out-of-band memory write once the
// accumulated event/time counters cross the configured threshold
// (spec.md §3.6).
func (r *Runner) maybeSummarize(ctx context.Context, now time.Time) {
	if r.Memory == nil {
		return
	}
	r.EventsSinceSummary++
	ok, reason := r.Summarize.ShouldSummarize(r.EventsSinceSummary, r.TimeSinceSummary)
	if !ok {
		return
	}
	req := domainmemory.NewSummary(fmt.Sprintf("periodic summary (%s)", reason), []string{reason}, now)
	if err := r.Memory.Write(ctx, req); err == nil {
		r.EventsSinceSummary = 0
		r.TimeSinceSummary = 0
		r.emit(ctx, "memory_write", map[string]any{"reason": reason})
	}
}
