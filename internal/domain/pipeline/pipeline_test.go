package pipeline

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/decision"
	"github.com/quietsignal/persona-core/internal/domain/draft"
	"github.com/quietsignal/persona-core/internal/domain/observation"
	"github.com/quietsignal/persona-core/internal/domain/policy"
	"github.com/quietsignal/persona-core/internal/port/executor"
)

type fakeStates struct{ s agentstate.State }

func (f *fakeStates) Load(context.Context) (agentstate.State, error) { return f.s, nil }
func (f *fakeStates) Save(_ context.Context, s agentstate.State) error {
	f.s = s
	return nil
}

type fakeOutbox struct {
	drafts map[string]draft.Draft
}

func newFakeOutbox() *fakeOutbox { return &fakeOutbox{drafts: map[string]draft.Draft{}} }

func (f *fakeOutbox) SaveDraft(_ context.Context, d draft.Draft) error {
	f.drafts[d.ID] = d
	return nil
}
func (f *fakeOutbox) LoadDraft(_ context.Context, id string) (draft.Draft, error) {
	return f.drafts[id], nil
}
func (f *fakeOutbox) LoadQueued(_ context.Context, limit int) ([]draft.Draft, error) {
	var out []draft.Draft
	for _, d := range f.drafts {
		if d.Status == draft.StatusQueued {
			out = append(out, d)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
func (f *fakeOutbox) GC(context.Context) (int, error) { return 0, nil }

type fakeTelemetry struct{ events []string }

func (f *fakeTelemetry) Emit(_ context.Context, event string, _ map[string]any) error {
	f.events = append(f.events, event)
	return nil
}

type fakeObserver struct{ obs observation.Observation }

func (f *fakeObserver) Observe(context.Context, agentstate.State) (observation.Observation, error) {
	return f.obs, nil
}

type fakeProposer struct {
	cands []action.Candidate
	err   error
}

func (f *fakeProposer) Propose(context.Context, observation.Observation, agentstate.State) ([]action.Candidate, error) {
	return f.cands, f.err
}

type fakeExecutor struct {
	result executor.CommitResult
	err    error
}

func (f *fakeExecutor) Commit(context.Context, draft.Draft) (executor.CommitResult, error) {
	return f.result, f.err
}

func newRunner(t *testing.T) (*Runner, *fakeStates, *fakeOutbox, *fakeTelemetry, *fakeExecutor) {
	t.Helper()
	states := &fakeStates{s: agentstate.New()}
	outbox := newFakeOutbox()
	telemetry := &fakeTelemetry{}
	exec := &fakeExecutor{result: executor.CommitResult{Success: true, ExternalURI: "at://persona/post/1"}}
	r := &Runner{
		Observer:   &fakeObserver{},
		Proposer:   &fakeProposer{},
		Executor:   exec,
		States:     states,
		Outbox:     outbox,
		Telemetry:  telemetry,
		Policy:     policy.Default(),
		Weights:    decision.DefaultWeights(),
		Thresholds: decision.DefaultThresholds(),
		Selection:  decision.DefaultSelectionParams(),
		Rng:        rand.New(rand.NewSource(1)),
		Now:        func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) },
	}
	return r, states, outbox, telemetry, exec
}

func highSalienceCandidate() action.Candidate {
	return action.Candidate{
		Kind:       action.Reply,
		TargetURI:  "at://user/post/1",
		Text:       "that's a fair point, thanks for clarifying",
		Confidence: 0.9,
		Salience:   0.9,
		Utility: action.UtilityComponents{
			DeltaU: 0.8, VOI: 0.5, Optionality: 0.2, Cost: 0.05, Risk: 0.05, Fatigue: 0.05,
		},
		Metadata: action.Metadata{Actor: "alice", RootURI: "at://user/post/root"},
	}
}

func TestRunNoActionsWhenProposerEmpty(t *testing.T) {
	r, _, _, telemetry, _ := newRunner(t)
	r.Proposer.(*fakeProposer).cands = nil

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeIgnored && res.Outcome != OutcomeNoActions {
		t.Errorf("expected fallback ignore or no_actions, got %v", res.Outcome)
	}
	_ = telemetry
}

func TestRunCommitsHighSalienceCandidate(t *testing.T) {
	r, states, outbox, _, exec := newRunner(t)
	r.Proposer.(*fakeProposer).cands = []action.Candidate{highSalienceCandidate()}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCommitted {
		t.Fatalf("expected committed, got %v (reasons %v)", res.Outcome, res.Reasons)
	}
	d := outbox.drafts[res.DraftID]
	if d.Status != draft.StatusCommitted {
		t.Errorf("expected draft committed, got %v", d.Status)
	}
	if d.ExternalURI != exec.result.ExternalURI {
		t.Errorf("expected external uri recorded, got %q", d.ExternalURI)
	}
	if states.s.LastCommitAt.IsZero() {
		t.Error("expected last_commit_at to be set")
	}
}

func TestRunMediumSalienceHoldsWithoutCommit(t *testing.T) {
	r, _, outbox, _, _ := newRunner(t)
	c := highSalienceCandidate()
	c.Salience = 0.5
	c.Utility = action.UtilityComponents{DeltaU: 0.3, VOI: 0.1}
	r.Proposer.(*fakeProposer).cands = []action.Candidate{c}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeQueued {
		t.Fatalf("expected queued, got %v", res.Outcome)
	}
	d := outbox.drafts[res.DraftID]
	if d.Status != draft.StatusQueued || d.QueueReason != "medium_salience" {
		t.Errorf("expected medium_salience queue hold, got %+v", d)
	}
}

func TestRunSalienceTooLowSkipsNonLike(t *testing.T) {
	r, _, _, _, _ := newRunner(t)
	c := highSalienceCandidate()
	c.Salience = 0.1
	c.Utility = action.UtilityComponents{DeltaU: 0.05, Risk: 0.3}
	r.Proposer.(*fakeProposer).cands = []action.Candidate{c}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeSalienceTooLow {
		t.Fatalf("expected salience_too_low, got %v", res.Outcome)
	}
}

func TestRunPreflightAbortsLowConfidence(t *testing.T) {
	r, _, outbox, _, _ := newRunner(t)
	c := highSalienceCandidate()
	c.Confidence = 0.1
	r.Proposer.(*fakeProposer).cands = []action.Candidate{c}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeAborted {
		t.Fatalf("expected aborted, got %v (reasons %v)", res.Outcome, res.Reasons)
	}
	d := outbox.drafts[res.DraftID]
	if d.Status != draft.StatusAborted {
		t.Errorf("expected draft aborted, got %v", d.Status)
	}
}

func TestRunCommitFailureMarksError(t *testing.T) {
	r, _, outbox, _, exec := newRunner(t)
	exec.result = executor.CommitResult{Success: false, Error: "rate limited"}
	r.Proposer.(*fakeProposer).cands = []action.Candidate{highSalienceCandidate()}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCommitFailed {
		t.Fatalf("expected commit_failed, got %v", res.Outcome)
	}
	d := outbox.drafts[res.DraftID]
	if d.Status != draft.StatusError {
		t.Errorf("expected draft error, got %v", d.Status)
	}
}

func TestRunCommitmentGateRewritesToQueue(t *testing.T) {
	r, states, _, _, _ := newRunner(t)
	states.s.OpenCommitments = []agentstate.OpenCommitment{
		{ID: "c1", RootURI: "at://user/post/other-root"},
	}
	c := highSalienceCandidate()
	r.Proposer.(*fakeProposer).cands = []action.Candidate{c}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeQueued && res.Outcome != OutcomeIgnored {
		t.Fatalf("expected the commitment gate to reroute to queue, got %v", res.Outcome)
	}
}

func TestRunConsentRuleBlocksUnconsentedRepeatActor(t *testing.T) {
	r, states, _, _, _ := newRunner(t)
	states.s.PerUserCounts["bob"] = 2
	c := highSalienceCandidate()
	c.Metadata.Actor = "bob"
	r.Proposer.(*fakeProposer).cands = []action.Candidate{c}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome == OutcomeCommitted {
		t.Fatalf("expected consent rule to block commit for unconsented repeat actor")
	}
}

func TestRunQueueCommitsFirstPassingDraft(t *testing.T) {
	r, _, outbox, _, _ := newRunner(t)
	d := draft.New(highSalienceCandidate(), r.now())
	d = d.MarkQueued("medium_salience", r.now())
	_ = outbox.SaveDraft(context.Background(), d)

	res, err := r.RunQueue(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCommitted {
		t.Fatalf("expected committed, got %v", res.Outcome)
	}
}

func TestRunQueueAbortsFailingDraftAndContinues(t *testing.T) {
	r, _, outbox, _, _ := newRunner(t)

	bad := draft.New(highSalienceCandidate(), r.now())
	bad.Confidence = 0.01
	bad = bad.MarkQueued("medium_salience", r.now())
	_ = outbox.SaveDraft(context.Background(), bad)

	good := draft.New(highSalienceCandidate(), r.now())
	good.TargetURI = "at://user/post/2"
	good = good.MarkQueued("medium_salience", r.now())
	_ = outbox.SaveDraft(context.Background(), good)

	res, err := r.RunQueue(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCommitted {
		t.Fatalf("expected one of the two drafts to commit, got %v", res.Outcome)
	}
}

