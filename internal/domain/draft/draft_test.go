package draft

import (
	"testing"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/action"
)

func TestNewIDIsOpaqueAndFileSafe(t *testing.T) {
	id := NewID()
	if len(id) != 12 {
		t.Fatalf("expected 12-char id, got %q (%d)", id, len(id))
	}
	for _, r := range id {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			t.Fatalf("id %q contains non-alphanumeric rune %q", id, r)
		}
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("collision on id %q", id)
		}
		seen[id] = true
	}
}

func TestNewFromCandidate(t *testing.T) {
	now := time.Now()
	c := action.Candidate{Kind: action.Reply, TargetURI: "at://x", Confidence: 0.8}
	d := New(c, now)
	if d.Status != StatusDraft {
		t.Errorf("expected StatusDraft, got %v", d.Status)
	}
	if d.ID == "" {
		t.Error("expected a non-empty id")
	}
	if d.CreatedAt != now || d.UpdatedAt != now {
		t.Error("expected created/updated to equal now")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	now := time.Now()
	d := New(action.Candidate{Kind: action.Post}, now)

	queued := d.MarkQueued("medium_salience", now.Add(time.Second))
	if queued.Status != StatusQueued || queued.QueueReason != "medium_salience" {
		t.Errorf("unexpected queued state: %+v", queued)
	}
	if queued.Status.IsTerminal() {
		t.Error("queued is not terminal")
	}

	committed := queued.MarkCommitted("at://external/1", now.Add(2*time.Second))
	if committed.Status != StatusCommitted || committed.ExternalURI != "at://external/1" {
		t.Errorf("unexpected committed state: %+v", committed)
	}
	if !committed.Status.IsTerminal() {
		t.Error("committed must be terminal")
	}

	aborted := d.MarkAborted("confidence_below_threshold", now)
	if aborted.Status != StatusAborted || !aborted.Status.IsTerminal() {
		t.Errorf("unexpected aborted state: %+v", aborted)
	}

	errored := d.MarkError("commit_failed", now)
	if errored.Status != StatusError || !errored.Status.IsTerminal() {
		t.Errorf("unexpected error state: %+v", errored)
	}
}
