// Package draft defines the outbox draft record: the only path through
// which a candidate action can reach a side effect (spec.md §3.3).
package draft

import (
	"crypto/rand"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/action"
)

// Status is the draft's place in its (at most one terminal) lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusQueued    Status = "queued"
	StatusCommitted Status = "committed"
	StatusAborted   Status = "aborted"
	StatusError     Status = "error"
)

// IsTerminal reports whether s is a terminal status (committed or
// aborted); error is treated as terminal for GC purposes but is kept
// distinct so telemetry can tell "validator rejected" from "bug".
func (s Status) IsTerminal() bool {
	return s == StatusCommitted || s == StatusAborted || s == StatusError
}

// Draft is a reversible, persistent record of a proposed action.
type Draft struct {
	ID          string          `json:"id"`
	Type        action.Kind     `json:"type"`
	TargetURI   string          `json:"target_uri,omitempty"`
	Text        string          `json:"text,omitempty"`
	Intent      string          `json:"intent,omitempty"`
	Constraints []string        `json:"constraints,omitempty"`
	Confidence  float64         `json:"confidence"`
	Salience    float64         `json:"salience"`
	RiskFlags   []string        `json:"risk_flags,omitempty"`
	AbortIf     []string        `json:"abort_if,omitempty"`
	Metadata    action.Metadata `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Status      Status          `json:"status"`
	ExternalURI string          `json:"external_uri,omitempty"`
	AbortReason string          `json:"abort_reason,omitempty"`
	QueueReason string          `json:"queue_reason,omitempty"`
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID returns an opaque 12-character draft id drawn from a lowercase
// alphanumeric alphabet. Drafts use this rather than google/uuid's
// canonical 36-char form because they are embedded in outbox file names,
// passage tags, and telemetry lines where a short, file-safe token reads
// better; randomness still comes from crypto/rand.
func NewID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the OS entropy source is broken;
		// there is no safe fallback that preserves unpredictability.
		panic("draft: crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}

// New creates a fresh draft in StatusDraft from a chosen candidate.
func New(c action.Candidate, now time.Time) Draft {
	return Draft{
		ID:          NewID(),
		Type:        c.Kind,
		TargetURI:   c.TargetURI,
		Text:        c.Text,
		Intent:      c.Intent,
		Constraints: c.Constraints,
		Confidence:  c.Confidence,
		Salience:    c.Salience,
		RiskFlags:   c.RiskFlags,
		AbortIf:     c.AbortIf,
		Metadata:    c.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      StatusDraft,
	}
}

// MarkQueued transitions the draft to StatusQueued with a reason note.
// Queued is not terminal: a later queue run may still commit or abort it.
func (d Draft) MarkQueued(reason string, now time.Time) Draft {
	d.Status = StatusQueued
	d.QueueReason = reason
	d.UpdatedAt = now
	return d
}

// MarkAborted transitions the draft to its terminal aborted state.
func (d Draft) MarkAborted(reason string, now time.Time) Draft {
	d.Status = StatusAborted
	d.AbortReason = reason
	d.UpdatedAt = now
	return d
}

// MarkCommitted transitions the draft to its terminal committed state.
func (d Draft) MarkCommitted(externalURI string, now time.Time) Draft {
	d.Status = StatusCommitted
	d.ExternalURI = externalURI
	d.UpdatedAt = now
	return d
}

// MarkError transitions the draft to its terminal error state.
func (d Draft) MarkError(reason string, now time.Time) Draft {
	d.Status = StatusError
	d.AbortReason = reason
	d.UpdatedAt = now
	return d
}
