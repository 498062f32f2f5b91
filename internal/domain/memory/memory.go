// Package memory implements the out-of-band memory write the pipeline
// runner emits once its cumulative telemetry since the last summary
// crosses a threshold (spec.md §3.6, §4.2 step 11). There is no
// recall/search surface here: that lives outside the core, against
// whatever store the host wires the MemoryWriter port to.
package memory

import (
	"errors"
	"time"
)

// Kind is the closed set of memory write shapes.
type Kind string

const (
	// KindSummary appends a recap of a window of runs; summaries never
	// overwrite one another.
	KindSummary Kind = "summary"
	// KindCore replaces one of a small fixed set of named core-memory
	// blocks (persona name, consented-user notes, running commitments).
	KindCore Kind = "core"
)

// CoreBlock names the fixed set of core-memory slots a KindCore write
// may target.
type CoreBlock string

const (
	BlockPersona          CoreBlock = "persona"
	BlockConsentedUsers   CoreBlock = "consented_users"
	BlockRunningCommitments CoreBlock = "running_commitments"
)

// WriteRequest is the payload handed to the MemoryWriter port.
type WriteRequest struct {
	Kind      Kind      `json:"kind"`
	Block     CoreBlock `json:"block,omitempty"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks a WriteRequest is well-formed before it reaches the
// port; callers should fail fast rather than let a malformed request
// reach the remote store.
func (r WriteRequest) Validate() error {
	if r.Kind != KindSummary && r.Kind != KindCore {
		return errors.New("memory: kind must be summary or core")
	}
	if r.Kind == KindCore && r.Block == "" {
		return errors.New("memory: core writes require a block")
	}
	if r.Text == "" {
		return errors.New("memory: text is required")
	}
	return nil
}

// SummarizeThreshold tunes when the runner should emit an out-of-band
// summary: every EventCount telemetry events, or every Window of
// wall-clock time, whichever comes first.
type SummarizeThreshold struct {
	EventCount int
	Window     time.Duration
}

// DefaultSummarizeThreshold matches the cadence the original Python
// implementation used for its periodic recap writes.
func DefaultSummarizeThreshold() SummarizeThreshold {
	return SummarizeThreshold{EventCount: 20, Window: 6 * time.Hour}
}

// ShouldSummarize reports whether eventsSinceLastSummary or
// timeSinceLastSummary has crossed t, and if so the reason to attach
// to the resulting WriteRequest's tags.
func (t SummarizeThreshold) ShouldSummarize(eventsSinceLastSummary int, timeSinceLastSummary time.Duration) (bool, string) {
	if t.EventCount > 0 && eventsSinceLastSummary >= t.EventCount {
		return true, "event_count"
	}
	if t.Window > 0 && timeSinceLastSummary >= t.Window {
		return true, "window_elapsed"
	}
	return false, ""
}

// NewSummary builds a KindSummary WriteRequest.
func NewSummary(text string, tags []string, now time.Time) WriteRequest {
	return WriteRequest{Kind: KindSummary, Text: text, Tags: tags, CreatedAt: now}
}

// NewCoreUpdate builds a KindCore WriteRequest targeting block.
func NewCoreUpdate(block CoreBlock, text string, now time.Time) WriteRequest {
	return WriteRequest{Kind: KindCore, Block: block, Text: text, CreatedAt: now}
}
