package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for the operator console feed (SPEC_FULL.md
// §6.8). These ride alongside the AG-UI-flavored events in
// agui_events.go; these carry orchestrator-specific detail the generic
// AG-UI shape has no field for.
const (
	EventTickResult   = "limbic.tick"
	EventRunOutcome   = "pipeline.run"
	EventDraftCreated = "outbox.draft"
	EventCommitResult = "pipeline.commit"
)

// TickResultEvent mirrors one limbic.Result broadcast after every
// scheduler tick (spec.md §4.1).
type TickResultEvent struct {
	Emitted          bool    `json:"emitted"`
	Signal           string  `json:"signal,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	Forced           bool    `json:"forced,omitempty"`
	Pressure         float64 `json:"pressure,omitempty"`
	PendingTotal     int     `json:"pending_total,omitempty"`
	SecondsSinceLast float64 `json:"seconds_since_last,omitempty"`
	QuietSuppressed  bool    `json:"quiet_suppressed,omitempty"`
}

// RunOutcomeEvent is broadcast when a pipeline run reaches a terminal
// outcome (spec.md §4.2).
type RunOutcomeEvent struct {
	Outcome string   `json:"outcome"`
	DraftID string   `json:"draft_id,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

// DraftCreatedEvent is broadcast whenever a draft is written to the
// outbox, before preflight runs (spec.md §3.3).
type DraftCreatedEvent struct {
	DraftID string `json:"draft_id"`
	Type    string `json:"type"`
	Status  string `json:"status"`
}

// CommitResultEvent is broadcast after the action executor dispatches
// a draft (spec.md §6.1).
type CommitResultEvent struct {
	DraftID     string `json:"draft_id"`
	Success     bool   `json:"success"`
	ExternalURI string `json:"external_uri,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BroadcastEvent marshals a typed event and broadcasts it to every
// connected operator console.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
