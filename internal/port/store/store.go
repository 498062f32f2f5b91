// Package store defines the persistence contracts the pipeline runner
// and limbic scheduler depend on (spec.md §4.5, §6.4). Concrete
// implementations live under internal/adapter; this package only
// names the shape they must satisfy.
package store

import (
	"context"

	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/draft"
	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/domain/preflight"
)

// AgentStateStore persists the Pipeline Runner's exclusive state
// (spec.md §3.5).
type AgentStateStore interface {
	Load(ctx context.Context) (agentstate.State, error)
	Save(ctx context.Context, s agentstate.State) error
}

// InteroceptionStore persists the Limbic Scheduler's exclusive state.
type InteroceptionStore interface {
	Load(ctx context.Context) (signal.InteroceptionState, error)
	Save(ctx context.Context, s signal.InteroceptionState) error
}

// OutboxStore persists one JSON file per draft and answers the queue
// runner's "give me up to N queued drafts" query.
type OutboxStore interface {
	SaveDraft(ctx context.Context, d draft.Draft) error
	LoadDraft(ctx context.Context, id string) (draft.Draft, error)
	LoadQueued(ctx context.Context, limit int) ([]draft.Draft, error)
	// GC removes terminal drafts older than the store's own retention
	// age (24h in the filestore outbox), returning how many were purged
	// (spec.md §4.5).
	GC(ctx context.Context) (int, error)
}

// TelemetrySink appends one structured event per call to the
// append-only telemetry log (spec.md §6.4 state/telemetry.jsonl).
type TelemetrySink interface {
	Emit(ctx context.Context, event string, fields map[string]any) error
}

// SyncSnapshotStore persists the compact freshness witness preflight's
// fresh-sync check reads (spec.md §4.4 sync_state.json).
type SyncSnapshotStore interface {
	Load(ctx context.Context) (*preflight.SyncSnapshot, error)
	Save(ctx context.Context, s preflight.SyncSnapshot) error
}
