// Package passage defines the remote passage store contract of
// spec.md §4.4: an immutable, tagged text blob store used to mirror
// interoception state across processes.
package passage

import (
	"context"
	"time"
)

// Passage is one immutable tagged text blob.
type Passage struct {
	ID        string
	Text      string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the minimal remote passage contract: list by tag search,
// create, and delete. Implementations (e.g. a JetStream KV-backed
// store) need not support update — passages are immutable once
// created; mirroring works by delete-then-create (spec.md §4.4).
type Store interface {
	List(ctx context.Context, tagSearch []string, limit int) ([]Passage, error)
	Create(ctx context.Context, text string, tags []string) (Passage, error)
	Delete(ctx context.Context, id string) error
}

// InteroceptionSentinel prefixes the single passage that carries the
// serialized interoception state mirror.
const InteroceptionSentinel = "[INTEROCEPTION_STATE]\n"
