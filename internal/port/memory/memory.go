// Package memory defines the MemoryWriter contract the pipeline runner
// dispatches out-of-band summary/core writes through (spec.md §3.6).
package memory

import (
	"context"

	domainmemory "github.com/quietsignal/persona-core/internal/domain/memory"
)

// MemoryWriter accepts one memory write request. Implementations
// typically forward it to whatever store backs the persona's external
// memory surface; this core does not implement recall.
type MemoryWriter interface {
	Write(ctx context.Context, req domainmemory.WriteRequest) error
}
