// Package executor defines the action-executor contract the pipeline
// runner dispatches committed drafts through (spec.md §6.1): a
// dispatch table keyed by action kind, each entry a side-effecting
// call against the host platform.
package executor

import (
	"context"
	"fmt"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/draft"
)

// CommitResult is the outcome of dispatching one draft.
type CommitResult struct {
	Success     bool
	ExternalURI string
	Error       string
}

// Handler performs the side effect for one action kind.
type Handler func(ctx context.Context, d draft.Draft) (CommitResult, error)

// Dispatcher routes a draft to the handler registered for its kind.
// POST, REPLY, QUOTE, LIKE, FOLLOW, MUTE, and BLOCK must all have
// registered handlers in a complete deployment; a missing entry is not
// a programming error — it produces a CommitResult carrying the
// "No commit handler for <kind>" message so the run can record it and
// move on rather than panic.
type Dispatcher struct {
	handlers map[action.Kind]Handler
}

// NewDispatcher returns an empty dispatch table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[action.Kind]Handler{}}
}

// Register binds kind to h, overwriting any previous registration.
func (d *Dispatcher) Register(kind action.Kind, h Handler) {
	d.handlers[kind] = h
}

// Commit dispatches d to its registered handler.
func (d *Dispatcher) Commit(ctx context.Context, dr draft.Draft) (CommitResult, error) {
	h, ok := d.handlers[dr.Type]
	if !ok {
		return CommitResult{Success: false, Error: fmt.Sprintf("No commit handler for %s", dr.Type)}, nil
	}
	return h(ctx, dr)
}

// ActionExecutor is the interface the pipeline runner depends on;
// Dispatcher is the canonical implementation, but tests may supply a
// stub satisfying only this interface.
type ActionExecutor interface {
	Commit(ctx context.Context, d draft.Draft) (CommitResult, error)
}
