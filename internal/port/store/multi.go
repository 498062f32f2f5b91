package store

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MultiTelemetrySink fans a telemetry event out to multiple sinks. The
// mandatory local JSONL sink should always be first; optional mirrors
// (e.g. a Postgres archive) follow. Sinks are independent — one
// mirror's latency or failure must never hold up another — so Emit
// dispatches them concurrently and reports the first error, if any.
type MultiTelemetrySink struct {
	Sinks []TelemetrySink
}

func (m MultiTelemetrySink) Emit(ctx context.Context, event string, fields map[string]any) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range m.Sinks {
		if sink == nil {
			continue
		}
		sink := sink
		g.Go(func() error {
			return sink.Emit(gctx, event, fields)
		})
	}
	return g.Wait()
}
