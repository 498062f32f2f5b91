package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TelemetryMirror writes telemetry events into Postgres in addition to
// the mandatory local telemetry.jsonl, so events survive a host
// rebuild and can be queried across runs.
type TelemetryMirror struct {
	pool *pgxpool.Pool
}

// NewTelemetryMirror creates a mirror backed by the given connection pool.
func NewTelemetryMirror(pool *pgxpool.Pool) *TelemetryMirror {
	return &TelemetryMirror{pool: pool}
}

// Emit inserts one row per event. fields is stored as JSONB.
func (m *TelemetryMirror) Emit(ctx context.Context, event string, fields map[string]any) error {
	payload, err := json.Marshal(orEmptyMap(fields))
	if err != nil {
		return fmt.Errorf("marshal telemetry fields for %s: %w", event, err)
	}

	const q = `
		INSERT INTO telemetry_events (event, fields, occurred_at)
		VALUES ($1, $2, $3)`

	if _, err := m.pool.Exec(ctx, q, event, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert telemetry event %s: %w", event, err)
	}
	return nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
