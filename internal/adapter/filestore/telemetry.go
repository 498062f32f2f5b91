package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TelemetrySink appends one JSON object per line to an append-only
// log file (spec.md §6.4 state/telemetry.jsonl). A single mutex
// serializes writes; the pipeline runner and scheduler each emit at
// most a handful of events per tick so contention is not a concern.
type TelemetrySink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewTelemetrySink(path string) *TelemetrySink {
	return &TelemetrySink{path: path, now: time.Now}
}

func (t *TelemetrySink) Emit(_ context.Context, event string, fields map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return fmt.Errorf("mkdir telemetry dir: %w", err)
	}

	record := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		record[k] = v
	}
	record["event"] = event
	record["ts"] = t.now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal telemetry event %s: %w", event, err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open telemetry log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write telemetry event %s: %w", event, err)
	}
	return nil
}
