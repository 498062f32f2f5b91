// Package filestore implements the store ports against the local
// filesystem: one JSON file per singleton (agent state, interoception
// state, sync snapshot), one JSON file per outbox draft, and an
// append-only JSONL telemetry log (spec.md §4.5, §6.4).
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeJSONAtomic marshals v as indented JSON and writes it to path
// via a temp-file-then-rename so a reader never observes a partial
// write. The parent directory is created if missing.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	// Any early return past this point must clean up the temp file.
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// readJSON unmarshals path into v. It is the caller's responsibility
// to decide what a missing file means (usually "zero value").
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-configured, not user input.
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
