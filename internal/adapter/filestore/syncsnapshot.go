package filestore

import (
	"context"
	"errors"
	"os"

	"github.com/quietsignal/persona-core/internal/domain/preflight"
)

// SyncSnapshotStore persists the compact freshness witness preflight
// reads back on every draft (spec.md §4.4 sync_state.json).
type SyncSnapshotStore struct {
	path string
}

func NewSyncSnapshotStore(path string) *SyncSnapshotStore {
	return &SyncSnapshotStore{path: path}
}

// Load returns nil, nil if the snapshot has never been written — a
// missing snapshot is a valid "no sync has happened yet" state, not
// an error, and preflight.Validate already treats nil as missing.
func (s *SyncSnapshotStore) Load(_ context.Context) (*preflight.SyncSnapshot, error) {
	var snap preflight.SyncSnapshot
	err := readJSON(s.path, &snap)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SyncSnapshotStore) Save(_ context.Context, snap preflight.SyncSnapshot) error {
	return writeJSONAtomic(s.path, snap)
}
