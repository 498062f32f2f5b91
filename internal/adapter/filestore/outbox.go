package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/quietsignal/persona-core/internal/domain/draft"
)

const draftGCAge = 24 * time.Hour

// OutboxStore persists one JSON file per draft under dir, named
// "<draft-id>.json" (spec.md §4.5, §6.4).
type OutboxStore struct {
	dir string
	now func() time.Time
}

// NewOutboxStore returns a store rooted at dir. now defaults to
// time.Now and is overridable for GC tests.
func NewOutboxStore(dir string) *OutboxStore {
	return &OutboxStore{dir: dir, now: time.Now}
}

// NewOutboxStoreWithClock is NewOutboxStore with an injectable clock,
// used to make GC age thresholds deterministic in tests.
func NewOutboxStoreWithClock(dir string, now func() time.Time) *OutboxStore {
	return &OutboxStore{dir: dir, now: now}
}

func (s *OutboxStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *OutboxStore) SaveDraft(_ context.Context, d draft.Draft) error {
	return writeJSONAtomic(s.path(d.ID), d)
}

func (s *OutboxStore) LoadDraft(_ context.Context, id string) (draft.Draft, error) {
	var d draft.Draft
	if err := readJSON(s.path(id), &d); err != nil {
		return draft.Draft{}, fmt.Errorf("load draft %s: %w", id, err)
	}
	return d, nil
}

// LoadQueued returns up to limit drafts in StatusQueued, oldest
// CreatedAt first, so the queue runner drains in arrival order.
func (s *OutboxStore) LoadQueued(_ context.Context, limit int) ([]draft.Draft, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	queued := make([]draft.Draft, 0, len(all))
	for _, d := range all {
		if d.Status == draft.StatusQueued {
			queued = append(queued, d)
		}
	}
	sort.Slice(queued, func(i, j int) bool {
		return queued[i].CreatedAt.Before(queued[j].CreatedAt)
	})
	if limit > 0 && len(queued) > limit {
		queued = queued[:limit]
	}
	return queued, nil
}

// GC deletes terminal drafts whose UpdatedAt is older than 24h,
// returning the count removed (spec.md §4.5).
func (s *OutboxStore) GC(_ context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read outbox dir: %w", err)
	}

	cutoff := s.now().Add(-draftGCAge)
	purged := 0
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		full := filepath.Join(s.dir, ent.Name())
		var d draft.Draft
		if err := readJSON(full, &d); err != nil {
			continue
		}
		if !d.Status.IsTerminal() {
			continue
		}
		if d.UpdatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return purged, fmt.Errorf("remove %s: %w", full, err)
		}
		purged++
	}
	return purged, nil
}

func (s *OutboxStore) readAll() ([]draft.Draft, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read outbox dir: %w", err)
	}

	drafts := make([]draft.Draft, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		var d draft.Draft
		if err := readJSON(filepath.Join(s.dir, ent.Name()), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ent.Name(), err)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}
