package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quietsignal/persona-core/internal/adapter/filestore"
	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/draft"
	"github.com/quietsignal/persona-core/internal/domain/preflight"
	"github.com/quietsignal/persona-core/internal/domain/signal"
)

func TestAgentStateStore_MissingFileReturnsFresh(t *testing.T) {
	dir := t.TempDir()
	s := filestore.NewAgentStateStore(filepath.Join(dir, "state", "agent_state.json"))

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.LastActionHashes == nil || got.ConsentedUsers == nil {
		t.Fatal("expected fresh state with initialized maps")
	}
}

func TestAgentStateStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "agent_state.json")
	s := filestore.NewAgentStateStore(path)
	ctx := context.Background()

	st := agentstate.New()
	st.PerUserCounts["did:plc:abc"] = 3
	st.LastCommitAt = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.PerUserCounts["did:plc:abc"] != 3 {
		t.Fatalf("expected per-user count to round-trip, got %v", got.PerUserCounts)
	}
	if !got.LastCommitAt.Equal(st.LastCommitAt) {
		t.Fatalf("expected last_commit_at to round-trip, got %v", got.LastCommitAt)
	}
}

func TestInteroceptionStore_MissingFileSeedsFromConfigs(t *testing.T) {
	dir := t.TempDir()
	cfgs := signal.DefaultConfigs()
	s := filestore.NewInteroceptionStore(filepath.Join(dir, "state", "interoception.json"), cfgs)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Pressures) != len(cfgs) {
		t.Fatalf("expected %d seeded pressures, got %d", len(cfgs), len(got.Pressures))
	}
}

func TestInteroceptionStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfgs := signal.DefaultConfigs()
	path := filepath.Join(dir, "state", "interoception.json")
	s := filestore.NewInteroceptionStore(path, cfgs)
	ctx := context.Background()

	st := signal.New(cfgs)
	st.TotalEmissions = 7
	quietUntil := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
	st.QuietUntil = &quietUntil

	if err := s.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalEmissions != 7 {
		t.Fatalf("expected total_emissions=7, got %d", got.TotalEmissions)
	}
	if got.QuietUntil == nil || !got.QuietUntil.Equal(quietUntil) {
		t.Fatalf("expected quiet_until to round-trip, got %v", got.QuietUntil)
	}
}

func TestSyncSnapshotStore_MissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	s := filestore.NewSyncSnapshotStore(filepath.Join(dir, "state", "sync_state.json"))

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot, got %+v", got)
	}
}

func TestSyncSnapshotStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "sync_state.json")
	s := filestore.NewSyncSnapshotStore(path)
	ctx := context.Background()

	ts := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	if err := s.Save(ctx, preflight.SyncSnapshot{Timestamp: ts}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.Timestamp.Equal(ts) {
		t.Fatalf("expected timestamp to round-trip, got %+v", got)
	}
}

func TestOutboxStore_SaveLoadDraft(t *testing.T) {
	dir := t.TempDir()
	s := filestore.NewOutboxStore(dir)
	ctx := context.Background()

	d := draft.New(action.Candidate{Kind: action.Reply, Text: "hello"}, time.Now())
	if err := s.SaveDraft(ctx, d); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadDraft(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != d.ID || got.Text != "hello" {
		t.Fatalf("expected draft to round-trip, got %+v", got)
	}
}

func TestOutboxStore_LoadQueuedOrdersByCreatedAt(t *testing.T) {
	dir := t.TempDir()
	s := filestore.NewOutboxStore(dir)
	ctx := context.Background()

	base := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	older := draft.New(action.Candidate{Kind: action.Reply}, base).MarkQueued("queued", base)
	newer := draft.New(action.Candidate{Kind: action.Reply}, base.Add(time.Hour)).MarkQueued("queued", base.Add(time.Hour))
	notQueued := draft.New(action.Candidate{Kind: action.Reply}, base).MarkAborted("nope", base)

	for _, d := range []draft.Draft{newer, older, notQueued} {
		if err := s.SaveDraft(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LoadQueued(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 queued drafts, got %d", len(got))
	}
	if got[0].ID != older.ID || got[1].ID != newer.ID {
		t.Fatal("expected queued drafts ordered oldest-first")
	}
}

func TestOutboxStore_LoadQueuedRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	s := filestore.NewOutboxStore(dir)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		d := draft.New(action.Candidate{Kind: action.Reply}, base.Add(time.Duration(i)*time.Second)).
			MarkQueued("queued", base)
		if err := s.SaveDraft(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LoadQueued(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}

func TestOutboxStore_GCPurgesOldTerminalDrafts(t *testing.T) {
	dir := t.TempDir()
	s := filestore.NewOutboxStore(dir)
	ctx := context.Background()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	old := draft.New(action.Candidate{Kind: action.Reply}, now.Add(-48*time.Hour)).
		MarkCommitted("at://example/old", now.Add(-25*time.Hour))
	recent := draft.New(action.Candidate{Kind: action.Reply}, now.Add(-time.Hour)).
		MarkCommitted("at://example/recent", now.Add(-time.Hour))
	pending := draft.New(action.Candidate{Kind: action.Reply}, now.Add(-48*time.Hour))

	for _, d := range []draft.Draft{old, recent, pending} {
		if err := s.SaveDraft(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	gcStore := filestore.NewOutboxStoreWithClock(dir, func() time.Time { return now })
	purged, err := gcStore.GC(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 draft purged, got %d", purged)
	}

	if _, err := s.LoadDraft(ctx, old.ID); err == nil {
		t.Fatal("expected old committed draft to be removed")
	}
	if _, err := s.LoadDraft(ctx, recent.ID); err != nil {
		t.Fatal("expected recent committed draft to survive GC")
	}
	if _, err := s.LoadDraft(ctx, pending.ID); err != nil {
		t.Fatal("expected non-terminal draft to survive GC")
	}
}

func TestTelemetrySink_AppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "telemetry.jsonl")
	sink := filestore.NewTelemetrySink(path)
	ctx := context.Background()

	if err := sink.Emit(ctx, "tick", map[string]any{"signal": "SOCIAL"}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Emit(ctx, "commit", map[string]any{"draft_id": "abc123"}); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	return lines
}
