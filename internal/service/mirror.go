package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/quietsignal/persona-core/internal/domain/mirror"
	"github.com/quietsignal/persona-core/internal/domain/preflight"
	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/port/cache"
	"github.com/quietsignal/persona-core/internal/port/passage"
	"github.com/quietsignal/persona-core/internal/port/store"
)

// remoteCacheKey is the single in-process cache slot holding the last
// passage.Store read. The scheduler's own tick and an MCP resource
// read can both land in the same short window; the cache collapses
// them into one JetStream KV round trip.
const remoteCacheKey = "mirror:remote_interoception"

// remoteCacheTTL bounds how stale the cached remote read may be; it is
// well under the default tick interval so a PullFull still observes a
// push from the previous tick.
const remoteCacheTTL = 10 * time.Second

// StateMirror implements the bidirectional sync of spec.md §4.4: it
// reconciles the scheduler's local InteroceptionStore against a remote
// passage.Store so that the scheduler loop and an out-of-process tool
// runtime converge on the same pressures, quiet window, and emission
// counters.
type StateMirror struct {
	Local    store.InteroceptionStore
	Remote   passage.Store
	Snapshot store.SyncSnapshotStore
	Cache    cache.Cache // optional L1 cache in front of Remote.List
	Now      func() time.Time

	sf singleflight.Group
}

// fetchResult is the value singleflight.Group coalesces concurrent
// fetchRemote callers onto.
type fetchResult struct {
	state signal.InteroceptionState
	found bool
}

func (m *StateMirror) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// fetchRemote lists every passage carrying the interoception sentinel
// tag, picks the most recent by UpdatedAt/CreatedAt (spec.md §4.4
// "most recent by update/create timestamp wins"), and decodes it. A
// missing, malformed, or absent passage is treated as "no remote
// state" per spec.md §7's remote-store-inconsistency policy — never an
// error the caller must handle specially.
func (m *StateMirror) fetchRemote(ctx context.Context) (signal.InteroceptionState, bool) {
	if m.Cache != nil {
		if cached, ok, err := m.Cache.Get(ctx, remoteCacheKey); err == nil && ok {
			if st, err := mirror.DecodeBody(string(cached)); err == nil {
				return st, true
			}
		}
	}

	// A tick's PullQuiet/PullFull and a concurrent MCP resource read can
	// both miss the cache at once; singleflight collapses them onto one
	// Remote.List call instead of two racing KV reads.
	v, err, _ := m.sf.Do(remoteCacheKey, func() (any, error) {
		return m.listRemote(ctx), nil
	})
	if err != nil {
		return signal.InteroceptionState{}, false
	}
	res := v.(fetchResult)
	return res.state, res.found
}

func (m *StateMirror) listRemote(ctx context.Context) fetchResult {
	passages, err := m.Remote.List(ctx, mirror.Tags(), 10)
	if err != nil {
		slog.Warn("state mirror: remote list failed, treating as no remote state", "error", err)
		return fetchResult{}
	}
	if len(passages) == 0 {
		return fetchResult{}
	}

	sort.Slice(passages, func(i, j int) bool {
		ti, tj := recencyOf(passages[i]), recencyOf(passages[j])
		return ti.After(tj)
	})

	st, err := mirror.DecodeBody(passages[0].Text)
	if err != nil {
		slog.Warn("state mirror: remote passage undecodable, treating as no remote state", "error", err)
		return fetchResult{}
	}

	if m.Cache != nil {
		if body, err := mirror.EncodeBody(st); err == nil {
			if err := m.Cache.Set(ctx, remoteCacheKey, []byte(body), remoteCacheTTL); err != nil {
				slog.Warn("state mirror: cache write failed", "error", err)
			}
		}
	}
	return fetchResult{state: st, found: true}
}

func recencyOf(p passage.Passage) time.Time {
	if p.UpdatedAt.After(p.CreatedAt) {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// PullQuiet syncs only quiet_until from remote into local, run every
// tick so an external "go quiet" command takes effect within one tick
// (spec.md §4.4 "Cadence").
func (m *StateMirror) PullQuiet(ctx context.Context) error {
	remote, ok := m.fetchRemote(ctx)
	if !ok {
		return nil
	}
	local, err := m.Local.Load(ctx)
	if err != nil {
		return fmt.Errorf("state mirror: load local for quiet pull: %w", err)
	}
	local.QuietUntil = mergeQuietOnly(local.QuietUntil, remote.QuietUntil)
	return m.Local.Save(ctx, local)
}

func mergeQuietOnly(local, remote *time.Time) *time.Time {
	winner := local
	if local == nil {
		winner = remote
	} else if remote != nil && remote.After(*local) {
		winner = remote
	}
	if winner == nil {
		return nil
	}
	t := *winner
	return &t
}

// PullFull performs a full per-field reconciliation of local against
// remote, run every N ticks (spec.md §4.4 "Cadence", default N=5).
func (m *StateMirror) PullFull(ctx context.Context) error {
	remote, ok := m.fetchRemote(ctx)
	if !ok {
		return nil
	}
	local, err := m.Local.Load(ctx)
	if err != nil {
		return fmt.Errorf("state mirror: load local for full pull: %w", err)
	}
	merged := mirror.Pull(local, remote)
	return m.Local.Save(ctx, merged)
}

// Push serializes local state and replaces every prior sentinel
// passage with one fresh passage (spec.md §4.4 "Reconciliation
// (push)"). The delete-then-create sequence is intentionally
// non-atomic: a reader racing between the two sees "no remote state"
// and keeps its own local copy, which is the documented behavior.
func (m *StateMirror) Push(ctx context.Context) error {
	local, err := m.Local.Load(ctx)
	if err != nil {
		return fmt.Errorf("state mirror: load local for push: %w", err)
	}

	stale, err := m.Remote.List(ctx, mirror.Tags(), 50)
	if err != nil {
		slog.Warn("state mirror: list stale passages failed, pushing anyway", "error", err)
	}
	for _, p := range stale {
		if err := m.Remote.Delete(ctx, p.ID); err != nil {
			slog.Warn("state mirror: delete stale passage failed", "passage_id", p.ID, "error", err)
		}
	}

	body, err := mirror.EncodeBody(local)
	if err != nil {
		return fmt.Errorf("state mirror: encode push body: %w", err)
	}
	if _, err := m.Remote.Create(ctx, body, mirror.Tags()); err != nil {
		return fmt.Errorf("state mirror: create passage: %w", err)
	}
	if m.Cache != nil {
		if err := m.Cache.Delete(ctx, remoteCacheKey); err != nil {
			slog.Warn("state mirror: cache invalidation failed", "error", err)
		}
	}

	if m.Snapshot != nil {
		if err := m.Snapshot.Save(ctx, preflight.SyncSnapshot{Timestamp: m.now()}); err != nil {
			slog.Warn("state mirror: sync snapshot write failed", "error", err)
		}
	}
	return nil
}
