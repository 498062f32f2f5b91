// Package nats implements the passage store port (spec.md §4.4) using
// a NATS JetStream Key-Value bucket. JetStream KV has no native tag
// search, so each passage carries its tags inline in its JSON value
// and List scans bucket keys, filtering client-side.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/quietsignal/persona-core/internal/port/passage"
	"github.com/quietsignal/persona-core/internal/resilience"
)

const bucketName = "PASSAGES"

// record is the JSON shape stored at each KV key. It mirrors
// passage.Passage plus the key itself, which doubles as the passage ID.
type record struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store implements passage.Store against a JetStream KV bucket.
type Store struct {
	nc      *nats.Conn
	kv      jetstream.KeyValue
	breaker *resilience.Breaker
}

// Connect establishes a NATS connection and ensures the passage KV
// bucket exists, creating it on first run. Extra opts (e.g.
// nats.Token, nats.UserInfo) let the caller supply credentials
// resolved via internal/secrets instead of embedding them in url.
func Connect(ctx context.Context, url string, opts ...nats.Option) (*Store, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	kv, err := js.KeyValue(ctx, bucketName)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucketName})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("jetstream kv create: %w", err)
		}
	}

	slog.Info("nats connected", "url", url, "bucket", bucketName)
	return &Store{nc: nc, kv: kv}, nil
}

// SetBreaker attaches a circuit breaker to Create/Delete, the two
// operations that mutate shared remote state.
func (s *Store) SetBreaker(b *resilience.Breaker) {
	s.breaker = b
}

// List returns passages whose tags are a superset of tagSearch,
// newest-by-UpdatedAt first, capped at limit (spec.md §4.4: "most
// recent by update/create timestamp wins").
func (s *Store) List(ctx context.Context, tagSearch []string, limit int) ([]passage.Passage, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("kv list keys: %w", err)
	}

	var matches []passage.Passage
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if err == jetstream.ErrKeyNotFound {
				continue
			}
			return nil, fmt.Errorf("kv get %s: %w", key, err)
		}

		var rec record
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			slog.Warn("passage kv: skipping undecodable entry", "key", key, "error", err)
			continue
		}
		if !hasAllTags(rec.Tags, tagSearch) {
			continue
		}
		matches = append(matches, toPassage(rec))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Create writes a new passage entry. Passages are immutable once
// created; there is no Update, only Create followed later by Delete.
func (s *Store) Create(ctx context.Context, text string, tags []string) (passage.Passage, error) {
	now := time.Now().UTC()
	rec := record{
		ID:        uuid.NewString(),
		Text:      text,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return passage.Passage{}, fmt.Errorf("marshal passage: %w", err)
	}

	put := func() error {
		_, err := s.kv.Put(ctx, rec.ID, data)
		return err
	}
	if err := s.execute(put); err != nil {
		return passage.Passage{}, fmt.Errorf("kv put %s: %w", rec.ID, err)
	}
	return toPassage(rec), nil
}

// Delete removes a passage entry. Combined with Create, this is how
// the state mirror pushes an updated snapshot: delete the stale
// sentinel passage, then create a fresh one (spec.md §4.4) — the two
// calls are not transactional.
func (s *Store) Delete(ctx context.Context, id string) error {
	del := func() error {
		return s.kv.Delete(ctx, id)
	}
	if err := s.execute(del); err != nil {
		return fmt.Errorf("kv delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) execute(fn func() error) error {
	if s.breaker != nil {
		return s.breaker.Execute(fn)
	}
	return fn()
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func toPassage(rec record) passage.Passage {
	return passage.Passage{
		ID:        rec.ID,
		Text:      rec.Text,
		Tags:      rec.Tags,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// Close shuts down the NATS connection immediately.
func (s *Store) Close() error {
	s.nc.Close()
	return nil
}

// IsConnected reports whether the NATS connection is active.
func (s *Store) IsConnected() bool {
	return s.nc.IsConnected()
}
