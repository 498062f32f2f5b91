// Package agentstate defines the persisted agent state the pipeline
// runner owns exclusively (spec.md §3.4, §3.5), and the mutators that
// preserve its invariants (bounded lists, pruned windows, monotonic
// last_commit_at).
package agentstate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

const (
	processedNotificationsCap    = 500
	processedNotificationsRetain = 400
	openCommitmentsCap           = 50
	openCommitmentsRetain        = 40
	recentPostHashesCap          = 100
	threadReplyWindow            = 6 * time.Hour
	recentCommitWindow           = 6 * time.Hour
	recentPostHashWindow         = 24 * time.Hour
)

// OpenCommitment is a promise extracted from committed text, tracked
// until a later post containing a URL discharges it.
type OpenCommitment struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	RootURI    string    `json:"root_uri"`
	TargetURI  string    `json:"target_uri"`
	TextPrefix string    `json:"text_prefix"`
}

// PostHash records a committed post's text fingerprint for the 24h
// recent-duplicate-text preflight check.
type PostHash struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// State is the persisted, mutable agent state.
type State struct {
	LastActionHashes     map[string]string     `json:"last_action_hashes,omitempty"`
	LastActionTimestamps map[string]time.Time   `json:"last_action_timestamps,omitempty"`
	PerUserCounts        map[string]int         `json:"per_user_counts,omitempty"`
	PerUserLastInteraction map[string]time.Time `json:"per_user_last_interaction,omitempty"`
	ConsentedUsers       map[string]bool        `json:"consented_users,omitempty"`
	Cooldowns            map[string]time.Time   `json:"cooldowns,omitempty"`
	ProcessedNotifications []string             `json:"processed_notifications,omitempty"`
	LastCommitAt         time.Time              `json:"last_commit_at"`
	RecentCommitTimes    []time.Time            `json:"recent_commit_times,omitempty"`
	RecentPostHashes     []PostHash             `json:"recent_post_hashes,omitempty"`
	RespondedURIs        map[string]bool        `json:"responded_uris,omitempty"`
	NotificationPollHash string                 `json:"notification_poll_hash,omitempty"`
	ConsecutiveUnchangedPolls int               `json:"consecutive_unchanged_polls"`
	PerThreadReplies     map[string][]time.Time `json:"per_thread_replies,omitempty"`
	ThreadCooldowns      map[string]time.Time   `json:"thread_cooldowns,omitempty"`
	OpenCommitments      []OpenCommitment       `json:"open_commitments,omitempty"`
}

// New returns a zero-value state with every map initialized, so callers
// never need nil checks before writing into it.
func New() State {
	return State{
		LastActionHashes:       map[string]string{},
		LastActionTimestamps:   map[string]time.Time{},
		PerUserCounts:          map[string]int{},
		PerUserLastInteraction: map[string]time.Time{},
		ConsentedUsers:         map[string]bool{},
		Cooldowns:              map[string]time.Time{},
		RespondedURIs:          map[string]bool{},
		PerThreadReplies:       map[string][]time.Time{},
		ThreadCooldowns:        map[string]time.Time{},
	}
}

// HashText returns the coarse dedupe fingerprint for a piece of text:
// the first 16 hex characters of sha256(lowercased, trimmed text).
func HashText(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordPoll updates the notification-poll-hash invariant: the
// unchanged-poll counter increments exactly when the hash is unchanged,
// else resets to zero (spec.md §3.4 invariants).
func (s *State) RecordPoll(hash string) {
	if hash != "" && hash == s.NotificationPollHash {
		s.ConsecutiveUnchangedPolls++
	} else {
		s.ConsecutiveUnchangedPolls = 0
	}
	s.NotificationPollHash = hash
}

// MarkNotificationProcessed appends id to the bounded processed list,
// trimming to the retain count once the cap is exceeded.
func (s *State) MarkNotificationProcessed(id string) {
	if id == "" || s.HasProcessedNotification(id) {
		return
	}
	s.ProcessedNotifications = append(s.ProcessedNotifications, id)
	if len(s.ProcessedNotifications) > processedNotificationsCap {
		start := len(s.ProcessedNotifications) - processedNotificationsRetain
		s.ProcessedNotifications = append([]string{}, s.ProcessedNotifications[start:]...)
	}
}

// HasProcessedNotification reports whether id is already in the bounded
// processed-notifications list.
func (s State) HasProcessedNotification(id string) bool {
	for _, n := range s.ProcessedNotifications {
		if n == id {
			return true
		}
	}
	return false
}

// RecordCommit applies every state update a successful commit makes:
// last_commit_at, per-user/per-thread counters, the 6h/24h pruned
// windows, burst and thread cooldowns, and commitment harvest/discharge.
// now must be >= s.LastCommitAt to preserve monotonicity.
func (s *State) RecordCommit(actor, targetURI, rootURI, text, postType string, now time.Time) {
	if now.After(s.LastCommitAt) {
		s.LastCommitAt = now
	}

	if s.LastActionHashes == nil {
		s.LastActionHashes = map[string]string{}
	}
	if s.LastActionTimestamps == nil {
		s.LastActionTimestamps = map[string]time.Time{}
	}
	if targetURI != "" {
		s.LastActionHashes[targetURI] = HashText(text)
		s.LastActionTimestamps[targetURI] = now
		if s.RespondedURIs == nil {
			s.RespondedURIs = map[string]bool{}
		}
		s.RespondedURIs[targetURI] = true
	}

	if actor != "" {
		if s.PerUserCounts == nil {
			s.PerUserCounts = map[string]int{}
		}
		if s.PerUserLastInteraction == nil {
			s.PerUserLastInteraction = map[string]time.Time{}
		}
		s.PerUserCounts[actor]++
		s.PerUserLastInteraction[actor] = now
	}

	s.RecentCommitTimes = append(s.RecentCommitTimes, now)
	s.RecentCommitTimes = pruneTimes(s.RecentCommitTimes, now, recentCommitWindow)
	if recentWithin(s.RecentCommitTimes, now, time.Hour) >= 5 {
		if s.Cooldowns == nil {
			s.Cooldowns = map[string]time.Time{}
		}
		s.Cooldowns["global"] = now.Add(3 * time.Hour)
	}

	if rootURI != "" {
		if s.PerThreadReplies == nil {
			s.PerThreadReplies = map[string][]time.Time{}
		}
		s.PerThreadReplies[rootURI] = append(s.PerThreadReplies[rootURI], now)
		s.PerThreadReplies[rootURI] = pruneTimes(s.PerThreadReplies[rootURI], now, threadReplyWindow)
		if len(s.PerThreadReplies[rootURI]) >= 3 && recentWithin(s.PerThreadReplies[rootURI], now, 30*time.Minute) >= 3 {
			if s.ThreadCooldowns == nil {
				s.ThreadCooldowns = map[string]time.Time{}
			}
			s.ThreadCooldowns[rootURI] = now.Add(time.Hour)
		}
	}

	s.harvestCommitment(rootURI, targetURI, text, now)
	s.dischargeCommitment(rootURI, targetURI, text)

	s.RecentPostHashes = append(s.RecentPostHashes, PostHash{
		Hash: HashText(text), Timestamp: now, Type: postType,
	})
	s.RecentPostHashes = prunePostHashes(s.RecentPostHashes, now, recentPostHashWindow)
	if len(s.RecentPostHashes) > recentPostHashesCap {
		s.RecentPostHashes = s.RecentPostHashes[len(s.RecentPostHashes)-recentPostHashesCap:]
	}
}

var commitmentMarkers = []string{
	"i will", "i'll", "will link", "writing up", "i promise", "as promised",
}

func (s *State) harvestCommitment(rootURI, targetURI, text string, now time.Time) {
	lower := strings.ToLower(text)
	matched := false
	for _, m := range commitmentMarkers {
		if strings.Contains(lower, m) {
			matched = true
			break
		}
	}
	if !matched {
		return
	}
	prefix := text
	if len(prefix) > 200 {
		prefix = prefix[:200]
	}
	s.OpenCommitments = append(s.OpenCommitments, OpenCommitment{
		ID:         HashText(text + now.String()),
		CreatedAt:  now,
		RootURI:    rootURI,
		TargetURI:  targetURI,
		TextPrefix: prefix,
	})
	if len(s.OpenCommitments) > openCommitmentsCap {
		start := len(s.OpenCommitments) - openCommitmentsRetain
		s.OpenCommitments = append([]OpenCommitment{}, s.OpenCommitments[start:]...)
	}
}

func (s *State) dischargeCommitment(rootURI, targetURI, text string) {
	if !containsURL(text) {
		return
	}
	kept := s.OpenCommitments[:0]
	for _, oc := range s.OpenCommitments {
		if (rootURI != "" && oc.RootURI == rootURI) || (targetURI != "" && oc.TargetURI == targetURI) {
			continue
		}
		kept = append(kept, oc)
	}
	s.OpenCommitments = kept
}

// HasOpenCommitmentFor reports whether any open commitment references
// rootURI or targetURI (spec.md §4.2 commitment gate).
func (s State) HasOpenCommitmentFor(rootURI, targetURI string) bool {
	for _, oc := range s.OpenCommitments {
		if (rootURI != "" && oc.RootURI == rootURI) || (targetURI != "" && oc.TargetURI == targetURI) {
			return true
		}
	}
	return false
}

func containsURL(text string) bool {
	return strings.Contains(text, "http://") || strings.Contains(text, "https://")
}

func pruneTimes(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	out := ts[:0]
	for _, t := range ts {
		if now.Sub(t) <= window {
			out = append(out, t)
		}
	}
	return append([]time.Time{}, out...)
}

func recentWithin(ts []time.Time, now time.Time, window time.Duration) int {
	n := 0
	for _, t := range ts {
		if now.Sub(t) <= window {
			n++
		}
	}
	return n
}

func prunePostHashes(hs []PostHash, now time.Time, window time.Duration) []PostHash {
	out := hs[:0]
	for _, h := range hs {
		if now.Sub(h.Timestamp) <= window {
			out = append(out, h)
		}
	}
	return append([]PostHash{}, out...)
}

// HasRecentDuplicateText reports whether hash(text) appears in the 24h
// recent-post-hash window within the last 2 hours.
func (s State) HasRecentDuplicateText(text string, now time.Time) bool {
	h := HashText(text)
	for _, ph := range s.RecentPostHashes {
		if ph.Hash == h && now.Sub(ph.Timestamp) <= 2*time.Hour {
			return true
		}
	}
	return false
}

// ThreadReplyCountWithin returns how many replies against rootURI fall
// within window of now.
func (s State) ThreadReplyCountWithin(rootURI string, now time.Time, window time.Duration) int {
	return recentWithin(s.PerThreadReplies[rootURI], now, window)
}

// SortedPendingSignalKeys is a small helper used by state dumps/tests
// that want deterministic map iteration order.
func SortedPendingSignalKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
