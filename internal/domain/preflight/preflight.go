// Package preflight implements the pure gate of spec.md §4.3: every
// check a draft must clear between creation and commit. It reads no
// external state directly — the pipeline runner hands it a snapshot
// of everything it needs so the validator itself stays a pure function
// of its inputs.
package preflight

import (
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/agentstate"
	"github.com/quietsignal/persona-core/internal/domain/draft"
	"github.com/quietsignal/persona-core/internal/domain/policy"
)

// SyncSnapshot is the freshness witness read from sync_state.json
// (spec.md §4.4). A nil snapshot is treated as "missing".
type SyncSnapshot struct {
	Timestamp time.Time
}

// Result is the preflight verdict: passed only when reasons is empty
// and RequireHuman is false.
type Result struct {
	Passed          bool
	Reasons         []string
	SuggestedEdits  []string
	RequireHuman    bool
	NeedMoreContext bool
}

func (r *Result) fail(reason string) {
	r.Reasons = append(r.Reasons, reason)
}

func (r *Result) suggest(edit string) {
	r.SuggestedEdits = append(r.SuggestedEdits, edit)
}

// textBearing reports whether a draft's action kind carries reader-
// facing text subject to the length and meta-without-artifact checks.
func textBearing(k action.Kind) bool {
	switch k {
	case action.Reply, action.Post, action.Quote:
		return true
	default:
		return false
	}
}

// metaMarkers are matched case-insensitively against draft text; a
// profile may extend or shrink the closed list.
func hasMetaMarker(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

func containsURL(text string) bool {
	return strings.Contains(text, "http://") || strings.Contains(text, "https://")
}

// Validate runs every check of spec.md §4.3 against d in the context
// of state and p, as of now. sync is the most recently read sync
// snapshot, or nil if none is available.
func Validate(d draft.Draft, state agentstate.State, p policy.Profile, sync *SyncSnapshot, now time.Time) Result {
	var res Result

	if p.RequireFreshSync {
		if sync == nil {
			res.fail("sync_state_missing")
		} else if now.Sub(sync.Timestamp) > time.Duration(p.SyncStateMaxAgeSeconds)*time.Second {
			res.fail("sync_state_stale")
		}
	}

	if d.Confidence < p.MinConfidence {
		res.fail("confidence_below_threshold")
	}

	if textBearing(d.Type) {
		limit := p.MaxPostLength
		if d.Metadata.QuoteURI != "" {
			limit -= p.QuoteSuffixReserve
		}
		if uniseg.GraphemeClusterCount(d.Text) > limit {
			res.fail("text_too_long")
			res.suggest("shorten_text")
		}

		if hasMetaMarker(d.Text, p.MetaMarkers) && !containsURL(d.Text) && !d.Metadata.ArtifactOK {
			res.fail("meta_needs_artifact")
		}
	}

	if d.Text != "" && state.HasRecentDuplicateText(d.Text, now) {
		res.fail("duplicate_recent_post")
	}

	for _, flag := range d.RiskFlags {
		for _, gated := range p.RequireHumanOnRisk {
			if flag == gated {
				res.RequireHuman = true
				res.fail("risk_flag:" + flag)
			}
		}
	}

	if d.TargetURI != "" {
		if ts, ok := state.LastActionTimestamps[d.TargetURI]; ok {
			if now.Sub(ts) < time.Duration(p.DedupeTTLHours)*time.Hour {
				res.fail("duplicate_target_recent")
			}
		} else if h, ok := state.LastActionHashes[d.TargetURI]; ok && h == agentstate.HashText(d.Text) {
			res.fail("duplicate_target")
		}
	}

	if d.Metadata.NotificationID != "" && state.HasProcessedNotification(d.Metadata.NotificationID) {
		res.fail("notification_already_processed")
	}

	if !state.LastCommitAt.IsZero() && now.Sub(state.LastCommitAt) < time.Duration(p.CooldownSeconds)*time.Second {
		res.fail("cooldown_active")
	}

	if until, ok := state.Cooldowns["global"]; ok && until.After(now) {
		res.fail("burst_cooldown_active")
	}

	root := d.Metadata.RootURI
	if root != "" {
		if until, ok := state.ThreadCooldowns[root]; ok && until.After(now) {
			res.fail("thread_pacing_cooldown")
		} else if state.ThreadReplyCountWithin(root, now, 30*time.Minute) >= 3 {
			res.fail("thread_pacing_cooldown")
		}
	}

	res.Passed = len(res.Reasons) == 0 && !res.RequireHuman
	return res
}
