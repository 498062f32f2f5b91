// Package policy defines the tunable thresholds the preflight validator
// and decision scorer read from (spec.md §4.3, §4.6.1). A Profile is
// configuration, not code: different profiles trade safety for reach
// without opening a new commit path.
package policy

// Profile holds every preflight/scoring threshold a persona deployment
// may want to tune. Zero-value fields are filled from Default() by the
// loader before validation.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	MinConfidence          float64  `json:"min_confidence" yaml:"min_confidence"`
	MaxPostLength          int      `json:"max_post_length" yaml:"max_post_length"`
	QuoteSuffixReserve     int      `json:"quote_suffix_reserve" yaml:"quote_suffix_reserve"`
	SyncStateMaxAgeSeconds int      `json:"sync_state_max_age_seconds" yaml:"sync_state_max_age_seconds"`
	RequireFreshSync       bool     `json:"require_fresh_sync" yaml:"require_fresh_sync"`
	DedupeTTLHours         int      `json:"dedupe_ttl_hours" yaml:"dedupe_ttl_hours"`
	CooldownSeconds        float64  `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	MetaMarkers            []string `json:"meta_markers,omitempty" yaml:"meta_markers,omitempty"`
	RequireHumanOnRisk     []string `json:"require_human_on_risk,omitempty" yaml:"require_human_on_risk,omitempty"`

	LowSalience  float64 `json:"low_salience" yaml:"low_salience"`
	HighSalience float64 `json:"high_salience" yaml:"high_salience"`
	LowActionJ   float64 `json:"low_action_j" yaml:"low_action_j"`
}

// Default returns the "standard" profile: spec.md's defaults verbatim
// (confidence 0.55, length 300, sync-age 300s, dedupe 24h, cooldown 30s).
func Default() Profile {
	return Profile{
		Name:                   "standard",
		Description:            "Defaults from the core specification.",
		MinConfidence:          0.55,
		MaxPostLength:          300,
		QuoteSuffixReserve:     28,
		SyncStateMaxAgeSeconds: 300,
		RequireFreshSync:       false,
		DedupeTTLHours:         24,
		CooldownSeconds:        30,
		MetaMarkers: []string{
			"lesson learned", "context", "pressure", "maintenance", "anxiety",
		},
		RequireHumanOnRisk: []string{"irreversible", "legal", "financial"},
		LowSalience:        0.35,
		HighSalience:       0.7,
		LowActionJ:         0,
	}
}
