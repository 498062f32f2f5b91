package policy

// PresetCautious returns the "cautious" preset: tight confidence and
// length budgets, short bursts, wide human-review net.
func PresetCautious() Profile {
	return Profile{
		Name:                   "cautious",
		Description:            "Conservative thresholds for a new or low-trust deployment.",
		MinConfidence:          0.75,
		MaxPostLength:          220,
		QuoteSuffixReserve:     28,
		SyncStateMaxAgeSeconds: 180,
		RequireFreshSync:       true,
		DedupeTTLHours:         48,
		CooldownSeconds:        60,
		MetaMarkers: []string{
			"lesson learned", "context", "pressure", "maintenance", "anxiety",
			"internal note", "debug",
		},
		RequireHumanOnRisk: []string{"irreversible", "legal", "financial", "reputational"},
		LowSalience:        0.45,
		HighSalience:       0.8,
		LowActionJ:         0.1,
	}
}

// PresetStandard returns the core specification's own defaults.
func PresetStandard() Profile {
	return Default()
}

// PresetAutonomousLoud returns a more permissive profile for deployments
// that have earned operator trust: lower confidence floor, longer post
// budget, faster cooldown.
func PresetAutonomousLoud() Profile {
	return Profile{
		Name:                   "autonomous-loud",
		Description:            "Permissive thresholds for a trusted, well-observed deployment.",
		MinConfidence:          0.4,
		MaxPostLength:          320,
		QuoteSuffixReserve:     28,
		SyncStateMaxAgeSeconds: 600,
		RequireFreshSync:       false,
		DedupeTTLHours:         12,
		CooldownSeconds:        15,
		MetaMarkers: []string{
			"lesson learned", "context", "pressure", "maintenance", "anxiety",
		},
		RequireHumanOnRisk: []string{"irreversible"},
		LowSalience:        0.25,
		HighSalience:       0.6,
		LowActionJ:         -0.2,
	}
}

// PresetNames returns the names of all built-in presets.
func PresetNames() []string {
	return []string{"cautious", "standard", "autonomous-loud"}
}

// IsPreset returns true if the given name is a built-in preset.
func IsPreset(name string) bool {
	_, ok := PresetByName(name)
	return ok
}

// PresetByName returns a preset by name, or false if not found.
func PresetByName(name string) (Profile, bool) {
	switch name {
	case "cautious":
		return PresetCautious(), true
	case "standard":
		return PresetStandard(), true
	case "autonomous-loud":
		return PresetAutonomousLoud(), true
	default:
		return Profile{}, false
	}
}
