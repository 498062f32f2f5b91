package policy

import "fmt"

// Validate checks that a Profile is well-formed.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy: name is required")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("policy: min_confidence must be in [0,1]")
	}
	if p.MaxPostLength <= 0 {
		return fmt.Errorf("policy: max_post_length must be > 0")
	}
	if p.SyncStateMaxAgeSeconds < 0 {
		return fmt.Errorf("policy: sync_state_max_age_seconds must be >= 0")
	}
	if p.DedupeTTLHours <= 0 {
		return fmt.Errorf("policy: dedupe_ttl_hours must be > 0")
	}
	if p.CooldownSeconds < 0 {
		return fmt.Errorf("policy: cooldown_seconds must be >= 0")
	}
	if p.LowSalience < 0 || p.LowSalience > 1 {
		return fmt.Errorf("policy: low_salience must be in [0,1]")
	}
	if p.HighSalience < p.LowSalience || p.HighSalience > 1 {
		return fmt.Errorf("policy: high_salience must be in [low_salience,1]")
	}
	return nil
}
