package policy

import (
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultMatchesSpec(t *testing.T) {
	p := Default()
	if p.MinConfidence != 0.55 {
		t.Errorf("expected min_confidence 0.55, got %v", p.MinConfidence)
	}
	if p.MaxPostLength != 300 {
		t.Errorf("expected max_post_length 300, got %v", p.MaxPostLength)
	}
	if p.DedupeTTLHours != 24 {
		t.Errorf("expected dedupe_ttl_hours 24, got %v", p.DedupeTTLHours)
	}
	if p.CooldownSeconds != 30 {
		t.Errorf("expected cooldown_seconds 30, got %v", p.CooldownSeconds)
	}
}

func TestProfileValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Profile)
		errStr string
	}{
		{
			name:   "missing name",
			modify: func(p *Profile) { p.Name = "" },
			errStr: "name is required",
		},
		{
			name:   "confidence too high",
			modify: func(p *Profile) { p.MinConfidence = 1.5 },
			errStr: "min_confidence",
		},
		{
			name:   "confidence negative",
			modify: func(p *Profile) { p.MinConfidence = -0.1 },
			errStr: "min_confidence",
		},
		{
			name:   "zero max post length",
			modify: func(p *Profile) { p.MaxPostLength = 0 },
			errStr: "max_post_length",
		},
		{
			name:   "negative sync age",
			modify: func(p *Profile) { p.SyncStateMaxAgeSeconds = -1 },
			errStr: "sync_state_max_age_seconds",
		},
		{
			name:   "zero dedupe ttl",
			modify: func(p *Profile) { p.DedupeTTLHours = 0 },
			errStr: "dedupe_ttl_hours",
		},
		{
			name:   "negative cooldown",
			modify: func(p *Profile) { p.CooldownSeconds = -5 },
			errStr: "cooldown_seconds",
		},
		{
			name:   "low salience out of range",
			modify: func(p *Profile) { p.LowSalience = 1.5 },
			errStr: "low_salience",
		},
		{
			name:   "high salience below low",
			modify: func(p *Profile) { p.HighSalience = 0.1 },
			errStr: "high_salience",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.modify(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errStr) {
				t.Errorf("expected error containing %q, got %q", tt.errStr, err.Error())
			}
		})
	}
}
