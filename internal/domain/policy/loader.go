package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a single Profile from a YAML file. Fields absent
// from the file are filled from Default() before validation, so a
// profile file only needs to name the thresholds it overrides.
func LoadFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate policy file %s: %w", path, err)
	}

	return &p, nil
}

// LoadFromDirectory reads all .yaml/.yml files from a directory and
// returns a slice of Profiles. A missing directory returns an empty
// slice, not an error.
func LoadFromDirectory(dir string) ([]Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy directory %s: %w", dir, err)
	}

	var profiles []Profile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		p, err := LoadFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	return profiles, nil
}

// LoadProfile resolves name to a built-in preset if one matches,
// otherwise treats name as a path to a YAML profile file.
func LoadProfile(name string) (*Profile, error) {
	if p, ok := PresetByName(name); ok {
		return &p, nil
	}
	return LoadFromFile(name)
}
