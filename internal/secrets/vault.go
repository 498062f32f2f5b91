// Package secrets provides a thread-safe credential vault with hot
// reload support, used to hand bearer tokens and connection
// credentials to the NATS and MCP adapters without baking them into
// config.Config (which is loaded from YAML and logged on startup).
package secrets

import (
	"fmt"
	"sync"
)

// Loader retrieves credentials from a source (env vars, file, remote
// vault, etc.).
type Loader func() (map[string]string, error)

// Vault holds credential values in memory and supports atomic reloading.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{
		values: vals,
		loader: loader,
	}, nil
}

// Get returns the credential for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	return nil
}
