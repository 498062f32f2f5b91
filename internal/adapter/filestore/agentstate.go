package filestore

import (
	"context"
	"errors"
	"os"

	"github.com/quietsignal/persona-core/internal/domain/agentstate"
)

// AgentStateStore persists agentstate.State as a single JSON file.
type AgentStateStore struct {
	path string
}

// NewAgentStateStore returns a store rooted at path (typically
// state/agent_state.json under the run's base directory).
func NewAgentStateStore(path string) *AgentStateStore {
	return &AgentStateStore{path: path}
}

// Load reads the persisted state, returning a fresh agentstate.New()
// if the file has never been written.
func (s *AgentStateStore) Load(_ context.Context) (agentstate.State, error) {
	var st agentstate.State
	err := readJSON(s.path, &st)
	if errors.Is(err, os.ErrNotExist) {
		return agentstate.New(), nil
	}
	if err != nil {
		return agentstate.State{}, err
	}
	return st, nil
}

// Save overwrites the state file.
func (s *AgentStateStore) Save(_ context.Context, st agentstate.State) error {
	return writeJSONAtomic(s.path, st)
}
