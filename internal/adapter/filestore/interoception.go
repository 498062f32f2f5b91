package filestore

import (
	"context"
	"errors"
	"os"

	"github.com/quietsignal/persona-core/internal/domain/signal"
)

// InteroceptionStore persists signal.InteroceptionState as a single
// JSON file, separate from agent state so the scheduler and the
// pipeline runner never contend on the same file.
type InteroceptionStore struct {
	path string
	cfgs []signal.Config
}

// NewInteroceptionStore returns a store rooted at path. cfgs seeds a
// fresh state (via signal.New) when the file has never been written.
func NewInteroceptionStore(path string, cfgs []signal.Config) *InteroceptionStore {
	return &InteroceptionStore{path: path, cfgs: cfgs}
}

func (s *InteroceptionStore) Load(_ context.Context) (signal.InteroceptionState, error) {
	var st signal.InteroceptionState
	err := readJSON(s.path, &st)
	if errors.Is(err, os.ErrNotExist) {
		return signal.New(s.cfgs), nil
	}
	if err != nil {
		return signal.InteroceptionState{}, err
	}
	if st.Pressures == nil {
		st.Pressures = map[signal.Kind]signal.PressureState{}
	}
	return st, nil
}

func (s *InteroceptionStore) Save(_ context.Context, st signal.InteroceptionState) error {
	return writeJSONAtomic(s.path, st)
}
