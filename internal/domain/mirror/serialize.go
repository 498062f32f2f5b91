package mirror

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/port/passage"
)

// Tags returns the passage tags written alongside every interoception
// mirror passage (spec.md §6.4: `["magenta","outbox","draft_id:<id>",
// "status:<state>"]` is the draft-log analogue; the interoception
// mirror instead carries a fixed, searchable tag set).
func Tags() []string {
	return []string{"magenta", "interoception"}
}

// EncodeBody serializes st as the sentinel-prefixed passage body
// spec.md §4.4 and §6.4 require: the literal "[INTEROCEPTION_STATE]\n"
// prefix followed by a JSON document.
func EncodeBody(st signal.InteroceptionState) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("mirror: encode state: %w", err)
	}
	return passage.InteroceptionSentinel + string(data), nil
}

// DecodeBody reverses EncodeBody. It returns an error if text does not
// carry the sentinel prefix or its JSON body fails to parse; the
// caller (per spec.md §4.4/§7 "remote passage store inconsistency")
// treats any such error as "no remote state".
func DecodeBody(text string) (signal.InteroceptionState, error) {
	if !strings.HasPrefix(text, passage.InteroceptionSentinel) {
		return signal.InteroceptionState{}, fmt.Errorf("mirror: missing sentinel prefix")
	}
	body := strings.TrimPrefix(text, passage.InteroceptionSentinel)
	var st signal.InteroceptionState
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return signal.InteroceptionState{}, fmt.Errorf("mirror: decode state: %w", err)
	}
	if st.Pressures == nil {
		st.Pressures = map[signal.Kind]signal.PressureState{}
	}
	return st, nil
}
