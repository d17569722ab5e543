package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/retroenv/retrosheets/internal/score"
)

// restKey is the key index written for rests.
const restKey = -1

// KeyDuration is a piano key index with a duration in beat units. It is
// encoded as a two element JSON array.
type KeyDuration struct {
	Key      int
	Duration float64
}

// MarshalJSON encodes the value as [key, duration].
func (k KeyDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{k.Key, k.Duration})
}

// UnmarshalJSON decodes a [key, duration] array.
func (k *KeyDuration) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding key duration pair: %w", err)
	}
	k.Key = int(pair[0])
	k.Duration = pair[1]
	return nil
}

// KeyDurations converts a score to piano key indices. Chords use their
// lowest pitch.
func KeyDurations(s score.Score) []KeyDuration {
	out := make([]KeyDuration, len(s))
	for i, e := range s {
		key := restKey
		if p, ok := e.Lowest(); ok {
			key = p.Piano()
		}
		out[i] = KeyDuration{Key: key, Duration: e.Duration()}
	}
	return out
}

// WriteJSON writes the scores as a list of [key, duration] lists per channel.
func WriteJSON(w io.Writer, scores []score.Score) error {
	channels := make([][]KeyDuration, len(scores))
	for i, s := range scores {
		channels[i] = KeyDurations(s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(channels); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
