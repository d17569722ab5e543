// Package score contains the in memory representation of a decoded channel.
package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/retrosheets/internal/duration"
)

// ErrInvalidEvent is returned by Validate for events violating the grid or duration rules.
var ErrInvalidEvent = errors.New("invalid event")

// Score is the ordered sequence of events of a single channel.
type Score []Event

// Clone returns a copy of the score.
func (s Score) Clone() Score {
	if s == nil {
		return nil
	}
	c := make(Score, len(s))
	copy(c, s)
	return c
}

// TotalDuration returns the sum of all event durations aligned to the grid.
func (s Score) TotalDuration() float64 {
	var total float64
	for _, e := range s {
		total += e.dur
	}
	return duration.Snap(total)
}

// Onsets returns the start time of every event.
func (s Score) Onsets() []float64 {
	onsets := make([]float64, len(s))
	var current float64
	for i, e := range s {
		onsets[i] = current
		current = duration.Snap(current + e.dur)
	}
	return onsets
}

// IndexAt returns the index of the first event starting at or after t,
// together with its onset. It returns false if no event starts at or after t.
func (s Score) IndexAt(t float64) (int, float64, bool) {
	var current float64
	for i, e := range s {
		if current > t-duration.Epsilon {
			return i, current, true
		}
		current = duration.Snap(current + e.dur)
	}
	return 0, 0, false
}

// EventAt returns the first event starting at or after t.
func (s Score) EventAt(t float64) (Event, bool) {
	idx, _, ok := s.IndexAt(t)
	if !ok {
		return Event{}, false
	}
	return s[idx], true
}

// PitchedCount returns the number of events that are not rests.
func (s Score) PitchedCount() int {
	var n int
	for _, e := range s {
		if !e.IsRest() {
			n++
		}
	}
	return n
}

// Equal returns whether both scores contain equal events.
func (s Score) Equal(other Score) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Validate checks that every event has a positive duration aligned to the grid.
func (s Score) Validate() error {
	for i, e := range s {
		if e.dur <= 0 {
			return fmt.Errorf("%w: event %d has non-positive duration %g", ErrInvalidEvent, i, e.dur)
		}
		if _, err := duration.Align(e.dur); err != nil {
			return fmt.Errorf("%w: event %d: %w", ErrInvalidEvent, i, err)
		}
	}
	return nil
}

func (s Score) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
