// Package transform implements score transformations that prepare decoded
// channels for notation.
package transform

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrosheets/internal/duration"
	"github.com/retroenv/retrosheets/internal/score"
)

// Transform errors.
var (
	ErrDurationMismatch = errors.New("duration mismatch")
	ErrLengthMismatch   = errors.New("length mismatch")
	ErrOnsetMismatch    = errors.New("no event at onset")
)

// DefaultMaxRestDuration is the longest rest that EatRests folds by default.
const DefaultMaxRestDuration = 0.5

// TransposeOctave moves every event of the score by whole octaves.
func TransposeOctave(s score.Score, offset int) score.Score {
	out := make(score.Score, len(s))
	for i, e := range s {
		out[i] = e.WithOctaveOffset(offset)
	}
	return out
}

// TransposeSelected moves the selected events of the score by whole octaves.
func TransposeSelected(s score.Score, offset int, sel Selector) score.Score {
	mask := sel.Mask(len(s))
	out := s.Clone()
	for i, selected := range mask {
		if selected {
			out[i] = out[i].WithOctaveOffset(offset)
		}
	}
	return out
}

// RemoveNotes replaces the selected events with rests of the same duration.
func RemoveNotes(s score.Score, sel Selector) score.Score {
	mask := sel.Mask(len(s))
	out := s.Clone()
	for i, selected := range mask {
		if selected {
			out[i] = score.NewRest(out[i].Duration())
		}
	}
	return out
}

// CombineRests merges every run of consecutive rests into a single rest.
func CombineRests(s score.Score) (score.Score, error) {
	if len(s) == 0 {
		return nil, nil
	}

	out := score.Score{s[0]}
	for _, e := range s[1:] {
		last := len(out) - 1
		if out[last].IsRest() && e.IsRest() {
			out[last] = out[last].WithDuration(out[last].Duration() + e.Duration())
			continue
		}
		out = append(out, e)
	}

	if err := checkPreserved(s, out); err != nil {
		return nil, fmt.Errorf("combining rests: %w", err)
	}
	return out, nil
}

// CombineIrregularNotes merges consecutive notes of the same pitch whose
// durations are not a multiple of half a unit, if the combined duration is
// back on the tenth grid.
func CombineIrregularNotes(s score.Score) (score.Score, error) {
	if len(s) == 0 {
		return nil, nil
	}

	out := score.Score{s[0]}
	for _, e := range s[1:] {
		last := len(out) - 1
		prev := out[last]
		if !prev.SamePitches(e) || duration.IsHalf(prev.Duration()) || duration.IsHalf(e.Duration()) {
			out = append(out, e)
			continue
		}

		combined := prev.Duration() + e.Duration()
		if !duration.IsCloseToRound(combined, 1) {
			out = append(out, e)
			continue
		}
		out[last] = prev.WithDuration(duration.Round(combined, 1))
	}

	if err := checkPreserved(s, out); err != nil {
		return nil, fmt.Errorf("combining irregular notes: %w", err)
	}
	return out, nil
}

// EatRests removes rests not longer than maxDur by adding their duration to
// the preceding event, if the resulting duration is a whole number.
func EatRests(s score.Score, maxDur float64) (score.Score, error) {
	out := make(score.Score, 0, len(s))
	for _, e := range s {
		if e.IsRest() && e.Duration() <= maxDur+duration.Epsilon && len(out) > 0 {
			last := len(out) - 1
			combined := out[last].Duration() + e.Duration()
			if duration.IsInteger(combined) {
				out[last] = out[last].WithDuration(duration.Round(combined, 0))
				continue
			}
		}
		out = append(out, e)
	}

	if err := checkPreserved(s, out); err != nil {
		return nil, fmt.Errorf("eating rests: %w", err)
	}
	return out, nil
}

// ClampRegister moves every pitched event up by whole octaves until its
// lowest pitch is not below floor.
func ClampRegister(s score.Score, floor score.Pitch) score.Score {
	out := make(score.Score, len(s))
	for i, e := range s {
		lowest, ok := e.Lowest()
		if ok && lowest.Less(floor) {
			octaves := (floor.MIDI() - lowest.MIDI() + score.PitchClasses - 1) / score.PitchClasses
			e = e.WithOctaveOffset(octaves)
		}
		out[i] = e
	}
	return out
}

// Split partitions the score into the selected events and the complement.
// Events missing in either part are replaced with rests, and rests of both
// parts are combined.
func Split(s score.Score, sel Selector) (score.Score, score.Score, error) {
	mask := sel.Mask(len(s))
	selected := make(score.Score, len(s))
	complement := make(score.Score, len(s))
	for i, e := range s {
		rest := score.NewRest(e.Duration())
		if mask[i] {
			selected[i], complement[i] = e, rest
		} else {
			selected[i], complement[i] = rest, e
		}
	}

	selected, err := CombineRests(selected)
	if err != nil {
		return nil, nil, fmt.Errorf("splitting selected events: %w", err)
	}
	complement, err = CombineRests(complement)
	if err != nil {
		return nil, nil, fmt.Errorf("splitting complement events: %w", err)
	}
	return selected, complement, nil
}

func checkPreserved(before, after score.Score) error {
	want := before.TotalDuration()
	got := after.TotalDuration()
	if !duration.Equal(want, got) {
		return fmt.Errorf("%w: expected total %g, got %g", ErrDurationMismatch, want, got)
	}
	return nil
}
