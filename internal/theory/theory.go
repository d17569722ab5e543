// Package theory implements scale construction and key detection.
package theory

import (
	"fmt"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retrosheets/internal/score"
)

// Mode is the mode of a key.
type Mode string

// Supported modes.
const (
	Major Mode = "major"
	Minor Mode = "minor"
)

// Key is a tonic together with a mode.
type Key struct {
	Tonic score.PitchClass
	Mode  Mode
}

// String returns the key in LilyPond syntax like "\key fis \minor".
func (k Key) String() string {
	return fmt.Sprintf("\\key %s \\%s", k.Tonic, k.Mode)
}

// ParseKey parses a tonic name and a mode.
func ParseKey(tonic, mode string) (Key, error) {
	class, err := score.ParsePitchClass(tonic)
	if err != nil {
		return Key{}, fmt.Errorf("parsing tonic: %w", err)
	}
	switch m := Mode(mode); m {
	case Major, Minor:
		return Key{Tonic: class, Mode: m}, nil
	default:
		return Key{}, fmt.Errorf("unsupported mode '%s'", mode)
	}
}

var (
	majorSteps = [...]int{2, 2, 1, 2, 2, 2, 1}
	minorSteps = [...]int{2, 1, 2, 2, 1, 2, 2}
)

// fifth is the interval of a perfect fifth in semitones.
const fifth = 7

// CircleOfFifths returns the 12 tonics of the mode, starting at C for major
// and at A for minor.
func CircleOfFifths(mode Mode) []score.PitchClass {
	start := score.C
	if mode == Minor {
		start = score.A
	}

	circle := make([]score.PitchClass, score.PitchClasses)
	for i := range circle {
		circle[i] = (start + score.PitchClass(i*fifth)) % score.PitchClasses
	}
	return circle
}

// Scale returns the pitch classes of the scale of the key, starting and
// ending with the tonic.
func Scale(k Key) []score.PitchClass {
	steps := majorSteps
	if k.Mode == Minor {
		steps = minorSteps
	}

	scale := []score.PitchClass{k.Tonic}
	current := k.Tonic
	for _, step := range steps {
		current = (current + score.PitchClass(step)) % score.PitchClasses
		scale = append(scale, current)
	}
	return scale
}

// interleave orders the circle by distance from its start, alternating the
// sharp and the flat side.
func interleave(circle []score.PitchClass) []score.PitchClass {
	n := len(circle)
	out := []score.PitchClass{circle[0]}
	for i := 1; i < n/2; i++ {
		out = append(out, circle[i], circle[n-i])
	}
	return append(out, circle[n/2])
}

// Candidates returns all keys in detection order: pairs of a major key and
// a minor key, ordered by the distance of the tonic from C major on the
// circle of fifths.
func Candidates() []Key {
	majors := interleave(CircleOfFifths(Major))
	minors := interleave(CircleOfFifths(Minor))

	keys := make([]Key, 0, len(majors)+len(minors))
	for i := range majors {
		keys = append(keys,
			Key{Tonic: majors[i], Mode: Major},
			Key{Tonic: minors[i], Mode: Minor},
		)
	}
	return keys
}

// DetectKey returns the key whose scale contains the most pitches of all
// scores. Ties are won by the earlier candidate, an empty input results in
// C major.
func DetectKey(scores []score.Score) Key {
	var pitches []score.PitchClass
	for _, s := range scores {
		for _, e := range s {
			for _, p := range e.Pitches() {
				pitches = append(pitches, p.Class)
			}
		}
	}

	candidates := Candidates()
	best := candidates[0]
	var bestMatches int

	for _, k := range candidates {
		scale := set.NewFromSlice(Scale(k))

		var matches int
		for _, p := range pitches {
			if scale.Contains(p) {
				matches++
			}
		}

		if matches > bestMatches {
			best = k
			bestMatches = matches
			if matches == len(pitches) {
				break
			}
		}
	}
	return best
}
