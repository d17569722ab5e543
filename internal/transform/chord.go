package transform

import (
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/duration"
	"github.com/retroenv/retrosheets/internal/score"
)

// ChordPolicy selects how two channels are synthesized into chords.
type ChordPolicy string

// Chord synthesis policies.
const (
	PolicyExact       ChordPolicy = "exact"
	PolicyAlign       ChordPolicy = "align"
	PolicyPartCombine ChordPolicy = "part_combine"
)

// ChordOptions configures chord synthesis.
type ChordOptions struct {
	Policy ChordPolicy

	// SkipSeconds keeps only the first event where both pitches are a
	// second apart, which would be hard to read as a chord.
	SkipSeconds bool

	// Strict fails part combination on secondary onsets that have no
	// matching primary event instead of skipping them.
	Strict bool
}

// MakeChords merges two scores into one according to the policy.
func MakeChords(logger *log.Logger, a, b score.Score, opts ChordOptions) (score.Score, error) {
	switch opts.Policy {
	case PolicyExact, "":
		return MergeExact(a, b, opts.SkipSeconds)

	case PolicyAlign:
		alignedA, alignedB, err := AlignToShortest(a, b)
		if err != nil {
			return nil, err
		}
		return MergeExact(alignedA, alignedB, opts.SkipSeconds)

	case PolicyPartCombine:
		return PartCombine(logger, a, b, opts.Strict)

	default:
		return nil, fmt.Errorf("unsupported chord policy '%s'", opts.Policy)
	}
}

// MergeExact merges two scores of equal length and per event durations.
// A rest yields to the event of the other score.
func MergeExact(a, b score.Score, skipSeconds bool) (score.Score, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d and %d events", ErrLengthMismatch, len(a), len(b))
	}
	if err := checkPreserved(a, b); err != nil {
		return nil, err
	}

	out := make(score.Score, len(a))
	for i := range a {
		ea, eb := a[i], b[i]
		if !duration.Equal(ea.Duration(), eb.Duration()) {
			return nil, fmt.Errorf("%w: event %d lasts %g and %g", ErrDurationMismatch, i, ea.Duration(), eb.Duration())
		}

		switch {
		case ea.IsRest():
			out[i] = eb.WithDuration(ea.Duration())
		case eb.IsRest():
			out[i] = ea
		case skipSeconds && isSecond(ea, eb):
			out[i] = ea
		default:
			out[i] = score.Merge(ea, eb)
		}
	}
	return out, nil
}

// AlignToShortest reslices both scores at the union of their onsets so that
// every event of one score starts and ends together with an event of the
// other.
func AlignToShortest(a, b score.Score) (score.Score, score.Score, error) {
	if err := checkPreserved(a, b); err != nil {
		return nil, nil, err
	}

	boundaries := append(a.Onsets(), b.Onsets()...)
	boundaries = append(boundaries, a.TotalDuration())
	slices.Sort(boundaries)
	boundaries = slices.CompactFunc(boundaries, duration.Equal)

	return reslice(a, boundaries), reslice(b, boundaries), nil
}

// reslice splits every event of the score at all boundaries that fall
// inside of it.
func reslice(s score.Score, boundaries []float64) score.Score {
	out := make(score.Score, 0, len(boundaries))
	onsets := s.Onsets()
	for i, e := range s {
		start := onsets[i]
		end := start + e.Duration()
		pos := start
		for _, bound := range boundaries {
			if bound <= start+duration.Epsilon || bound >= end-duration.Epsilon {
				continue
			}
			out = append(out, e.WithDuration(bound-pos))
			pos = bound
		}
		out = append(out, e.WithDuration(end-pos))
	}
	return out
}

// PartCombine merges the pitches of every pitched secondary event into the
// primary event starting at the same time, keeping the primary durations.
// Secondary events without a primary event at their onset are logged and
// skipped, or fail the merge in strict mode.
func PartCombine(logger *log.Logger, primary, secondary score.Score, strict bool) (score.Score, error) {
	out := primary.Clone()
	onsets := primary.Onsets()
	secondaryOnsets := secondary.Onsets()

	for i, e := range secondary {
		if e.IsRest() {
			continue
		}

		t := secondaryOnsets[i]
		idx, found := slices.BinarySearchFunc(onsets, t, func(onset, target float64) int {
			if duration.Equal(onset, target) {
				return 0
			}
			if onset < target {
				return -1
			}
			return 1
		})
		if !found {
			if strict {
				return nil, fmt.Errorf("%w: secondary event %d at %g", ErrOnsetMismatch, i, t)
			}
			logger.Warn("Skipping event without matching onset",
				log.Int("index", i),
				log.Float64("onset", t),
				log.Stringer("event", e),
			)
			continue
		}

		out[idx] = score.Merge(out[idx], e)
	}
	return out, nil
}

// isSecond returns whether any pitch pair of both events is a minor or
// major second apart, ignoring octaves.
func isSecond(a, b score.Event) bool {
	for _, pa := range a.Pitches() {
		for _, pb := range b.Pitches() {
			interval := (pa.MIDI() - pb.MIDI()) % score.PitchClasses
			if interval < 0 {
				interval += score.PitchClasses
			}
			if interval == 1 || interval == 2 || interval == 10 || interval == 11 {
				return true
			}
		}
	}
	return false
}
