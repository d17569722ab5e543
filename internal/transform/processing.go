package transform

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/score"
)

// Processing errors.
var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Operation is a named transform invocation with its arguments.
type Operation struct {
	Name string
	Args Args
}

// ChordDirective merges two channels and appends the result as a new channel.
type ChordDirective struct {
	Channels [2]int
	ChordOptions
}

// Plan describes the processing of all channels of a track.
type Plan struct {
	Operations map[int][]Operation // operations per channel index, applied in order
	Chords     *ChordDirective
}

// opFunc applies an operation to a score. Extra returned scores are appended
// as new channels.
type opFunc func(s score.Score, args Args) (score.Score, []score.Score, error)

var operations = map[string]opFunc{
	"combine_irregular_notes": opCombineIrregularNotes,
	"combine_rests":           opCombineRests,
	"eat_rests":               opEatRests,
	"remove_notes":            opRemoveNotes,
	"split":                   opSplit,
	"transpose_below":         opTransposeBelow,
	"transpose_note_octave":   opTransposeNoteOctave,
	"transpose_score_octave":  opTransposeScoreOctave,
}

// OperationNames returns the sorted names of all supported operations.
func OperationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks that all operations of the plan are known and that the
// chord directive references existing channels.
func (p Plan) Validate(channels int) error {
	for channel, ops := range p.Operations {
		for _, op := range ops {
			if _, ok := operations[op.Name]; !ok {
				return fmt.Errorf("%w '%s' for channel %d, supported: %s",
					ErrUnknownOperation, op.Name, channel, strings.Join(OperationNames(), ", "))
			}
		}
	}
	if p.Chords != nil {
		for _, ch := range p.Chords.Channels {
			if ch < 0 || ch >= channels {
				return fmt.Errorf("%w: chord channel %d out of range", ErrInvalidArgument, ch)
			}
		}
	}
	return nil
}

// Apply runs the plan on the scores of a track and returns the processed
// scores. The input scores are not modified.
func Apply(logger *log.Logger, scores []score.Score, plan Plan) ([]score.Score, error) {
	if err := plan.Validate(len(scores)); err != nil {
		return nil, err
	}

	out := slices.Clone(scores)
	var appended []score.Score

	for i := range scores {
		for _, op := range plan.Operations[i] {
			fn := operations[op.Name]
			processed, extra, err := fn(out[i], op.Args)
			if err != nil {
				return nil, fmt.Errorf("applying %s to channel %d: %w", op.Name, i, err)
			}

			logger.Debug("Applied operation",
				log.String("operation", op.Name),
				log.Int("channel", i),
				log.Int("events", len(processed)),
			)
			out[i] = processed
			appended = append(appended, extra...)
		}
	}
	out = append(out, appended...)

	if plan.Chords != nil {
		a, b := plan.Chords.Channels[0], plan.Chords.Channels[1]
		chords, err := MakeChords(logger, out[a], out[b], plan.Chords.ChordOptions)
		if err != nil {
			return nil, fmt.Errorf("making chords of channels %d and %d: %w", a, b, err)
		}
		out = append(out, chords)
	}

	return out, nil
}

func opTransposeScoreOctave(s score.Score, args Args) (score.Score, []score.Score, error) {
	offset, err := args.Int("offset", 0)
	if err != nil {
		return nil, nil, err
	}
	return TransposeOctave(s, offset), nil, nil
}

func opTransposeNoteOctave(s score.Score, args Args) (score.Score, []score.Score, error) {
	offset, err := args.Int("offset", 0)
	if err != nil {
		return nil, nil, err
	}
	sel, err := args.Selector("index")
	if err != nil {
		return nil, nil, err
	}
	return TransposeSelected(s, offset, sel), nil, nil
}

func opRemoveNotes(s score.Score, args Args) (score.Score, []score.Score, error) {
	sel, err := args.Selector("index")
	if err != nil {
		return nil, nil, err
	}
	return RemoveNotes(s, sel), nil, nil
}

func opCombineRests(s score.Score, _ Args) (score.Score, []score.Score, error) {
	out, err := CombineRests(s)
	return out, nil, err
}

func opCombineIrregularNotes(s score.Score, _ Args) (score.Score, []score.Score, error) {
	out, err := CombineIrregularNotes(s)
	return out, nil, err
}

func opEatRests(s score.Score, args Args) (score.Score, []score.Score, error) {
	maxDur, err := args.Float("max_dur", DefaultMaxRestDuration)
	if err != nil {
		return nil, nil, err
	}
	out, err := EatRests(s, maxDur)
	return out, nil, err
}

func opTransposeBelow(s score.Score, args Args) (score.Score, []score.Score, error) {
	name, err := args.String("note", "")
	if err != nil {
		return nil, nil, err
	}
	class, err := score.ParsePitchClass(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	octave, err := args.Int("octave", 0)
	if err != nil {
		return nil, nil, err
	}
	return ClampRegister(s, score.Pitch{Class: class, Octave: octave}), nil, nil
}

func opSplit(s score.Score, args Args) (score.Score, []score.Score, error) {
	sel, err := args.Selector("index")
	if err != nil {
		return nil, nil, err
	}
	selected, complement, err := Split(s, sel)
	if err != nil {
		return nil, nil, err
	}
	return selected, []score.Score{complement}, nil
}
