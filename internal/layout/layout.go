// Package layout converts a score into a bar quantized notation voice with
// ties, dots and tuplet brackets.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/retrosheets/internal/duration"
	"github.com/retroenv/retrosheets/internal/score"
)

// Layout errors.
var (
	ErrNoDivisor      = errors.New("no representable note value")
	ErrBarLength      = errors.New("bar length is not a power of two")
	ErrTupletMismatch = errors.New("tuplet mismatch")
	ErrNoTerminalBar  = errors.New("staff does not end on a bar")
	ErrAnacrusis      = errors.New("invalid anacrusis")
)

// triplet is the only tuplet size detected by the divisor search.
const triplet = 3

// Params configures the layout of a staff. Durations are in beat units.
type Params struct {
	BarLength     int            `yaml:"bar_length"`
	BeatsPerWhole int            `yaml:"beats_per_whole"`
	Repeat        bool           `yaml:"repeat"`
	Anacrusis     float64        `yaml:"anacrusis"`
	FillEnd       bool           `yaml:"fill_end"`
	TimeBase      int            `yaml:"time_base"`
	Bars          map[int]string `yaml:"bars"` // extra bar commands keyed by bar number
}

// DefaultParams returns the default layout parameters of a 4/4 staff with
// 16 beat units per whole note.
func DefaultParams() Params {
	return Params{
		BarLength:     16,
		BeatsPerWhole: 16,
		FillEnd:       true,
		TimeBase:      4,
	}
}

// Validate checks the parameters for consistency.
func (p Params) Validate() error {
	if !duration.IsPowerOfTwo(p.BarLength) {
		return fmt.Errorf("%w: %d", ErrBarLength, p.BarLength)
	}
	if p.BeatsPerWhole <= 0 || p.TimeBase <= 0 {
		return fmt.Errorf("invalid beats per whole %d or time base %d", p.BeatsPerWhole, p.TimeBase)
	}
	if p.Anacrusis < 0 || p.Anacrusis >= float64(p.BarLength) {
		return fmt.Errorf("%w: %g is not shorter than the bar", ErrAnacrusis, p.Anacrusis)
	}
	if p.Anacrusis > 0 && !duration.IsInteger(float64(p.BeatsPerWhole)/p.Anacrusis) {
		return fmt.Errorf("%w: %g is not a note value", ErrAnacrusis, p.Anacrusis)
	}
	return nil
}

// Staff is the laid out voice of a single channel.
type Staff struct {
	Elements []Element
	Total    float64 // running total at the end of the staff in beat units
}

// String renders the staff as a LilyPond music expression.
func (s *Staff) String() string {
	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		parts[i] = e.String()
	}
	return "{\n " + strings.Join(parts, " ") + "}"
}

// BarCount returns the number of bar lines including the terminal bar.
func (s *Staff) BarCount() int {
	var n int
	for _, e := range s.Elements {
		if _, ok := e.(*Bar); ok {
			n++
		}
	}
	return n
}

// engine holds the state of laying out a single staff.
type engine struct {
	params Params
	bar    float64
	whole  float64

	b     builder
	total float64

	tuplet     int // size of the open tuplet, 0 if none is open
	tupletLeft int // chunks remaining in the open tuplet
}

// Layout converts the score into a staff. The octave offset is added to all
// pitches for display.
func Layout(s score.Score, octaveOffset int, params Params) (*Staff, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		params: params,
		bar:    float64(params.BarLength),
		whole:  float64(params.BeatsPerWhole),
	}

	timeNumerator := float64(params.TimeBase) * e.bar / e.whole
	e.b.command(Command(fmt.Sprintf("\\time %.0f/%d\n", timeNumerator, params.TimeBase)))

	if params.Anacrusis > 0 {
		e.total = -params.Anacrusis
		e.b.command(e.partial())
	}

	for i, ev := range s {
		if err := e.add(ev.WithOctaveOffset(octaveOffset)); err != nil {
			return nil, fmt.Errorf("laying out event %d '%s': %w", i, ev, err)
		}
	}

	if err := e.finish(); err != nil {
		return nil, err
	}

	return &Staff{
		Elements: e.b.elements,
		Total:    e.total,
	}, nil
}

func (e *engine) partial() Command {
	return Command(fmt.Sprintf("\\partial %.0f", e.whole/e.params.Anacrusis))
}

func (e *engine) finish() error {
	if e.params.Anacrusis > 0 && e.params.Repeat {
		e.b.command(e.partial())
		e.total += e.params.Anacrusis
		if e.atBarLine() {
			e.b.bar("")
		}
	}

	if e.params.FillEnd && !e.atBarLine() {
		rest := score.NewRest(e.bar - duration.FloorMod(e.total, e.bar))
		if err := e.add(rest); err != nil {
			return fmt.Errorf("filling end: %w", err)
		}
	}

	if err := e.b.finish(e.params.Repeat); err != nil {
		return fmt.Errorf("%w: total %g, bar length %d", err, e.total, e.params.BarLength)
	}
	return nil
}

// add lays out one event, consuming its duration in the biggest chunks that
// fit into the current bar.
func (e *engine) add(ev score.Event) error {
	var div float64
	rem := ev.Duration()

	for rem > 0 {
		prev := div
		var (
			tuplet int
			err    error
		)
		div, rem, tuplet, err = e.biggestDivisor(rem)
		if err != nil {
			return err
		}

		if e.tuplet == 0 && tuplet > 0 {
			e.tuplet = tuplet
			e.tupletLeft = tuplet
			e.b.command(Command(fmt.Sprintf("\\tuplet %d/%d {", tuplet, tuplet-1)))
		}
		if e.tuplet > 0 {
			if tuplet != e.tuplet {
				return fmt.Errorf("%w: chunk %g inside of an open %d-tuplet", ErrTupletMismatch, div, e.tuplet)
			}
			e.tupletLeft--
		}

		if duration.Equal(div, prev/2) && !e.atBarLine() {
			e.b.dotLast()
		} else if err := e.emit(ev, div); err != nil {
			return err
		}

		if rem > 0 && !ev.IsRest() {
			e.b.tieLast()
		}

		if e.tuplet > 0 {
			div *= float64(e.tuplet-1) / float64(e.tuplet)
		}
		e.total, err = duration.Align(e.total + div)
		if err != nil {
			return fmt.Errorf("advancing running total: %w", err)
		}

		if text, ok := e.marker(); ok {
			e.b.bar(text)
		}

		if e.tuplet > 0 && e.tupletLeft == 0 {
			if !duration.IsCloseToRound(e.total, 1) {
				return fmt.Errorf("%w: tuplet ends at %g", ErrTupletMismatch, e.total)
			}
			e.total = duration.Round(e.total, 1)
			e.tuplet = 0
			e.b.command("}")
		}

		if e.tuplet == 0 && e.atBarLine() && !e.b.lastIsBar() {
			e.b.bar("")
		}
	}
	return nil
}

// emit appends a new glyph for a chunk of the event.
func (e *engine) emit(ev score.Event, div float64) error {
	code := e.whole / div
	if !duration.IsInteger(code) {
		return fmt.Errorf("%w: chunk %g is no whole note fraction", ErrNoDivisor, div)
	}
	e.b.note(&NoteGlyph{
		Pitches:  ev.Pitches(),
		Duration: int(duration.Round(code, 0)),
	})
	return nil
}

// biggestDivisor returns the longest chunk of val that can be written as a
// single note value at the current position, and the remaining duration.
// For a tuplet chunk the tuplet size is returned and the remainder is the
// negative tuplet size.
func (e *engine) biggestDivisor(val float64) (float64, float64, int, error) {
	if div, ok := e.tupletDivisor(val, triplet); ok {
		return div, -triplet, triplet, nil
	}

	current := duration.FloorMod(e.total, e.bar)
	across := max(0, current+val-e.bar)
	val -= across

	for i := e.bar; i >= 0.5; i /= 2 {
		if val >= i-duration.Epsilon {
			return i, duration.Snap(val - i + across), 0, nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%w: %g at position %g", ErrNoDivisor, val, e.total)
}

// tupletDivisor returns the written note value if val is a single note of
// a tuplet of the given size.
func (e *engine) tupletDivisor(val float64, size int) (float64, bool) {
	written := val * float64(size) / float64(size-1)
	if !duration.IsInteger(written) {
		return 0, false
	}
	written = duration.Round(written, 0)

	for i := e.bar; i >= 2; i /= 2 {
		if written == i {
			return i, true
		}
	}
	return 0, false
}

// marker returns the extra bar command for the current position.
func (e *engine) marker() (string, bool) {
	if len(e.params.Bars) == 0 || !duration.IsMultiple(e.total, e.bar) {
		return "", false
	}
	text, ok := e.params.Bars[int(duration.Round(e.total/e.bar, 0))]
	return text, ok
}

func (e *engine) atBarLine() bool {
	m := duration.FloorMod(e.total, e.bar)
	return m < duration.Epsilon || e.bar-m < duration.Epsilon
}
