package score

import (
	"fmt"
	"slices"
	"strings"

	"github.com/retroenv/retrosheets/internal/duration"
)

// Kind distinguishes the variants of an Event.
type Kind uint8

// Event kinds.
const (
	RestKind Kind = iota
	NoteKind
	ChordKind
)

func (k Kind) String() string {
	switch k {
	case RestKind:
		return "rest"
	case NoteKind:
		return "note"
	case ChordKind:
		return "chord"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Event is a rest, a single pitch or a chord of distinct pitches, lasting
// for a duration in beat units. The zero value is not valid, use the
// constructors. Events are immutable, all modifiers return copies.
type Event struct {
	pitches []Pitch // nil for a rest
	dur     float64
}

// NewRest returns a rest of the given duration.
func NewRest(dur float64) Event {
	return Event{dur: duration.Snap(dur)}
}

// NewNote returns a single pitch event.
func NewNote(p Pitch, dur float64) Event {
	return Event{
		pitches: []Pitch{p},
		dur:     duration.Snap(dur),
	}
}

// NewChord returns an event sounding all given pitches. Duplicate pitches are
// dropped keeping the first occurrence. No pitches result in a rest and a
// single distinct pitch in a note.
func NewChord(pitches []Pitch, dur float64) Event {
	var unique []Pitch
	for _, p := range pitches {
		if !slices.Contains(unique, p) {
			unique = append(unique, p)
		}
	}
	return Event{
		pitches: unique,
		dur:     duration.Snap(dur),
	}
}

// Merge returns a chord of all pitches of the given events using the
// duration of the first event. Rests contribute no pitches.
func Merge(first Event, others ...Event) Event {
	pitches := slices.Clone(first.pitches)
	for _, e := range others {
		pitches = append(pitches, e.pitches...)
	}
	return NewChord(pitches, first.dur)
}

// Kind returns the variant of the event.
func (e Event) Kind() Kind {
	switch len(e.pitches) {
	case 0:
		return RestKind
	case 1:
		return NoteKind
	default:
		return ChordKind
	}
}

// IsRest returns whether the event is a rest.
func (e Event) IsRest() bool {
	return len(e.pitches) == 0
}

// Duration returns the duration in beat units.
func (e Event) Duration() float64 {
	return e.dur
}

// Pitches returns a copy of the pitches of the event, nil for a rest.
func (e Event) Pitches() []Pitch {
	return slices.Clone(e.pitches)
}

// Pitch returns the first pitch of the event.
func (e Event) Pitch() (Pitch, bool) {
	if len(e.pitches) == 0 {
		return Pitch{}, false
	}
	return e.pitches[0], true
}

// Lowest returns the lowest sounding pitch of the event.
func (e Event) Lowest() (Pitch, bool) {
	if len(e.pitches) == 0 {
		return Pitch{}, false
	}
	return slices.MinFunc(e.pitches, func(a, b Pitch) int {
		return a.MIDI() - b.MIDI()
	}), true
}

// WithDuration returns a copy of the event with a new duration.
func (e Event) WithDuration(dur float64) Event {
	return Event{
		pitches: e.pitches,
		dur:     duration.Snap(dur),
	}
}

// WithOctaveOffset returns a copy of the event moved by whole octaves.
// Rests are returned unchanged.
func (e Event) WithOctaveOffset(offset int) Event {
	return e.mapPitches(func(p Pitch) Pitch {
		p.Octave += offset
		return p
	})
}

// WithSemitoneOffset returns a copy of the event transposed by semitones.
func (e Event) WithSemitoneOffset(offset int) Event {
	return e.mapPitches(func(p Pitch) Pitch {
		return p.Transpose(offset)
	})
}

func (e Event) mapPitches(fn func(Pitch) Pitch) Event {
	if e.IsRest() {
		return e
	}
	pitches := make([]Pitch, len(e.pitches))
	for i, p := range e.pitches {
		pitches[i] = fn(p)
	}
	return NewChord(pitches, e.dur)
}

// SamePitches returns whether both events sound the same set of pitches.
// Two rests have the same pitches.
func (e Event) SamePitches(other Event) bool {
	if len(e.pitches) != len(other.pitches) {
		return false
	}
	for _, p := range e.pitches {
		if !slices.Contains(other.pitches, p) {
			return false
		}
	}
	return true
}

// Equal returns whether both events have the same pitches and duration.
func (e Event) Equal(other Event) bool {
	return e.SamePitches(other) && duration.Equal(e.dur, other.dur)
}

// String returns a compact representation like "c4:1", "r:2" or "<c4 e4>:1".
func (e Event) String() string {
	dur := fmt.Sprintf("%g", duration.Round(e.dur, 4))
	switch e.Kind() {
	case RestKind:
		return "r:" + dur
	case NoteKind:
		return e.pitches[0].String() + ":" + dur
	default:
		names := make([]string, len(e.pitches))
		for i, p := range e.pitches {
			names[i] = p.String()
		}
		return "<" + strings.Join(names, " ") + ">:" + dur
	}
}
