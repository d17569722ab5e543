package score

import (
	"fmt"
	"strings"
)

// PitchClass is a semitone within an octave, 0 being C.
type PitchClass uint8

// Pitch classes in LilyPond dutch note naming.
const (
	C PitchClass = iota
	Cis
	D
	Dis
	E
	F
	Fis
	G
	Gis
	A
	Ais
	B
)

// PitchClasses is the number of pitch classes in an octave.
const PitchClasses = 12

var pitchClassNames = [PitchClasses]string{
	"c", "cis", "d", "dis", "e", "f", "fis", "g", "gis", "a", "ais", "b",
}

// String returns the LilyPond name of the pitch class.
func (p PitchClass) String() string {
	return pitchClassNames[p%PitchClasses]
}

// ParsePitchClass parses a LilyPond pitch class name like "fis".
func ParsePitchClass(name string) (PitchClass, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range pitchClassNames {
		if n == name {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pitch class '%s'", name)
}

// Pitch is a pitch class in a specific octave.
type Pitch struct {
	Class  PitchClass
	Octave int
}

// MIDI returns the MIDI note number, middle C (C4) being 60.
func (p Pitch) MIDI() int {
	return 12 + 12*p.Octave + int(p.Class)
}

// Piano returns the 0 based key index on an 88 key piano.
func (p Pitch) Piano() int {
	return p.MIDI() - 21
}

// Transpose returns the pitch moved by the given number of semitones.
func (p Pitch) Transpose(semitones int) Pitch {
	idx := int(p.Class) + semitones
	octaves := idx / PitchClasses
	idx %= PitchClasses
	if idx < 0 {
		idx += PitchClasses
		octaves--
	}
	return Pitch{
		Class:  PitchClass(idx),
		Octave: p.Octave + octaves,
	}
}

// Less returns whether p sounds lower than other.
func (p Pitch) Less(other Pitch) bool {
	return p.MIDI() < other.MIDI()
}

func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Class, p.Octave)
}
