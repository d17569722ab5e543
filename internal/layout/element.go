package layout

import (
	"strconv"
	"strings"

	"github.com/retroenv/retrosheets/internal/score"
)

// Element is a single item of a staff voice.
type Element interface {
	String() string
}

// NoteGlyph is an engraved note, chord or rest.
type NoteGlyph struct {
	Pitches  []score.Pitch // nil for a rest
	Duration int           // note value code, 4 is a quarter note
	Dots     int
	Tied     bool
}

// IsRest returns whether the glyph is a rest.
func (g *NoteGlyph) IsRest() bool {
	return len(g.Pitches) == 0
}

func (g *NoteGlyph) tie() {
	if !g.IsRest() {
		g.Tied = true
	}
}

func (g *NoteGlyph) String() string {
	var sb strings.Builder
	switch len(g.Pitches) {
	case 0:
		sb.WriteByte('r')
	case 1:
		writePitch(&sb, g.Pitches[0])
	default:
		sb.WriteByte('<')
		for i, p := range g.Pitches {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writePitch(&sb, p)
		}
		sb.WriteByte('>')
	}

	sb.WriteString(strconv.Itoa(g.Duration))
	sb.WriteString(strings.Repeat(".", g.Dots))
	if g.Tied {
		sb.WriteByte('~')
	}
	return sb.String()
}

// writePitch writes the pitch with relative octave marks, octave 0 being
// the unmarked octave.
func writePitch(sb *strings.Builder, p score.Pitch) {
	sb.WriteString(p.Class.String())
	if p.Octave > 0 {
		sb.WriteString(strings.Repeat("'", p.Octave))
	} else if p.Octave < 0 {
		sb.WriteString(strings.Repeat(",", -p.Octave))
	}
}

// Bar is a bar line. A terminal bar ends the staff.
type Bar struct {
	Text     string // custom bar command, empty for a plain bar line
	Terminal bool
	Repeat   bool
}

func (b *Bar) String() string {
	switch {
	case b.Terminal && b.Repeat:
		return `\bar ":|."` + "\n"
	case b.Terminal:
		return `\bar "|."` + "\n"
	case b.Text != "":
		return b.Text + "\n"
	default:
		return "|\n"
	}
}

// Command is a raw notation command like a time signature or a tuplet bracket.
type Command string

func (c Command) String() string {
	return string(c)
}
