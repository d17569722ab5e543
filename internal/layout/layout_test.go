package layout

import (
	"math/rand/v2"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrosheets/internal/score"
)

func note(class score.PitchClass, octave int, dur float64) score.Event {
	return score.NewNote(score.Pitch{Class: class, Octave: octave}, dur)
}

//nolint:funlen // test functions can be long
func TestLayout(t *testing.T) {
	tests := []struct {
		name   string
		input  score.Score
		params func(p *Params)
		want   string
	}{
		{
			name: "one bar of quarters",
			input: score.Score{
				note(score.C, 4, 4), note(score.D, 4, 4), note(score.E, 4, 4), note(score.F, 4, 4),
			},
			want: "{\n \\time 4/4\n c'4 d'4 e'4 f'4 \\bar \"|.\"\n}",
		},
		{
			name:  "tie across bar and fill end",
			input: score.Score{score.NewRest(12), note(score.C, 4, 8)},
			want:  "{\n \\time 4/4\n r2. c'4~ |\n c'4 r2. \\bar \"|.\"\n}",
		},
		{
			name:  "dots do not cross bar lines",
			input: score.Score{score.NewRest(14), note(score.C, 4, 3)},
			want:  "{\n \\time 4/4\n r2.. c'8~ |\n c'16 r2... \\bar \"|.\"\n}",
		},
		{
			name: "triplets",
			input: score.Score{
				note(score.C, 4, 4.0/3), note(score.D, 4, 4.0/3), note(score.E, 4, 4.0/3),
				note(score.F, 4, 4), note(score.G, 4, 8),
			},
			want: "{\n \\time 4/4\n \\tuplet 3/2 { c'8 d'8 e'8 } f'4 g'2 \\bar \"|.\"\n}",
		},
		{
			name:  "low octaves and chords",
			input: score.Score{note(score.A, 2, 8), score.NewChord([]score.Pitch{{Class: score.C, Octave: 3}, {Class: score.E, Octave: 5}}, 8)},
			want:  "{\n \\time 4/4\n a,2 <c e''>2 \\bar \"|.\"\n}",
		},
		{
			name:   "anacrusis",
			input:  score.Score{note(score.C, 4, 4), note(score.D, 4, 16)},
			params: func(p *Params) { p.Anacrusis = 4 },
			want:   "{\n \\time 4/4\n \\partial 4 c'4 |\n d'1 \\bar \"|.\"\n}",
		},
		{
			name:  "anacrusis with repeat",
			input: score.Score{note(score.C, 4, 4), note(score.D, 4, 12)},
			params: func(p *Params) {
				p.Anacrusis = 4
				p.Repeat = true
			},
			want: "{\n \\time 4/4\n \\partial 4 c'4 |\n d'2. \\partial 4 \\bar \":|.\"\n}",
		},
		{
			name:   "bar markers",
			input:  score.Score{note(score.C, 4, 16), note(score.D, 4, 16)},
			params: func(p *Params) { p.Bars = map[int]string{1: `\bar "||"`} },
			want:   "{\n \\time 4/4\n c'1 \\bar \"||\"\n d'1 \\bar \"|.\"\n}",
		},
		{
			name:   "eight beat bars",
			input:  score.Score{note(score.C, 4, 8), note(score.D, 4, 4)},
			params: func(p *Params) { p.BarLength = 8; p.BeatsPerWhole = 8 },
			want:   "{\n \\time 4/4\n c'1 |\n d'2 r2 \\bar \"|.\"\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			if tt.params != nil {
				tt.params(&params)
			}

			staff, err := Layout(tt.input, -3, params)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, staff.String())
		})
	}
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   score.Score
		params  func(p *Params)
		wantErr error
	}{
		{
			name:    "bar length not a power of two",
			input:   score.Score{note(score.C, 4, 12)},
			params:  func(p *Params) { p.BarLength = 12 },
			wantErr: ErrBarLength,
		},
		{
			name:    "anacrusis longer than bar",
			input:   score.Score{note(score.C, 4, 16)},
			params:  func(p *Params) { p.Anacrusis = 16 },
			wantErr: ErrAnacrusis,
		},
		{
			name:    "anacrusis is no note value",
			input:   score.Score{note(score.C, 4, 16)},
			params:  func(p *Params) { p.Anacrusis = 3 },
			wantErr: ErrAnacrusis,
		},
		{
			name:    "duration below the smallest note value",
			input:   score.Score{note(score.C, 4, 0.3)},
			wantErr: ErrNoDivisor,
		},
		{
			name:    "regular note inside tuplet",
			input:   score.Score{note(score.C, 4, 4.0/3), note(score.D, 4, 4)},
			wantErr: ErrTupletMismatch,
		},
		{
			name:    "unaligned end without fill",
			input:   score.Score{note(score.C, 4, 4)},
			params:  func(p *Params) { p.FillEnd = false },
			wantErr: ErrNoTerminalBar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			if tt.params != nil {
				tt.params(&params)
			}

			_, err := Layout(tt.input, 0, params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLayoutBarCount(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	params := DefaultParams()
	params.FillEnd = false

	for range 200 {
		var s score.Score
		var total int
		for range 1 + rng.IntN(24) {
			dur := 1 + rng.IntN(16)
			if rng.IntN(4) == 0 {
				s = append(s, score.NewRest(float64(dur)))
			} else {
				s = append(s, note(score.PitchClass(rng.IntN(12)), 3+rng.IntN(3), float64(dur)))
			}
			total += dur
		}
		if pad := total % params.BarLength; pad != 0 {
			s = append(s, score.NewRest(float64(params.BarLength-pad)))
			total += params.BarLength - pad
		}

		staff, err := Layout(s, -3, params)
		assert.NoError(t, err)
		assert.Equal(t, total/params.BarLength, staff.BarCount())

		last, ok := staff.Elements[len(staff.Elements)-1].(*Bar)
		assert.True(t, ok)
		assert.True(t, last.Terminal)

		for _, e := range staff.Elements {
			if g, ok := e.(*NoteGlyph); ok && g.IsRest() {
				assert.False(t, g.Tied, "rest is tied")
			}
		}
	}
}
