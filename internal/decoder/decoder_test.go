package decoder

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/duration"
	"github.com/retroenv/retrosheets/internal/score"
)

func note(class score.PitchClass, octave int, dur float64) score.Event {
	return score.NewNote(score.Pitch{Class: class, Octave: octave}, dur)
}

//nolint:funlen // test functions can be long
func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		rom   []byte
		start int
		bias  int
		want  score.Score
	}{
		{
			name: "note and rest",
			rom:  []byte{0xE8, 0x00, 0xC0, 0xFF},
			want: score.Score{note(score.C, 0, 1), score.NewRest(1)},
		},
		{
			// 0x10 decodes as a note of class 1, not a rest; rests are 0xC0-0xCF
			name: "high nibble selects pitch class",
			rom:  []byte{0xE8, 0x00, 0x10, 0xFF},
			want: score.Score{note(score.C, 0, 1), note(score.Cis, 0, 1)},
		},
		{
			name: "octave and length",
			rom:  []byte{0xE4, 0x93, 0xE3, 0xBF, 0xFF},
			want: score.Score{note(score.A, 4, 4), note(score.B, 5, 16)},
		},
		{
			name: "instrument operand is skipped",
			rom:  []byte{0xE4, 0xEC, 0x05, 0xC1, 0xFF},
			want: score.Score{score.NewRest(2)},
		},
		{
			name: "unknown skip table",
			rom:  []byte{0xE4, 0xF8, 0xD4, 0x01, 0xEA, 0x01, 0x02, 0xEB, 0x01, 0x02, 0x03, 0x21, 0xFF},
			want: score.Score{note(score.D, 4, 2)},
		},
		{
			name: "speed multipliers",
			rom:  []byte{0xE4, 0xD8, 0x00, 0x02, 0xD6, 0x00, 0x01, 0xDC, 0x00, 0x01, 0xFF},
			want: score.Score{note(score.C, 4, 2), note(score.C, 4, 1), note(score.C, 4, 2)},
		},
		{
			name: "one and a half speed creates thirds",
			rom:  []byte{0xE4, 0xD8, 0x00, 0x00, 0xFF},
			want: score.Score{note(score.C, 4, 2.0/3)},
		},
		{
			name: "unknown byte is skipped",
			rom:  []byte{0xE4, 0xF1, 0x00, 0xFF},
			want: score.Score{note(score.C, 4, 1)},
		},
		{
			name: "call and return",
			rom:  []byte{0xE4, 0xFD, 0x06, 0x00, 0xC0, 0xFF, 0x00, 0xFF},
			want: score.Score{note(score.C, 4, 1), score.NewRest(1)},
		},
		{
			name: "conditional jump fires once then returns",
			rom:  []byte{0xE4, 0x00, 0xFE, 0x01, 0x01, 0x00, 0xFF},
			want: score.Score{note(score.C, 4, 1), note(score.C, 4, 1)},
		},
		{
			name: "conditional jump with zero condition ends track",
			rom:  []byte{0xE4, 0x00, 0xFE, 0x00, 0x01, 0x00, 0x10},
			want: score.Score{note(score.C, 4, 1)},
		},
		{
			name: "nested call overwrites return address",
			rom:  []byte{0xE4, 0xFD, 0x06, 0x00, 0xC0, 0xFF, 0xFD, 0x0A, 0x00, 0xFF, 0x00, 0xFF},
			want: score.Score{note(score.C, 4, 1)},
		},
		{
			name:  "bias relative pointers",
			rom:   []byte{0xFF, 0xFF, 0xE4, 0xFD, 0x05, 0x00, 0xFF, 0x40, 0xFF},
			start: 0,
			bias:  2,
			want:  score.Score{note(score.E, 4, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(log.NewTestLogger(t), tt.rom)
			got, err := d.Decode(tt.start, tt.bias)
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got", got.String())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		rom     []byte
		start   int
		wantErr error
	}{
		{name: "missing end", rom: []byte{0xE4, 0x00}, wantErr: ErrBufferExhausted},
		{name: "truncated jump", rom: []byte{0xE4, 0xFD, 0x00}, wantErr: ErrBufferExhausted},
		{name: "note before octave", rom: []byte{0x00, 0xFF}, wantErr: ErrOctaveUnset},
		{name: "jump outside buffer", rom: []byte{0xFD, 0xFF, 0x7F}, wantErr: ErrJumpOutOfBounds},
		{name: "start outside buffer", rom: []byte{0xFF}, start: 5, wantErr: ErrJumpOutOfBounds},
		{name: "self call", rom: []byte{0xFD, 0x00, 0x00}, wantErr: ErrEndlessLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(log.NewTestLogger(t), tt.rom)
			_, err := d.Decode(tt.start, 0)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTrace(t *testing.T) {
	rom := []byte{0xE4, 0xFD, 0x06, 0x00, 0xC0, 0xFF, 0xEC, 0x03, 0x00, 0xFF}
	d := New(log.NewNop(), rom)

	s, steps, err := d.Trace(0, 0)
	assert.NoError(t, err)
	assert.Len(t, s, 2)

	mnemonics := make([]string, len(steps))
	for i, step := range steps {
		mnemonics[i] = step.Mnemonic
	}
	assert.Equal(t, []string{"octave", "call", "instrument", "note", "return", "rest", "end"}, mnemonics)

	assert.Equal(t, 1, steps[1].Offset)
	assert.Equal(t, []byte{0x06, 0x00}, steps[1].Operands)
	assert.Equal(t, "$fd $06 $00", steps[1].HexBytes())
	assert.Equal(t, "call $0006", steps[1].String())
	assert.Equal(t, []byte{0x03}, steps[2].Operands)
}

func TestDecodeTrack(t *testing.T) {
	rom := []byte{0xE4, 0x00, 0xFF, 0xE3, 0xC3, 0x20, 0xFF}
	d := New(log.NewTestLogger(t), rom)

	scores, err := d.DecodeTrack(Track{Name: "test", Channels: []int{0, 3}})
	assert.NoError(t, err)
	assert.Len(t, scores, 2)
	assert.Equal(t, 1.0, scores[0].TotalDuration())
	assert.Equal(t, 5.0, scores[1].TotalDuration())

	_, err = d.DecodeTrack(Track{Name: "broken", Channels: []int{0, 100}})
	assert.ErrorIs(t, err, ErrJumpOutOfBounds)
	assert.ErrorContains(t, err, "channel 1")
}

// randomProgram generates a buffer dominated by jumps pointing into itself.
func randomProgram(rng *rand.Rand, size int) []byte {
	rom := make([]byte, 0, size+3)
	rom = append(rom, 0xE0|byte(rng.IntN(8)))
	for len(rom) < size {
		target := func() (byte, byte) {
			t := rng.IntN(size)
			return byte(t), byte(t >> 8)
		}
		switch rng.IntN(8) {
		case 0:
			lo, hi := target()
			rom = append(rom, 0xFE, byte(rng.IntN(2)), lo, hi)
		case 1:
			lo, hi := target()
			rom = append(rom, 0xFD, lo, hi)
		case 2:
			rom = append(rom, 0xFF)
		case 3:
			rom = append(rom, []byte{0xD6, 0xD8, 0xDC}[rng.IntN(3)], 0x00)
		case 4:
			rom = append(rom, 0xC0|byte(rng.IntN(16)))
		case 5:
			rom = append(rom, 0xE0|byte(rng.IntN(8)))
		default:
			rom = append(rom, byte(rng.IntN(0xC0)))
		}
	}
	return rom
}

// replayDuration recomputes the emitted duration from a trace.
func replayDuration(steps []Step) float64 {
	speed := 1.0
	var total float64
	for _, step := range steps {
		switch step.Opcode {
		case opVelocity:
			speed = 1
		case opSpeedDouble:
			speed = 2
		case opSpeedOneHalf:
			speed = 1.5
		}
		if step.Mnemonic == mnemonicNote || step.Mnemonic == mnemonicRest {
			total += float64(1+step.Opcode&0x0F) / speed
		}
	}
	return total
}

func TestDecodeTerminatesOnRandomJumps(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	logger := log.NewNop()

	for range 500 {
		rom := randomProgram(rng, 48)
		d := New(logger, rom)

		s, steps, err := d.Trace(0, 0)
		if err != nil {
			known := errors.Is(err, ErrBufferExhausted) || errors.Is(err, ErrJumpOutOfBounds) ||
				errors.Is(err, ErrOctaveUnset) || errors.Is(err, ErrEndlessLoop)
			assert.True(t, known, "unexpected error", err)
			continue
		}

		assert.True(t, duration.Equal(replayDuration(steps), s.TotalDuration()),
			"trace duration mismatch for", rom)
	}
}
