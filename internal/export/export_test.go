package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrosheets/internal/score"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	c4 = score.Pitch{Class: score.C, Octave: 4}
	e4 = score.Pitch{Class: score.E, Octave: 4}
)

func TestWriteMIDI(t *testing.T) {
	scores := []score.Score{
		{score.NewNote(c4, 1), score.NewRest(1), score.NewChord([]score.Pitch{c4, e4}, 2)},
		{score.NewRest(4)},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteMIDI(&buf, scores, DefaultMIDIOptions()))

	file, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	assert.Len(t, file.Tracks, 2)
	assert.Equal(t, smf.MetricTicks(512), file.TimeFormat)

	var (
		ticks    uint32
		starts   []uint32
		keys     []uint8
		bpm      float64
		name     string
		channel  uint8
		key, vel uint8
	)
	for _, ev := range file.Tracks[0] {
		ticks += ev.Delta
		switch {
		case ev.Message.GetNoteStart(&channel, &key, &vel):
			starts = append(starts, ticks)
			keys = append(keys, key)
			assert.Equal(t, uint8(64), vel)
		case ev.Message.GetMetaTempo(&bpm):
		case ev.Message.GetMetaTrackName(&name):
		}
	}
	assert.Equal(t, []uint32{0, 256, 256}, starts)
	assert.Equal(t, []uint8{60, 60, 64}, keys)
	assert.Equal(t, uint32(512), ticks)
	assert.Equal(t, "channel A", name)
	assert.Equal(t, 80.0, bpm)

	ticks = 0
	for _, ev := range file.Tracks[1] {
		ticks += ev.Delta
	}
	assert.Equal(t, uint32(512), ticks)
}

func TestWriteMIDITupletOnsets(t *testing.T) {
	var triplets score.Score
	for range 12 {
		triplets = append(triplets, score.NewNote(c4, 4.0/3))
	}
	triplets = append(triplets, score.NewNote(e4, 1))
	straight := score.Score{score.NewNote(c4, 16), score.NewNote(e4, 1)}

	file, err := BuildMIDI([]score.Score{triplets, straight}, DefaultMIDIOptions())
	assert.NoError(t, err)

	for i, track := range file.Tracks {
		var (
			ticks, lastStart, total uint32
			channel, key, vel       uint8
		)
		for _, ev := range track {
			ticks += ev.Delta
			if ev.Message.GetNoteStart(&channel, &key, &vel) {
				lastStart = ticks
			}
			total = ticks
		}
		assert.Equal(t, uint32(2048), lastStart, "track %d", i)
		assert.Equal(t, uint32(2176), total, "track %d", i)
	}
}

func TestWriteMIDIKeyRange(t *testing.T) {
	scores := []score.Score{{score.NewNote(score.Pitch{Class: score.C, Octave: 11}, 1)}}

	var buf bytes.Buffer
	err := WriteMIDI(&buf, scores, DefaultMIDIOptions())
	assert.ErrorIs(t, err, ErrKeyRange)
	assert.Equal(t, 0, buf.Len())
}

func TestWriteJSON(t *testing.T) {
	scores := []score.Score{
		{score.NewNote(c4, 1), score.NewRest(0.5), score.NewChord([]score.Pitch{e4, c4}, 2)},
		{score.NewNote(score.Pitch{Class: score.A, Octave: 0}, 4)},
	}

	var buf bytes.Buffer
	assert.NoError(t, WriteJSON(&buf, scores))

	var got [][]KeyDuration
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, [][]KeyDuration{
		{{Key: 39, Duration: 1}, {Key: -1, Duration: 0.5}, {Key: 39, Duration: 2}},
		{{Key: 0, Duration: 4}},
	}, got)

	assert.Contains(t, buf.String(), "[\n      39,\n      1\n    ]")
}
