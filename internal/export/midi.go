// Package export writes scores as standard MIDI files and JSON note lists.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/retroenv/retrosheets/internal/score"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrKeyRange is returned for pitches outside of the MIDI key range.
var ErrKeyRange = errors.New("pitch outside of MIDI key range")

const (
	maxKey          = 127
	midiChannels    = 16
	unitsPerQuarter = 4
)

// MIDIOptions configures the MIDI export.
type MIDIOptions struct {
	TicksPerUnit uint16  // ticks per beat unit
	Velocity     uint8   // note on velocity
	Tempo        float64 // quarter notes per minute
}

// DefaultMIDIOptions returns the default MIDI export options.
func DefaultMIDIOptions() MIDIOptions {
	return MIDIOptions{
		TicksPerUnit: 128,
		Velocity:     64,
		Tempo:        80,
	}
}

// WriteMIDI writes the scores as a multi track standard MIDI file with one
// track per channel.
func WriteMIDI(w io.Writer, scores []score.Score, opts MIDIOptions) error {
	file, err := BuildMIDI(scores, opts)
	if err != nil {
		return err
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("writing MIDI file: %w", err)
	}
	return nil
}

// BuildMIDI converts the scores into a multi track standard MIDI file.
func BuildMIDI(scores []score.Score, opts MIDIOptions) (*smf.SMF, error) {
	file := smf.NewSMF1()
	file.TimeFormat = smf.MetricTicks(unitsPerQuarter * opts.TicksPerUnit)

	for i, s := range scores {
		track, err := buildTrack(i, s, opts)
		if err != nil {
			return nil, fmt.Errorf("building track of channel %d: %w", i, err)
		}
		if err := file.Add(track); err != nil {
			return nil, fmt.Errorf("adding track of channel %d: %w", i, err)
		}
	}
	return file, nil
}

func buildTrack(index int, s score.Score, opts MIDIOptions) (smf.Track, error) {
	var track smf.Track
	channel := uint8(index % midiChannels)

	track.Add(0, smf.MetaTrackSequenceName(fmt.Sprintf("channel %c", 'A'+index)))
	if index == 0 {
		track.Add(0, smf.MetaTempo(opts.Tempo))
	}

	// deltas are taken between rounded absolute onsets
	var onset float64
	var last uint32
	for _, e := range s {
		start := tickAt(onset, opts.TicksPerUnit)
		onset += e.Duration()
		if e.IsRest() {
			continue
		}
		end := tickAt(onset, opts.TicksPerUnit)

		keys, err := midiKeys(e)
		if err != nil {
			return nil, err
		}

		on := make([][]byte, len(keys))
		off := make([][]byte, len(keys))
		for i, key := range keys {
			on[i] = midi.NoteOn(channel, key, opts.Velocity)
			off[i] = midi.NoteOff(channel, key)
		}
		track.Add(start-last, on...)
		track.Add(end-start, off...)
		last = end
	}

	track.Close(tickAt(onset, opts.TicksPerUnit) - last)
	return track, nil
}

// tickAt returns the absolute tick of a position given in beat units.
func tickAt(units float64, ticksPerUnit uint16) uint32 {
	return uint32(math.Round(units * float64(ticksPerUnit)))
}

func midiKeys(e score.Event) ([]uint8, error) {
	pitches := e.Pitches()
	keys := make([]uint8, len(pitches))
	for i, p := range pitches {
		key := p.MIDI()
		if key < 0 || key > maxKey {
			return nil, fmt.Errorf("%w: %s", ErrKeyRange, p)
		}
		keys[i] = uint8(key)
	}
	return keys, nil
}
