// Package decoder interprets the music bytecode of the Pokémon Red, Blue and
// Yellow sound engine and converts every channel into a score.
package decoder

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retrosheets/internal/score"
)

// Decode errors.
var (
	ErrBufferExhausted = errors.New("buffer exhausted before end of track")
	ErrJumpOutOfBounds = errors.New("jump target out of buffer bounds")
	ErrOctaveUnset     = errors.New("note played before octave was set")
	ErrEndlessLoop     = errors.New("endless loop without end of track")
)

// Track describes where the channels of a music track start.
type Track struct {
	Name     string
	Bias     int   // bank relative pointer bias added to every pointer
	Channels []int // start pointer of every channel
}

// Decoder decodes music channels from a ROM image.
// It holds no state between calls and can be used concurrently.
type Decoder struct {
	logger *log.Logger
	rom    []byte
}

// New returns a new decoder for the given ROM image.
func New(logger *log.Logger, rom []byte) *Decoder {
	return &Decoder{
		logger: logger,
		rom:    rom,
	}
}

// Decode decodes the channel starting at the bias relative pointer start.
func (d *Decoder) Decode(start, bias int) (score.Score, error) {
	s, _, err := d.run(start, bias, false)
	return s, err
}

// Trace decodes the channel like Decode and additionally returns every
// executed instruction in execution order.
func (d *Decoder) Trace(start, bias int) (score.Score, []Step, error) {
	return d.run(start, bias, true)
}

// DecodeTrack decodes all channels of a track.
func (d *Decoder) DecodeTrack(track Track) ([]score.Score, error) {
	scores := make([]score.Score, 0, len(track.Channels))
	for i, ptr := range track.Channels {
		s, err := d.Decode(ptr, track.Bias)
		if err != nil {
			return nil, fmt.Errorf("decoding channel %d of track '%s': %w", i, track.Name, err)
		}

		d.logger.Info("Decoded channel",
			log.String("track", track.Name),
			log.Int("channel", i),
			log.Int("events", len(s)),
			log.Float64("duration", s.TotalDuration()),
		)
		scores = append(scores, s)
	}
	return scores, nil
}

func (d *Decoder) run(start, bias int, trace bool) (score.Score, []Step, error) {
	it := &interpreter{
		logger: d.logger,
		rom:    d.rom,
		bias:   bias,
		trace:  trace,
		state:  newState(bias + start),
	}
	if it.cursor < 0 || it.cursor >= len(d.rom) {
		return nil, nil, fmt.Errorf("%w: start offset 0x%04x", ErrJumpOutOfBounds, it.cursor)
	}

	// the taken jump set only grows, so a repeated state can never reach an end
	visited := set.New[stateKey]()
	for {
		key := it.key()
		if visited.Contains(key) {
			return nil, nil, fmt.Errorf("%w: state repeats at offset 0x%04x", ErrEndlessLoop, it.cursor)
		}
		visited.Add(key)

		done, err := it.step()
		if err != nil {
			return nil, nil, err
		}
		if done {
			return it.score, it.steps, nil
		}
	}
}
