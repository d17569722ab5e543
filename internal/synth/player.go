package synth

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/retroenv/retrogolib/audio"
	"github.com/retroenv/retrogolib/log"
)

// ErrNoRenderer is returned when no audio renderer is registered.
var ErrNoRenderer = errors.New("no audio renderer registered")

const (
	// callbackFrames is the number of sample frames per audio callback, it
	// has to be a power of two.
	callbackFrames = 1024

	// drainCallbacks is the number of silent callbacks after the last sample
	// until the queued audio of the renderer has been played.
	drainCallbacks = 4
)

// Player streams mono 16 bit samples to an audio renderer.
type Player struct {
	format audio.Format

	mu      sync.Mutex
	samples []int16
	pos     int
	silent  int

	done     chan struct{}
	doneOnce sync.Once
}

// NewPlayer returns a player for the given samples.
func NewPlayer(samples []int16, sampleRate int) *Player {
	return &Player{
		format: audio.Format{
			SampleRate: sampleRate,
			Channels:   1,
			Samples:    callbackFrames,
			Format:     audio.FormatS16,
		},
		samples: samples,
		done:    make(chan struct{}),
	}
}

// AudioFormat returns the PCM format of the player.
func (p *Player) AudioFormat() audio.Format {
	return p.format
}

// AudioCallback fills the buffer with the next samples, padding with silence
// once all samples have been played.
func (p *Player) AudioCallback(buffer []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i+1 < len(buffer); i += 2 {
		var sample int16
		if p.pos < len(p.samples) {
			sample = p.samples[p.pos]
			p.pos++
		}
		binary.LittleEndian.PutUint16(buffer[i:], uint16(sample))
	}

	if p.pos >= len(p.samples) {
		p.silent++
		if p.silent > drainCallbacks {
			p.doneOnce.Do(func() { close(p.done) })
		}
	}
}

// AudioPaused returns whether playback is paused.
func (p *Player) AudioPaused() bool {
	return false
}

// Done returns a channel that is closed after all samples have been played.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Play plays the samples through the registered audio renderer and blocks
// until playback finished, failed or the context got cancelled.
func Play(ctx context.Context, logger *log.Logger, samples []int16, sampleRate int) error {
	if audio.Setup == nil {
		return ErrNoRenderer
	}

	player := NewPlayer(samples, sampleRate)
	playback, err := audio.Setup(player)
	if err != nil {
		return fmt.Errorf("setting up audio playback: %w", err)
	}
	defer playback.Stop()

	if err := playback.Start(); err != nil {
		return fmt.Errorf("starting audio playback: %w", err)
	}
	logger.Info("Playing",
		log.Int("samples", len(samples)),
		log.Int("sample_rate", sampleRate),
	)

	select {
	case <-ctx.Done():
		return fmt.Errorf("playing audio: %w", ctx.Err())
	case err, ok := <-playback.Errors:
		if ok && err != nil {
			return fmt.Errorf("playing audio: %w", err)
		}
		return nil
	case <-player.Done():
		return nil
	}
}
