package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/retroenv/retrosheets/internal/score"
)

// ErrInvalidOptions is returned for render options that can not produce audio.
var ErrInvalidOptions = errors.New("invalid render options")

const (
	concertPitch     = 440.0
	concertPitchMIDI = 69
	unitsPerWhole    = 16
)

// Options configures the rendering of a score.
type Options struct {
	SampleRate   int
	Speed        float64 // seconds per whole note
	Cut          float64 // silence at the end of every note in seconds
	OctaveOffset int
	Volume       float64 // peak amplitude of a single channel
	Waveform     Waveform
}

// DefaultOptions returns the default render options.
func DefaultOptions() Options {
	return Options{
		SampleRate: 44100,
		Speed:      1.5,
		Cut:        0.01,
		Volume:     1 << 12,
		Waveform:   Sawtooth,
	}
}

func (o Options) validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidOptions, o.SampleRate)
	}
	if o.Speed <= 0 {
		return fmt.Errorf("%w: speed %g", ErrInvalidOptions, o.Speed)
	}
	if o.Cut < 0 {
		return fmt.Errorf("%w: cut %g", ErrInvalidOptions, o.Cut)
	}
	if o.Volume < 0 || o.Volume > math.MaxInt16 {
		return fmt.Errorf("%w: volume %g", ErrInvalidOptions, o.Volume)
	}
	return nil
}

// Frequency returns the equal temperament frequency of the pitch in Hz.
func Frequency(p score.Pitch) float64 {
	return concertPitch * math.Pow(2, float64(p.MIDI()-concertPitchMIDI)/12)
}

// Seconds returns the playing time of the score.
func Seconds(s score.Score, opts Options) float64 {
	return opts.Speed * s.TotalDuration() / unitsPerWhole
}

// Render synthesizes the score as mono 16 bit samples.
func Render(s score.Score, opts Options) ([]int16, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	fs := float64(opts.SampleRate)
	total := int(math.Round(Seconds(s, opts) * fs))
	samples := make([]int16, total)
	cut := int(math.Round(opts.Cut * fs))

	var elapsed float64
	end := 0
	for _, e := range s {
		start := end
		elapsed += opts.Speed * e.Duration() / unitsPerWhole
		end = min(total, int(math.Round(elapsed*fs)))

		pitches := e.Pitches()
		if len(pitches) == 0 {
			continue
		}
		freqs := make([]float64, len(pitches))
		for i, p := range pitches {
			p.Octave += opts.OctaveOffset
			freqs[i] = Frequency(p)
		}

		amplitude := opts.Volume / float64(len(freqs))
		for i := start; i < end-cut; i++ {
			t := float64(i) / fs
			var v float64
			for _, f := range freqs {
				v += opts.Waveform.Sample(t * f)
			}
			samples[i] = int16(amplitude * v)
		}
	}
	return samples, nil
}

// Mix sums the channels sample by sample, clipping at the 16 bit range.
// The result has the length of the longest channel.
func Mix(channels ...[]int16) []int16 {
	var length int
	for _, c := range channels {
		length = max(length, len(c))
	}

	out := make([]int16, length)
	for i := range out {
		var sum int
		for _, c := range channels {
			if i < len(c) {
				sum += int(c[i])
			}
		}
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, sum)))
	}
	return out
}
