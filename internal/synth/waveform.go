// Package synth renders scores to PCM samples, writes them as WAV files and
// plays them back.
package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform is the shape of the generated tone.
type Waveform string

// Supported waveforms.
const (
	Sawtooth Waveform = "sawtooth"
	Square   Waveform = "square"
	Sine     Waveform = "sine"
	Triangle Waveform = "triangle"
)

// Waveforms lists all supported waveforms.
var Waveforms = []Waveform{Sawtooth, Square, Sine, Triangle}

// ParseWaveform returns the waveform of the given name.
func ParseWaveform(name string) (Waveform, error) {
	w := Waveform(strings.ToLower(strings.TrimSpace(name)))
	switch w {
	case Sawtooth, Square, Sine, Triangle:
		return w, nil
	default:
		return "", fmt.Errorf("unsupported waveform '%s'", name)
	}
}

// Sample returns the amplitude in [-1, 1] at the given phase, measured in
// periods.
func (w Waveform) Sample(phase float64) float64 {
	frac := phase - math.Floor(phase)
	switch w {
	case Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case Sine:
		return math.Sin(2 * math.Pi * frac)
	case Triangle:
		return 1 - 4*math.Abs(frac-0.5)
	default:
		return 2*frac - 1
	}
}
