// Package duration implements the duration grid and the tolerance used for
// every duration comparison.
package duration

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the tolerance for all "is this effectively round" checks.
// Tuplet durations like 2/3 are not exactly representable as floats.
const Epsilon = 1e-5

// ErrNotAligned is returned when a duration can not be aligned to the grid.
var ErrNotAligned = errors.New("duration not aligned to grid")

// tuplet denominators supported besides tenths.
var tuplets = [...]int{3, 5}

// Round rounds val to ndigits decimal places.
func Round(val float64, ndigits int) float64 {
	p := math.Pow10(ndigits)
	return math.Round(val*p) / p
}

// IsCloseToRound returns whether val is within Epsilon of val rounded to ndigits decimal places.
func IsCloseToRound(val float64, ndigits int) bool {
	return math.Abs(val-Round(val, ndigits)) < Epsilon
}

// RoundIfClose returns val rounded to ndigits if that keeps it within Epsilon, otherwise val.
func RoundIfClose(val float64, ndigits int) float64 {
	if IsCloseToRound(val, ndigits) {
		return Round(val, ndigits)
	}
	return val
}

// IsInteger returns whether val is effectively a whole number.
func IsInteger(val float64) bool {
	return IsCloseToRound(val, 0)
}

// IsHalf returns whether val is effectively a whole multiple of a half unit.
func IsHalf(val float64) bool {
	return IsInteger(val * 2)
}

// Equal returns whether a and b are equal within Epsilon.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// IsMultiple returns whether val is effectively a whole multiple of base.
func IsMultiple(val, base float64) bool {
	return IsInteger(val / base)
}

// FloorMod returns a modulo b with the sign of b, so the result for a positive
// b is always in [0, b).
func FloorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// Align snaps dur to the duration grid: tenths of a unit, plus thirds and
// fifths for tuplets.
func Align(dur float64) (float64, error) {
	if IsCloseToRound(dur, 1) {
		return Round(dur, 1), nil
	}

	whole := math.Floor(dur)
	frac := dur - whole
	for _, base := range tuplets {
		for i := 1; i < base; i++ {
			step := float64(i) / float64(base)
			if Equal(frac, step) {
				return whole + step, nil
			}
		}
	}

	return dur, fmt.Errorf("%w: %g", ErrNotAligned, dur)
}

// Snap returns dur aligned to the grid, or dur unchanged if it is off the grid.
func Snap(dur float64) float64 {
	aligned, err := Align(dur)
	if err != nil {
		return dur
	}
	return aligned
}

// IsPowerOfTwo returns whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
