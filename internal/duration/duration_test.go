package duration

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		want    float64
		wantErr bool
	}{
		{name: "integer", input: 4, want: 4},
		{name: "half", input: 0.5, want: 0.5},
		{name: "tenth noise", input: 1.2000001, want: 1.2},
		{name: "third", input: 1.0 / 1.5, want: 2.0 / 3},
		{name: "two thirds above whole", input: 3 + 2.0/3 + 1e-7, want: 3 + 2.0/3},
		{name: "fifth", input: 0.4, want: 0.4},
		{name: "off grid", input: 0.123, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Align(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotAligned)
				return
			}
			assert.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got", got)
		})
	}
}

func TestSnapKeepsUnalignedValue(t *testing.T) {
	assert.Equal(t, 0.123, Snap(0.123))
	assert.Equal(t, 2.0, Snap(1.9999999))
}

func TestFloorMod(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{a: 5, b: 16, want: 5},
		{a: -4, b: 16, want: 12},
		{a: -16, b: 16, want: 0},
		{a: 33, b: 16, want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorMod(tt.a, tt.b))
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsInteger(2.000001))
	assert.False(t, IsInteger(2.5))
	assert.True(t, IsHalf(2.5))
	assert.False(t, IsHalf(2.0/3))
	assert.True(t, IsMultiple(32, 16))
	assert.False(t, IsMultiple(24, 16))
	assert.True(t, IsPowerOfTwo(16))
	assert.False(t, IsPowerOfTwo(12))
	assert.False(t, IsPowerOfTwo(0))
	assert.Equal(t, 1.3, RoundIfClose(1.3000001, 1))
	assert.Equal(t, 1.25, RoundIfClose(1.25, 1))
}
