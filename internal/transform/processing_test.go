package transform

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/score"
)

func TestApply(t *testing.T) {
	scores := []score.Score{
		{note(score.C, 4, 1), score.NewRest(1), score.NewRest(1)},
		{note(score.E, 4, 1), note(score.G, 4, 2)},
	}

	plan := Plan{
		Operations: map[int][]Operation{
			0: {
				{Name: "combine_rests"},
				{Name: "transpose_score_octave", Args: Args{"offset": -1}},
			},
			1: {
				{Name: "transpose_note_octave", Args: Args{"offset": -1, "index": "1:"}},
			},
		},
		Chords: &ChordDirective{Channels: [2]int{0, 1}},
	}

	got, err := Apply(log.NewTestLogger(t), scores, plan)
	assert.NoError(t, err)
	assert.Len(t, got, 3)

	assert.True(t, score.Score{note(score.C, 3, 1), score.NewRest(2)}.Equal(got[0]), "got", got[0].String())
	assert.True(t, score.Score{note(score.E, 4, 1), note(score.G, 3, 2)}.Equal(got[1]), "got", got[1].String())

	want := score.Score{chord(1, pitch(score.C, 3), pitch(score.E, 4)), note(score.G, 3, 2)}
	assert.True(t, want.Equal(got[2]), "got", got[2].String())

	// input is not modified
	assert.Len(t, scores[0], 3)
}

func TestApplySplitAppendsChannel(t *testing.T) {
	scores := []score.Score{
		{note(score.C, 4, 1), note(score.C, 2, 1), note(score.D, 4, 1)},
	}
	plan := Plan{
		Operations: map[int][]Operation{
			0: {{Name: "split", Args: Args{"index": []any{1}}}},
		},
	}

	got, err := Apply(log.NewTestLogger(t), scores, plan)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "[r:1 c2:1 r:1]", got[0].String())
	assert.Equal(t, "[c4:1 r:1 d4:1]", got[1].String())
}

func TestApplyTransposeBelow(t *testing.T) {
	scores := []score.Score{{note(score.G, 1, 1), note(score.A, 3, 1)}}
	plan := Plan{
		Operations: map[int][]Operation{
			0: {{Name: "transpose_below", Args: Args{"note": "c", "octave": 3}}},
		},
	}

	got, err := Apply(log.NewTestLogger(t), scores, plan)
	assert.NoError(t, err)
	assert.Equal(t, "[g3:1 a3:1]", got[0].String())
}

func TestApplyErrors(t *testing.T) {
	scores := []score.Score{{note(score.C, 4, 1)}}

	tests := []struct {
		name    string
		plan    Plan
		wantErr error
	}{
		{
			name:    "unknown operation",
			plan:    Plan{Operations: map[int][]Operation{0: {{Name: "reverse"}}}},
			wantErr: ErrUnknownOperation,
		},
		{
			name:    "chord channel out of range",
			plan:    Plan{Chords: &ChordDirective{Channels: [2]int{0, 3}}},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "missing selector",
			plan:    Plan{Operations: map[int][]Operation{0: {{Name: "remove_notes"}}}},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "invalid note name",
			plan:    Plan{Operations: map[int][]Operation{0: {{Name: "transpose_below", Args: Args{"note": "h"}}}}},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "non integer offset",
			plan: Plan{Operations: map[int][]Operation{
				0: {{Name: "transpose_score_octave", Args: Args{"offset": 1.5}}},
			}},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(log.NewTestLogger(t), scores, tt.plan)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOperationNames(t *testing.T) {
	names := OperationNames()
	assert.Len(t, names, 8)
	assert.Equal(t, "combine_irregular_notes", names[0])
}
