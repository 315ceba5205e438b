package forum

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core"
)

func TestScoreDelta(t *testing.T) {
	tests := []struct {
		name       string
		prev, next VoteType
		want       int
	}{
		{name: "first up", next: VoteUp, want: 1},
		{name: "first down", next: VoteDown, want: -1},
		{name: "repeat up", prev: VoteUp, next: VoteUp, want: 0},
		{name: "repeat down", prev: VoteDown, next: VoteDown, want: 0},
		{name: "flip to down", prev: VoteUp, next: VoteDown, want: -2},
		{name: "flip to up", prev: VoteDown, next: VoteUp, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreDelta(tt.prev, tt.next))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(nil))
	assert.Equal(t, 1, Score([]CommentVote{
		{UserID: 1, VoteType: VoteUp},
		{UserID: 2, VoteType: VoteUp},
		{UserID: 3, VoteType: VoteDown},
	}))
}

func TestVoteInput_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)

	for _, vt := range []VoteType{VoteUp, VoteDown} {
		vi := VoteInput{VoteType: vt}
		assert.NoError(t, vi.Validate(validate))
	}
	for _, vt := range []VoteType{0, 2, -2} {
		vi := VoteInput{VoteType: vt}
		err := vi.Validate(validate)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		assert.Equal(t, map[string]string{"vote_type": "vote type must be 1 (up) or -1 (down)"}, core.TranslateValidationErrors(vErrs, translator))
	}
}
