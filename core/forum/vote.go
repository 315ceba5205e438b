package forum

import "github.com/go-playground/validator/v10"

// VoteType is the value of a single vote.
type VoteType int

const (
	VoteUp   VoteType = 1
	VoteDown VoteType = -1
)

var (
	voteTypeTag  = "votetype"
	voteTypeText = "vote type must be 1 (up) or -1 (down)"
)

func (vt VoteType) IsValid() bool {
	return vt == VoteUp || vt == VoteDown
}

// VoteInput is the payload of a vote request.
type VoteInput struct {
	VoteType VoteType `json:"vote_type" validate:"votetype"`
}

func (vi *VoteInput) Validate(validate *validator.Validate) error {
	return validate.Struct(vi)
}

// ScoreDelta returns the change a vote brings to a comment score.
// prev is the voter's previous vote (0 when there is none): a first vote adds its value,
// a flip moves the score by 2 and a repeated vote changes nothing.
func ScoreDelta(prev, next VoteType) int {
	return int(next) - int(prev)
}

// Score sums the votes of a ledger.
func Score(votes []CommentVote) int {
	var score int
	for _, v := range votes {
		score += int(v.VoteType)
	}
	return score
}

func voteTypeValidation(fl validator.FieldLevel) bool {
	if vt, ok := fl.Field().Interface().(VoteType); ok {
		return vt.IsValid()
	}
	return false
}
