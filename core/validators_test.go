package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validated struct {
	Title    string `json:"title" validate:"notblank"`
	Username string `json:"username" validate:"required,alphanum_"`
	Internal string `json:"-"`
}

func TestValidators(t *testing.T) {
	validate, translator := NewValidator()

	tests := []struct {
		name string
		in   validated
		want map[string]string
	}{
		{name: "valid", in: validated{Title: "Go", Username: "go_dev"}},
		{
			name: "blank title",
			in:   validated{Title: "  ", Username: "go_dev"},
			want: map[string]string{"title": "this field may not be blank"},
		},
		{
			name: "missing username",
			in:   validated{Title: "Go"},
			want: map[string]string{"username": "this field is required"},
		},
		{
			name: "bad username",
			in:   validated{Title: "Go", Username: "go-dev!"},
			want: map[string]string{"username": "only alphanumeric characters and underscores are allowed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			assert.Equal(t, tt.want, TranslateValidationErrors(vErrs, translator))
		})
	}
}
