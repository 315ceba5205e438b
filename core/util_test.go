package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "empty", s: "", want: ""},
		{name: "blank", s: " \t\n ", want: ""},
		{name: "trimmed", s: "  Go Rocks ", want: "Go Rocks"},
		{name: "trimmed and lowered", s: "  Go Rocks ", lower: true, want: "go rocks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanString(tt.s, tt.lower))
		})
	}
}

func TestCleanStrings(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		lower bool
		want  []string
	}{
		{name: "nil", items: nil, want: []string{}},
		{name: "blanks dropped", items: []string{" ", "", "go"}, want: []string{"go"}},
		{name: "duplicates dropped", items: []string{"go", " go ", "sql"}, want: []string{"go", "sql"}},
		{name: "case sensitive", items: []string{"Go", "go"}, want: []string{"Go", "go"}},
		{name: "lowered", items: []string{"Go", "go", " SQL"}, lower: true, want: []string{"go", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanStrings(tt.items, tt.lower))
		})
	}
}

func TestParseOrderings(t *testing.T) {
	allowed := map[string]string{"created_at": "created_at", "votes": "vote_count"}

	tests := []struct {
		name string
		raw  string
		want []DBOrdering
	}{
		{name: "empty", raw: "", want: []DBOrdering{}},
		{name: "asc", raw: "created_at", want: []DBOrdering{{Field: "created_at", Ascending: true}}},
		{name: "desc mapped", raw: "-votes", want: []DBOrdering{{Field: "vote_count"}}},
		{name: "unknown skipped", raw: "password, -VOTES ,created_at", want: []DBOrdering{
			{Field: "vote_count"},
			{Field: "created_at", Ascending: true},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrderings(tt.raw, allowed))
		})
	}
}

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "vote_count DESC", DBOrdering{Field: "vote_count"}.String())
	assert.Equal(t, "title ASC", DBOrdering{Field: "title", Ascending: true}.String())
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "<p>hello</p>", Sanitize(`<p onclick="steal()">hello</p><script>alert(1)</script>`))
	assert.Equal(t, "plain text", Sanitize("plain text"))
}

func TestErrors(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("topic")))
	assert.Equal(t, "topic not found", NewNotFoundError("topic").Error())
	assert.False(t, IsNotFound(NewForbiddenError("")))

	assert.True(t, IsForbidden(NewForbiddenError("")))
	assert.Equal(t, "you do not have permission to perform this action", NewForbiddenError("").Error())
	assert.Equal(t, "nope", NewForbiddenError("nope").Error())

	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.False(t, IsShutdown(ErrUnauthenticated))
}
