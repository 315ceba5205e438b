package forum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core/user"
)

func intPtr(i int) *int { return &i }

func TestBuildThread(t *testing.T) {
	comments := []Comment{
		{ID: 1},
		{ID: 2, ParentID: intPtr(1)},
		{ID: 3},
		{ID: 4, ParentID: intPtr(2)},  // reply to a reply
		{ID: 5, ParentID: intPtr(99)}, // dangling
		{ID: 6, ParentID: intPtr(1)},
		{ID: 7, ParentID: intPtr(3)},
	}

	input := make([]Comment, len(comments))
	copy(input, comments)

	nodes := BuildThread(comments)
	require.Len(t, nodes, 2)
	assert.Equal(t, nodes, BuildThread(comments))
	assert.Equal(t, input, comments)

	assert.Equal(t, 1, nodes[0].Comment.ID)
	require.Len(t, nodes[0].Replies, 2)
	assert.Equal(t, 2, nodes[0].Replies[0].ID)
	assert.Equal(t, 6, nodes[0].Replies[1].ID)

	assert.Equal(t, 3, nodes[1].Comment.ID)
	require.Len(t, nodes[1].Replies, 1)
	assert.Equal(t, 7, nodes[1].Replies[0].ID)
}

func TestBuildThread_empty(t *testing.T) {
	assert.Empty(t, BuildThread(nil))
	assert.NotNil(t, BuildThread(nil))

	nodes := BuildThread([]Comment{{ID: 1}})
	require.Len(t, nodes, 1)
	assert.NotNil(t, nodes[0].Replies)
	assert.Empty(t, nodes[0].Replies)
}

func TestNewCommentView(t *testing.T) {
	author := &user.User{ID: 1, Username: "ana", Role: user.RoleStudent}
	cmt := Comment{ID: 10, AuthorID: 1, TopicID: 4, Votes: 2, IsAnonymous: true}

	tests := []struct {
		name       string
		who        user.Identity
		wantName   string
		wantAuthor bool
		wantModify bool
	}{
		{name: "other student", who: user.Identity{ID: 2, Role: user.RoleStudent}, wantName: "Anônimo"},
		{name: "author", who: author.Identity(), wantName: "Anônimo", wantAuthor: true, wantModify: true},
		{name: "admin", who: user.Identity{ID: 3, Role: user.RoleAdmin}, wantName: "Anônimo (ana)", wantAuthor: true, wantModify: true},
		{name: "tutor", who: user.Identity{ID: 4, Role: user.RoleTutor}, wantName: "Anônimo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newCommentView(cmt, author, tt.who)
			assert.Equal(t, tt.wantName, view.AuthorName)
			assert.Equal(t, tt.wantAuthor, view.AuthorID != nil)
			assert.Equal(t, tt.wantModify, view.CanModify)
			assert.True(t, view.CanReply)
			assert.Equal(t, 2, view.Votes)
		})
	}
}
