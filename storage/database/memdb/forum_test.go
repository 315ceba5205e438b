package memdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core/forum"
	"github.com/trezcool/sala/tests"
)

func setupForum(t *testing.T) (*forumRepository, forum.Topic, forum.Comment) {
	t.Helper()
	repo := NewForumRepository(Open())
	ctx := context.Background()
	now := time.Now().UTC()

	topic, err := repo.CreateTopic(ctx, forum.Topic{Title: "Go", Content: "Generics?", AuthorID: 1, Tags: []string{"go"}, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	cmt, err := repo.CreateComment(ctx, forum.Comment{Content: "Yes", AuthorID: 2, TopicID: topic.ID, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	return repo, topic, cmt
}

func TestForumRepository_CastVote(t *testing.T) {
	type cast struct {
		userID int
		vote   forum.VoteType
	}
	tests := []struct {
		name      string
		casts     []cast
		wantVotes int
		wantRows  int
	}{
		{name: "single up", casts: []cast{{1, forum.VoteUp}}, wantVotes: 1, wantRows: 1},
		{name: "single down", casts: []cast{{1, forum.VoteDown}}, wantVotes: -1, wantRows: 1},
		{name: "same vote twice", casts: []cast{{1, forum.VoteUp}, {1, forum.VoteUp}}, wantVotes: 1, wantRows: 1},
		{name: "flip", casts: []cast{{1, forum.VoteUp}, {1, forum.VoteDown}}, wantVotes: -1, wantRows: 1},
		{name: "several voters", casts: []cast{{1, forum.VoteUp}, {2, forum.VoteUp}, {3, forum.VoteDown}}, wantVotes: 1, wantRows: 3},
		{name: "self vote", casts: []cast{{2, forum.VoteUp}}, wantVotes: 1, wantRows: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, cmt := setupForum(t)
			ctx := context.Background()

			var got forum.Comment
			var err error
			for _, c := range tt.casts {
				got, err = repo.CastVote(ctx, c.userID, cmt.ID, c.vote)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantVotes, got.Votes)
			assert.Len(t, repo.db.vote, tt.wantRows)

			stored, err := repo.GetComment(ctx, cmt.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVotes, stored.Votes)
		})
	}
}

func TestForumRepository_CastVote_deltas(t *testing.T) {
	repo, _, cmt := setupForum(t)
	ctx := context.Background()

	c, err := repo.CastVote(ctx, 1, cmt.ID, forum.VoteUp)
	require.NoError(t, err)
	before := c.Votes

	c, err = repo.CastVote(ctx, 1, cmt.ID, forum.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Votes-before, "repeating a vote must not change the score")

	c, err = repo.CastVote(ctx, 1, cmt.ID, forum.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, -2, c.Votes-before, "flipping up to down must move the score by -2")
}

func TestForumRepository_CastVote_concurrent(t *testing.T) {
	repo, _, cmt := setupForum(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			vt := forum.VoteUp
			if userID%2 == 0 {
				vt = forum.VoteDown
			}
			_, _ = repo.CastVote(ctx, userID, cmt.ID, vt)
			_, _ = repo.CastVote(ctx, userID, cmt.ID, vt)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetComment(ctx, cmt.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Votes)
	assert.Len(t, repo.db.vote, 50)
}

func TestForumRepository_RetractVote(t *testing.T) {
	repo, _, cmt := setupForum(t)
	ctx := context.Background()

	_, err := repo.CastVote(ctx, 1, cmt.ID, forum.VoteUp)
	require.NoError(t, err)
	_, err = repo.CastVote(ctx, 3, cmt.ID, forum.VoteUp)
	require.NoError(t, err)

	got, err := repo.RetractVote(ctx, 1, cmt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)

	_, err = repo.GetVote(ctx, 1, cmt.ID)
	assert.Equal(t, forum.ErrVoteNotFound, err)

	_, err = repo.RetractVote(ctx, 1, 999)
	assert.Equal(t, forum.ErrCommentNotFound, err)
}

func TestForumRepository_IncrementTopicViews(t *testing.T) {
	repo, topic, _ := setupForum(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := repo.IncrementTopicViews(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, i, got.Views)
	}

	// updates never reset the counter
	topic.Title = "Go 1.21"
	topic.Views = 0
	got, err := repo.UpdateTopic(ctx, topic)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Views)

	_, err = repo.IncrementTopicViews(ctx, 999)
	assert.Equal(t, forum.ErrTopicNotFound, err)
}

func TestForumRepository_DeleteComment_cascades(t *testing.T) {
	repo, topic, cmt := setupForum(t)
	ctx := context.Background()

	reply, err := repo.CreateComment(ctx, forum.Comment{Content: "Indeed", AuthorID: 3, TopicID: topic.ID, ParentID: &cmt.ID})
	require.NoError(t, err)
	other, err := repo.CreateComment(ctx, forum.Comment{Content: "Other", AuthorID: 3, TopicID: topic.ID})
	require.NoError(t, err)
	_, err = repo.CastVote(ctx, 1, reply.ID, forum.VoteUp)
	require.NoError(t, err)
	_, err = repo.CastVote(ctx, 1, other.ID, forum.VoteUp)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteComment(ctx, cmt.ID))

	_, err = repo.GetComment(ctx, reply.ID)
	assert.Equal(t, forum.ErrCommentNotFound, err)
	_, err = repo.GetVote(ctx, 1, reply.ID)
	assert.Equal(t, forum.ErrVoteNotFound, err)
	_, err = repo.GetVote(ctx, 1, other.ID)
	assert.NoError(t, err)

	assert.Equal(t, forum.ErrCommentNotFound, repo.DeleteComment(ctx, cmt.ID))
}

func TestForumRepository_DeleteTopic_cascades(t *testing.T) {
	repo, topic, cmt := setupForum(t)
	ctx := context.Background()

	_, err := repo.CastVote(ctx, 1, cmt.ID, forum.VoteDown)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteTopic(ctx, topic.ID))

	_, err = repo.GetTopic(ctx, topic.ID)
	assert.Equal(t, forum.ErrTopicNotFound, err)
	comments, err := repo.QueryTopicComments(ctx, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, repo.db.vote)
}

func TestForumRepository_QueryTopicComments_order(t *testing.T) {
	repo, topic, first := setupForum(t)
	ctx := context.Background()

	// same timestamp: ID breaks the tie
	second, err := repo.CreateComment(ctx, forum.Comment{Content: "b", AuthorID: 1, TopicID: topic.ID, CreatedAt: first.CreatedAt})
	require.NoError(t, err)
	older, err := repo.CreateComment(ctx, forum.Comment{Content: "c", AuthorID: 1, TopicID: topic.ID, CreatedAt: first.CreatedAt.Add(-time.Minute)})
	require.NoError(t, err)

	comments, err := repo.QueryTopicComments(ctx, topic.ID)
	require.NoError(t, err)
	ids := make([]int, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{older.ID, first.ID, second.ID}, ids)
}

func TestForumRepository_comments_copied(t *testing.T) {
	repo, topic, parent := setupForum(t)
	ctx := context.Background()
	now := time.Now().UTC()

	parentID := parent.ID
	reply, err := repo.CreateComment(ctx, forum.Comment{Content: "+1", AuthorID: 3, TopicID: topic.ID, ParentID: &parentID, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NotSame(t, &parentID, reply.ParentID)

	*reply.ParentID = 999
	stored, err := repo.GetComment(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *stored.ParentID)

	stored.Content = "+2"
	updated, err := repo.UpdateComment(ctx, stored)
	require.NoError(t, err)
	*updated.ParentID = 999
	stored, err = repo.GetComment(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *stored.ParentID)
	assert.Equal(t, "+2", stored.Content)
}

func TestForumRepository(t *testing.T) {
	db := Open()
	testutil.TestForumRepository(t, NewUserRepository(db), NewForumRepository(db))
}
