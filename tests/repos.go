package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/forum"
	"github.com/trezcool/sala/core/user"
)

// TestForumRepository runs the behaviour every forum.Repository implementation must provide
// against an empty store.
func TestForumRepository(t *testing.T, usrRepo user.Repository, repo forum.Repository) {
	ctx := context.Background()
	ana := CreateUser(t, usrRepo, "Ana", "ana", "ana@test.cd", "", user.RoleStudent, true)
	bob := CreateUser(t, usrRepo, "Bob", "bob", "bob@test.cd", "", user.RoleStudent, true)

	goTopic := CreateTopic(t, repo, ana.ID, "Goroutines", "go", "concurrency")
	sqlTopic := CreateTopic(t, repo, bob.ID, "Indexes", "sql")

	t.Run("topics", func(t *testing.T) {
		topic, err := repo.GetTopic(ctx, goTopic.ID)
		require.NoError(t, err)
		assert.Equal(t, "Goroutines", topic.Title)
		assert.Equal(t, []string{"go", "concurrency"}, topic.Tags)
		assert.Nil(t, topic.CourseID)

		_, err = repo.GetTopic(ctx, 999)
		assert.True(t, core.IsNotFound(err))

		for i := 1; i <= 3; i++ {
			topic, err = repo.IncrementTopicViews(ctx, goTopic.ID)
			require.NoError(t, err)
			assert.Equal(t, i, topic.Views)
		}
		_, err = repo.IncrementTopicViews(ctx, 999)
		assert.True(t, core.IsNotFound(err))

		topic.IsPinned = true
		topic.Tags = []string{"go"}
		topic, err = repo.UpdateTopic(ctx, topic)
		require.NoError(t, err)
		assert.True(t, topic.IsPinned)
		assert.Equal(t, 3, topic.Views)

		topics, err := repo.QueryTopics(ctx, &forum.TopicFilter{Tag: "sql"}, nil)
		require.NoError(t, err)
		require.Len(t, topics, 1)
		assert.Equal(t, sqlTopic.ID, topics[0].ID)

		topics, err = repo.QueryTopics(ctx, &forum.TopicFilter{Search: "goROUT"}, nil)
		require.NoError(t, err)
		require.Len(t, topics, 1)
		assert.Equal(t, goTopic.ID, topics[0].ID)

		topics, err = repo.QueryTopics(ctx, nil, []core.DBOrdering{{Field: "is_pinned"}, {Field: "created_at"}})
		require.NoError(t, err)
		require.Len(t, topics, 2)
		assert.Equal(t, goTopic.ID, topics[0].ID)
	})

	parent := CreateComment(t, repo, ana.ID, goTopic.ID, nil, false)
	reply := CreateComment(t, repo, bob.ID, goTopic.ID, &parent.ID, true)

	t.Run("comments", func(t *testing.T) {
		comments, err := repo.QueryTopicComments(ctx, goTopic.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, parent.ID, comments[0].ID)
		assert.Equal(t, reply.ID, comments[1].ID)
		assert.Equal(t, parent.ID, *comments[1].ParentID)
		assert.True(t, comments[1].IsAnonymous)

		comments, err = repo.QueryTopicComments(ctx, sqlTopic.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)

		reply.Content = "edited"
		reply.IsAnonymous = false
		updated, err := repo.UpdateComment(ctx, reply)
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Content)
		assert.False(t, updated.IsAnonymous)

		_, err = repo.GetComment(ctx, 999)
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("votes", func(t *testing.T) {
		steps := []struct {
			userID int
			vt     forum.VoteType
			want   int
		}{
			{userID: ana.ID, vt: forum.VoteUp, want: 1},
			{userID: ana.ID, vt: forum.VoteUp, want: 1},
			{userID: bob.ID, vt: forum.VoteUp, want: 2},
			{userID: ana.ID, vt: forum.VoteDown, want: 0},
		}
		for _, step := range steps {
			cmt, err := repo.CastVote(ctx, step.userID, parent.ID, step.vt)
			require.NoError(t, err)
			assert.Equal(t, step.want, cmt.Votes)
		}

		vote, err := repo.GetVote(ctx, ana.ID, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, forum.VoteDown, vote.VoteType)

		cmt, err := repo.RetractVote(ctx, bob.ID, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, -1, cmt.Votes)

		_, err = repo.GetVote(ctx, bob.ID, parent.ID)
		assert.True(t, core.IsNotFound(err))

		// the score survives content edits
		parent.Content = "edited"
		cmt, err = repo.UpdateComment(ctx, parent)
		require.NoError(t, err)
		cmt, err = repo.GetComment(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, -1, cmt.Votes)

		_, err = repo.CastVote(ctx, ana.ID, 999, forum.VoteUp)
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("delete voter", func(t *testing.T) {
		carla := CreateUser(t, usrRepo, "Carla", "carla", "carla@test.cd", "", user.RoleStudent, true)
		cmt := CreateComment(t, repo, ana.ID, goTopic.ID, nil, false)
		for _, voterID := range []int{bob.ID, carla.ID} {
			_, err := repo.CastVote(ctx, voterID, cmt.ID, forum.VoteUp)
			require.NoError(t, err)
		}

		cnt, err := usrRepo.DeleteUsersByID(ctx, carla.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)

		_, err = repo.GetVote(ctx, carla.ID, cmt.ID)
		assert.True(t, core.IsNotFound(err))
		vote, err := repo.GetVote(ctx, bob.ID, cmt.ID)
		require.NoError(t, err)

		cmt, err = repo.GetComment(ctx, cmt.ID)
		require.NoError(t, err)
		assert.Equal(t, forum.Score([]forum.CommentVote{vote}), cmt.Votes)
		assert.Equal(t, 1, cmt.Votes)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := repo.CastVote(ctx, ana.ID, reply.ID, forum.VoteUp)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteComment(ctx, parent.ID))
		_, err = repo.GetComment(ctx, reply.ID)
		assert.True(t, core.IsNotFound(err))
		_, err = repo.GetVote(ctx, ana.ID, reply.ID)
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(repo.DeleteComment(ctx, parent.ID)))

		cmt := CreateComment(t, repo, bob.ID, sqlTopic.ID, nil, false)
		require.NoError(t, repo.DeleteTopic(ctx, sqlTopic.ID))
		_, err = repo.GetComment(ctx, cmt.ID)
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(repo.DeleteTopic(ctx, sqlTopic.ID)))
	})
}
