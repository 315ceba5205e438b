package memdb

import (
	"cmp"
	"context"
	"sort"
	"strings"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/forum"
)

var topicOrderings = map[string]func(a, b forum.Topic) int{
	"created_at": func(a, b forum.Topic) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b forum.Topic) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	"title":      func(a, b forum.Topic) int { return cmp.Compare(a.Title, b.Title) },
	"views":      func(a, b forum.Topic) int { return cmp.Compare(a.Views, b.Views) },
	"is_pinned":  func(a, b forum.Topic) int { return compareBools(a.IsPinned, b.IsPinned) },
}

type forumRepository struct {
	db *DB
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *DB) *forumRepository {
	return &forumRepository{db: db}
}

// rows are copied in and out so callers never share memory with the tables.

func copyTopic(t forum.Topic) *forum.Topic {
	t.CourseID = copyIntPtr(t.CourseID)
	tags := make([]string, len(t.Tags))
	copy(tags, t.Tags)
	t.Tags = tags
	return &t
}

func copyComment(c forum.Comment) *forum.Comment {
	c.ParentID = copyIntPtr(c.ParentID)
	return &c
}

// Topics

func (repo *forumRepository) CreateTopic(_ context.Context, t forum.Topic) (forum.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.topic.pkCount++
	t.ID = repo.db.topic.pkCount
	row := copyTopic(t)
	repo.db.topic.table[t.ID] = row
	return *copyTopic(*row), nil
}

func (repo *forumRepository) GetTopic(_ context.Context, id int) (forum.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.topic.table[id]; ok {
		return *copyTopic(*t), nil
	}
	return forum.Topic{}, forum.ErrTopicNotFound
}

func (repo *forumRepository) IncrementTopicViews(_ context.Context, id int) (forum.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.topic.table[id]
	if !ok {
		return forum.Topic{}, forum.ErrTopicNotFound
	}
	t.Views++
	return *copyTopic(*t), nil
}

func (repo *forumRepository) QueryTopics(_ context.Context, filter *forum.TopicFilter, ordering []core.DBOrdering) ([]forum.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	topics := make([]forum.Topic, 0, len(repo.db.topic.table))
	for _, t := range repo.db.topic.table {
		if filter != nil && !matchTopic(*t, *filter) {
			continue
		}
		topics = append(topics, *copyTopic(*t))
	}
	orderRows(topics, ordering, topicOrderings, func(t forum.Topic) int { return t.ID })
	return topics, nil
}

func matchTopic(t forum.Topic, filter forum.TopicFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(t.Title), search) || strings.Contains(strings.ToLower(t.Content), search)) {
			return false
		}
	}
	if filter.CourseID != 0 && (t.CourseID == nil || *t.CourseID != filter.CourseID) {
		return false
	}
	if filter.AuthorID != 0 && t.AuthorID != filter.AuthorID {
		return false
	}
	if filter.Tag != "" {
		var found bool
		for _, tag := range t.Tags {
			if tag == filter.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (repo *forumRepository) UpdateTopic(_ context.Context, t forum.Topic) (forum.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.topic.table[t.ID]
	if !ok {
		return forum.Topic{}, forum.ErrTopicNotFound
	}
	t.Views = orig.Views // only IncrementTopicViews touches views
	row := copyTopic(t)
	repo.db.topic.table[t.ID] = row
	return *copyTopic(*row), nil
}

func (repo *forumRepository) DeleteTopic(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.topic.table[id]; !ok {
		return forum.ErrTopicNotFound
	}
	repo.db.deleteTopic(id)
	return nil
}

// deleteTopic deletes the topic and its comments. Callers hold the write lock.
func (db *DB) deleteTopic(id int) {
	for _, c := range db.comment.table {
		if c.TopicID == id {
			db.deleteComment(c.ID)
		}
	}
	delete(db.topic.table, id)
}

// Comments

func (repo *forumRepository) CreateComment(_ context.Context, c forum.Comment) (forum.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.topic.table[c.TopicID]; !ok {
		return forum.Comment{}, forum.ErrTopicNotFound
	}
	if c.ParentID != nil {
		if _, ok := repo.db.comment.table[*c.ParentID]; !ok {
			return forum.Comment{}, forum.ErrCommentNotFound
		}
	}
	repo.db.comment.pkCount++
	c.ID = repo.db.comment.pkCount
	c.Votes = 0
	repo.db.comment.table[c.ID] = copyComment(c)
	return *copyComment(c), nil
}

func (repo *forumRepository) GetComment(_ context.Context, id int) (forum.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.comment.table[id]; ok {
		return *copyComment(*c), nil
	}
	return forum.Comment{}, forum.ErrCommentNotFound
}

func (repo *forumRepository) QueryTopicComments(_ context.Context, topicID int) ([]forum.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comments := make([]forum.Comment, 0)
	for _, c := range repo.db.comment.table {
		if c.TopicID == topicID {
			comments = append(comments, *copyComment(*c))
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (repo *forumRepository) UpdateComment(_ context.Context, c forum.Comment) (forum.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.comment.table[c.ID]
	if !ok {
		return forum.Comment{}, forum.ErrCommentNotFound
	}
	// the ledger owns the score; topic and parent never move
	c.Votes = orig.Votes
	c.TopicID = orig.TopicID
	c.ParentID = orig.ParentID
	repo.db.comment.table[c.ID] = copyComment(c)
	return *copyComment(c), nil
}

func (repo *forumRepository) DeleteComment(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.comment.table[id]; !ok {
		return forum.ErrCommentNotFound
	}
	repo.db.deleteComment(id)
	return nil
}

// deleteComment deletes the comment, its replies and all their votes. Callers hold the write lock.
func (db *DB) deleteComment(id int) {
	for _, c := range db.comment.table {
		if c.ParentID != nil && *c.ParentID == id {
			db.deleteComment(c.ID)
		}
	}
	for key := range db.vote {
		if key.commentID == id {
			delete(db.vote, key)
		}
	}
	delete(db.comment.table, id)
}

// Votes

func (repo *forumRepository) CastVote(_ context.Context, userID, commentID int, vt forum.VoteType) (forum.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cmt, ok := repo.db.comment.table[commentID]
	if !ok {
		return forum.Comment{}, forum.ErrCommentNotFound
	}

	now := nowUTC()
	key := voteKey{userID: userID, commentID: commentID}
	if v, ok := repo.db.vote[key]; ok {
		v.VoteType = vt
		v.UpdatedAt = now
	} else {
		repo.db.vote[key] = &forum.CommentVote{
			UserID:    userID,
			CommentID: commentID,
			VoteType:  vt,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	repo.db.recomputeVotes(commentID)
	return *copyComment(*cmt), nil
}

func (repo *forumRepository) RetractVote(_ context.Context, userID, commentID int) (forum.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cmt, ok := repo.db.comment.table[commentID]
	if !ok {
		return forum.Comment{}, forum.ErrCommentNotFound
	}
	delete(repo.db.vote, voteKey{userID: userID, commentID: commentID})
	repo.db.recomputeVotes(commentID)
	return *copyComment(*cmt), nil
}

func (repo *forumRepository) GetVote(_ context.Context, userID, commentID int) (forum.CommentVote, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.vote[voteKey{userID: userID, commentID: commentID}]; ok {
		return *v, nil
	}
	return forum.CommentVote{}, forum.ErrVoteNotFound
}

// recomputeVotes sets the comment score to the sum of its votes. Callers hold the write lock.
func (db *DB) recomputeVotes(commentID int) {
	cmt, ok := db.comment.table[commentID]
	if !ok {
		return
	}
	votes := make([]forum.CommentVote, 0)
	for key, v := range db.vote {
		if key.commentID == commentID {
			votes = append(votes, *v)
		}
	}
	cmt.Votes = forum.Score(votes)
}
