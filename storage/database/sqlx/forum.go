package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/forum"
)

const (
	topicColumns   = "id, title, content, author_id, course_id, tags, is_pinned, views, created_at, updated_at"
	commentColumns = "id, content, author_id, topic_id, parent_id, votes, is_anonymous, created_at, updated_at"
	voteColumns    = "user_id, comment_id, vote_type, created_at, updated_at"
)

type topicRow struct {
	ID        int            `db:"id"`
	Title     string         `db:"title"`
	Content   string         `db:"content"`
	AuthorID  int            `db:"author_id"`
	CourseID  null.Int       `db:"course_id"`
	Tags      pq.StringArray `db:"tags"`
	IsPinned  bool           `db:"is_pinned"`
	Views     int            `db:"views"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r topicRow) toTopic() forum.Topic {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return forum.Topic{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		AuthorID:  r.AuthorID,
		CourseID:  r.CourseID.Ptr(),
		Tags:      tags,
		IsPinned:  r.IsPinned,
		Views:     r.Views,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type commentRow struct {
	ID          int       `db:"id"`
	Content     string    `db:"content"`
	AuthorID    int       `db:"author_id"`
	TopicID     int       `db:"topic_id"`
	ParentID    null.Int  `db:"parent_id"`
	Votes       int       `db:"votes"`
	IsAnonymous bool      `db:"is_anonymous"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r commentRow) toComment() forum.Comment {
	return forum.Comment{
		ID:          r.ID,
		Content:     r.Content,
		AuthorID:    r.AuthorID,
		TopicID:     r.TopicID,
		ParentID:    r.ParentID.Ptr(),
		Votes:       r.Votes,
		IsAnonymous: r.IsAnonymous,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type voteRow struct {
	UserID    int       `db:"user_id"`
	CommentID int       `db:"comment_id"`
	VoteType  int       `db:"vote_type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type forumRepository struct {
	db *sqlx.DB
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *sqlx.DB) *forumRepository {
	return &forumRepository{db: db}
}

// Topics

func (repo forumRepository) CreateTopic(ctx context.Context, t forum.Topic) (forum.Topic, error) {
	var row topicRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO forum_topics (title, content, author_id, course_id, tags, is_pinned, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8) RETURNING `+topicColumns,
		t.Title, t.Content, t.AuthorID, null.IntFromPtr(t.CourseID), pq.StringArray(tagsOrEmpty(t.Tags)), t.IsPinned,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return forum.Topic{}, trapNoRowsErr(err, forum.ErrTopicNotFound, "inserting topic")
	}
	return row.toTopic(), nil
}

func (repo forumRepository) GetTopic(ctx context.Context, id int) (forum.Topic, error) {
	var row topicRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+topicColumns+" FROM forum_topics WHERE id = $1", id); err != nil {
		return forum.Topic{}, trapNoRowsErr(err, forum.ErrTopicNotFound, "finding topic")
	}
	return row.toTopic(), nil
}

func (repo forumRepository) IncrementTopicViews(ctx context.Context, id int) (forum.Topic, error) {
	var row topicRow
	err := repo.db.GetContext(ctx, &row,
		"UPDATE forum_topics SET views = views + 1 WHERE id = $1 RETURNING "+topicColumns, id)
	if err != nil {
		return forum.Topic{}, trapNoRowsErr(err, forum.ErrTopicNotFound, "incrementing topic views")
	}
	return row.toTopic(), nil
}

func (repo forumRepository) QueryTopics(ctx context.Context, filter *forum.TopicFilter, ordering []core.DBOrdering) ([]forum.Topic, error) {
	where := new(whereBuilder)
	if filter != nil {
		if filter.Search != "" {
			where.add("(title ILIKE $%[1]d OR content ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
		if filter.CourseID != 0 {
			where.add("course_id = $%d", filter.CourseID)
		}
		if filter.AuthorID != 0 {
			where.add("author_id = $%d", filter.AuthorID)
		}
		if filter.Tag != "" {
			where.add("$%d = ANY(tags)", filter.Tag)
		}
	}

	rows := make([]topicRow, 0)
	q := "SELECT " + topicColumns + " FROM forum_topics" + where.String() + orderByClause(ordering, forum.TopicOrderingFields)
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying topics")
	}
	topics := make([]forum.Topic, 0, len(rows))
	for _, r := range rows {
		topics = append(topics, r.toTopic())
	}
	return topics, nil
}

func (repo forumRepository) UpdateTopic(ctx context.Context, t forum.Topic) (forum.Topic, error) {
	var row topicRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE forum_topics SET title = $2, content = $3, course_id = $4, tags = $5, is_pinned = $6, updated_at = $7
		WHERE id = $1 RETURNING `+topicColumns,
		t.ID, t.Title, t.Content, null.IntFromPtr(t.CourseID), pq.StringArray(tagsOrEmpty(t.Tags)), t.IsPinned,
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		return forum.Topic{}, trapNoRowsErr(err, forum.ErrTopicNotFound, "updating topic")
	}
	return row.toTopic(), nil
}

// DeleteTopic relies on ON DELETE CASCADE for comments and votes.
func (repo forumRepository) DeleteTopic(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM forum_topics WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	return checkAffected(res, forum.ErrTopicNotFound, "deleting topic")
}

// Comments

func (repo forumRepository) CreateComment(ctx context.Context, c forum.Comment) (forum.Comment, error) {
	var row commentRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO forum_comments (content, author_id, topic_id, parent_id, votes, is_anonymous, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7) RETURNING `+commentColumns,
		c.Content, c.AuthorID, c.TopicID, null.IntFromPtr(c.ParentID), c.IsAnonymous, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return forum.Comment{}, trapNoRowsErr(err, forum.ErrCommentNotFound, "inserting comment")
	}
	return row.toComment(), nil
}

func (repo forumRepository) GetComment(ctx context.Context, id int) (forum.Comment, error) {
	var row commentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+commentColumns+" FROM forum_comments WHERE id = $1", id); err != nil {
		return forum.Comment{}, trapNoRowsErr(err, forum.ErrCommentNotFound, "finding comment")
	}
	return row.toComment(), nil
}

func (repo forumRepository) QueryTopicComments(ctx context.Context, topicID int) ([]forum.Comment, error) {
	rows := make([]commentRow, 0)
	q := "SELECT " + commentColumns + " FROM forum_comments WHERE topic_id = $1 ORDER BY created_at ASC, id ASC"
	if err := repo.db.SelectContext(ctx, &rows, q, topicID); err != nil {
		return nil, errors.Wrap(err, "querying topic comments")
	}
	comments := make([]forum.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toComment())
	}
	return comments, nil
}

// UpdateComment saves the editable fields only: the score belongs to the vote ledger.
func (repo forumRepository) UpdateComment(ctx context.Context, c forum.Comment) (forum.Comment, error) {
	var row commentRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE forum_comments SET content = $2, is_anonymous = $3, updated_at = $4
		WHERE id = $1 RETURNING `+commentColumns,
		c.ID, c.Content, c.IsAnonymous, c.UpdatedAt.UTC(),
	)
	if err != nil {
		return forum.Comment{}, trapNoRowsErr(err, forum.ErrCommentNotFound, "updating comment")
	}
	return row.toComment(), nil
}

// DeleteComment relies on ON DELETE CASCADE for replies and votes.
func (repo forumRepository) DeleteComment(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM forum_comments WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return checkAffected(res, forum.ErrCommentNotFound, "deleting comment")
}

// Votes

func lockComment(ctx context.Context, tx *sqlx.Tx, id int) error {
	var locked int
	if err := tx.GetContext(ctx, &locked, "SELECT id FROM forum_comments WHERE id = $1 FOR UPDATE", id); err != nil {
		return trapNoRowsErr(err, forum.ErrCommentNotFound, "locking comment")
	}
	return nil
}

func recomputeVotes(ctx context.Context, tx *sqlx.Tx, id int) (forum.Comment, error) {
	var row commentRow
	err := tx.GetContext(ctx, &row,
		`UPDATE forum_comments
		SET votes = (SELECT COALESCE(SUM(vote_type), 0) FROM comment_votes WHERE comment_id = $1)
		WHERE id = $1 RETURNING `+commentColumns, id)
	if err != nil {
		return forum.Comment{}, trapNoRowsErr(err, forum.ErrCommentNotFound, "recomputing votes")
	}
	return row.toComment(), nil
}

func (repo forumRepository) CastVote(ctx context.Context, userID, commentID int, vt forum.VoteType) (forum.Comment, error) {
	var cmt forum.Comment
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := lockComment(ctx, tx, commentID); err != nil {
			return err
		}
		now := time.Now().UTC()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comment_votes (user_id, comment_id, vote_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (user_id, comment_id) DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = EXCLUDED.updated_at`,
			userID, commentID, int(vt), now,
		)
		if err != nil {
			return errors.Wrap(err, "upserting vote")
		}
		cmt, err = recomputeVotes(ctx, tx, commentID)
		return err
	})
	if err != nil {
		return forum.Comment{}, err
	}
	return cmt, nil
}

func (repo forumRepository) RetractVote(ctx context.Context, userID, commentID int) (forum.Comment, error) {
	var cmt forum.Comment
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := lockComment(ctx, tx, commentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM comment_votes WHERE user_id = $1 AND comment_id = $2", userID, commentID); err != nil {
			return errors.Wrap(err, "deleting vote")
		}
		var err error
		cmt, err = recomputeVotes(ctx, tx, commentID)
		return err
	})
	if err != nil {
		return forum.Comment{}, err
	}
	return cmt, nil
}

func (repo forumRepository) GetVote(ctx context.Context, userID, commentID int) (forum.CommentVote, error) {
	var row voteRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT "+voteColumns+" FROM comment_votes WHERE user_id = $1 AND comment_id = $2", userID, commentID)
	if err != nil {
		return forum.CommentVote{}, trapNoRowsErr(err, forum.ErrVoteNotFound, "finding vote")
	}
	return forum.CommentVote{
		UserID:    row.UserID,
		CommentID: row.CommentID,
		VoteType:  forum.VoteType(row.VoteType),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
