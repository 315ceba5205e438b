// Package gormrepos implements the forum repository with gorm, sharing the application *sql.DB pool.
package gormrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/forum"
)

type (
	topicModel struct {
		ID        int            `gorm:"primaryKey"`
		Title     string         `gorm:"not null"`
		Content   string         `gorm:"not null"`
		AuthorID  int            `gorm:"not null"`
		CourseID  *int
		Tags      pq.StringArray `gorm:"type:text[]"`
		IsPinned  bool           `gorm:"not null"`
		Views     int            `gorm:"not null"`
		CreatedAt time.Time      `gorm:"autoCreateTime:false"`
		UpdatedAt time.Time      `gorm:"autoUpdateTime:false"`
	}

	commentModel struct {
		ID          int       `gorm:"primaryKey"`
		Content     string    `gorm:"not null"`
		AuthorID    int       `gorm:"not null"`
		TopicID     int       `gorm:"not null"`
		ParentID    *int
		Votes       int       `gorm:"not null"`
		IsAnonymous bool      `gorm:"not null"`
		CreatedAt   time.Time `gorm:"autoCreateTime:false"`
		UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
	}

	voteModel struct {
		UserID    int       `gorm:"primaryKey;autoIncrement:false"`
		CommentID int       `gorm:"primaryKey;autoIncrement:false"`
		VoteType  int       `gorm:"not null"`
		CreatedAt time.Time `gorm:"autoCreateTime:false"`
		UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
	}
)

func (topicModel) TableName() string   { return "forum_topics" }
func (commentModel) TableName() string { return "forum_comments" }
func (voteModel) TableName() string    { return "comment_votes" }

func newTopicModel(t forum.Topic) topicModel {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return topicModel{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		AuthorID:  t.AuthorID,
		CourseID:  t.CourseID,
		Tags:      tags,
		IsPinned:  t.IsPinned,
		Views:     t.Views,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (m topicModel) toTopic() forum.Topic {
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return forum.Topic{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		AuthorID:  m.AuthorID,
		CourseID:  m.CourseID,
		Tags:      tags,
		IsPinned:  m.IsPinned,
		Views:     m.Views,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func newCommentModel(c forum.Comment) commentModel {
	return commentModel{
		ID:          c.ID,
		Content:     c.Content,
		AuthorID:    c.AuthorID,
		TopicID:     c.TopicID,
		ParentID:    c.ParentID,
		Votes:       c.Votes,
		IsAnonymous: c.IsAnonymous,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (m commentModel) toComment() forum.Comment {
	return forum.Comment{
		ID:          m.ID,
		Content:     m.Content,
		AuthorID:    m.AuthorID,
		TopicID:     m.TopicID,
		ParentID:    m.ParentID,
		Votes:       m.Votes,
		IsAnonymous: m.IsAnonymous,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// Open wraps an existing connection pool; the schema is owned by the goose migrations.
func Open(sqlDB *sql.DB, debug bool) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening gorm")
	}
	return db, nil
}

type forumRepository struct {
	db *gorm.DB
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *gorm.DB) *forumRepository {
	return &forumRepository{db: db}
}

// trapNotFound maps gorm "record not found" err to notFound.
func trapNotFound(err error, notFound error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// Topics

func (repo forumRepository) CreateTopic(ctx context.Context, t forum.Topic) (forum.Topic, error) {
	m := newTopicModel(t)
	m.ID = 0
	m.Views = 0
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return forum.Topic{}, errors.Wrap(err, "inserting topic")
	}
	return m.toTopic(), nil
}

func (repo forumRepository) GetTopic(ctx context.Context, id int) (forum.Topic, error) {
	var m topicModel
	if err := repo.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return forum.Topic{}, trapNotFound(err, forum.ErrTopicNotFound, "finding topic")
	}
	return m.toTopic(), nil
}

func (repo forumRepository) IncrementTopicViews(ctx context.Context, id int) (forum.Topic, error) {
	var m topicModel
	res := repo.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return forum.Topic{}, errors.Wrap(res.Error, "incrementing topic views")
	}
	if res.RowsAffected == 0 {
		return forum.Topic{}, forum.ErrTopicNotFound
	}
	return m.toTopic(), nil
}

func (repo forumRepository) QueryTopics(ctx context.Context, filter *forum.TopicFilter, ordering []core.DBOrdering) ([]forum.Topic, error) {
	q := repo.db.WithContext(ctx).Model(&topicModel{})
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where("title ILIKE ? OR content ILIKE ?", val, val)
		}
		if filter.CourseID != 0 {
			q = q.Where("course_id = ?", filter.CourseID)
		}
		if filter.AuthorID != 0 {
			q = q.Where("author_id = ?", filter.AuthorID)
		}
		if filter.Tag != "" {
			q = q.Where("? = ANY(tags)", filter.Tag)
		}
	}
	for _, ord := range ordering {
		if col, ok := forum.TopicOrderingFields[ord.Field]; ok {
			q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: !ord.Ascending})
		}
	}
	q = q.Order("id ASC")

	var models []topicModel
	if err := q.Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "querying topics")
	}
	topics := make([]forum.Topic, 0, len(models))
	for _, m := range models {
		topics = append(topics, m.toTopic())
	}
	return topics, nil
}

func (repo forumRepository) UpdateTopic(ctx context.Context, t forum.Topic) (forum.Topic, error) {
	m := newTopicModel(t)
	res := repo.db.WithContext(ctx).
		Model(&topicModel{ID: t.ID}).
		Select("title", "content", "course_id", "tags", "is_pinned", "updated_at").
		Updates(&m)
	if res.Error != nil {
		return forum.Topic{}, errors.Wrap(res.Error, "updating topic")
	}
	if res.RowsAffected == 0 {
		return forum.Topic{}, forum.ErrTopicNotFound
	}
	return repo.GetTopic(ctx, t.ID)
}

func (repo forumRepository) DeleteTopic(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&topicModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting topic")
	}
	if res.RowsAffected == 0 {
		return forum.ErrTopicNotFound
	}
	return nil
}

// Comments

func (repo forumRepository) CreateComment(ctx context.Context, c forum.Comment) (forum.Comment, error) {
	m := newCommentModel(c)
	m.ID = 0
	m.Votes = 0
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return forum.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return m.toComment(), nil
}

func (repo forumRepository) GetComment(ctx context.Context, id int) (forum.Comment, error) {
	var m commentModel
	if err := repo.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return forum.Comment{}, trapNotFound(err, forum.ErrCommentNotFound, "finding comment")
	}
	return m.toComment(), nil
}

func (repo forumRepository) QueryTopicComments(ctx context.Context, topicID int) ([]forum.Comment, error) {
	var models []commentModel
	err := repo.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying topic comments")
	}
	comments := make([]forum.Comment, 0, len(models))
	for _, m := range models {
		comments = append(comments, m.toComment())
	}
	return comments, nil
}

func (repo forumRepository) UpdateComment(ctx context.Context, c forum.Comment) (forum.Comment, error) {
	m := newCommentModel(c)
	res := repo.db.WithContext(ctx).
		Model(&commentModel{ID: c.ID}).
		Select("content", "is_anonymous", "updated_at").
		Updates(&m)
	if res.Error != nil {
		return forum.Comment{}, errors.Wrap(res.Error, "updating comment")
	}
	if res.RowsAffected == 0 {
		return forum.Comment{}, forum.ErrCommentNotFound
	}
	return repo.GetComment(ctx, c.ID)
}

func (repo forumRepository) DeleteComment(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&commentModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting comment")
	}
	if res.RowsAffected == 0 {
		return forum.ErrCommentNotFound
	}
	return nil
}

// Votes

// recomputeVotes locks the comment row, runs change and sets the score to the sum of the ledger.
func (repo forumRepository) recomputeVotes(ctx context.Context, commentID int, change func(tx *gorm.DB) error) (forum.Comment, error) {
	var m commentModel
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, commentID).Error; err != nil {
			return trapNotFound(err, forum.ErrCommentNotFound, "locking comment")
		}
		if err := change(tx); err != nil {
			return err
		}
		err := tx.Model(&m).UpdateColumn("votes", gorm.Expr(
			"(SELECT COALESCE(SUM(vote_type), 0) FROM comment_votes WHERE comment_id = ?)", commentID,
		)).Error
		if err != nil {
			return errors.Wrap(err, "recomputing votes")
		}
		return tx.First(&m, commentID).Error
	})
	if err != nil {
		return forum.Comment{}, err
	}
	return m.toComment(), nil
}

func (repo forumRepository) CastVote(ctx context.Context, userID, commentID int, vt forum.VoteType) (forum.Comment, error) {
	return repo.recomputeVotes(ctx, commentID, func(tx *gorm.DB) error {
		now := time.Now().UTC()
		vote := voteModel{UserID: userID, CommentID: commentID, VoteType: int(vt), CreatedAt: now, UpdatedAt: now}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
		}).Create(&vote).Error
		return errors.Wrap(err, "upserting vote")
	})
}

func (repo forumRepository) RetractVote(ctx context.Context, userID, commentID int) (forum.Comment, error) {
	return repo.recomputeVotes(ctx, commentID, func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).Delete(&voteModel{}).Error
		return errors.Wrap(err, "deleting vote")
	})
}

func (repo forumRepository) GetVote(ctx context.Context, userID, commentID int) (forum.CommentVote, error) {
	var m voteModel
	err := repo.db.WithContext(ctx).Where("user_id = ? AND comment_id = ?", userID, commentID).First(&m).Error
	if err != nil {
		return forum.CommentVote{}, trapNotFound(err, forum.ErrVoteNotFound, "finding vote")
	}
	return forum.CommentVote{
		UserID:    m.UserID,
		CommentID: m.CommentID,
		VoteType:  forum.VoteType(m.VoteType),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}
