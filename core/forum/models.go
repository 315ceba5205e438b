package forum

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sala/core"
)

var (
	// TopicOrderingFields maps the public ordering fields to their columns.
	TopicOrderingFields = map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"title":      "title",
		"views":      "views",
		"is_pinned":  "is_pinned",
	}

	defaultTopicOrdering = []core.DBOrdering{
		{Field: "is_pinned", Ascending: false},
		{Field: "created_at", Ascending: false},
	}
)

type Topic struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int       `json:"author_id"`
	CourseID  *int      `json:"course_id"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"is_pinned"`
	Views     int       `json:"views"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (t Topic) Author() int { return t.AuthorID }

type Comment struct {
	ID          int       `json:"id"`
	Content     string    `json:"content"`
	AuthorID    int       `json:"author_id"`
	TopicID     int       `json:"topic_id"`
	ParentID    *int      `json:"parent_id"`
	Votes       int       `json:"votes"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c Comment) Author() int { return c.AuthorID }

// IsReply reports whether c answers another comment.
func (c Comment) IsReply() bool { return c.ParentID != nil }

// CommentVote is a ledger row: at most one per (UserID, CommentID).
type CommentVote struct {
	UserID    int       `json:"user_id"`
	CommentID int       `json:"comment_id"`
	VoteType  VoteType  `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewTopic contains information needed to create a new Topic.
type NewTopic struct {
	Title    string   `json:"title" validate:"notblank,max=255"`
	Content  string   `json:"content" validate:"notblank"`
	CourseID *int     `json:"course_id" validate:"omitempty,gt=0"`
	Tags     []string `json:"tags" validate:"max=20,dive,max=50"`
}

func (nt *NewTopic) Validate(validate *validator.Validate) error {
	nt.Title = cleanContent(nt.Title)
	nt.Content = cleanContent(nt.Content)
	nt.Tags = core.CleanStrings(nt.Tags, true /* lower */)
	return validate.Struct(nt)
}

// UpdateTopic defines what information may be provided to modify an existing Topic.
// Nil Tags and CourseID keep their current values.
type UpdateTopic struct {
	Title    string   `json:"title" validate:"notblank,max=255"`
	Content  string   `json:"content" validate:"notblank"`
	CourseID *int     `json:"course_id" validate:"omitempty,gt=0"`
	Tags     []string `json:"tags" validate:"max=20,dive,max=50"`
}

func (ut *UpdateTopic) Validate(validate *validator.Validate) error {
	ut.Title = cleanContent(ut.Title)
	ut.Content = cleanContent(ut.Content)
	if ut.Tags != nil {
		ut.Tags = core.CleanStrings(ut.Tags, true /* lower */)
	}
	return validate.Struct(ut)
}

type NewComment struct {
	TopicID     int    `json:"-"`
	Content     string `json:"content" validate:"notblank"`
	ParentID    *int   `json:"parent_id" validate:"omitempty,gt=0"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = cleanContent(nc.Content)
	return validate.Struct(nc)
}

type UpdateComment struct {
	Content     string `json:"content" validate:"notblank"`
	IsAnonymous *bool  `json:"is_anonymous"`
}

func (uc *UpdateComment) Validate(validate *validator.Validate) error {
	uc.Content = cleanContent(uc.Content)
	return validate.Struct(uc)
}

type TopicFilter struct {
	Search   string `query:"search"`
	CourseID int    `query:"course_id"`
	AuthorID int    `query:"author_id"`
	Tag      string `query:"tag"`
}

func (tf *TopicFilter) Clean() {
	tf.Search = core.CleanString(tf.Search)
	tf.Tag = core.CleanString(tf.Tag, true /* lower */)
}

func cleanContent(s string) string {
	return core.CleanString(core.Sanitize(core.CleanString(s)))
}
