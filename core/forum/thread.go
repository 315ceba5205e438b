package forum

import (
	"time"

	"github.com/trezcool/sala/core/user"
)

// ThreadNode is a top-level comment and its direct replies.
type ThreadNode struct {
	Comment Comment
	Replies []Comment
}

// BuildThread groups comments into top-level nodes with their replies.
// Input order is kept for both levels.
// Replies whose parent is missing or is itself a reply are dropped.
func BuildThread(comments []Comment) []ThreadNode {
	nodes := make([]ThreadNode, 0, len(comments))
	index := make(map[int]int, len(comments)) // {comment ID: node position}

	for _, c := range comments {
		if c.ParentID == nil {
			index[c.ID] = len(nodes)
			nodes = append(nodes, ThreadNode{Comment: c, Replies: make([]Comment, 0)})
		}
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if pos, ok := index[*c.ParentID]; ok {
			nodes[pos].Replies = append(nodes[pos].Replies, c)
		}
	}
	return nodes
}

// CommentView is a comment as presented to a given viewer.
// AuthorID is hidden from non-admin viewers on anonymous comments unless they wrote it.
type CommentView struct {
	ID          int       `json:"id"`
	Content     string    `json:"content"`
	AuthorID    *int      `json:"author_id,omitempty"`
	AuthorName  string    `json:"author_name"`
	TopicID     int       `json:"topic_id"`
	ParentID    *int      `json:"parent_id"`
	Votes       int       `json:"votes"`
	IsAnonymous bool      `json:"is_anonymous"`
	CanModify   bool      `json:"can_modify"`
	CanReply    bool      `json:"can_reply"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ThreadView struct {
	CommentView
	Replies []CommentView `json:"replies"`
}

// Thread is a topic with its comment tree.
type Thread struct {
	Topic    Topic        `json:"topic"`
	Comments []ThreadView `json:"comments"`
}

func newCommentView(c Comment, author *user.User, who user.Identity) CommentView {
	view := CommentView{
		ID:          c.ID,
		Content:     c.Content,
		AuthorName:  DisplayName(c, author, who.Role),
		TopicID:     c.TopicID,
		ParentID:    c.ParentID,
		Votes:       c.Votes,
		IsAnonymous: c.IsAnonymous,
		CanModify:   CanModify(c, who),
		CanReply:    CanReply(c),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if !c.IsAnonymous || who.IsAdmin() || who.ID == c.AuthorID {
		authorID := c.AuthorID
		view.AuthorID = &authorID
	}
	return view
}
