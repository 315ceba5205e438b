package forum

import (
	"github.com/trezcool/sala/core/user"
)

const (
	anonymousName     = "Anônimo"
	unknownAuthorName = "Usuário desconhecido"
)

// Authored is implemented by everything owned by a user (topics, comments).
type Authored interface {
	Author() int
}

// DisplayName returns the author name of c as seen by viewer.
// Anonymous comments are masked, except for admins who see the real username next to the mask.
// author may be nil when the author record no longer exists.
func DisplayName(c Comment, author *user.User, viewer user.Role) string {
	name := unknownAuthorName
	if author != nil && author.Username != "" {
		name = author.Username
	}
	if !c.IsAnonymous {
		return name
	}
	if viewer == user.RoleAdmin {
		return anonymousName + " (" + name + ")"
	}
	return anonymousName
}

// CanModify reports whether who may edit or delete e: its author or any admin.
func CanModify(e Authored, who user.Identity) bool {
	if who.IsZero() {
		return false
	}
	return who.ID == e.Author() || who.Role == user.RoleAdmin
}

// CanReply reports whether c accepts replies (only top-level comments do).
func CanReply(c Comment) bool {
	return c.ParentID == nil
}
