// Package memdb implements the repositories in memory. Used in tests and with `database.engine=memory`.
package memdb

import (
	"sort"
	"sync"
	"time"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
	"github.com/trezcool/sala/core/forum"
	"github.com/trezcool/sala/core/user"
)

type (
	// DB holds all tables behind a single lock so cascades stay atomic.
	DB struct {
		sync.RWMutex
		user    *userTable
		course  *courseTable
		topic   *topicTable
		comment *commentTable
		vote    map[voteKey]*forum.CommentVote
	}

	userTable struct {
		pkCount int
		table   map[int]*user.User
	}

	courseTable struct {
		pkCount int
		table   map[int]*course.Course
	}

	topicTable struct {
		pkCount int
		table   map[int]*forum.Topic
	}

	commentTable struct {
		pkCount int
		table   map[int]*forum.Comment
	}

	voteKey struct {
		userID    int
		commentID int
	}
)

func Open() *DB {
	return &DB{
		user:    &userTable{table: make(map[int]*user.User)},
		course:  &courseTable{table: make(map[int]*course.Course)},
		topic:   &topicTable{table: make(map[int]*forum.Topic)},
		comment: &commentTable{table: make(map[int]*forum.Comment)},
		vote:    make(map[voteKey]*forum.CommentVote),
	}
}

// orderRows sorts rows by the given orderings (unknown fields are ignored), then by ID.
func orderRows[T any](rows []T, ordering []core.DBOrdering, cmps map[string]func(a, b T) int, id func(T) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			compare, ok := cmps[ord.Field]
			if !ok {
				continue
			}
			if c := compare(rows[i], rows[j]); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return id(rows[i]) < id(rows[j])
	})
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nowUTC() time.Time { return time.Now().UTC() }
