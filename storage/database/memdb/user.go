package memdb

import (
	"cmp"
	"context"
	"strings"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/user"
)

var userOrderings = map[string]func(a, b user.User) int{
	"name":       func(a, b user.User) int { return cmp.Compare(a.Name, b.Name) },
	"username":   func(a, b user.User) int { return cmp.Compare(a.Username, b.Username) },
	"email":      func(a, b user.User) int { return cmp.Compare(a.Email, b.Email) },
	"created_at": func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.user.table))
	for _, u := range repo.db.user.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[int]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}
	for _, usr := range repo.db.user.table {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if (username != "" && usr.Username == username) || (email != "" && usr.Email == email) {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.user.pkCount++
	usr.ID = repo.db.user.pkCount
	u := usr
	repo.db.user.table[usr.ID] = &u
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !(strings.Contains(strings.ToLower(usr.Name), search) ||
					strings.Contains(usr.Username, search) ||
					strings.Contains(usr.Email, search)) {
					continue
				}
			}
			if filter.Role != "" && usr.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
		}
		users = append(users, usr)
	}
	orderRows(users, ordering, userOrderings, func(u user.User) int { return u.ID })
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.user.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.user.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	u := usr
	repo.db.user.table[usr.ID] = &u
	return usr, nil
}

// DeleteUsersByID deletes the users along with everything they own.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.user.table[id]; !ok {
			continue
		}
		for _, c := range repo.db.course.table {
			if c.TutorID == id {
				repo.db.deleteCourse(c.ID)
			}
		}
		for _, t := range repo.db.topic.table {
			if t.AuthorID == id {
				repo.db.deleteTopic(t.ID)
			}
		}
		for _, c := range repo.db.comment.table {
			if c.AuthorID == id {
				repo.db.deleteComment(c.ID)
			}
		}
		for key := range repo.db.vote {
			if key.userID == id {
				delete(repo.db.vote, key)
				repo.db.recomputeVotes(key.commentID)
			}
		}
		delete(repo.db.user.table, id)
		cnt++
	}
	return cnt, nil
}
