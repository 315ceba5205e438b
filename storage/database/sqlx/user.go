package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/user"
)

const userColumns = "id, name, username, email, role, is_active, password_hash, created_at, updated_at"

var userOrderings = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

type userRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	Email        null.String `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email.String,
		Role:         user.Role(r.Role),
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	if username == "" && email == "" {
		return nil
	}
	where := &whereBuilder{
		conds: []string{"((username = $1 AND $1 <> '') OR (email = $2 AND $2 <> ''))"},
		args:  []interface{}{username, email},
	}
	for _, u := range excludedUsers {
		where.add("id <> $%d", u.ID)
	}

	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM users" + where.String() + ")"
	if err := repo.db.GetContext(ctx, &exists, q, where.args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO users (name, username, email, role, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+userColumns,
		usr.Name, usr.Username, nullIfEmpty(usr.Email), string(usr.Role), usr.IsActive,
		usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "inserting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	where := new(whereBuilder)
	if filter != nil {
		if filter.Search != "" {
			where.add("(name ILIKE $%[1]d OR username ILIKE $%[1]d OR email ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
		if filter.Role != "" {
			where.add("role = $%d", string(filter.Role))
		}
		if filter.IsActive != nil {
			where.add("is_active = $%d", *filter.IsActive)
		}
	}

	rows := make([]userRow, 0)
	q := "SELECT " + userColumns + " FROM users" + where.String() + orderByClause(ordering, userOrderings)
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	where := new(whereBuilder)
	switch {
	case filter.ID != 0:
		where.add("id = $%d", filter.ID)
	case filter.Username != "":
		where.add("username = $%d", filter.Username)
	case filter.Email != "":
		where.add("email = $%d", filter.Email)
	case filter.UsernameOrEmail != "":
		where.add("(username = $%[1]d OR email = $%[1]d)", filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := "SELECT " + userColumns + " FROM users" + where.String() + " LIMIT 1"
	if err := repo.db.GetContext(ctx, &row, q, where.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE users SET name = $2, email = $3, role = $4, is_active = $5, password_hash = $6, updated_at = $7
		WHERE id = $1 RETURNING `+userColumns,
		usr.ID, usr.Name, nullIfEmpty(usr.Email), string(usr.Role), usr.IsActive,
		usr.PasswordHash, usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return row.toUser(), nil
}

// DeleteUsersByID deletes the users along with everything they own.
// The scores of the comments they voted on are recomputed in the same transaction.
func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	userIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		userIDs = append(userIDs, int64(id))
	}

	var cnt int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		votedIDs := make([]int64, 0)
		err := tx.SelectContext(ctx, &votedIDs,
			`SELECT id FROM forum_comments
			WHERE id IN (SELECT comment_id FROM comment_votes WHERE user_id = ANY($1))
			ORDER BY id FOR UPDATE`,
			pq.Array(userIDs),
		)
		if err != nil {
			return errors.Wrap(err, "locking voted comments")
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ANY($1)", pq.Array(userIDs))
		if err != nil {
			return errors.Wrap(err, "deleting users")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "deleting users")
		}
		cnt = int(n)

		if len(votedIDs) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE forum_comments
			SET votes = (SELECT COALESCE(SUM(vote_type), 0) FROM comment_votes WHERE comment_id = forum_comments.id)
			WHERE id = ANY($1)`,
			pq.Array(votedIDs),
		)
		return errors.Wrap(err, "recomputing votes")
	})
	if err != nil {
		return 0, err
	}
	return cnt, nil
}

func nullIfEmpty(s string) null.String {
	return null.NewString(s, s != "")
}
