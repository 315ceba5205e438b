// Package sqlxrepos implements the repositories on PostgreSQL with jmoiron/sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/sala/core"
)

const uniqueViolation = "23505"

// withTx runs fn in a transaction, committed only when fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// trapNoRowsErr maps psql "no rows" err to notFound and unique violations to core.ConflictError.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return core.NewConflictError(errors.New(pqErr.Detail))
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns notFound when res touched no rows.
func checkAffected(res sql.Result, notFound error, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// orderByClause renders the orderings whose field is in allowed, then the ID.
func orderByClause(ordering []core.DBOrdering, allowed map[string]string) string {
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := allowed[ord.Field]; ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	orderList = append(orderList, "id ASC")
	return " ORDER BY " + strings.Join(orderList, ", ")
}

// whereBuilder accumulates AND-ed conditions with positional args.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends cond, in which every %[1]d is replaced by the placeholder of arg.
func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
