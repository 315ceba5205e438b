package gormrepos

import (
	"testing"

	sqlxrepos "github.com/trezcool/sala/storage/database/sqlx"
	"github.com/trezcool/sala/tests"
)

func TestForumRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	gdb, err := Open(db.DB, false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	testutil.TestForumRepository(t, sqlxrepos.NewUserRepository(db), NewForumRepository(gdb))
}
