// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/sala/core/course"
	"github.com/trezcool/sala/core/forum"
	"github.com/trezcool/sala/core/user"
	"github.com/trezcool/sala/storage/database"
)

// TestDatabaseURLEnv names the env var holding the PostgreSQL URL used by the SQL repositories tests.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

// PrepareDB opens the test database, migrates it and empties it.
// The test is skipped when no test database is configured.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(TestDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", TestDatabaseURLEnv)
	}

	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB deletes all rows and restarts the sequences.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	q := "TRUNCATE comment_votes, forum_comments, forum_topics, courses, users RESTART IDENTITY CASCADE"
	if _, err := db.Exec(q); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleStudent
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title string, tutorID int) course.Course {
	t.Helper()
	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Title:     title,
		TutorID:   tutorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateTopic(t *testing.T, repo forum.Repository, authorID int, title string, tags ...string) forum.Topic {
	t.Helper()
	now := time.Now().UTC()
	if tags == nil {
		tags = []string{}
	}
	topic, err := repo.CreateTopic(context.Background(), forum.Topic{
		Title:     title,
		Content:   title + " content",
		AuthorID:  authorID,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	return topic
}

func CreateComment(t *testing.T, repo forum.Repository, authorID, topicID int, parentID *int, anonymous bool) forum.Comment {
	t.Helper()
	now := time.Now().UTC()
	cmt, err := repo.CreateComment(context.Background(), forum.Comment{
		Content:     "comment",
		AuthorID:    authorID,
		TopicID:     topicID,
		ParentID:    parentID,
		IsAnonymous: anonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateComment() failed: %v", err)
	}
	return cmt
}
