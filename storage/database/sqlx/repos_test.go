package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
	"github.com/trezcool/sala/core/user"
	"github.com/trezcool/sala/tests"
)

func TestForumRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	testutil.TestForumRepository(t, NewUserRepository(db), NewForumRepository(db))
}

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	ana := testutil.CreateUser(t, repo, "Ana", "ana", "ana@test.cd", "Sup3r-s3cr3t!", user.RoleTutor, true)
	bob := testutil.CreateUser(t, repo, "Bob", "bob", "", "", user.RoleStudent, false)

	assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "ana", ""))
	assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "", "ana@test.cd"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "ana", "ana@test.cd", ana))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "carla", ""))

	usr, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "ana@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, usr.ID)
	assert.NoError(t, usr.CheckPassword("Sup3r-s3cr3t!"))

	usr, err = repo.GetUser(ctx, user.GetFilter{ID: bob.ID})
	require.NoError(t, err)
	assert.Empty(t, usr.Email)

	_, err = repo.GetUser(ctx, user.GetFilter{Username: "nobody"})
	assert.True(t, core.IsNotFound(err))

	inactive := false
	users, err := repo.QueryUsers(ctx, &user.QueryFilter{IsActive: &inactive}, nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)

	users, err = repo.QueryUsers(ctx, &user.QueryFilter{Search: "AN"}, nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ana.ID, users[0].ID)

	bob.Name = "Bobby"
	bob.IsActive = true
	usr, err = repo.UpdateUser(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "Bobby", usr.Name)
	assert.True(t, usr.IsActive)

	cnt, err := repo.DeleteUsersByID(ctx, bob.ID, 999)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	users, err = repo.QueryUsers(ctx, nil, []core.DBOrdering{{Field: "username", Ascending: true}})
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestCourseRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	usrRepo := NewUserRepository(db)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	tutor := testutil.CreateUser(t, usrRepo, "Tutor", "tutor", "tutor@test.cd", "", user.RoleTutor, true)
	goCourse := testutil.CreateCourse(t, repo, "Go", tutor.ID)
	_ = testutil.CreateCourse(t, repo, "SQL", tutor.ID)

	c, err := repo.GetCourse(ctx, goCourse.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", c.Title)

	courses, err := repo.QueryCourses(ctx, &course.QueryFilter{TutorID: tutor.ID}, []core.DBOrdering{{Field: "title"}})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "SQL", courses[0].Title)

	c.Description = "basics"
	c, err = repo.UpdateCourse(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "basics", c.Description)

	require.NoError(t, repo.DeleteCourse(ctx, goCourse.ID))
	assert.True(t, core.IsNotFound(repo.DeleteCourse(ctx, goCourse.ID)))
	_, err = repo.GetCourse(ctx, goCourse.ID)
	assert.True(t, core.IsNotFound(err))
}
