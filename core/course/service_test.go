package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
	"github.com/trezcool/sala/core/user"
	"github.com/trezcool/sala/storage/database/memdb"
	"github.com/trezcool/sala/tests"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	db := memdb.Open()
	usrRepo := memdb.NewUserRepository(db)
	validate, _ := core.NewValidator()
	svc := course.NewService(memdb.NewCourseRepository(db), user.NewService(usrRepo), validate)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	tutor := testutil.CreateUser(t, usrRepo, "Tutor", "tutor", "tutor@test.cd", "", user.RoleTutor, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", user.RoleStudent, true)

	t.Run("create", func(t *testing.T) {
		_, err := svc.Create(ctx, user.Identity{}, course.NewCourse{Title: "Go"})
		assert.Equal(t, core.ErrUnauthenticated, err)

		_, err = svc.Create(ctx, student.Identity(), course.NewCourse{Title: "Go"})
		assert.True(t, core.IsForbidden(err))

		_, err = svc.Create(ctx, tutor.Identity(), course.NewCourse{Title: "  "})
		assert.Error(t, err)

		_, err = svc.Create(ctx, admin.Identity(), course.NewCourse{Title: "Go", TutorID: student.ID})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "user is not a tutor", vErr.Fields[0].Error)

		_, err = svc.Create(ctx, admin.Identity(), course.NewCourse{Title: "Go", TutorID: 99})
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "tutor_id", vErr.Fields[0].Field)

		c, err := svc.Create(ctx, tutor.Identity(), course.NewCourse{Title: " Go ", TutorID: admin.ID})
		require.NoError(t, err)
		assert.Equal(t, "Go", c.Title)
		assert.Equal(t, tutor.ID, c.TutorID) // only admins may pick the tutor

		c, err = svc.Create(ctx, admin.Identity(), course.NewCourse{Title: "SQL", TutorID: tutor.ID})
		require.NoError(t, err)
		assert.Equal(t, tutor.ID, c.TutorID)

		c, err = svc.Create(ctx, admin.Identity(), course.NewCourse{Title: "Admin 101"})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, c.TutorID)
	})

	t.Run("query", func(t *testing.T) {
		courses, err := svc.Query(ctx, &course.QueryFilter{TutorID: tutor.ID}, []core.DBOrdering{{Field: "title", Ascending: true}})
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, "Go", courses[0].Title)
		assert.Equal(t, "SQL", courses[1].Title)
	})

	t.Run("update", func(t *testing.T) {
		_, err := svc.Update(ctx, student.Identity(), 1, course.UpdateCourse{Title: "Go!"})
		assert.True(t, core.IsForbidden(err))

		_, err = svc.Update(ctx, tutor.Identity(), 99, course.UpdateCourse{Title: "Go!"})
		assert.True(t, core.IsNotFound(err))

		c, err := svc.Update(ctx, tutor.Identity(), 1, course.UpdateCourse{Title: "Go!", Description: " basics "})
		require.NoError(t, err)
		assert.Equal(t, "Go!", c.Title)
		assert.Equal(t, "basics", c.Description)

		c, err = svc.Update(ctx, admin.Identity(), 1, course.UpdateCourse{Title: "Go"})
		require.NoError(t, err)
		assert.Equal(t, "Go", c.Title)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, core.ErrUnauthenticated, svc.Delete(ctx, user.Identity{}, 1))
		assert.True(t, core.IsForbidden(svc.Delete(ctx, student.Identity(), 1)))
		require.NoError(t, svc.Delete(ctx, tutor.Identity(), 1))

		_, err := svc.GetByID(ctx, 1)
		assert.True(t, core.IsNotFound(err))
	})
}
