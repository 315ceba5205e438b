package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
)

const courseColumns = "id, title, description, tutor_id, created_at, updated_at"

var courseOrderings = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type courseRow struct {
	ID          int       `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	TutorID     int       `db:"tutor_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TutorID:     r.TutorID,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO courses (title, description, tutor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+courseColumns,
		c.Title, c.Description, c.TutorID, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "inserting course")
	}
	return row.toCourse(), nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.toCourse(), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	where := new(whereBuilder)
	if filter != nil {
		if filter.Search != "" {
			where.add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
		if filter.TutorID != 0 {
			where.add("tutor_id = $%d", filter.TutorID)
		}
	}

	rows := make([]courseRow, 0)
	q := "SELECT " + courseColumns + " FROM courses" + where.String() + orderByClause(ordering, courseOrderings)
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE courses SET title = $2, description = $3, tutor_id = $4, updated_at = $5
		WHERE id = $1 RETURNING `+courseColumns,
		c.ID, c.Title, c.Description, c.TutorID, c.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "updating course")
	}
	return row.toCourse(), nil
}

// DeleteCourse deletes the course; its topics are kept and detached (ON DELETE SET NULL).
func (repo courseRepository) DeleteCourse(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound, "deleting course")
}
