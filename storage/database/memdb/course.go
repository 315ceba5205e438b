package memdb

import (
	"cmp"
	"context"
	"strings"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/course"
)

var courseOrderings = map[string]func(a, b course.Course) int{
	"title":      func(a, b course.Course) int { return cmp.Compare(a.Title, b.Title) },
	"created_at": func(a, b course.Course) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b course.Course) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.course.pkCount++
	c.ID = repo.db.course.pkCount
	row := c
	repo.db.course.table[c.ID] = &row
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id int) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.course.table[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.course.table))
	for _, c := range repo.db.course.table {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !(strings.Contains(strings.ToLower(c.Title), search) ||
					strings.Contains(strings.ToLower(c.Description), search)) {
					continue
				}
			}
			if filter.TutorID != 0 && c.TutorID != filter.TutorID {
				continue
			}
		}
		courses = append(courses, *c)
	}
	orderRows(courses, ordering, courseOrderings, func(c course.Course) int { return c.ID })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.course.table[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	row := c
	repo.db.course.table[c.ID] = &row
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.course.table[id]; !ok {
		return course.ErrNotFound
	}
	repo.db.deleteCourse(id)
	return nil
}

// deleteCourse detaches the course topics then deletes it. Callers hold the write lock.
func (db *DB) deleteCourse(id int) {
	for _, t := range db.topic.table {
		if t.CourseID != nil && *t.CourseID == id {
			t.CourseID = nil
		}
	}
	delete(db.course.table, id)
}
