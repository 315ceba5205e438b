package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/sala/core"
	"github.com/trezcool/sala/core/user"
)

var (
	ErrNotFound = core.NewNotFoundError("course")

	errTutorRequired = "only tutors and admins can create courses"
	errNotOwner      = "only the course tutor or an admin can modify this course"
	errNotTutor      = errors.New("user is not a tutor")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id int) error
	}

	// UserFinder resolves course tutors.
	UserFinder interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserFinder
		validate *validator.Validate
	}
)

func NewService(repo Repository, users UserFinder, validate *validator.Validate) *Service {
	return &Service{repo: repo, users: users, validate: validate}
}

func canModify(c Course, who user.Identity) bool {
	return who.ID == c.TutorID || who.IsAdmin()
}

func (svc *Service) Create(ctx context.Context, who user.Identity, nc NewCourse) (Course, error) {
	if who.IsZero() {
		return Course{}, core.ErrUnauthenticated
	}
	if !(who.IsTutor() || who.IsAdmin()) {
		return Course{}, core.NewForbiddenError(errTutorRequired)
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}

	tutorID := who.ID
	if who.IsAdmin() && nc.TutorID != 0 {
		tutor, err := svc.users.GetByID(ctx, nc.TutorID)
		if err != nil {
			if core.IsNotFound(err) {
				return Course{}, core.NewValidationError(err, core.FieldError{Field: "tutor_id", Error: err.Error()})
			}
			return Course{}, errors.Wrap(err, "finding tutor")
		}
		if !(tutor.IsTutor() || tutor.IsAdmin()) {
			return Course{}, core.NewValidationError(errNotTutor, core.FieldError{Field: "tutor_id", Error: errNotTutor.Error()})
		}
		tutorID = tutor.ID
	}

	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Title:       nc.Title,
		Description: nc.Description,
		TutorID:     tutorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, who user.Identity, id int, uc UpdateCourse) (Course, error) {
	if who.IsZero() {
		return Course{}, core.ErrUnauthenticated
	}
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !canModify(c, who) {
		return Course{}, core.NewForbiddenError(errNotOwner)
	}
	if err := uc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	c.Title = uc.Title
	c.Description = uc.Description
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, who user.Identity, id int) error {
	if who.IsZero() {
		return core.ErrUnauthenticated
	}
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(c, who) {
		return core.NewForbiddenError(errNotOwner)
	}
	return svc.repo.DeleteCourse(ctx, id)
}
