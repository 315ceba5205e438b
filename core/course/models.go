package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sala/core"
)

type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TutorID     int       `json:"tutor_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Author returns the course owner.
func (c Course) Author() int { return c.TutorID }

type NewCourse struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Description string `json:"description"`
	TutorID     int    `json:"tutor_id"` // admins only; defaults to the requester
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type UpdateCourse struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search  string `query:"search"`
	TutorID int    `query:"tutor_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
