package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/sala/core"
)

// Role is the closed set of platform roles.
type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles = []Role{RoleStudent, RoleTutor, RoleAdmin}

	errInvalidRole = errors.New("invalid role")
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole returns the Role matching `s` (case-insensitive).
func ParseRole(s string) (Role, error) {
	role := Role(core.CleanString(s, true /* lower */))
	if !role.IsValid() {
		return "", errInvalidRole
	}
	return role, nil
}

// Identity is the authenticated requester, resolved by the caller (e.g. from a JWT).
type Identity struct {
	ID   int
	Role Role
}

func (who Identity) IsZero() bool  { return who.ID == 0 }
func (who Identity) IsAdmin() bool { return who.Role == RoleAdmin }
func (who Identity) IsTutor() bool { return who.Role == RoleTutor }

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role}
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
func (u User) IsTutor() bool { return u.Role == RoleTutor }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"notblank"`
	Username        string `json:"username" validate:"required,min=3,max=150,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`

	username string // used by the password policy only
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	uu.Role = Role(core.CleanString(string(uu.Role), true /* lower */))
	if uu.Role == "" {
		uu.Role = origUsr.Role
	}
	uu.username = origUsr.Username
	return validate.Struct(uu)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     Role   `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = Role(core.CleanString(string(qf.Role), true /* lower */))
}

// GetFilter selects a single User: the first non-zero field wins.
type GetFilter struct {
	ID              int
	Username        string
	Email           string
	UsernameOrEmail string
}
