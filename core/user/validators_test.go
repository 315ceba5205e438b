package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sala/core"
)

func newValidator() (*validator.Validate, func(error) map[string]string) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate, func(err error) map[string]string {
		if err == nil {
			return nil
		}
		return core.TranslateValidationErrors(err.(validator.ValidationErrors), translator)
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate, translate := newValidator()
	const strongPwd = "Sup3r-s3cr3t!"

	tests := []struct {
		name string
		nu   NewUser
		want map[string]string
	}{
		{
			name: "valid",
			nu:   NewUser{Name: "Ana", Username: " Ana_K ", Email: "ANA@test.cd", Password: strongPwd, PasswordConfirm: strongPwd},
		},
		{
			name: "bad role",
			nu:   NewUser{Name: "Ana", Username: "ana", Role: "god", Password: strongPwd, PasswordConfirm: strongPwd},
			want: map[string]string{"role": "invalid role"},
		},
		{
			name: "passwords mismatch",
			nu:   NewUser{Name: "Ana", Username: "ana", Password: strongPwd, PasswordConfirm: strongPwd + "?"},
			want: map[string]string{"password_confirm": "password_confirm must be equal to Password"},
		},
		{
			name: "too short",
			nu:   NewUser{Name: "Ana", Username: "ana", Password: "Sh0r!", PasswordConfirm: "Sh0r!"},
			want: map[string]string{"password": "password must contain at least 8 characters"},
		},
		{
			name: "whitespace",
			nu:   NewUser{Name: "Ana", Username: "ana", Password: "Sup3r s3cr3t!", PasswordConfirm: "Sup3r s3cr3t!"},
			want: map[string]string{"password": "password must not contain whitespace"},
		},
		{
			name: "all numeric",
			nu:   NewUser{Name: "Ana", Username: "ana", Password: "90817263", PasswordConfirm: "90817263"},
			want: map[string]string{"password": "password cannot be entirely numeric"},
		},
		{
			name: "not complex",
			nu:   NewUser{Name: "Ana", Username: "ana", Password: "supersecret", PasswordConfirm: "supersecret"},
			want: map[string]string{"password": pwdComplexityText},
		},
		{
			name: "similar to username",
			nu:   NewUser{Name: "Ana", Username: "gophers_rule", Password: "Gophers_rule1", PasswordConfirm: "Gophers_rule1"},
			want: map[string]string{"password": "password cannot be similar to user attributes"},
		},
		{
			name: "common",
			nu:   NewUser{Name: "Ana", Username: "ana", Password: "P@ssw0rd1", PasswordConfirm: "P@ssw0rd1"},
			want: map[string]string{"password": "password is too common"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := tt.nu
			assert.Equal(t, tt.want, translate(nu.Validate(validate)))
		})
	}

	nu := tests[0].nu
	require.NoError(t, nu.Validate(validate))
	assert.Equal(t, "ana_k", nu.Username)
	assert.Equal(t, "ana@test.cd", nu.Email)
	assert.Equal(t, RoleStudent, nu.Role)
}

func TestUpdateUser_Validate(t *testing.T) {
	validate, translate := newValidator()
	orig := User{ID: 1, Name: "Ana", Username: "ana", Email: "ana@test.cd", Role: RoleTutor}

	uu := UpdateUser{Name: "  "}
	require.NoError(t, uu.Validate(orig, validate))
	assert.Equal(t, "Ana", uu.Name)
	assert.Equal(t, "ana@test.cd", uu.Email)
	assert.Equal(t, RoleTutor, uu.Role)

	uu = UpdateUser{Password: "Sup3r-s3cr3t!"}
	assert.Equal(t, map[string]string{"password_confirm": "this field is required"}, translate(uu.Validate(orig, validate)))

	uu = UpdateUser{Role: "Admin", Email: "nope"}
	assert.Equal(t, map[string]string{"email": "email must be a valid email address"}, translate(uu.Validate(orig, validate)))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Tutor ")
	require.NoError(t, err)
	assert.Equal(t, RoleTutor, role)

	_, err = ParseRole("god")
	assert.Equal(t, errInvalidRole, err)
}
