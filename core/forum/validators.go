package forum

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sala/core"
)

// InitValidators registers the forum validators & translations on `validate`.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(voteTypeTag, voteTypeValidation)
	core.RegisterCustomTranslation(validate, translator, voteTypeTag, voteTypeText)
}
