package event

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

var (
	endsAtTag  = "ends_at"
	endsAtText = "must be on or after starts_at"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(endsAtTag, func(fl validator.FieldLevel) bool {
		in, ok := fl.Parent().Interface().(EventInput)
		if !ok {
			return false
		}
		return !in.EndsAt.Before(in.StartsAt)
	})
	core.RegisterCustomTranslation(validate, translator, endsAtTag, endsAtText)
}
