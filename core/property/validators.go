package property

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

var (
	typeTag  = "proptype"
	typeText = "must be one of: apartment, villa, townhouse, penthouse, duplex, land, commercial, office"

	statusTag  = "propstatus"
	statusText = "must be one of: off_plan, ready, sold, rented"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, func(fl validator.FieldLevel) bool {
		return core.OneOf(fl.Field().String(), Types)
	})
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)

	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return core.OneOf(fl.Field().String(), Statuses)
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}
