package campaign

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

var (
	channelTag  = "channel"
	channelText = "must be one of: email, sms, social"

	audienceTag  = "audience"
	audienceText = "must be one of: subscribers, leads"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(channelTag, func(fl validator.FieldLevel) bool {
		return core.OneOf(fl.Field().String(), Channels)
	})
	core.RegisterCustomTranslation(validate, translator, channelTag, channelText)

	_ = validate.RegisterValidation(audienceTag, func(fl validator.FieldLevel) bool {
		return core.OneOf(fl.Field().String(), Audiences)
	})
	core.RegisterCustomTranslation(validate, translator, audienceTag, audienceText)
}
