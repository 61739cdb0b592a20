package lead

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

var (
	statusTag  = "leadstatus"
	statusText = "must be one of: new, contacted, qualified, closed"

	requiredTag = "required"

	propertyOrEventTag  = "property_or_event"
	propertyOrEventText = "one of property_id or event_id is required"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return core.OneOf(fl.Field().String(), Statuses)
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	validate.RegisterStructValidation(leadStructValidation, LeadInput{})
	core.RegisterCustomTranslation(validate, translator, propertyOrEventTag, propertyOrEventText)
}

// leadStructValidation checks the fields each form kind requires:
// - contact: name, email, message
// - kyc: name, email, phone, nationality, id_number
// - interest: name, email, phone and one of property_id or event_id
// - popup: email
func leadStructValidation(sl validator.StructLevel) {
	in, ok := sl.Current().Interface().(LeadInput)
	if !ok {
		return
	}
	require := func(val, field, structField string) {
		if val == "" {
			sl.ReportError(val, field, structField, requiredTag, "")
		}
	}

	switch in.Kind {
	case KindContact:
		require(in.Name, "name", "Name")
		require(in.Message, "message", "Message")
	case KindKYC:
		require(in.Name, "name", "Name")
		require(in.Phone, "phone", "Phone")
		require(in.Nationality, "nationality", "Nationality")
		require(in.IDNumber, "id_number", "IDNumber")
	case KindInterest:
		require(in.Name, "name", "Name")
		require(in.Phone, "phone", "Phone")
		if in.PropertyID == "" && in.EventID == "" {
			sl.ReportError(in.PropertyID, "property_id", "PropertyID", propertyOrEventTag, "")
			sl.ReportError(in.EventID, "event_id", "EventID", propertyOrEventTag, "")
		}
	}
}
