package lead

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

const (
	KindContact  = "contact"
	KindKYC      = "kyc"
	KindInterest = "interest"
	KindPopup    = "popup"

	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusClosed    = "closed"
)

var (
	Kinds    = []string{KindContact, KindKYC, KindInterest, KindPopup}
	Statuses = []string{StatusNew, StatusContacted, StatusQualified, StatusClosed}
)

// Lead is a prospect captured by one of the public forms.
type Lead struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Message          string    `json:"message"`
	PropertyID       *string   `json:"property_id"`
	EventID          *string   `json:"event_id"`
	Budget           *float64  `json:"budget"`
	Nationality      string    `json:"nationality"`
	IDNumber         string    `json:"id_number"`
	Occupation       string    `json:"occupation"`
	SourceOfFunds    string    `json:"source_of_funds"`
	DocumentKey      string    `json:"document_key"`
	DocumentURL      string    `json:"document_url,omitempty"`
	Page             string    `json:"page"`
	PreferredContact string    `json:"preferred_contact"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LeadInput is what the public forms submit. Required fields depend on Kind.
type LeadInput struct {
	Kind             string   `json:"-"`
	Name             string   `json:"name" validate:"max=120"`
	Email            string   `json:"email" validate:"required,email"`
	Phone            string   `json:"phone" validate:"omitempty,phone"`
	Message          string   `json:"message" validate:"max=5000"`
	PropertyID       string   `json:"property_id" validate:"omitempty,uuid"`
	EventID          string   `json:"event_id" validate:"omitempty,uuid"`
	Budget           *float64 `json:"budget" validate:"omitempty,gte=0"`
	Nationality      string   `json:"nationality" validate:"max=100"`
	IDNumber         string   `json:"id_number" validate:"max=100"`
	Occupation       string   `json:"occupation" validate:"max=120"`
	SourceOfFunds    string   `json:"source_of_funds" validate:"max=500"`
	DocumentKey      string   `json:"document_key" validate:"omitempty,max=500,startswith=documents/"`
	Page             string   `json:"page" validate:"max=500"`
	PreferredContact string   `json:"preferred_contact" validate:"omitempty,oneof=email phone whatsapp"`
}

func (in *LeadInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Phone = core.CleanString(in.Phone)
	in.Message = core.CleanString(in.Message)
	in.PropertyID = core.CleanString(in.PropertyID)
	in.EventID = core.CleanString(in.EventID)
	in.Nationality = core.CleanString(in.Nationality)
	in.IDNumber = core.CleanString(in.IDNumber)
	in.Occupation = core.CleanString(in.Occupation)
	in.SourceOfFunds = core.CleanString(in.SourceOfFunds)
	in.DocumentKey = core.CleanString(in.DocumentKey)
	in.Page = core.CleanString(in.Page)
	in.PreferredContact = core.CleanString(in.PreferredContact, true /* lower */)
	return validate.Struct(in)
}

// LeadUpdate is what the back office may change on a Lead.
type LeadUpdate struct {
	Status string  `json:"status" validate:"omitempty,leadstatus"`
	Notes  *string `json:"notes" validate:"omitempty,max=5000"`
}

func (lu *LeadUpdate) Validate(validate *validator.Validate) error {
	lu.Status = core.CleanString(lu.Status, true /* lower */)
	if lu.Notes != nil {
		notes := core.CleanString(*lu.Notes)
		lu.Notes = &notes
	}
	return validate.Struct(lu)
}

// QueryFilter filters leads. From and To are calendar days, both inclusive.
type QueryFilter struct {
	Search    string
	Kind      string
	Status    string
	From      *time.Time
	To        *time.Time
	MinBudget *float64
	MaxBudget *float64
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

var OrderingFields = map[string]string{
	"name":       "name",
	"email":      "email",
	"kind":       "kind",
	"status":     "status",
	"budget":     "budget",
	"created_at": "created_at",
}

var defaultOrdering = []core.DBOrdering{{Field: "created_at"}}

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Subscribed bool      `json:"subscribed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SubscribeInput struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"max=120"`
	Source string `json:"source" validate:"max=200"`
}

func (in *SubscribeInput) Validate(validate *validator.Validate) error {
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Name = core.CleanString(in.Name)
	in.Source = core.CleanString(in.Source)
	return validate.Struct(in)
}

type UnsubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
}

func (in *UnsubscribeInput) Validate(validate *validator.Validate) error {
	in.Email = core.CleanString(in.Email, true /* lower */)
	return validate.Struct(in)
}

type SubscriberFilter struct {
	Search     string `query:"search"`
	Subscribed *bool  `query:"subscribed"`
	From       *time.Time
	To         *time.Time
}

func (sf *SubscriberFilter) Clean() {
	sf.Search = core.CleanString(sf.Search)
}

var SubscriberOrderingFields = map[string]string{
	"email":      "email",
	"name":       "name",
	"created_at": "created_at",
}
