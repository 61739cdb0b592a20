package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

// Event is an open day, launch or expo the agency takes part in.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"` // sanitised HTML
	Location        string    `json:"location"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	CoverImageKey   string    `json:"cover_image_key"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	RegistrationURL string    `json:"registration_url"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EventInput holds the editable fields of an Event, on create and on update.
type EventInput struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Slug            string    `json:"slug" validate:"omitempty,slug,max=200"`
	Description     string    `json:"description"`
	Location        string    `json:"location" validate:"max=300"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          time.Time `json:"ends_at" validate:"required,ends_at"`
	CoverImageKey   string    `json:"cover_image_key" validate:"max=500"`
	RegistrationURL string    `json:"registration_url" validate:"omitempty,url"`
	Published       bool      `json:"published"`
}

func (in *EventInput) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.Slug = core.CleanString(in.Slug, true /* lower */)
	in.Description = core.SanitizeHTML(in.Description)
	in.Location = core.CleanString(in.Location)
	in.StartsAt = in.StartsAt.UTC()
	in.EndsAt = in.EndsAt.UTC()
	in.CoverImageKey = core.CleanString(in.CoverImageKey)
	in.RegistrationURL = core.CleanString(in.RegistrationURL)
	return validate.Struct(in)
}

const (
	WhenUpcoming = "upcoming"
	WhenPast     = "past"
)

type QueryFilter struct {
	Search    string `query:"search"`
	When      string `query:"when"` // upcoming | past
	Published *bool  `query:"published"`

	Now time.Time `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.When = core.CleanString(qf.When, true /* lower */)
	if qf.Now.IsZero() {
		qf.Now = time.Now().UTC()
	}
}

// GetFilter selects a single Event; the first non-empty field wins.
type GetFilter struct {
	ID            string
	Slug          string
	PublishedOnly bool
}

var OrderingFields = map[string]string{
	"title":      "title",
	"starts_at":  "starts_at",
	"ends_at":    "ends_at",
	"created_at": "created_at",
}

// default orderings: upcoming events soonest first, past events latest first
var (
	upcomingOrdering = []core.DBOrdering{{Field: "starts_at", Ascending: true}}
	pastOrdering     = []core.DBOrdering{{Field: "starts_at"}}
)
