package developer

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

// Developer is a real estate developer whose projects are listed on the site.
type Developer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"` // sanitised HTML
	LogoKey     string    `json:"logo_key"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Website     string    `json:"website"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeveloperInput holds the editable fields of a Developer, on create and on update.
type DeveloperInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"omitempty,slug,max=200"`
	Description string `json:"description"`
	LogoKey     string `json:"logo_key" validate:"max=500"`
	Website     string `json:"website" validate:"omitempty,url"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Published   bool   `json:"published"`
}

func (in *DeveloperInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Slug = core.CleanString(in.Slug, true /* lower */)
	in.Description = core.SanitizeHTML(in.Description)
	in.LogoKey = core.CleanString(in.LogoKey)
	in.Website = core.CleanString(in.Website)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Phone = core.CleanString(in.Phone)
	return validate.Struct(in)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single Developer; the first non-empty field wins.
type GetFilter struct {
	ID            string
	Slug          string
	PublishedOnly bool
}

var OrderingFields = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

var defaultOrdering = []core.DBOrdering{{Field: "name", Ascending: true}}
