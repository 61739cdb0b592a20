package property

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

const (
	TypeApartment  = "apartment"
	TypeVilla      = "villa"
	TypeTownhouse  = "townhouse"
	TypePenthouse  = "penthouse"
	TypeDuplex     = "duplex"
	TypeLand       = "land"
	TypeCommercial = "commercial"
	TypeOffice     = "office"

	StatusOffPlan = "off_plan"
	StatusReady   = "ready"
	StatusSold    = "sold"
	StatusRented  = "rented"
)

var (
	Types    = []string{TypeApartment, TypeVilla, TypeTownhouse, TypePenthouse, TypeDuplex, TypeLand, TypeCommercial, TypeOffice}
	Statuses = []string{StatusOffPlan, StatusReady, StatusSold, StatusRented}
)

// Property is a listing: a unit or a project shown on the site.
type Property struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"` // sanitised HTML
	DeveloperID *string         `json:"developer_id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Price       float64         `json:"price"`
	Currency    string          `json:"currency"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	AreaSqm     float64         `json:"area_sqm"`
	Location    string          `json:"location"`
	City        string          `json:"city"`
	Address     string          `json:"address"`
	Amenities   core.StringList `json:"amenities"`
	Images      core.StringList `json:"images"` // storage keys
	ImageURLs   []string        `json:"image_urls"`
	VideoKey    string          `json:"video_key"`
	VideoURL    string          `json:"video_url,omitempty"`
	BrochureKey string          `json:"brochure_key"`
	BrochureURL string          `json:"brochure_url,omitempty"`
	Featured    bool            `json:"featured"`
	Published   bool            `json:"published"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PropertyInput holds the editable fields of a Property, on create and on update.
type PropertyInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Slug        string   `json:"slug" validate:"omitempty,slug,max=200"`
	Description string   `json:"description"`
	DeveloperID string   `json:"developer_id" validate:"omitempty,uuid"`
	Type        string   `json:"type" validate:"required,proptype"`
	Status      string   `json:"status" validate:"required,propstatus"`
	Price       float64  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"omitempty,len=3,alpha"`
	Bedrooms    int      `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms   int      `json:"bathrooms" validate:"gte=0,lte=100"`
	AreaSqm     float64  `json:"area_sqm" validate:"gte=0"`
	Location    string   `json:"location" validate:"max=200"`
	City        string   `json:"city" validate:"max=100"`
	Address     string   `json:"address" validate:"max=300"`
	Amenities   []string `json:"amenities" validate:"max=50,dive,max=100"`
	Images      []string `json:"images" validate:"max=50,dive,max=500"`
	VideoKey    string   `json:"video_key" validate:"max=500"`
	BrochureKey string   `json:"brochure_key" validate:"max=500"`
	Featured    bool     `json:"featured"`
	Published   bool     `json:"published"`
}

func (in *PropertyInput) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.Slug = core.CleanString(in.Slug, true /* lower */)
	in.Description = core.SanitizeHTML(in.Description)
	in.DeveloperID = core.CleanString(in.DeveloperID)
	in.Type = core.CleanString(in.Type, true /* lower */)
	in.Status = core.CleanString(in.Status, true /* lower */)
	in.Currency = strings.ToUpper(core.CleanString(in.Currency))
	if in.Currency == "" {
		in.Currency = "USD"
	}
	in.Location = core.CleanString(in.Location)
	in.City = core.CleanString(in.City)
	in.Address = core.CleanString(in.Address)
	in.Amenities = core.CleanList(in.Amenities)
	in.Images = core.CleanList(in.Images)
	in.VideoKey = core.CleanString(in.VideoKey)
	in.BrochureKey = core.CleanString(in.BrochureKey)
	return validate.Struct(in)
}

type QueryFilter struct {
	Search      string   `query:"search"`
	City        string   `query:"city"`
	Type        string   `query:"type"`
	Status      string   `query:"status"`
	DeveloperID string   `query:"developer"`
	MinPrice    *float64 `query:"min_price"`
	MaxPrice    *float64 `query:"max_price"`
	MinBedrooms *int     `query:"min_bedrooms"`
	Featured    *bool    `query:"featured"`
	Published   *bool    `query:"published"`
}

// Clean normalises the filter and rejects inverted price ranges.
func (qf *QueryFilter) Clean() error {
	qf.Search = core.CleanString(qf.Search)
	qf.City = core.CleanString(qf.City)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.DeveloperID = core.CleanString(qf.DeveloperID)
	if qf.MinPrice != nil && qf.MaxPrice != nil && *qf.MinPrice > *qf.MaxPrice {
		return core.NewFieldError("min_price", "must be less than or equal to max_price")
	}
	return nil
}

// GetFilter selects a single Property; the first non-empty field wins.
type GetFilter struct {
	ID            string
	Slug          string
	PublishedOnly bool
}

// Flags toggles the visibility of a Property. Nil fields are left unchanged.
type Flags struct {
	Featured  *bool `json:"featured"`
	Published *bool `json:"published"`
}

var OrderingFields = map[string]string{
	"title":      "title",
	"price":      "price",
	"bedrooms":   "bedrooms",
	"area_sqm":   "area_sqm",
	"city":       "city",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

var defaultOrdering = []core.DBOrdering{{Field: "featured"}, {Field: "created_at"}}
