package campaign

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

const (
	ChannelEmail  = "email"
	ChannelSMS    = "sms"
	ChannelSocial = "social"

	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSent      = "sent"

	AudienceSubscribers = "subscribers"
	AudienceLeads       = "leads"
)

var (
	Channels  = []string{ChannelEmail, ChannelSMS, ChannelSocial}
	Statuses  = []string{StatusDraft, StatusScheduled, StatusSent}
	Audiences = []string{AudienceSubscribers, AudienceLeads}
)

// Campaign is a marketing message sent to subscribers or leads.
// Only the email channel actually delivers; opens and clicks are not tracked.
type Campaign struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Channel     string     `json:"channel"`
	Status      string     `json:"status"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"` // sanitised HTML
	Audience    string     `json:"audience"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	SentAt      *time.Time `json:"sent_at"`
	Recipients  int        `json:"recipients"`
	Opens       int        `json:"opens"`
	Clicks      int        `json:"clicks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (c Campaign) Editable() bool { return c.Status != StatusSent }

// CampaignInput holds the editable fields of a Campaign, on create and on update.
type CampaignInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Channel  string `json:"channel" validate:"required,channel"`
	Subject  string `json:"subject" validate:"required_if=Channel email,max=200"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"audience"`
}

func (in *CampaignInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Channel = core.CleanString(in.Channel, true /* lower */)
	in.Subject = core.CleanString(in.Subject)
	in.Body = core.SanitizeHTML(in.Body)
	in.Audience = core.CleanString(in.Audience, true /* lower */)
	if in.Audience == "" {
		in.Audience = AudienceSubscribers
	}
	return validate.Struct(in)
}

type ScheduleInput struct {
	At time.Time `json:"at" validate:"required"`
}

type QueryFilter struct {
	Search  string `query:"search"`
	Channel string `query:"channel"`
	Status  string `query:"status"`

	DueBefore *time.Time `query:"-"` // scheduled campaigns only
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Channel = core.CleanString(qf.Channel, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

var OrderingFields = map[string]string{
	"name":         "name",
	"status":       "status",
	"scheduled_at": "scheduled_at",
	"sent_at":      "sent_at",
	"created_at":   "created_at",
}

var defaultOrdering = []core.DBOrdering{{Field: "created_at"}}
