package campaign

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("campaign")
	ErrAlreadySent   = errors.New("this campaign has already been sent")
	errScheduledPast = errors.New("must be in the future")
)

type (
	Repository interface {
		CreateCampaign(ctx context.Context, cpn Campaign, exec ...core.DBExecutor) (Campaign, error)
		QueryCampaigns(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Campaign, int, error)
		GetCampaign(ctx context.Context, id string, exec ...core.DBExecutor) (Campaign, error)
		UpdateCampaign(ctx context.Context, cpn Campaign, exec ...core.DBExecutor) (Campaign, error)
		// ClaimCampaignSend atomically marks a Campaign as sent; ErrAlreadySent if it already was.
		ClaimCampaignSend(ctx context.Context, id string, sentAt time.Time, exec ...core.DBExecutor) (Campaign, error)
		DeleteCampaignsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	// Recipient is a member of a campaign audience.
	Recipient struct {
		Name           string
		Email          string
		UnsubscribeURL string
	}

	// AudienceSource lists the recipients of each audience.
	AudienceSource interface {
		SubscriberRecipients(ctx context.Context) ([]Recipient, error)
		LeadRecipients(ctx context.Context) ([]Recipient, error)
	}

	Service interface {
		Create(ctx context.Context, in CampaignInput) (Campaign, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Campaign], error)
		GetByID(ctx context.Context, id string) (Campaign, error)
		Update(ctx context.Context, id string, in CampaignInput) (Campaign, error)
		Schedule(ctx context.Context, id string, at time.Time) (Campaign, error)
		Send(ctx context.Context, id string) (Campaign, error)
		SendDue(ctx context.Context, now time.Time) (int, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		audience AudienceSource
		mailSvc  core.EmailService
		logger   core.Logger
		nowFunc  func() time.Time // mockable
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, audience AudienceSource, mailSvc core.EmailService, logger core.Logger) *service {
	return &service{repo: repo, audience: audience, mailSvc: mailSvc, logger: logger, nowFunc: time.Now}
}

func (svc *service) now() time.Time { return svc.nowFunc().UTC() }

func alreadySent() error {
	return core.NewValidationError(ErrAlreadySent)
}

// update saves an edit of an unsent Campaign.
func (svc *service) update(ctx context.Context, cpn Campaign) (Campaign, error) {
	cpn, err := svc.repo.UpdateCampaign(ctx, cpn)
	if errors.Cause(err) == ErrAlreadySent {
		return Campaign{}, alreadySent()
	}
	return cpn, err
}

func (svc *service) Create(ctx context.Context, in CampaignInput) (Campaign, error) {
	now := svc.now()
	return svc.repo.CreateCampaign(ctx, Campaign{
		Name:      in.Name,
		Channel:   in.Channel,
		Status:    StatusDraft,
		Subject:   in.Subject,
		Body:      in.Body,
		Audience:  in.Audience,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Campaign], error) {
	page.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	cpns, total, err := svc.repo.QueryCampaigns(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Campaign]{}, err
	}
	return core.NewPaged(cpns, total, page), nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Campaign, error) {
	return svc.repo.GetCampaign(ctx, id)
}

// Update edits a draft or scheduled Campaign.
func (svc *service) Update(ctx context.Context, id string, in CampaignInput) (Campaign, error) {
	cpn, err := svc.repo.GetCampaign(ctx, id)
	if err != nil {
		return Campaign{}, err
	}
	if !cpn.Editable() {
		return Campaign{}, alreadySent()
	}
	cpn.Name = in.Name
	cpn.Channel = in.Channel
	cpn.Subject = in.Subject
	cpn.Body = in.Body
	cpn.Audience = in.Audience
	cpn.UpdatedAt = svc.now()
	return svc.update(ctx, cpn)
}

func (svc *service) Schedule(ctx context.Context, id string, at time.Time) (Campaign, error) {
	cpn, err := svc.repo.GetCampaign(ctx, id)
	if err != nil {
		return Campaign{}, err
	}
	if !cpn.Editable() {
		return Campaign{}, alreadySent()
	}
	now := svc.now()
	if !at.After(now) {
		return Campaign{}, core.NewValidationError(errScheduledPast, core.FieldError{Field: "at", Error: errScheduledPast.Error()})
	}
	at = at.UTC()
	cpn.Status = StatusScheduled
	cpn.ScheduledAt = &at
	cpn.UpdatedAt = now
	return svc.update(ctx, cpn)
}

func (svc *service) recipients(ctx context.Context, audience string) ([]Recipient, error) {
	if audience == AudienceLeads {
		return svc.audience.LeadRecipients(ctx)
	}
	return svc.audience.SubscriberRecipients(ctx)
}

// Send delivers an email Campaign to its audience. Other channels only count their audience.
func (svc *service) Send(ctx context.Context, id string) (Campaign, error) {
	cpn, err := svc.repo.GetCampaign(ctx, id)
	if err != nil {
		return Campaign{}, err
	}
	return svc.send(ctx, cpn)
}

func (svc *service) send(ctx context.Context, cpn Campaign) (Campaign, error) {
	if !cpn.Editable() {
		return Campaign{}, alreadySent()
	}
	recipients, err := svc.recipients(ctx, cpn.Audience)
	if err != nil {
		return Campaign{}, errors.Wrap(err, "listing recipients")
	}

	// claim before dispatching, so a Campaign is never delivered twice
	claimed, err := svc.repo.ClaimCampaignSend(ctx, cpn.ID, svc.now())
	if err != nil {
		if errors.Cause(err) == ErrAlreadySent {
			return Campaign{}, alreadySent()
		}
		return Campaign{}, errors.Wrap(err, "claiming campaign")
	}

	if claimed.Channel == ChannelEmail && len(recipients) > 0 {
		msgs := make([]*core.EmailMessage, 0, len(recipients))
		for _, rcpt := range recipients {
			msgs = append(msgs, &core.EmailMessage{
				To:           []mail.Address{{Name: rcpt.Name, Address: rcpt.Email}},
				Subject:      claimed.Subject,
				TemplateName: "campaign",
				TemplateData: map[string]interface{}{
					"Campaign":  claimed,
					"Recipient": rcpt,
				},
			})
		}
		svc.mailSvc.SendMessages(msgs...)
	}

	claimed.Recipients = len(recipients)
	updated, err := svc.repo.UpdateCampaign(ctx, claimed)
	if err != nil {
		// the emails are out, the send stands
		svc.logger.Error(fmt.Sprintf("campaign.send: recording recipients of %s", claimed.ID), err)
		return claimed, nil
	}
	return updated, nil
}

// SendDue sends the scheduled campaigns whose time has come, and returns how many were sent.
func (svc *service) SendDue(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	due, _, err := svc.repo.QueryCampaigns(
		ctx,
		&QueryFilter{Status: StatusScheduled, DueBefore: &now},
		[]core.DBOrdering{{Field: "scheduled_at", Ascending: true}},
		core.Page{Number: 1, Size: core.MaxPageSize},
	)
	if err != nil {
		return 0, errors.Wrap(err, "querying due campaigns")
	}
	var sent int
	for _, cpn := range due {
		if _, err := svc.send(ctx, cpn); err != nil {
			svc.logger.Error(fmt.Sprintf("campaign.SendDue: sending %s", cpn.ID), err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCampaignsByID(ctx, ids)
}
