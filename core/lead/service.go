package lead

import (
	"context"
	"net/mail"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/campaign"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("lead")
	ErrSubscriberNotFound = core.NewNotFoundError("subscriber")
	ErrUnknownKind        = core.NewNotFoundError("form")
	errProperty           = errors.New("property not found")
	errEvent              = errors.New("event not found")
)

type (
	Repository interface {
		PropertyExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
		EventExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
		CreateLead(ctx context.Context, ld Lead, exec ...core.DBExecutor) (Lead, error)
		QueryLeads(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Lead, int, error)
		GetLead(ctx context.Context, id string, exec ...core.DBExecutor) (Lead, error)
		UpdateLead(ctx context.Context, ld Lead, exec ...core.DBExecutor) (Lead, error)
		DeleteLeadsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		// LeadContacts returns one Lead (name and email only) per distinct email.
		LeadContacts(ctx context.Context, exec ...core.DBExecutor) ([]Lead, error)

		GetSubscriberByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Subscriber, error)
		CreateSubscriber(ctx context.Context, sub Subscriber, exec ...core.DBExecutor) (Subscriber, error)
		UpdateSubscriber(ctx context.Context, sub Subscriber, exec ...core.DBExecutor) (Subscriber, error)
		QuerySubscribers(ctx context.Context, filter *SubscriberFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Subscriber, int, error)
		DeleteSubscribersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		campaign.AudienceSource

		Submit(ctx context.Context, in LeadInput) (Lead, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Lead], error)
		GetByID(ctx context.Context, id string) (Lead, error)
		Update(ctx context.Context, id string, lu LeadUpdate) (Lead, error)
		Delete(ctx context.Context, ids ...string) error

		Subscribe(ctx context.Context, in SubscribeInput) (Subscriber, error)
		Unsubscribe(ctx context.Context, email string) error
		QuerySubscribers(ctx context.Context, filter *SubscriberFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Subscriber], error)
		DeleteSubscribers(ctx context.Context, ids ...string) error
	}

	service struct {
		conf    *core.Config
		repo    Repository
		store   core.FileStorage
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(conf *core.Config, repo Repository, store core.FileStorage, mailSvc core.EmailService) *service {
	return &service{conf: conf, repo: repo, store: store, mailSvc: mailSvc}
}

func (svc *service) withURLs(ld Lead) Lead {
	ld.DocumentURL = svc.store.URL(ld.DocumentKey)
	return ld
}

func (svc *service) checkRefs(ctx context.Context, in LeadInput) error {
	var flds []core.FieldError
	if in.PropertyID != "" {
		found, err := svc.repo.PropertyExists(ctx, in.PropertyID)
		if err != nil {
			return errors.Wrap(err, "checking property")
		}
		if !found {
			flds = append(flds, core.FieldError{Field: "property_id", Error: errProperty.Error()})
		}
	}
	if in.EventID != "" {
		found, err := svc.repo.EventExists(ctx, in.EventID)
		if err != nil {
			return errors.Wrap(err, "checking event")
		}
		if !found {
			flds = append(flds, core.FieldError{Field: "event_id", Error: errEvent.Error()})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Submit records a form submission and lets the sales team know about it.
func (svc *service) Submit(ctx context.Context, in LeadInput) (Lead, error) {
	if !core.OneOf(in.Kind, Kinds) {
		return Lead{}, ErrUnknownKind
	}
	if err := svc.checkRefs(ctx, in); err != nil {
		return Lead{}, err
	}

	now := time.Now().UTC()
	ld, err := svc.repo.CreateLead(ctx, Lead{
		Kind:             in.Kind,
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		Message:          in.Message,
		PropertyID:       optional(in.PropertyID),
		EventID:          optional(in.EventID),
		Budget:           in.Budget,
		Nationality:      in.Nationality,
		IDNumber:         in.IDNumber,
		Occupation:       in.Occupation,
		SourceOfFunds:    in.SourceOfFunds,
		DocumentKey:      in.DocumentKey,
		Page:             in.Page,
		PreferredContact: in.PreferredContact,
		Status:           StatusNew,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return Lead{}, err
	}
	ld = svc.withURLs(ld)

	if len(svc.conf.AdminNotifyEmails) > 0 {
		to := make([]mail.Address, 0, len(svc.conf.AdminNotifyEmails))
		for _, email := range svc.conf.AdminNotifyEmails {
			to = append(to, mail.Address{Address: email})
		}
		msg := &core.EmailMessage{
			To:           to,
			Subject:      "New " + ld.Kind + " lead",
			TemplateName: "lead_notification",
			TemplateData: map[string]interface{}{"Lead": ld},
		}
		if ld.Email != "" {
			msg.ReplyTo = &mail.Address{Name: ld.Name, Address: ld.Email}
		}
		svc.mailSvc.SendMessages(msg)
	}
	return ld, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Lead], error) {
	page.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	lds, total, err := svc.repo.QueryLeads(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Lead]{}, err
	}
	for i := range lds {
		lds[i] = svc.withURLs(lds[i])
	}
	return core.NewPaged(lds, total, page), nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Lead, error) {
	ld, err := svc.repo.GetLead(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	return svc.withURLs(ld), nil
}

func (svc *service) Update(ctx context.Context, id string, lu LeadUpdate) (Lead, error) {
	ld, err := svc.repo.GetLead(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	if lu.Status != "" {
		ld.Status = lu.Status
	}
	if lu.Notes != nil {
		ld.Notes = *lu.Notes
	}
	ld.UpdatedAt = time.Now().UTC()

	if ld, err = svc.repo.UpdateLead(ctx, ld); err != nil {
		return Lead{}, err
	}
	return svc.withURLs(ld), nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLeadsByID(ctx, ids)
}

// Subscribe is idempotent: a known email is subscribed again, a new one gets a welcome email.
func (svc *service) Subscribe(ctx context.Context, in SubscribeInput) (Subscriber, error) {
	now := time.Now().UTC()
	sub, err := svc.repo.GetSubscriberByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if sub.Subscribed && (in.Name == "" || in.Name == sub.Name) {
			return sub, nil
		}
		sub.Subscribed = true
		if in.Name != "" {
			sub.Name = in.Name
		}
		sub.UpdatedAt = now
		return svc.repo.UpdateSubscriber(ctx, sub)
	case !core.IsNotFound(err):
		return Subscriber{}, err
	}

	sub, err = svc.repo.CreateSubscriber(ctx, Subscriber{
		Email:      in.Email,
		Name:       in.Name,
		Source:     in.Source,
		Subscribed: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Subscriber{}, err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: sub.Name, Address: sub.Email}},
		Subject:      "Welcome to our newsletter",
		TemplateName: "newsletter_welcome",
		TemplateData: map[string]interface{}{
			"Subscriber":     sub,
			"UnsubscribeURL": svc.unsubscribeURL(sub.Email),
		},
	})
	return sub, nil
}

// Unsubscribe silently ignores unknown emails.
func (svc *service) Unsubscribe(ctx context.Context, email string) error {
	sub, err := svc.repo.GetSubscriberByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !sub.Subscribed {
		return nil
	}
	sub.Subscribed = false
	sub.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateSubscriber(ctx, sub)
	return err
}

func (svc *service) QuerySubscribers(ctx context.Context, filter *SubscriberFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Subscriber], error) {
	page.Clean()
	ordering = core.FilterOrderings(ordering, SubscriberOrderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	subs, total, err := svc.repo.QuerySubscribers(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Subscriber]{}, err
	}
	return core.NewPaged(subs, total, page), nil
}

func (svc *service) DeleteSubscribers(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubscribersByID(ctx, ids)
}

func (svc *service) unsubscribeURL(email string) string {
	return svc.conf.FrontendBaseURL + "/newsletter/unsubscribe?email=" + url.QueryEscape(email)
}

// SubscriberRecipients lists every active subscriber.
func (svc *service) SubscriberRecipients(ctx context.Context) ([]campaign.Recipient, error) {
	subscribed := true
	var rcpts []campaign.Recipient
	for page := (core.Page{Number: 1, Size: core.MaxPageSize}); ; page.Number++ {
		subs, total, err := svc.repo.QuerySubscribers(ctx, &SubscriberFilter{Subscribed: &subscribed}, defaultOrdering, page)
		if err != nil {
			return nil, errors.Wrap(err, "querying subscribers")
		}
		for _, sub := range subs {
			rcpts = append(rcpts, campaign.Recipient{
				Name:           sub.Name,
				Email:          sub.Email,
				UnsubscribeURL: svc.unsubscribeURL(sub.Email),
			})
		}
		if len(subs) == 0 || int(page.Offset())+len(subs) >= total {
			return rcpts, nil
		}
	}
}

// LeadRecipients lists every distinct lead email.
func (svc *service) LeadRecipients(ctx context.Context) ([]campaign.Recipient, error) {
	lds, err := svc.repo.LeadContacts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying lead contacts")
	}
	rcpts := make([]campaign.Recipient, 0, len(lds))
	for _, ld := range lds {
		rcpts = append(rcpts, campaign.Recipient{Name: ld.Name, Email: ld.Email})
	}
	return rcpts, nil
}
