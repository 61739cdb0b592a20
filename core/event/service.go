package event

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("event")
	errSlugExists = errors.New("this slug is already in use")
)

type (
	Repository interface {
		SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error)
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		QueryEvents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Event, int, error)
		GetEvent(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, in EventInput) (Event, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Event], error)
		GetByID(ctx context.Context, id string) (Event, error)
		GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Event, error)
		Update(ctx context.Context, id string, in EventInput) (Event, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo  Repository
		store core.FileStorage
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, store core.FileStorage) *service {
	return &service{repo: repo, store: store}
}

func (svc *service) withURLs(evt Event) Event {
	evt.CoverImageURL = svc.store.URL(evt.CoverImageKey)
	return evt
}

func (svc *service) slugFor(ctx context.Context, in EventInput, excludedID string) (string, error) {
	if in.Slug != "" {
		taken, err := svc.repo.SlugExists(ctx, in.Slug, excludedID)
		if err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if taken {
			return "", core.NewValidationError(errSlugExists, core.FieldError{Field: "slug", Error: errSlugExists.Error()})
		}
		return in.Slug, nil
	}
	return core.UniqueSlug(core.Slugify(in.Title), func(slug string) (bool, error) {
		return svc.repo.SlugExists(ctx, slug, excludedID)
	})
}

func (svc *service) apply(evt *Event, in EventInput) {
	evt.Title = in.Title
	evt.Description = in.Description
	evt.Location = in.Location
	evt.StartsAt = in.StartsAt
	evt.EndsAt = in.EndsAt
	evt.CoverImageKey = in.CoverImageKey
	evt.RegistrationURL = in.RegistrationURL
	evt.Published = in.Published
	evt.UpdatedAt = time.Now().UTC()
}

func (svc *service) Create(ctx context.Context, in EventInput) (Event, error) {
	var (
		evt Event
		err error
	)
	if evt.Slug, err = svc.slugFor(ctx, in, ""); err != nil {
		return Event{}, err
	}
	svc.apply(&evt, in)
	evt.CreatedAt = evt.UpdatedAt

	if evt, err = svc.repo.CreateEvent(ctx, evt); err != nil {
		return Event{}, err
	}
	return svc.withURLs(evt), nil
}

// Query lists events. Upcoming events (not yet ended) come soonest first, past ones latest first.
func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Event], error) {
	page.Clean()
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		if filter.When == WhenUpcoming {
			ordering = upcomingOrdering
		} else {
			ordering = pastOrdering
		}
	}
	evts, total, err := svc.repo.QueryEvents(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Event]{}, err
	}
	for i := range evts {
		evts[i] = svc.withURLs(evts[i])
	}
	return core.NewPaged(evts, total, page), nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, GetFilter{ID: id})
	if err != nil {
		return Event{}, err
	}
	return svc.withURLs(evt), nil
}

func (svc *service) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */), PublishedOnly: publishedOnly})
	if err != nil {
		return Event{}, err
	}
	return svc.withURLs(evt), nil
}

func (svc *service) Update(ctx context.Context, id string, in EventInput) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, GetFilter{ID: id})
	if err != nil {
		return Event{}, err
	}
	if in.Slug == "" && in.Title == evt.Title {
		in.Slug = evt.Slug
	}
	if evt.Slug, err = svc.slugFor(ctx, in, evt.ID); err != nil {
		return Event{}, err
	}
	svc.apply(&evt, in)

	if evt, err = svc.repo.UpdateEvent(ctx, evt); err != nil {
		return Event{}, err
	}
	return svc.withURLs(evt), nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEventsByID(ctx, ids)
}
