package developer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("developer")
	errSlugExists = errors.New("this slug is already in use")
)

type (
	Repository interface {
		SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error)
		CreateDeveloper(ctx context.Context, dev Developer, exec ...core.DBExecutor) (Developer, error)
		QueryDevelopers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Developer, int, error)
		GetDeveloper(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Developer, error)
		UpdateDeveloper(ctx context.Context, dev Developer, exec ...core.DBExecutor) (Developer, error)
		DeleteDevelopersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, in DeveloperInput) (Developer, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Developer], error)
		GetByID(ctx context.Context, id string) (Developer, error)
		GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Developer, error)
		Update(ctx context.Context, id string, in DeveloperInput) (Developer, error)
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

func (svc *service) withURLs(dev Developer) Developer {
	dev.LogoURL = svc.store.URL(dev.LogoKey)
	return dev
}

// slugFor returns the requested slug if free, or a unique slug derived from the name.
func (svc *service) slugFor(ctx context.Context, in DeveloperInput, excludedID string) (string, error) {
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
	return core.UniqueSlug(core.Slugify(in.Name), func(slug string) (bool, error) {
		return svc.repo.SlugExists(ctx, slug, excludedID)
	})
}

func (svc *service) Create(ctx context.Context, in DeveloperInput) (Developer, error) {
	slug, err := svc.slugFor(ctx, in, "")
	if err != nil {
		return Developer{}, err
	}
	now := time.Now().UTC()
	dev, err := svc.repo.CreateDeveloper(ctx, Developer{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		LogoKey:     in.LogoKey,
		Website:     in.Website,
		Email:       in.Email,
		Phone:       in.Phone,
		Published:   in.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Developer{}, err
	}
	return svc.withURLs(dev), nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Developer], error) {
	page.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	devs, total, err := svc.repo.QueryDevelopers(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Developer]{}, err
	}
	for i := range devs {
		devs[i] = svc.withURLs(devs[i])
	}
	return core.NewPaged(devs, total, page), nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Developer, error) {
	dev, err := svc.repo.GetDeveloper(ctx, GetFilter{ID: id})
	if err != nil {
		return Developer{}, err
	}
	return svc.withURLs(dev), nil
}

func (svc *service) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Developer, error) {
	dev, err := svc.repo.GetDeveloper(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */), PublishedOnly: publishedOnly})
	if err != nil {
		return Developer{}, err
	}
	return svc.withURLs(dev), nil
}

func (svc *service) Update(ctx context.Context, id string, in DeveloperInput) (Developer, error) {
	dev, err := svc.repo.GetDeveloper(ctx, GetFilter{ID: id})
	if err != nil {
		return Developer{}, err
	}
	if in.Slug == "" && in.Name == dev.Name {
		in.Slug = dev.Slug
	}
	if dev.Slug, err = svc.slugFor(ctx, in, dev.ID); err != nil {
		return Developer{}, err
	}

	dev.Name = in.Name
	dev.Description = in.Description
	dev.LogoKey = in.LogoKey
	dev.Website = in.Website
	dev.Email = in.Email
	dev.Phone = in.Phone
	dev.Published = in.Published
	dev.UpdatedAt = time.Now().UTC()

	if dev, err = svc.repo.UpdateDeveloper(ctx, dev); err != nil {
		return Developer{}, err
	}
	return svc.withURLs(dev), nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteDevelopersByID(ctx, ids)
}
