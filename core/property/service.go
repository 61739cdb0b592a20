package property

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("property")
	errSlugExists = errors.New("this slug is already in use")
	errDeveloper  = errors.New("developer not found")
)

type (
	Repository interface {
		SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error)
		DeveloperExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error)
		CreateProperty(ctx context.Context, prop Property, exec ...core.DBExecutor) (Property, error)
		QueryProperties(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Property, int, error)
		GetProperty(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Property, error)
		UpdateProperty(ctx context.Context, prop Property, exec ...core.DBExecutor) (Property, error)
		DeletePropertiesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, in PropertyInput) (Property, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Property], error)
		GetByID(ctx context.Context, id string) (Property, error)
		GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Property, error)
		Update(ctx context.Context, id string, in PropertyInput) (Property, error)
		SetFlags(ctx context.Context, id string, flags Flags) (Property, error)
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

func (svc *service) withURLs(prop Property) Property {
	prop.ImageURLs = make([]string, 0, len(prop.Images))
	for _, key := range prop.Images {
		prop.ImageURLs = append(prop.ImageURLs, svc.store.URL(key))
	}
	prop.VideoURL = svc.store.URL(prop.VideoKey)
	prop.BrochureURL = svc.store.URL(prop.BrochureKey)
	return prop
}

func (svc *service) slugFor(ctx context.Context, in PropertyInput, excludedID string) (string, error) {
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

func (svc *service) developerID(ctx context.Context, id string) (*string, error) {
	if id == "" {
		return nil, nil
	}
	found, err := svc.repo.DeveloperExists(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "checking developer")
	}
	if !found {
		return nil, core.NewValidationError(errDeveloper, core.FieldError{Field: "developer_id", Error: errDeveloper.Error()})
	}
	return &id, nil
}

func (svc *service) apply(prop *Property, in PropertyInput) {
	prop.Title = in.Title
	prop.Description = in.Description
	prop.Type = in.Type
	prop.Status = in.Status
	prop.Price = in.Price
	prop.Currency = in.Currency
	prop.Bedrooms = in.Bedrooms
	prop.Bathrooms = in.Bathrooms
	prop.AreaSqm = in.AreaSqm
	prop.Location = in.Location
	prop.City = in.City
	prop.Address = in.Address
	prop.Amenities = core.CleanList(in.Amenities)
	prop.Images = core.CleanList(in.Images)
	prop.VideoKey = in.VideoKey
	prop.BrochureKey = in.BrochureKey
	prop.Featured = in.Featured
	prop.Published = in.Published
}

func (svc *service) Create(ctx context.Context, in PropertyInput) (Property, error) {
	var (
		prop Property
		err  error
	)
	if prop.DeveloperID, err = svc.developerID(ctx, in.DeveloperID); err != nil {
		return Property{}, err
	}
	if prop.Slug, err = svc.slugFor(ctx, in, ""); err != nil {
		return Property{}, err
	}
	svc.apply(&prop, in)
	prop.CreatedAt = time.Now().UTC()
	prop.UpdatedAt = prop.CreatedAt

	if prop, err = svc.repo.CreateProperty(ctx, prop); err != nil {
		return Property{}, err
	}
	return svc.withURLs(prop), nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Property], error) {
	page.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	props, total, err := svc.repo.QueryProperties(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Property]{}, err
	}
	for i := range props {
		props[i] = svc.withURLs(props[i])
	}
	return core.NewPaged(props, total, page), nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Property, error) {
	prop, err := svc.repo.GetProperty(ctx, GetFilter{ID: id})
	if err != nil {
		return Property{}, err
	}
	return svc.withURLs(prop), nil
}

func (svc *service) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Property, error) {
	prop, err := svc.repo.GetProperty(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */), PublishedOnly: publishedOnly})
	if err != nil {
		return Property{}, err
	}
	return svc.withURLs(prop), nil
}

func (svc *service) Update(ctx context.Context, id string, in PropertyInput) (Property, error) {
	prop, err := svc.repo.GetProperty(ctx, GetFilter{ID: id})
	if err != nil {
		return Property{}, err
	}
	if prop.DeveloperID, err = svc.developerID(ctx, in.DeveloperID); err != nil {
		return Property{}, err
	}
	if in.Slug == "" && in.Title == prop.Title {
		in.Slug = prop.Slug
	}
	if prop.Slug, err = svc.slugFor(ctx, in, prop.ID); err != nil {
		return Property{}, err
	}
	svc.apply(&prop, in)
	prop.UpdatedAt = time.Now().UTC()

	if prop, err = svc.repo.UpdateProperty(ctx, prop); err != nil {
		return Property{}, err
	}
	return svc.withURLs(prop), nil
}

func (svc *service) SetFlags(ctx context.Context, id string, flags Flags) (Property, error) {
	prop, err := svc.repo.GetProperty(ctx, GetFilter{ID: id})
	if err != nil {
		return Property{}, err
	}
	if flags.Featured != nil {
		prop.Featured = *flags.Featured
	}
	if flags.Published != nil {
		prop.Published = *flags.Published
	}
	prop.UpdatedAt = time.Now().UTC()

	if prop, err = svc.repo.UpdateProperty(ctx, prop); err != nil {
		return Property{}, err
	}
	return svc.withURLs(prop), nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePropertiesByID(ctx, ids)
}
