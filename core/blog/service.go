package blog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("post")
	errSlugExists = errors.New("this slug is already in use")
)

type (
	Repository interface {
		SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error)
		CreatePost(ctx context.Context, post Post, exec ...core.DBExecutor) (Post, error)
		QueryPosts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Post, int, error)
		GetPost(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Post, error)
		UpdatePost(ctx context.Context, post Post, exec ...core.DBExecutor) (Post, error)
		DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, in PostInput) (Post, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Post], error)
		GetByID(ctx context.Context, id string) (Post, error)
		GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Post, error)
		Update(ctx context.Context, id string, in PostInput) (Post, error)
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

func (svc *service) withURLs(post Post) Post {
	post.CoverImageURL = svc.store.URL(post.CoverImageKey)
	return post
}

func (svc *service) slugFor(ctx context.Context, in PostInput, excludedID string) (string, error) {
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

// apply copies in onto post. PublishedAt is set on first publication and kept afterwards.
func (svc *service) apply(post *Post, in PostInput, now time.Time) error {
	post.Title = in.Title
	post.Excerpt = in.Excerpt
	post.Content = in.Content
	post.ContentFormat = in.ContentFormat
	post.CoverImageKey = in.CoverImageKey
	post.Author = in.Author
	post.Tags = core.CleanList(in.Tags, true /* lower */)
	post.Published = in.Published
	if post.Published && post.PublishedAt == nil {
		post.PublishedAt = &now
	}
	post.UpdatedAt = now
	return errors.Wrap(post.render(), "rendering content")
}

func (svc *service) Create(ctx context.Context, in PostInput) (Post, error) {
	var (
		post Post
		err  error
	)
	if post.Slug, err = svc.slugFor(ctx, in, ""); err != nil {
		return Post{}, err
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	if err = svc.apply(&post, in, now); err != nil {
		return Post{}, err
	}

	if post, err = svc.repo.CreatePost(ctx, post); err != nil {
		return Post{}, err
	}
	return svc.withURLs(post), nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) (core.Paged[Post], error) {
	page.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	posts, total, err := svc.repo.QueryPosts(ctx, filter, ordering, page)
	if err != nil {
		return core.Paged[Post]{}, err
	}
	for i := range posts {
		posts[i] = svc.withURLs(posts[i])
	}
	return core.NewPaged(posts, total, page), nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Post, error) {
	post, err := svc.repo.GetPost(ctx, GetFilter{ID: id})
	if err != nil {
		return Post{}, err
	}
	return svc.withURLs(post), nil
}

func (svc *service) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Post, error) {
	post, err := svc.repo.GetPost(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */), PublishedOnly: publishedOnly})
	if err != nil {
		return Post{}, err
	}
	return svc.withURLs(post), nil
}

func (svc *service) Update(ctx context.Context, id string, in PostInput) (Post, error) {
	post, err := svc.repo.GetPost(ctx, GetFilter{ID: id})
	if err != nil {
		return Post{}, err
	}
	if in.Slug == "" && in.Title == post.Title {
		in.Slug = post.Slug
	}
	if post.Slug, err = svc.slugFor(ctx, in, post.ID); err != nil {
		return Post{}, err
	}
	if err = svc.apply(&post, in, time.Now().UTC()); err != nil {
		return Post{}, err
	}

	if post, err = svc.repo.UpdatePost(ctx, post); err != nil {
		return Post{}, err
	}
	return svc.withURLs(post), nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePostsByID(ctx, ids)
}
