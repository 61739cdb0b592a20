package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/blog"
)

var postColumns = []string{
	"id", "title", "slug", "excerpt", "content", "content_format", "content_html", "cover_image_key", "author",
	"tags", "published", "published_at", "created_at", "updated_at",
}

type postRow struct {
	ID            string          `db:"id"`
	Title         string          `db:"title"`
	Slug          string          `db:"slug"`
	Excerpt       string          `db:"excerpt"`
	Content       string          `db:"content"`
	ContentFormat string          `db:"content_format"`
	ContentHTML   string          `db:"content_html"`
	CoverImageKey string          `db:"cover_image_key"`
	Author        string          `db:"author"`
	Tags          core.StringList `db:"tags"`
	Published     bool            `db:"published"`
	PublishedAt   null.Time       `db:"published_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func boilPost(post blog.Post) postRow {
	row := postRow{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		Excerpt:       post.Excerpt,
		Content:       post.Content,
		ContentFormat: post.ContentFormat,
		ContentHTML:   post.ContentHTML,
		CoverImageKey: post.CoverImageKey,
		Author:        post.Author,
		Tags:          post.Tags,
		Published:     post.Published,
		CreatedAt:     post.CreatedAt.UTC(),
		UpdatedAt:     post.UpdatedAt.UTC(),
	}
	if post.PublishedAt != nil {
		row.PublishedAt = null.TimeFrom(post.PublishedAt.UTC())
	}
	return row
}

func (row postRow) unboil() blog.Post {
	post := blog.Post{
		ID:            row.ID,
		Title:         row.Title,
		Slug:          row.Slug,
		Excerpt:       row.Excerpt,
		Content:       row.Content,
		ContentFormat: row.ContentFormat,
		ContentHTML:   row.ContentHTML,
		CoverImageKey: row.CoverImageKey,
		Author:        row.Author,
		Tags:          row.Tags,
		Published:     row.Published,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if post.Tags == nil {
		post.Tags = core.StringList{}
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time.UTC()
		post.PublishedAt = &t
	}
	return post
}

func (row postRow) values() map[string]interface{} {
	return map[string]interface{}{
		"title":           row.Title,
		"slug":            row.Slug,
		"excerpt":         row.Excerpt,
		"content":         row.Content,
		"content_format":  row.ContentFormat,
		"content_html":    row.ContentHTML,
		"cover_image_key": row.CoverImageKey,
		"author":          row.Author,
		"tags":            row.Tags,
		"published":       row.Published,
		"published_at":    row.PublishedAt,
		"created_at":      row.CreatedAt,
		"updated_at":      row.UpdatedAt,
	}
}

type postRepository struct {
	baseRepository
}

var _ blog.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(exec core.DBExecutor) *postRepository {
	return &postRepository{baseRepository{exec: exec}}
}

func (repo *postRepository) SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error) {
	found, err := slugExists(ctx, repo.getExec(exec), "posts", slug, excludedID)
	return found, errors.Wrap(err, "checking post slug")
}

func (repo *postRepository) CreatePost(ctx context.Context, post blog.Post, exec ...core.DBExecutor) (blog.Post, error) {
	post.ID = uuid.NewString()
	row := boilPost(post)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("posts").SetMap(vals)); err != nil {
		return blog.Post{}, errors.Wrap(err, "inserting post")
	}
	return row.unboil(), nil
}

func (repo *postRepository) QueryPosts(ctx context.Context, filter *blog.QueryFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]blog.Post, int, error) {
	b := sq.Select().From("posts")
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(search(filter.Search, "title", "excerpt", "content"))
		}
		if filter.Tag != "" {
			// tags are stored as a JSON array
			needle, err := json.Marshal(filter.Tag)
			if err != nil {
				return nil, 0, errors.Wrap(err, "encoding tag")
			}
			b = b.Where(sq.Expr("tags LIKE ?"+likeEscape, contains(string(needle))))
		}
		if filter.Published != nil {
			b = b.Where(sq.Eq{"published": *filter.Published})
		}
	}

	var rows []postRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, postColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting posts")
	}
	posts := make([]blog.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.unboil())
	}
	return posts, total, nil
}

func (repo *postRepository) GetPost(ctx context.Context, filter blog.GetFilter, exec ...core.DBExecutor) (blog.Post, error) {
	b := sq.Select(postColumns...).From("posts")
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return blog.Post{}, blog.ErrNotFound
		}
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Slug != "":
		b = b.Where(sq.Eq{"slug": filter.Slug})
	default:
		return blog.Post{}, blog.ErrNotFound
	}
	if filter.PublishedOnly {
		b = b.Where(sq.Eq{"published": true})
	}

	var row postRow
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return blog.Post{}, trapNoRowsErr(err, blog.ErrNotFound, "selecting post")
	}
	return row.unboil(), nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, post blog.Post, exec ...core.DBExecutor) (blog.Post, error) {
	row := boilPost(post)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("posts").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return blog.Post{}, errors.Wrap(err, "updating post")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return blog.Post{}, blog.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo *postRepository) DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "posts", ids)
}
