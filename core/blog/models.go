package blog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/nyumba/core"
)

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"

	excerptLen = 200
)

// Post is a blog article.
type Post struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Excerpt       string          `json:"excerpt"`
	Content       string          `json:"content"`
	ContentFormat string          `json:"content_format"`
	ContentHTML   string          `json:"content_html"`
	CoverImageKey string          `json:"cover_image_key"`
	CoverImageURL string          `json:"cover_image_url,omitempty"`
	Author        string          `json:"author"`
	Tags          core.StringList `json:"tags"`
	Published     bool            `json:"published"`
	PublishedAt   *time.Time      `json:"published_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PostInput holds the editable fields of a Post, on create and on update.
type PostInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Slug          string   `json:"slug" validate:"omitempty,slug,max=200"`
	Excerpt       string   `json:"excerpt" validate:"max=500"`
	Content       string   `json:"content" validate:"required"`
	ContentFormat string   `json:"content_format" validate:"oneof=html markdown"`
	CoverImageKey string   `json:"cover_image_key" validate:"max=500"`
	Author        string   `json:"author" validate:"max=120"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=50"`
	Published     bool     `json:"published"`
}

func (in *PostInput) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.Slug = core.CleanString(in.Slug, true /* lower */)
	in.Excerpt = core.CleanString(in.Excerpt)
	in.ContentFormat = core.CleanString(in.ContentFormat, true /* lower */)
	if in.ContentFormat == "" {
		in.ContentFormat = FormatHTML
	}
	in.CoverImageKey = core.CleanString(in.CoverImageKey)
	in.Author = core.CleanString(in.Author)
	in.Tags = core.CleanList(in.Tags, true /* lower */)
	return validate.Struct(in)
}

// render fills the HTML content and, when missing, the excerpt of p.
func (p *Post) render() error {
	if p.ContentFormat == FormatMarkdown {
		html, err := core.RenderMarkdown(p.Content)
		if err != nil {
			return err
		}
		p.ContentHTML = html
	} else {
		p.Content = core.SanitizeHTML(p.Content)
		p.ContentHTML = p.Content
	}
	if p.Excerpt == "" {
		p.Excerpt = core.Truncate(core.PlainText(p.ContentHTML), excerptLen)
	}
	return nil
}

type QueryFilter struct {
	Search    string `query:"search"`
	Tag       string `query:"tag"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

// GetFilter selects a single Post; the first non-empty field wins.
type GetFilter struct {
	ID            string
	Slug          string
	PublishedOnly bool
}

var OrderingFields = map[string]string{
	"title":        "title",
	"published_at": "published_at",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

var defaultOrdering = []core.DBOrdering{{Field: "published_at"}, {Field: "created_at"}}
