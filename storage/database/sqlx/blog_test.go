package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/blog"
	"github.com/trezcool/nyumba/testutil"
)

func createPost(t *testing.T, repo blog.Repository, title string, tags []string, publishedAt *time.Time) blog.Post {
	t.Helper()
	now := time.Now().UTC()
	post, err := repo.CreatePost(context.Background(), blog.Post{
		Title: title, Slug: core.Slugify(title), Content: "<p>" + title + "</p>", ContentFormat: blog.FormatHTML,
		Tags: tags, Published: publishedAt != nil, PublishedAt: publishedAt, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return post
}

func postIDs(posts []blog.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func Test_postRepository_QueryPosts(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(testutil.OpenDB(t))
	now := time.Now().UTC()

	market := createPost(t, repo, "Market Update", []string{"market", "real_estate"}, testutil.TimePtr(now.Add(-48*time.Hour)))
	mortgage := createPost(t, repo, "Mortgage 101", []string{"finance", "realxestate", "100%"}, testutil.TimePtr(now.Add(-24*time.Hour)))
	supermarket := createPost(t, repo, "Supermarkets Nearby", []string{"supermarket"}, testutil.TimePtr(now))
	draft := createPost(t, repo, "Draft", []string{"market"}, nil)

	newest := []core.DBOrdering{{Field: "published_at"}, {Field: "created_at"}}
	tests := []struct {
		name   string
		filter *blog.QueryFilter
		want   []string
	}{
		{name: "all, drafts last", want: postIDs([]blog.Post{supermarket, mortgage, market, draft})},
		{name: "published", filter: &blog.QueryFilter{Published: testutil.BoolPtr(true)}, want: postIDs([]blog.Post{supermarket, mortgage, market})},
		{name: "tag", filter: &blog.QueryFilter{Tag: "market"}, want: postIDs([]blog.Post{market, draft})},
		{name: "tag is matched whole", filter: &blog.QueryFilter{Tag: "arket"}, want: []string{}},
		{name: "underscore in tag", filter: &blog.QueryFilter{Tag: "real_estate"}, want: postIDs([]blog.Post{market})},
		{name: "percent in tag", filter: &blog.QueryFilter{Tag: "100%"}, want: postIDs([]blog.Post{mortgage})},
		{name: "wildcard tag", filter: &blog.QueryFilter{Tag: "%"}, want: []string{}},
		{name: "search", filter: &blog.QueryFilter{Search: "MORTGAGE"}, want: postIDs([]blog.Post{mortgage})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.QueryPosts(ctx, tt.filter, newest, core.Page{Number: 1, Size: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(got))
			assert.Equal(t, len(tt.want), total)
		})
	}
}
