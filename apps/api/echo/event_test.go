package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/event"
	"github.com/trezcool/nyumba/testutil"
)

func eventTitles(evts []event.Event) []string {
	out := make([]string, 0, len(evts))
	for _, evt := range evts {
		out = append(out, evt.Title)
	}
	return out
}

func Test_eventApi_public(t *testing.T) {
	e := setup(t)
	now := time.Now().UTC()
	testutil.CreateEvent(t, e.eventRepo, "Expo Goma", now.Add(72*time.Hour), true)
	testutil.CreateEvent(t, e.eventRepo, "Open Day", now.Add(24*time.Hour), true)
	testutil.CreateEvent(t, e.eventRepo, "Launch Party", now.Add(-72*time.Hour), true)
	testutil.CreateEvent(t, e.eventRepo, "Old Fair", now.Add(-240*time.Hour), true)
	testutil.CreateEvent(t, e.eventRepo, "Secret Preview", now.Add(48*time.Hour), false)
	// started an hour ago, ends in an hour
	testutil.CreateEvent(t, e.eventRepo, "Happening Now", now.Add(-time.Hour), true)

	tests := []struct {
		name      string
		query     string
		wantTitle []string
	}{
		{name: "upcoming by default, soonest first", wantTitle: []string{"Happening Now", "Open Day", "Expo Goma"}},
		{name: "upcoming", query: "?when=upcoming", wantTitle: []string{"Happening Now", "Open Day", "Expo Goma"}},
		{name: "past, latest first", query: "?when=past", wantTitle: []string{"Launch Party", "Old Fair"}},
		{name: "published cannot be overridden", query: "?published=false", wantTitle: []string{"Happening Now", "Open Day", "Expo Goma"}},
		{name: "search", query: "?when=past&search=fair", wantTitle: []string{"Old Fair"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/v1/public/events"+tt.query)
			e.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got core.Paged[event.Event]
			decode(t, rec, &got)
			assert.Equal(t, tt.wantTitle, eventTitles(got.Results))
			assert.Equal(t, len(tt.wantTitle), got.Total)
		})
	}

	runHTTPTests(t, e, []httpTest{
		{name: "detail", path: "/v1/public/events/open-day", wantCode: http.StatusOK},
		{name: "unpublished detail", path: "/v1/public/events/secret-preview", wantCode: http.StatusNotFound},
		{name: "unknown detail", path: "/v1/public/events/lol", wantCode: http.StatusNotFound},
		{name: "far away page", path: "/v1/public/events?page=9223372036854775807&page_size=100", wantCode: http.StatusOK},
	})
}

func Test_eventApi_admin(t *testing.T) {
	e := setup(t)
	approved, pending, _ := e.staff(t)
	token := getToken(t, e.conf, approved)
	starts := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	draft := testutil.CreateEvent(t, e.eventRepo, "Draft Fair", starts, false)

	input := func(title string, startsAt, endsAt time.Time) event.EventInput {
		return event.EventInput{Title: title, Location: "Gombe", StartsAt: startsAt, EndsAt: endsAt, Published: true}
	}

	runHTTPTests(t, e, []httpTest{
		{name: "no token", path: "/v1/admin/events", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "pending admin", path: "/v1/admin/events", token: getToken(t, e.conf, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPendingApproval),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/admin/events", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title": "this field is required", "starts_at": "this field is required", "ends_at": "this field is required"}`),
		},
		{
			name: "ends before it starts", method: http.MethodPost, path: "/v1/admin/events", token: token,
			body:     marchallObj(t, input("Backwards", starts, starts.Add(-time.Minute))),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"ends_at": "must be on or after starts_at"}`),
		},
		{
			name: "update ending before it starts", method: http.MethodPut, path: "/v1/admin/events/" + draft.ID, token: token,
			body:     marchallObj(t, input("Draft Fair", starts, starts.Add(-time.Hour))),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"ends_at": "must be on or after starts_at"}`),
		},
		{
			name: "taken slug", method: http.MethodPost, path: "/v1/admin/events", token: token,
			body: []byte(`{"title": "Other", "slug": "draft-fair", "starts_at": "` + starts.Format(time.RFC3339) +
				`", "ends_at": "` + starts.Add(time.Hour).Format(time.RFC3339) + `"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"slug": "this slug is already in use"}`),
		},
		{name: "unknown event", path: "/v1/admin/events/f0c7b1c4-4a6c-4b59-8c3e-7d0b3e4ad3b1", token: token, wantCode: http.StatusNotFound},
	})

	t.Run("create an instant event", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/events", token, marchallObj(t, input("Flash Visit", starts, starts)))
		e.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got event.Event
		decode(t, rec, &got)
		assert.Equal(t, "flash-visit", got.Slug)
		assert.True(t, got.StartsAt.Equal(got.EndsAt))
		assert.True(t, got.Published)
	})

	t.Run("admin list shows drafts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/events?published=false", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got core.Paged[event.Event]
		decode(t, rec, &got)
		assert.Equal(t, []string{"Draft Fair"}, eventTitles(got.Results))
	})

	t.Run("update keeps the slug", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/admin/events/"+draft.ID, token,
			marchallObj(t, input("Draft Fair", starts, starts.Add(3*time.Hour))))
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := e.eventRepo.GetEvent(context.Background(), event.GetFilter{ID: draft.ID})
		require.NoError(t, err)
		assert.Equal(t, draft.Slug, got.Slug)
		assert.True(t, got.Published)
		assert.True(t, starts.Add(3*time.Hour).Equal(got.EndsAt))
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/events/"+draft.ID, token)
		e.serve(req, rec)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := e.eventRepo.GetEvent(context.Background(), event.GetFilter{ID: draft.ID})
		assert.Equal(t, event.ErrNotFound, err)
	})
}
