package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/nyumba/apps/api/echo"
	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/developer"
	"github.com/trezcool/nyumba/core/property"
	"github.com/trezcool/nyumba/testutil"
)

func developerNames(devs []developer.Developer) []string {
	out := make([]string, 0, len(devs))
	for _, d := range devs {
		out = append(out, d.Name)
	}
	return out
}

func Test_developerApi_public(t *testing.T) {
	e := setup(t)
	emaar := testutil.CreateDeveloper(t, e.devRepo, "Emaar", "emaar", true)
	testutil.CreateDeveloper(t, e.devRepo, "Congo Builders", "congo-builders", true)
	hidden := testutil.CreateDeveloper(t, e.devRepo, "Stealth Homes", "stealth-homes", false)

	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Marina View", City: "Dubai", Price: 450000, DeveloperID: &emaar.ID, Published: true})
	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Palm Villa", City: "Dubai", Price: 900000, DeveloperID: &emaar.ID, Published: true})
	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Tower Draft", City: "Dubai", Price: 100, DeveloperID: &emaar.ID})
	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Gombe Loft", City: "Kinshasa", Price: 180000, Published: true})
	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Hidden Gem", City: "Goma", Price: 1, DeveloperID: &hidden.ID, Published: true})

	tests := []struct {
		name     string
		query    string
		wantName []string
	}{
		{name: "published only, by name", wantName: []string{"Congo Builders", "Emaar"}},
		{name: "published cannot be overridden", query: "?published=false", wantName: []string{"Congo Builders", "Emaar"}},
		{name: "search", query: "?search=congo", wantName: []string{"Congo Builders"}},
		{name: "reversed", query: "?ordering=-name", wantName: []string{"Emaar", "Congo Builders"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/v1/public/developers"+tt.query)
			e.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got core.Paged[developer.Developer]
			decode(t, rec, &got)
			assert.Equal(t, tt.wantName, developerNames(got.Results))
			assert.Equal(t, len(tt.wantName), got.Total)
		})
	}

	t.Run("detail lists published properties only", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/public/developers/EMAAR")
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got DeveloperDetail
		decode(t, rec, &got)
		assert.Equal(t, emaar.ID, got.Developer.ID)
		assert.ElementsMatch(t, []string{"Marina View", "Palm Villa"}, titles(got.Properties))
	})

	t.Run("detail without properties", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/public/developers/congo-builders")
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got DeveloperDetail
		decode(t, rec, &got)
		assert.Empty(t, got.Properties)
	})

	runHTTPTests(t, e, []httpTest{
		{name: "unpublished detail", path: "/v1/public/developers/stealth-homes", wantCode: http.StatusNotFound},
		{name: "unknown detail", path: "/v1/public/developers/lol", wantCode: http.StatusNotFound},
	})
}

func Test_developerApi_admin(t *testing.T) {
	e := setup(t)
	approved, _, _ := e.staff(t)
	token := getToken(t, e.conf, approved)
	testutil.CreateDeveloper(t, e.devRepo, "Emaar", "emaar", false)

	runHTTPTests(t, e, []httpTest{
		{name: "no token", path: "/v1/admin/developers", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/admin/developers", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name": "this field is required"}`),
		},
		{
			name: "taken slug", method: http.MethodPost, path: "/v1/admin/developers", token: token,
			body:     []byte(`{"name": "Emaar Properties", "slug": "emaar"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"slug": "this slug is already in use"}`),
		},
	})

	tests := []struct {
		name     string
		input    developer.DeveloperInput
		wantSlug string
	}{
		{name: "slug from name", input: developer.DeveloperInput{Name: "Kin Builders"}, wantSlug: "kin-builders"},
		{name: "slug from name, deduplicated", input: developer.DeveloperInput{Name: "Kin  Builders", Published: true}, wantSlug: "kin-builders-2"},
		{name: "slug from name taken by another", input: developer.DeveloperInput{Name: "Emaar!"}, wantSlug: "emaar-2"},
		{name: "explicit slug", input: developer.DeveloperInput{Name: "Kivu Homes", Slug: "Kivu"}, wantSlug: "kivu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/admin/developers", token, marchallObj(t, tt.input))
			e.serve(req, rec)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			var got developer.Developer
			decode(t, rec, &got)
			assert.Equal(t, tt.wantSlug, got.Slug)
			assert.Equal(t, tt.input.Published, got.Published)
		})
	}

	t.Run("admin list shows unpublished", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/developers?published=false", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got core.Paged[developer.Developer]
		decode(t, rec, &got)
		assert.Equal(t, []string{"Emaar", "Emaar!", "Kin Builders", "Kivu Homes"}, developerNames(got.Results))
	})
}
