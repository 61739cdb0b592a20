package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core/dashboard"
	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/core/property"
	"github.com/trezcool/nyumba/testutil"
)

func Test_dashboardApi_overview(t *testing.T) {
	e := setup(t)
	approved, pending, _ := e.staff(t)
	token := getToken(t, e.conf, approved)
	now := time.Now().UTC()

	runHTTPTests(t, e, []httpTest{
		{name: "no token", path: "/v1/admin/dashboard", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "pending admin", path: "/v1/admin/dashboard", token: getToken(t, e.conf, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPendingApproval),
		},
	})

	t.Run("empty", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/dashboard", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got dashboard.Overview
		decode(t, rec, &got)
		assert.Zero(t, got.Properties.Total)
		assert.Zero(t, got.NewLeads)
		assert.Equal(t, map[string]int{lead.KindContact: 0, lead.KindKYC: 0, lead.KindInterest: 0, lead.KindPopup: 0}, got.RecentLeadsByKind)
	})

	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Gombe Heights", City: "Kinshasa", Price: 1, Published: true})
	testutil.CreateProperty(t, e.propRepo, property.Property{Title: "Draft", City: "Kinshasa", Price: 1})
	testutil.CreateDeveloper(t, e.devRepo, "Emaar", "emaar", true)
	testutil.CreateEvent(t, e.eventRepo, "Open Day", now.Add(24*time.Hour), true)
	testutil.CreateEvent(t, e.eventRepo, "Preview", now.Add(24*time.Hour), false)
	testutil.CreateEvent(t, e.eventRepo, "Old Fair", now.Add(-72*time.Hour), true)
	testutil.CreateSubscriber(t, e.leadRepo, "fan@test.cd", true)
	testutil.CreateSubscriber(t, e.leadRepo, "gone@test.cd", false)
	testutil.CreateLead(t, e.leadRepo, lead.Lead{Name: "Amani", Email: "amani@test.cd"})
	testutil.CreateLead(t, e.leadRepo, lead.Lead{Kind: lead.KindKYC, Name: "Baraka", Email: "baraka@test.cd", Status: lead.StatusContacted})
	testutil.CreateLead(t, e.leadRepo, lead.Lead{Name: "Old", Email: "old@test.cd", CreatedAt: now.Add(-60 * 24 * time.Hour)})

	t.Run("overview", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/dashboard", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got dashboard.Overview
		decode(t, rec, &got)
		assert.Equal(t, dashboard.Counts{Total: 2, Published: 1}, got.Properties)
		assert.Equal(t, dashboard.Counts{Total: 1, Published: 1}, got.Developers)
		assert.Equal(t, dashboard.Counts{}, got.Posts)
		assert.Equal(t, 1, got.UpcomingEvents)
		assert.Equal(t, 1, got.Subscribers)
		assert.Equal(t, 2, got.NewLeads)
		assert.Equal(t, map[string]int{lead.KindContact: 1, lead.KindKYC: 1, lead.KindInterest: 0, lead.KindPopup: 0}, got.RecentLeadsByKind)
		assert.WithinDuration(t, now.Add(-30*24*time.Hour), got.Since, time.Minute)
	})
}
