package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/testutil"
)

func leadIDs(leads []lead.Lead) []string {
	ids := make([]string, 0, len(leads))
	for _, ld := range leads {
		ids = append(ids, ld.ID)
	}
	return ids
}

func Test_leadRepository_QueryLeads(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadRepository(testutil.OpenDB(t))

	day := func(d, h int) time.Time { return time.Date(2026, 5, d, h, 0, 0, 0, time.UTC) }
	first := testutil.CreateLead(t, repo, lead.Lead{Name: "Awe", Email: "awe@test.cd", Budget: testutil.FloatPtr(100000), CreatedAt: day(1, 9)})
	kyc := testutil.CreateLead(t, repo, lead.Lead{
		Kind: lead.KindKYC, Name: "King", Email: "king@test.cd", Budget: testutil.FloatPtr(500000),
		Status: lead.StatusQualified, CreatedAt: day(2, 23),
	})
	popup := testutil.CreateLead(t, repo, lead.Lead{Kind: lead.KindPopup, Email: "pop@test.cd", CreatedAt: day(3, 0)})

	oldest := []core.DBOrdering{{Field: "created_at", Ascending: true}}
	tests := []struct {
		name    string
		filter  *lead.QueryFilter
		want    []string
		wantErr bool
	}{
		{name: "all", want: leadIDs([]lead.Lead{first, kyc, popup})},
		{name: "search", filter: &lead.QueryFilter{Search: "KING"}, want: leadIDs([]lead.Lead{kyc})},
		{name: "kind", filter: &lead.QueryFilter{Kind: lead.KindPopup}, want: leadIDs([]lead.Lead{popup})},
		{name: "status", filter: &lead.QueryFilter{Status: lead.StatusNew}, want: leadIDs([]lead.Lead{first, popup})},
		{name: "from (inclusive day)", filter: &lead.QueryFilter{From: testutil.TimePtr(day(2, 12))}, want: leadIDs([]lead.Lead{kyc, popup})},
		{name: "to (inclusive day)", filter: &lead.QueryFilter{To: testutil.TimePtr(day(2, 0))}, want: leadIDs([]lead.Lead{first, kyc})},
		{
			name: "single day", filter: &lead.QueryFilter{From: testutil.TimePtr(day(2, 0)), To: testutil.TimePtr(day(2, 0))},
			want: leadIDs([]lead.Lead{kyc}),
		},
		{name: "min budget", filter: &lead.QueryFilter{MinBudget: testutil.FloatPtr(200000)}, want: leadIDs([]lead.Lead{kyc})},
		{name: "max budget", filter: &lead.QueryFilter{MaxBudget: testutil.FloatPtr(100000)}, want: leadIDs([]lead.Lead{first})},
		{name: "inverted dates", filter: &lead.QueryFilter{From: testutil.TimePtr(day(3, 0)), To: testutil.TimePtr(day(1, 0))}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.QueryLeads(ctx, tt.filter, oldest, core.Page{Number: 1, Size: 10})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, leadIDs(got))
			assert.Equal(t, len(tt.want), total)
		})
	}
}

func Test_leadRepository_References(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewLeadRepository(db)
	prop := testutil.CreateProperty(t, NewPropertyRepository(db), propertyFixture("Marina View"))
	evt := testutil.CreateEvent(t, NewEventRepository(db), "Open Day", time.Now().Add(24*time.Hour), true)

	found, err := repo.PropertyExists(ctx, prop.ID)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = repo.EventExists(ctx, evt.ID)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = repo.PropertyExists(ctx, "lol")
	require.NoError(t, err)
	assert.False(t, found)

	ld := testutil.CreateLead(t, repo, lead.Lead{Kind: lead.KindInterest, Email: "awe@test.cd", PropertyID: &prop.ID})
	got, err := repo.GetLead(ctx, ld.ID)
	require.NoError(t, err)
	if assert.NotNil(t, got.PropertyID) {
		assert.Equal(t, prop.ID, *got.PropertyID)
	}
	assert.Nil(t, got.EventID)
	assert.Nil(t, got.Budget)

	got.Status = lead.StatusContacted
	got.Notes = "called back"
	_, err = repo.UpdateLead(ctx, got)
	require.NoError(t, err)
	got, err = repo.GetLead(ctx, ld.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.StatusContacted, got.Status)
	assert.Equal(t, "called back", got.Notes)

	require.NoError(t, repo.DeleteLeadsByID(ctx, []string{ld.ID}))
	_, err = repo.GetLead(ctx, ld.ID)
	assert.Equal(t, lead.ErrNotFound, err)
}

func Test_leadRepository_LeadContacts(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadRepository(testutil.OpenDB(t))
	testutil.CreateLead(t, repo, lead.Lead{Name: "King", Email: "king@test.cd"})
	testutil.CreateLead(t, repo, lead.Lead{Kind: lead.KindPopup, Email: "king@test.cd"})
	testutil.CreateLead(t, repo, lead.Lead{Name: "Awe", Email: "awe@test.cd"})

	contacts, err := repo.LeadContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []lead.Lead{{Name: "Awe", Email: "awe@test.cd"}, {Name: "King", Email: "king@test.cd"}}, contacts)
}

func Test_leadRepository_Subscribers(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadRepository(testutil.OpenDB(t))
	may := func(d int) time.Time { return time.Date(2026, 5, d, 10, 0, 0, 0, time.UTC) }
	awe := testutil.CreateSubscriber(t, repo, "awe@test.cd", true, may(1))
	king := testutil.CreateSubscriber(t, repo, "king@test.cd", false, may(2))

	got, err := repo.GetSubscriberByEmail(ctx, "awe@test.cd")
	require.NoError(t, err)
	assert.Equal(t, awe.ID, got.ID)
	_, err = repo.GetSubscriberByEmail(ctx, "lol@test.cd")
	assert.Equal(t, lead.ErrSubscriberNotFound, err)

	subIDs := func(subs []lead.Subscriber) []string {
		ids := make([]string, 0, len(subs))
		for _, sub := range subs {
			ids = append(ids, sub.ID)
		}
		return ids
	}
	byEmail := []core.DBOrdering{{Field: "email", Ascending: true}}
	tests := []struct {
		name   string
		filter *lead.SubscriberFilter
		want   []string
	}{
		{name: "all", want: []string{awe.ID, king.ID}},
		{name: "subscribed", filter: &lead.SubscriberFilter{Subscribed: testutil.BoolPtr(true)}, want: []string{awe.ID}},
		{name: "search", filter: &lead.SubscriberFilter{Search: "kin"}, want: []string{king.ID}},
		{name: "from", filter: &lead.SubscriberFilter{From: testutil.TimePtr(may(2))}, want: []string{king.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, total, err := repo.QuerySubscribers(ctx, tt.filter, byEmail, core.Page{Number: 1, Size: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, subIDs(subs))
			assert.Equal(t, len(tt.want), total)
		})
	}

	king.Subscribed = true
	_, err = repo.UpdateSubscriber(ctx, king)
	require.NoError(t, err)
	got, err = repo.GetSubscriberByEmail(ctx, "king@test.cd")
	require.NoError(t, err)
	assert.True(t, got.Subscribed)

	require.NoError(t, repo.DeleteSubscribersByID(ctx, []string{awe.ID, king.ID}))
	_, total, err := repo.QuerySubscribers(ctx, nil, byEmail, core.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}
