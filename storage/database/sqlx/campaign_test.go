package sqlxrepos

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core/campaign"
	"github.com/trezcool/nyumba/testutil"
)

func createCampaign(t *testing.T, repo campaign.Repository, name, status string) campaign.Campaign {
	t.Helper()
	now := time.Now().UTC()
	cpn, err := repo.CreateCampaign(context.Background(), campaign.Campaign{
		Name: name, Channel: campaign.ChannelEmail, Status: status, Subject: name, Body: "Hi",
		Audience: campaign.AudienceSubscribers, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return cpn
}

func Test_campaignRepository_ClaimCampaignSend(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(testutil.OpenDB(t))
	draft := createCampaign(t, repo, "Draft", campaign.StatusDraft)
	scheduled := createCampaign(t, repo, "Scheduled", campaign.StatusScheduled)
	sentAt := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "unknown campaign", id: "f0c7b1c4-4a6c-4b59-8c3e-7d0b3e4ad3b1", wantErr: campaign.ErrNotFound},
		{name: "malformed id", id: "lol", wantErr: campaign.ErrNotFound},
		{name: "draft", id: draft.ID},
		{name: "scheduled", id: scheduled.ID},
		{name: "draft, again", id: draft.ID, wantErr: campaign.ErrAlreadySent},
		{name: "scheduled, again", id: scheduled.ID, wantErr: campaign.ErrAlreadySent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ClaimCampaignSend(ctx, tt.id, sentAt)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, campaign.StatusSent, got.Status)
			if assert.NotNil(t, got.SentAt) {
				assert.True(t, sentAt.Equal(*got.SentAt))
			}
		})
	}
}

func Test_campaignRepository_ClaimCampaignSend_concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(testutil.OpenDB(t))
	cpn := createCampaign(t, repo, "Launch", campaign.StatusScheduled)

	const claimers = 8
	errs := make([]error, claimers)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.ClaimCampaignSend(ctx, cpn.ID, time.Now())
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.Equal(t, campaign.ErrAlreadySent, err)
	}
	assert.Equal(t, 1, won)
}

func Test_campaignRepository_UpdateCampaign(t *testing.T) {
	ctx := context.Background()
	repo := NewCampaignRepository(testutil.OpenDB(t))
	cpn := createCampaign(t, repo, "Launch", campaign.StatusDraft)

	// an edit read before the send must not revert it
	stale := cpn
	claimed, err := repo.ClaimCampaignSend(ctx, cpn.ID, time.Now())
	require.NoError(t, err)

	stale.Name = "Edited"
	_, err = repo.UpdateCampaign(ctx, stale)
	assert.Equal(t, campaign.ErrAlreadySent, err)

	claimed.Recipients = 42
	_, err = repo.UpdateCampaign(ctx, claimed)
	require.NoError(t, err)

	got, err := repo.GetCampaign(ctx, cpn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Name)
	assert.Equal(t, campaign.StatusSent, got.Status)
	assert.Equal(t, 42, got.Recipients)

	unknown := cpn
	unknown.ID = "f0c7b1c4-4a6c-4b59-8c3e-7d0b3e4ad3b1"
	_, err = repo.UpdateCampaign(ctx, unknown)
	assert.Equal(t, campaign.ErrNotFound, err)
}
