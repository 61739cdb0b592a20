package campaign

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type repoMock struct {
	mu        sync.Mutex
	cpns      map[string]Campaign
	seq       int
	updateErr error
}

func (r *repoMock) CreateCampaign(_ context.Context, cpn Campaign, _ ...core.DBExecutor) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cpn.ID = string(rune('a' + r.seq - 1))
	r.cpns[cpn.ID] = cpn
	return cpn, nil
}

func (r *repoMock) QueryCampaigns(_ context.Context, filter *QueryFilter, _ []core.DBOrdering, _ core.Page, _ ...core.DBExecutor) ([]Campaign, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []Campaign
	for _, cpn := range r.cpns {
		if filter.Status != "" && cpn.Status != filter.Status {
			continue
		}
		if filter.DueBefore != nil && (cpn.ScheduledAt == nil || cpn.ScheduledAt.After(*filter.DueBefore)) {
			continue
		}
		res = append(res, cpn)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, len(res), nil
}

func (r *repoMock) GetCampaign(_ context.Context, id string, _ ...core.DBExecutor) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cpn, ok := r.cpns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return cpn, nil
}

func (r *repoMock) UpdateCampaign(_ context.Context, cpn Campaign, _ ...core.DBExecutor) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return Campaign{}, r.updateErr
	}
	if cpn.Status != StatusSent && r.cpns[cpn.ID].Status == StatusSent {
		return Campaign{}, ErrAlreadySent
	}
	r.cpns[cpn.ID] = cpn
	return cpn, nil
}

func (r *repoMock) ClaimCampaignSend(_ context.Context, id string, sentAt time.Time, _ ...core.DBExecutor) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cpn, ok := r.cpns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	if cpn.Status == StatusSent {
		return Campaign{}, ErrAlreadySent
	}
	cpn.Status = StatusSent
	cpn.SentAt = &sentAt
	cpn.UpdatedAt = sentAt
	r.cpns[id] = cpn
	return cpn, nil
}

func (r *repoMock) DeleteCampaignsByID(_ context.Context, ids []string, _ ...core.DBExecutor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.cpns, id)
	}
	return nil
}

type audienceMock struct {
	subs  []Recipient
	leads []Recipient
	err   error
}

func (a audienceMock) SubscriberRecipients(context.Context) ([]Recipient, error) { return a.subs, a.err }
func (a audienceMock) LeadRecipients(context.Context) ([]Recipient, error)       { return a.leads, a.err }

type mailMock struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	m.sent = append(m.sent, messages...)
	m.mu.Unlock()
}

// slowAudience lets concurrent sends overlap between reading and claiming a Campaign.
type slowAudience struct{ audienceMock }

func (a slowAudience) SubscriberRecipients(ctx context.Context) ([]Recipient, error) {
	time.Sleep(5 * time.Millisecond)
	return a.audienceMock.SubscriberRecipients(ctx)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestService(audience AudienceSource) (*service, *repoMock, *mailMock) {
	repo := &repoMock{cpns: make(map[string]Campaign)}
	mails := new(mailMock)
	svc := NewService(repo, audience, mails, nopLogger{})
	svc.nowFunc = func() time.Time { return now }
	return svc, repo, mails
}

var audience = audienceMock{
	subs: []Recipient{
		{Name: "Fan", Email: "fan@test.cd", UnsubscribeURL: "http://test.local/newsletter/unsubscribe?email=fan%40test.cd"},
		{Email: "anon@test.cd"},
	},
	leads: []Recipient{{Name: "Jo", Email: "jo@test.cd"}},
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name         string
		in           CampaignInput
		wantMails    []string
		wantReceived int
	}{
		{
			name:         "email to subscribers",
			in:           CampaignInput{Name: "Launch", Channel: ChannelEmail, Subject: "New homes", Body: "<p>Hi</p>", Audience: AudienceSubscribers},
			wantMails:    []string{"fan@test.cd", "anon@test.cd"},
			wantReceived: 2,
		},
		{
			name:         "email to leads",
			in:           CampaignInput{Name: "Follow up", Channel: ChannelEmail, Subject: "Still looking?", Body: "<p>Hi</p>", Audience: AudienceLeads},
			wantMails:    []string{"jo@test.cd"},
			wantReceived: 1,
		},
		{
			name:         "sms only counts its audience",
			in:           CampaignInput{Name: "Text", Channel: ChannelSMS, Body: "Open day on Saturday", Audience: AudienceSubscribers},
			wantReceived: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _, mails := newTestService(audience)

			cpn, err := svc.Create(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, StatusDraft, cpn.Status)

			cpn, err = svc.Send(ctx, cpn.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusSent, cpn.Status)
			assert.Equal(t, tt.wantReceived, cpn.Recipients)
			if assert.NotNil(t, cpn.SentAt) {
				assert.Equal(t, now, *cpn.SentAt)
			}

			var got []string
			for _, msg := range mails.sent {
				assert.Equal(t, tt.in.Subject, msg.Subject)
				assert.Equal(t, "campaign", msg.TemplateName)
				got = append(got, msg.To[0].Address)
			}
			assert.Equal(t, tt.wantMails, got)

			_, err = svc.Send(ctx, cpn.ID)
			assert.ErrorIs(t, err, ErrAlreadySent)
			_, err = svc.Update(ctx, cpn.ID, tt.in)
			assert.ErrorIs(t, err, ErrAlreadySent)
		})
	}
}

func TestService_Send_audienceError(t *testing.T) {
	ctx := context.Background()
	svc, repo, mails := newTestService(audienceMock{err: errors.New("db down")})

	cpn, err := svc.Create(ctx, CampaignInput{Name: "Launch", Channel: ChannelEmail, Subject: "Hi", Body: "Hi", Audience: AudienceSubscribers})
	require.NoError(t, err)

	_, err = svc.Send(ctx, cpn.ID)
	assert.EqualError(t, err, "listing recipients: db down")
	assert.Empty(t, mails.sent)
	assert.Equal(t, StatusDraft, repo.cpns[cpn.ID].Status)
}

func TestService_Schedule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(audience)
	cpn, err := svc.Create(ctx, CampaignInput{Name: "Launch", Channel: ChannelEmail, Subject: "Hi", Body: "Hi", Audience: AudienceSubscribers})
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		at      time.Time
		wantErr bool
	}{
		{name: "unknown campaign", id: "zzz", at: now.Add(time.Hour), wantErr: true},
		{name: "in the past", id: cpn.ID, at: now.Add(-time.Minute), wantErr: true},
		{name: "now", id: cpn.ID, at: now, wantErr: true},
		{name: "in the future", id: cpn.ID, at: now.Add(time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Schedule(ctx, tt.id, tt.at)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusScheduled, got.Status)
			if assert.NotNil(t, got.ScheduledAt) {
				assert.Equal(t, tt.at, *got.ScheduledAt)
			}
		})
	}

	_, err = svc.Schedule(ctx, cpn.ID, now.Add(-time.Minute))
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []core.FieldError{{Field: "at", Error: "must be in the future"}}, verr.Fields)
}

func TestService_SendDue(t *testing.T) {
	ctx := context.Background()
	svc, repo, mails := newTestService(audience)

	schedule := func(name string, in time.Duration) Campaign {
		cpn, err := svc.Create(ctx, CampaignInput{Name: name, Channel: ChannelEmail, Subject: name, Body: "Hi", Audience: AudienceLeads})
		require.NoError(t, err)
		cpn, err = svc.Schedule(ctx, cpn.ID, now.Add(in))
		require.NoError(t, err)
		return cpn
	}
	soon := schedule("soon", time.Minute)
	later := schedule("later", time.Hour)
	draft, err := svc.Create(ctx, CampaignInput{Name: "draft", Channel: ChannelEmail, Subject: "draft", Body: "Hi", Audience: AudienceLeads})
	require.NoError(t, err)

	sent, err := svc.SendDue(ctx, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Zero(t, sent)

	sent, err = svc.SendDue(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, StatusSent, repo.cpns[soon.ID].Status)
	assert.Equal(t, StatusScheduled, repo.cpns[later.ID].Status)
	assert.Equal(t, StatusDraft, repo.cpns[draft.ID].Status)
	require.Len(t, mails.sent, 1)
	assert.Equal(t, "soon", mails.sent[0].Subject)

	// already sent campaigns are not due anymore
	sent, err = svc.SendDue(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, StatusSent, repo.cpns[later.ID].Status)
	assert.Len(t, mails.sent, 2)
}

func TestService_Send_concurrent(t *testing.T) {
	ctx := context.Background()
	svc, repo, mails := newTestService(slowAudience{audience})
	cpn, err := svc.Create(ctx, CampaignInput{Name: "Launch", Channel: ChannelEmail, Subject: "Hi", Body: "Hi", Audience: AudienceSubscribers})
	require.NoError(t, err)

	const senders = 4
	errs := make([]error, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Send(ctx, cpn.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadySent)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, mails.sent, len(audience.subs))
	assert.Equal(t, StatusSent, repo.cpns[cpn.ID].Status)
	assert.Equal(t, len(audience.subs), repo.cpns[cpn.ID].Recipients)
}

func TestService_SendDue_failedRecipientsUpdate(t *testing.T) {
	ctx := context.Background()
	svc, repo, mails := newTestService(audience)
	cpn, err := svc.Create(ctx, CampaignInput{Name: "Launch", Channel: ChannelEmail, Subject: "Hi", Body: "Hi", Audience: AudienceSubscribers})
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, cpn.ID, now.Add(time.Minute))
	require.NoError(t, err)

	repo.updateErr = errors.New("db down")
	for i := 0; i < 3; i++ {
		_, err := svc.SendDue(ctx, now.Add(time.Hour))
		require.NoError(t, err)
	}
	assert.Len(t, mails.sent, len(audience.subs))
	assert.Equal(t, StatusSent, repo.cpns[cpn.ID].Status)
}

func TestService_Update_raceWithSend(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(audience)
	in := CampaignInput{Name: "Launch", Channel: ChannelEmail, Subject: "Hi", Body: "Hi", Audience: AudienceSubscribers}
	cpn, err := svc.Create(ctx, in)
	require.NoError(t, err)

	// sent between the edit's read and its write
	_, err = repo.ClaimCampaignSend(ctx, cpn.ID, now)
	require.NoError(t, err)
	_, err = svc.update(ctx, cpn)
	assert.ErrorIs(t, err, ErrAlreadySent)
	assert.Equal(t, StatusSent, repo.cpns[cpn.ID].Status)
}
