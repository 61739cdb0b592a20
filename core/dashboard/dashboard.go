package dashboard

import (
	"context"
	"time"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/lead"
)

const recentPeriod = 30 * 24 * time.Hour

type (
	Counts struct {
		Total     int `json:"total"`
		Published int `json:"published"`
	}

	// Overview is what the back office home page shows.
	Overview struct {
		Properties        Counts         `json:"properties"`
		Developers        Counts         `json:"developers"`
		Posts             Counts         `json:"posts"`
		UpcomingEvents    int            `json:"upcoming_events"`
		Subscribers       int            `json:"subscribers"` // still subscribed
		RecentLeadsByKind map[string]int `json:"recent_leads_by_kind"`
		NewLeads          int            `json:"new_leads"` // not yet contacted
		Since             time.Time      `json:"since"`
	}

	Repository interface {
		Overview(ctx context.Context, now, since time.Time, exec ...core.DBExecutor) (Overview, error)
	}

	Service interface {
		Overview(ctx context.Context) (Overview, error)
	}

	service struct {
		repo    Repository
		nowFunc func() time.Time // mockable
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) *service {
	return &service{repo: repo, nowFunc: time.Now}
}

// Overview counts leads of the last 30 days, per kind. Every kind is present, with 0 when it has no leads.
func (svc *service) Overview(ctx context.Context) (Overview, error) {
	now := svc.nowFunc().UTC()
	since := now.Add(-recentPeriod)
	ov, err := svc.repo.Overview(ctx, now, since)
	if err != nil {
		return Overview{}, err
	}
	byKind := make(map[string]int, len(lead.Kinds))
	for _, kind := range lead.Kinds {
		byKind[kind] = ov.RecentLeadsByKind[kind]
	}
	ov.RecentLeadsByKind = byKind
	ov.Since = since
	return ov, nil
}
