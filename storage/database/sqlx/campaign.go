package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/campaign"
)

var campaignColumns = []string{
	"id", "name", "channel", "status", "subject", "body", "audience", "scheduled_at", "sent_at", "recipients",
	"opens", "clicks", "created_at", "updated_at",
}

type campaignRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Channel     string    `db:"channel"`
	Status      string    `db:"status"`
	Subject     string    `db:"subject"`
	Body        string    `db:"body"`
	Audience    string    `db:"audience"`
	ScheduledAt null.Time `db:"scheduled_at"`
	SentAt      null.Time `db:"sent_at"`
	Recipients  int       `db:"recipients"`
	Opens       int       `db:"opens"`
	Clicks      int       `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func nullTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func boilCampaign(cpn campaign.Campaign) campaignRow {
	return campaignRow{
		ID:          cpn.ID,
		Name:        cpn.Name,
		Channel:     cpn.Channel,
		Status:      cpn.Status,
		Subject:     cpn.Subject,
		Body:        cpn.Body,
		Audience:    cpn.Audience,
		ScheduledAt: nullTime(cpn.ScheduledAt),
		SentAt:      nullTime(cpn.SentAt),
		Recipients:  cpn.Recipients,
		Opens:       cpn.Opens,
		Clicks:      cpn.Clicks,
		CreatedAt:   cpn.CreatedAt.UTC(),
		UpdatedAt:   cpn.UpdatedAt.UTC(),
	}
}

func (row campaignRow) unboil() campaign.Campaign {
	return campaign.Campaign{
		ID:          row.ID,
		Name:        row.Name,
		Channel:     row.Channel,
		Status:      row.Status,
		Subject:     row.Subject,
		Body:        row.Body,
		Audience:    row.Audience,
		ScheduledAt: timePtr(row.ScheduledAt),
		SentAt:      timePtr(row.SentAt),
		Recipients:  row.Recipients,
		Opens:       row.Opens,
		Clicks:      row.Clicks,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (row campaignRow) values() map[string]interface{} {
	return map[string]interface{}{
		"name":         row.Name,
		"channel":      row.Channel,
		"status":       row.Status,
		"subject":      row.Subject,
		"body":         row.Body,
		"audience":     row.Audience,
		"scheduled_at": row.ScheduledAt,
		"sent_at":      row.SentAt,
		"recipients":   row.Recipients,
		"opens":        row.Opens,
		"clicks":       row.Clicks,
		"created_at":   row.CreatedAt,
		"updated_at":   row.UpdatedAt,
	}
}

type campaignRepository struct {
	baseRepository
}

var _ campaign.Repository = (*campaignRepository)(nil) // interface compliance check

func NewCampaignRepository(exec core.DBExecutor) *campaignRepository {
	return &campaignRepository{baseRepository{exec: exec}}
}

func (repo *campaignRepository) CreateCampaign(ctx context.Context, cpn campaign.Campaign, exec ...core.DBExecutor) (campaign.Campaign, error) {
	cpn.ID = uuid.NewString()
	row := boilCampaign(cpn)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("campaigns").SetMap(vals)); err != nil {
		return campaign.Campaign{}, errors.Wrap(err, "inserting campaign")
	}
	return row.unboil(), nil
}

func (repo *campaignRepository) QueryCampaigns(ctx context.Context, filter *campaign.QueryFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]campaign.Campaign, int, error) {
	b := sq.Select().From("campaigns")
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(search(filter.Search, "name", "subject"))
		}
		if filter.Channel != "" {
			b = b.Where(sq.Eq{"channel": filter.Channel})
		}
		if filter.Status != "" {
			b = b.Where(sq.Eq{"status": filter.Status})
		}
		if filter.DueBefore != nil {
			b = b.Where(sq.Eq{"status": campaign.StatusScheduled}).
				Where(sq.LtOrEq{"scheduled_at": filter.DueBefore.UTC()})
		}
	}

	var rows []campaignRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, campaignColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting campaigns")
	}
	cpns := make([]campaign.Campaign, 0, len(rows))
	for _, row := range rows {
		cpns = append(cpns, row.unboil())
	}
	return cpns, total, nil
}

func (repo *campaignRepository) GetCampaign(ctx context.Context, id string, exec ...core.DBExecutor) (campaign.Campaign, error) {
	if !validID(id) {
		return campaign.Campaign{}, campaign.ErrNotFound
	}
	var row campaignRow
	b := sq.Select(campaignColumns...).From("campaigns").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return campaign.Campaign{}, trapNoRowsErr(err, campaign.ErrNotFound, "selecting campaign")
	}
	return row.unboil(), nil
}

func (repo *campaignRepository) UpdateCampaign(ctx context.Context, cpn campaign.Campaign, exec ...core.DBExecutor) (campaign.Campaign, error) {
	row := boilCampaign(cpn)
	vals := row.values()
	delete(vals, "created_at")
	ex := repo.getExec(exec)
	b := sq.Update("campaigns").SetMap(vals).Where(sq.Eq{"id": row.ID})
	if row.Status != campaign.StatusSent {
		// a sent Campaign is never edited back
		b = b.Where(sq.NotEq{"status": campaign.StatusSent})
	}
	res, err := execx(ctx, ex, b)
	if err != nil {
		return campaign.Campaign{}, errors.Wrap(err, "updating campaign")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		found, err := idExists(ctx, ex, "campaigns", row.ID)
		if err != nil {
			return campaign.Campaign{}, errors.Wrap(err, "updating campaign")
		}
		if found {
			return campaign.Campaign{}, campaign.ErrAlreadySent
		}
		return campaign.Campaign{}, campaign.ErrNotFound
	}
	return row.unboil(), nil
}

// ClaimCampaignSend marks the Campaign as sent, unless it already is.
// Concurrent claims on the same Campaign see exactly one winner.
func (repo *campaignRepository) ClaimCampaignSend(ctx context.Context, id string, sentAt time.Time, exec ...core.DBExecutor) (campaign.Campaign, error) {
	if !validID(id) {
		return campaign.Campaign{}, campaign.ErrNotFound
	}
	ex := repo.getExec(exec)
	sentAt = sentAt.UTC()
	res, err := execx(ctx, ex, sq.Update("campaigns").
		SetMap(map[string]interface{}{
			"status":     campaign.StatusSent,
			"sent_at":    null.TimeFrom(sentAt),
			"updated_at": sentAt,
		}).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": campaign.StatusSent}))
	if err != nil {
		return campaign.Campaign{}, errors.Wrap(err, "claiming campaign")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return campaign.Campaign{}, errors.Wrap(err, "claiming campaign")
	}
	if n == 0 {
		found, err := idExists(ctx, ex, "campaigns", id)
		if err != nil {
			return campaign.Campaign{}, errors.Wrap(err, "claiming campaign")
		}
		if found {
			return campaign.Campaign{}, campaign.ErrAlreadySent
		}
		return campaign.Campaign{}, campaign.ErrNotFound
	}
	return repo.GetCampaign(ctx, id, ex)
}

func (repo *campaignRepository) DeleteCampaignsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "campaigns", ids)
}
