package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/dashboard"
	"github.com/trezcool/nyumba/core/lead"
)

type dashboardRepository struct {
	baseRepository
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(exec core.DBExecutor) *dashboardRepository {
	return &dashboardRepository{baseRepository{exec: exec}}
}

func publishedCounts(ctx context.Context, exec core.DBExecutor, table string) (dashboard.Counts, error) {
	var counts dashboard.Counts
	b := sq.Select("COUNT(*) AS total", "COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0) AS published").From(table)
	query, args, err := toSQL(exec, b)
	if err != nil {
		return counts, err
	}
	err = exec.QueryRowxContext(ctx, query, args...).Scan(&counts.Total, &counts.Published)
	return counts, errors.Wrap(err, "counting "+table)
}

func (repo *dashboardRepository) Overview(ctx context.Context, now, since time.Time, exec ...core.DBExecutor) (dashboard.Overview, error) {
	ex := repo.getExec(exec)
	var (
		ov  dashboard.Overview
		err error
	)

	if ov.Properties, err = publishedCounts(ctx, ex, "properties"); err != nil {
		return ov, err
	}
	if ov.Developers, err = publishedCounts(ctx, ex, "developers"); err != nil {
		return ov, err
	}
	if ov.Posts, err = publishedCounts(ctx, ex, "posts"); err != nil {
		return ov, err
	}

	upcoming := sq.Select().From("events").Where(sq.Eq{"published": true}).Where(sq.GtOrEq{"ends_at": now.UTC()})
	if ov.UpcomingEvents, err = count(ctx, ex, upcoming); err != nil {
		return ov, errors.Wrap(err, "counting upcoming events")
	}
	subscribed := sq.Select().From("subscribers").Where(sq.Eq{"subscribed": true})
	if ov.Subscribers, err = count(ctx, ex, subscribed); err != nil {
		return ov, errors.Wrap(err, "counting subscribers")
	}
	fresh := sq.Select().From("leads").Where(sq.Eq{"status": lead.StatusNew})
	if ov.NewLeads, err = count(ctx, ex, fresh); err != nil {
		return ov, errors.Wrap(err, "counting new leads")
	}

	var rows []struct {
		Kind  string `db:"kind"`
		Count int    `db:"n"`
	}
	byKind := sq.Select("kind", "COUNT(*) AS n").From("leads").
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		GroupBy("kind")
	if err = selectx(ctx, ex, &rows, byKind); err != nil {
		return ov, errors.Wrap(err, "counting recent leads")
	}
	ov.RecentLeadsByKind = make(map[string]int, len(rows))
	for _, row := range rows {
		ov.RecentLeadsByKind[row.Kind] = row.Count
	}
	return ov, nil
}
