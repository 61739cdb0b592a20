package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/export"
	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/core/property"
)

type exportRepository struct {
	baseRepository
}

var _ export.Repository = (*exportRepository)(nil) // interface compliance check

func NewExportRepository(exec core.DBExecutor) *exportRepository {
	return &exportRepository{baseRepository{exec: exec}}
}

func exportQuery(table string, columns []string, preds []export.Predicate) sq.SelectBuilder {
	b := sq.Select(columns...).From(table).OrderBy("created_at ASC", "id ASC")
	if len(preds) > 0 {
		b = b.Where(predicates(preds))
	}
	return b
}

func (repo *exportRepository) ExportLeads(ctx context.Context, preds []export.Predicate, exec ...core.DBExecutor) ([]lead.Lead, error) {
	var rows []leadRow
	if err := selectx(ctx, repo.getExec(exec), &rows, exportQuery("leads", leadColumns, preds)); err != nil {
		return nil, errors.Wrap(err, "exporting leads")
	}
	leads := make([]lead.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, row.unboil())
	}
	return leads, nil
}

func (repo *exportRepository) ExportSubscribers(ctx context.Context, preds []export.Predicate, exec ...core.DBExecutor) ([]lead.Subscriber, error) {
	var rows []subscriberRow
	if err := selectx(ctx, repo.getExec(exec), &rows, exportQuery("subscribers", subscriberColumns, preds)); err != nil {
		return nil, errors.Wrap(err, "exporting subscribers")
	}
	subs := make([]lead.Subscriber, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unboil())
	}
	return subs, nil
}

func (repo *exportRepository) ExportProperties(ctx context.Context, preds []export.Predicate, exec ...core.DBExecutor) ([]property.Property, error) {
	var rows []propertyRow
	if err := selectx(ctx, repo.getExec(exec), &rows, exportQuery("properties", propertyColumns, preds)); err != nil {
		return nil, errors.Wrap(err, "exporting properties")
	}
	props := make([]property.Property, 0, len(rows))
	for _, row := range rows {
		props = append(props, row.unboil())
	}
	return props, nil
}
