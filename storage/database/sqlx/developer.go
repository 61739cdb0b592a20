package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/developer"
)

var developerColumns = []string{
	"id", "name", "slug", "description", "logo_key", "website", "email", "phone", "published", "created_at", "updated_at",
}

type developerRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	LogoKey     string    `db:"logo_key"`
	Website     string    `db:"website"`
	Email       string    `db:"email"`
	Phone       string    `db:"phone"`
	Published   bool      `db:"published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func boilDeveloper(dev developer.Developer) developerRow {
	return developerRow{
		ID:          dev.ID,
		Name:        dev.Name,
		Slug:        dev.Slug,
		Description: dev.Description,
		LogoKey:     dev.LogoKey,
		Website:     dev.Website,
		Email:       dev.Email,
		Phone:       dev.Phone,
		Published:   dev.Published,
		CreatedAt:   dev.CreatedAt.UTC(),
		UpdatedAt:   dev.UpdatedAt.UTC(),
	}
}

func (row developerRow) unboil() developer.Developer {
	return developer.Developer{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Description: row.Description,
		LogoKey:     row.LogoKey,
		Website:     row.Website,
		Email:       row.Email,
		Phone:       row.Phone,
		Published:   row.Published,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (row developerRow) values() map[string]interface{} {
	return map[string]interface{}{
		"name":        row.Name,
		"slug":        row.Slug,
		"description": row.Description,
		"logo_key":    row.LogoKey,
		"website":     row.Website,
		"email":       row.Email,
		"phone":       row.Phone,
		"published":   row.Published,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}

type developerRepository struct {
	baseRepository
}

var _ developer.Repository = (*developerRepository)(nil) // interface compliance check

func NewDeveloperRepository(exec core.DBExecutor) *developerRepository {
	return &developerRepository{baseRepository{exec: exec}}
}

func (repo *developerRepository) SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error) {
	found, err := slugExists(ctx, repo.getExec(exec), "developers", slug, excludedID)
	return found, errors.Wrap(err, "checking developer slug")
}

func (repo *developerRepository) CreateDeveloper(ctx context.Context, dev developer.Developer, exec ...core.DBExecutor) (developer.Developer, error) {
	dev.ID = uuid.NewString()
	row := boilDeveloper(dev)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("developers").SetMap(vals)); err != nil {
		return developer.Developer{}, errors.Wrap(err, "inserting developer")
	}
	return row.unboil(), nil
}

func (repo *developerRepository) QueryDevelopers(ctx context.Context, filter *developer.QueryFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]developer.Developer, int, error) {
	b := sq.Select().From("developers")
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(search(filter.Search, "name", "description"))
		}
		if filter.Published != nil {
			b = b.Where(sq.Eq{"published": *filter.Published})
		}
	}

	var rows []developerRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, developerColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting developers")
	}
	devs := make([]developer.Developer, 0, len(rows))
	for _, row := range rows {
		devs = append(devs, row.unboil())
	}
	return devs, total, nil
}

func (repo *developerRepository) GetDeveloper(ctx context.Context, filter developer.GetFilter, exec ...core.DBExecutor) (developer.Developer, error) {
	b := sq.Select(developerColumns...).From("developers")
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return developer.Developer{}, developer.ErrNotFound
		}
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Slug != "":
		b = b.Where(sq.Eq{"slug": filter.Slug})
	default:
		return developer.Developer{}, developer.ErrNotFound
	}
	if filter.PublishedOnly {
		b = b.Where(sq.Eq{"published": true})
	}

	var row developerRow
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return developer.Developer{}, trapNoRowsErr(err, developer.ErrNotFound, "selecting developer")
	}
	return row.unboil(), nil
}

func (repo *developerRepository) UpdateDeveloper(ctx context.Context, dev developer.Developer, exec ...core.DBExecutor) (developer.Developer, error) {
	row := boilDeveloper(dev)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("developers").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return developer.Developer{}, errors.Wrap(err, "updating developer")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return developer.Developer{}, developer.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo *developerRepository) DeleteDevelopersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "developers", ids)
}
