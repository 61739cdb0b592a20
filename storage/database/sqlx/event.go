package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/event"
)

var eventColumns = []string{
	"id", "title", "slug", "description", "location", "starts_at", "ends_at", "cover_image_key",
	"registration_url", "published", "created_at", "updated_at",
}

type eventRow struct {
	ID              string    `db:"id"`
	Title           string    `db:"title"`
	Slug            string    `db:"slug"`
	Description     string    `db:"description"`
	Location        string    `db:"location"`
	StartsAt        time.Time `db:"starts_at"`
	EndsAt          time.Time `db:"ends_at"`
	CoverImageKey   string    `db:"cover_image_key"`
	RegistrationURL string    `db:"registration_url"`
	Published       bool      `db:"published"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func boilEvent(evt event.Event) eventRow {
	return eventRow{
		ID:              evt.ID,
		Title:           evt.Title,
		Slug:            evt.Slug,
		Description:     evt.Description,
		Location:        evt.Location,
		StartsAt:        evt.StartsAt.UTC(),
		EndsAt:          evt.EndsAt.UTC(),
		CoverImageKey:   evt.CoverImageKey,
		RegistrationURL: evt.RegistrationURL,
		Published:       evt.Published,
		CreatedAt:       evt.CreatedAt.UTC(),
		UpdatedAt:       evt.UpdatedAt.UTC(),
	}
}

func (row eventRow) unboil() event.Event {
	return event.Event{
		ID:              row.ID,
		Title:           row.Title,
		Slug:            row.Slug,
		Description:     row.Description,
		Location:        row.Location,
		StartsAt:        row.StartsAt.UTC(),
		EndsAt:          row.EndsAt.UTC(),
		CoverImageKey:   row.CoverImageKey,
		RegistrationURL: row.RegistrationURL,
		Published:       row.Published,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func (row eventRow) values() map[string]interface{} {
	return map[string]interface{}{
		"title":            row.Title,
		"slug":             row.Slug,
		"description":      row.Description,
		"location":         row.Location,
		"starts_at":        row.StartsAt,
		"ends_at":          row.EndsAt,
		"cover_image_key":  row.CoverImageKey,
		"registration_url": row.RegistrationURL,
		"published":        row.Published,
		"created_at":       row.CreatedAt,
		"updated_at":       row.UpdatedAt,
	}
}

type eventRepository struct {
	baseRepository
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(exec core.DBExecutor) *eventRepository {
	return &eventRepository{baseRepository{exec: exec}}
}

func (repo *eventRepository) SlugExists(ctx context.Context, slug, excludedID string, exec ...core.DBExecutor) (bool, error) {
	found, err := slugExists(ctx, repo.getExec(exec), "events", slug, excludedID)
	return found, errors.Wrap(err, "checking event slug")
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	evt.ID = uuid.NewString()
	row := boilEvent(evt)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("events").SetMap(vals)); err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return row.unboil(), nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter *event.QueryFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]event.Event, int, error) {
	b := sq.Select().From("events")
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(search(filter.Search, "title", "location", "description"))
		}
		switch filter.When {
		case event.WhenUpcoming:
			b = b.Where(sq.GtOrEq{"ends_at": filter.Now.UTC()})
		case event.WhenPast:
			b = b.Where(sq.Lt{"ends_at": filter.Now.UTC()})
		}
		if filter.Published != nil {
			b = b.Where(sq.Eq{"published": *filter.Published})
		}
	}

	var rows []eventRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, eventColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting events")
	}
	evts := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		evts = append(evts, row.unboil())
	}
	return evts, total, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, filter event.GetFilter, exec ...core.DBExecutor) (event.Event, error) {
	b := sq.Select(eventColumns...).From("events")
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return event.Event{}, event.ErrNotFound
		}
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Slug != "":
		b = b.Where(sq.Eq{"slug": filter.Slug})
	default:
		return event.Event{}, event.ErrNotFound
	}
	if filter.PublishedOnly {
		b = b.Where(sq.Eq{"published": true})
	}

	var row eventRow
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "selecting event")
	}
	return row.unboil(), nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	row := boilEvent(evt)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("events").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "events", ids)
}
