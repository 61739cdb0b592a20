package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/export"
	"github.com/trezcool/nyumba/core/lead"
)

var leadColumns = []string{
	"id", "kind", "name", "email", "phone", "message", "property_id", "event_id", "budget", "nationality",
	"id_number", "occupation", "source_of_funds", "document_key", "page", "preferred_contact", "status", "notes",
	"created_at", "updated_at",
}

type leadRow struct {
	ID               string       `db:"id"`
	Kind             string       `db:"kind"`
	Name             string       `db:"name"`
	Email            string       `db:"email"`
	Phone            string       `db:"phone"`
	Message          string       `db:"message"`
	PropertyID       null.String  `db:"property_id"`
	EventID          null.String  `db:"event_id"`
	Budget           null.Float64 `db:"budget"`
	Nationality      string       `db:"nationality"`
	IDNumber         string       `db:"id_number"`
	Occupation       string       `db:"occupation"`
	SourceOfFunds    string       `db:"source_of_funds"`
	DocumentKey      string       `db:"document_key"`
	Page             string       `db:"page"`
	PreferredContact string       `db:"preferred_contact"`
	Status           string       `db:"status"`
	Notes            string       `db:"notes"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

func boilLead(ld lead.Lead) leadRow {
	return leadRow{
		ID:               ld.ID,
		Kind:             ld.Kind,
		Name:             ld.Name,
		Email:            ld.Email,
		Phone:            ld.Phone,
		Message:          ld.Message,
		PropertyID:       null.StringFromPtr(ld.PropertyID),
		EventID:          null.StringFromPtr(ld.EventID),
		Budget:           null.Float64FromPtr(ld.Budget),
		Nationality:      ld.Nationality,
		IDNumber:         ld.IDNumber,
		Occupation:       ld.Occupation,
		SourceOfFunds:    ld.SourceOfFunds,
		DocumentKey:      ld.DocumentKey,
		Page:             ld.Page,
		PreferredContact: ld.PreferredContact,
		Status:           ld.Status,
		Notes:            ld.Notes,
		CreatedAt:        ld.CreatedAt.UTC(),
		UpdatedAt:        ld.UpdatedAt.UTC(),
	}
}

func (row leadRow) unboil() lead.Lead {
	return lead.Lead{
		ID:               row.ID,
		Kind:             row.Kind,
		Name:             row.Name,
		Email:            row.Email,
		Phone:            row.Phone,
		Message:          row.Message,
		PropertyID:       row.PropertyID.Ptr(),
		EventID:          row.EventID.Ptr(),
		Budget:           row.Budget.Ptr(),
		Nationality:      row.Nationality,
		IDNumber:         row.IDNumber,
		Occupation:       row.Occupation,
		SourceOfFunds:    row.SourceOfFunds,
		DocumentKey:      row.DocumentKey,
		Page:             row.Page,
		PreferredContact: row.PreferredContact,
		Status:           row.Status,
		Notes:            row.Notes,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
}

func (row leadRow) values() map[string]interface{} {
	return map[string]interface{}{
		"kind":              row.Kind,
		"name":              row.Name,
		"email":             row.Email,
		"phone":             row.Phone,
		"message":           row.Message,
		"property_id":       row.PropertyID,
		"event_id":          row.EventID,
		"budget":            row.Budget,
		"nationality":       row.Nationality,
		"id_number":         row.IDNumber,
		"occupation":        row.Occupation,
		"source_of_funds":   row.SourceOfFunds,
		"document_key":      row.DocumentKey,
		"page":              row.Page,
		"preferred_contact": row.PreferredContact,
		"status":            row.Status,
		"notes":             row.Notes,
		"created_at":        row.CreatedAt,
		"updated_at":        row.UpdatedAt,
	}
}

var subscriberColumns = []string{"id", "email", "name", "source", "subscribed", "created_at", "updated_at"}

type subscriberRow struct {
	ID         string    `db:"id"`
	Email      string    `db:"email"`
	Name       string    `db:"name"`
	Source     string    `db:"source"`
	Subscribed bool      `db:"subscribed"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func boilSubscriber(sub lead.Subscriber) subscriberRow {
	return subscriberRow{
		ID:         sub.ID,
		Email:      sub.Email,
		Name:       sub.Name,
		Source:     sub.Source,
		Subscribed: sub.Subscribed,
		CreatedAt:  sub.CreatedAt.UTC(),
		UpdatedAt:  sub.UpdatedAt.UTC(),
	}
}

func (row subscriberRow) unboil() lead.Subscriber {
	return lead.Subscriber{
		ID:         row.ID,
		Email:      row.Email,
		Name:       row.Name,
		Source:     row.Source,
		Subscribed: row.Subscribed,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func (row subscriberRow) values() map[string]interface{} {
	return map[string]interface{}{
		"email":      row.Email,
		"name":       row.Name,
		"source":     row.Source,
		"subscribed": row.Subscribed,
		"created_at": row.CreatedAt,
		"updated_at": row.UpdatedAt,
	}
}

type leadRepository struct {
	baseRepository
}

var _ lead.Repository = (*leadRepository)(nil) // interface compliance check

func NewLeadRepository(exec core.DBExecutor) *leadRepository {
	return &leadRepository{baseRepository{exec: exec}}
}

func (repo *leadRepository) PropertyExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	found, err := idExists(ctx, repo.getExec(exec), "properties", id)
	return found, errors.Wrap(err, "checking property")
}

func (repo *leadRepository) EventExists(ctx context.Context, id string, exec ...core.DBExecutor) (bool, error) {
	found, err := idExists(ctx, repo.getExec(exec), "events", id)
	return found, errors.Wrap(err, "checking event")
}

func (repo *leadRepository) CreateLead(ctx context.Context, ld lead.Lead, exec ...core.DBExecutor) (lead.Lead, error) {
	ld.ID = uuid.NewString()
	row := boilLead(ld)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("leads").SetMap(vals)); err != nil {
		return lead.Lead{}, errors.Wrap(err, "inserting lead")
	}
	return row.unboil(), nil
}

func leadConditions(filter *lead.QueryFilter) (sq.And, error) {
	conds := sq.And{}
	if filter == nil {
		return conds, nil
	}
	if filter.Search != "" {
		conds = append(conds, search(filter.Search, "name", "email", "phone", "message"))
	}
	if filter.Kind != "" {
		conds = append(conds, sq.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		conds = append(conds, sq.Eq{"status": filter.Status})
	}
	preds, err := export.Filter{
		From:      filter.From,
		To:        filter.To,
		MinAmount: filter.MinBudget,
		MaxAmount: filter.MaxBudget,
	}.Predicates("created_at", "budget")
	if err != nil {
		return nil, err
	}
	return append(conds, predicates(preds)...), nil
}

func (repo *leadRepository) QueryLeads(ctx context.Context, filter *lead.QueryFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]lead.Lead, int, error) {
	conds, err := leadConditions(filter)
	if err != nil {
		return nil, 0, err
	}
	b := sq.Select().From("leads")
	if len(conds) > 0 {
		b = b.Where(conds)
	}

	var rows []leadRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, leadColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting leads")
	}
	leads := make([]lead.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, row.unboil())
	}
	return leads, total, nil
}

func (repo *leadRepository) GetLead(ctx context.Context, id string, exec ...core.DBExecutor) (lead.Lead, error) {
	if !validID(id) {
		return lead.Lead{}, lead.ErrNotFound
	}
	var row leadRow
	b := sq.Select(leadColumns...).From("leads").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return lead.Lead{}, trapNoRowsErr(err, lead.ErrNotFound, "selecting lead")
	}
	return row.unboil(), nil
}

func (repo *leadRepository) UpdateLead(ctx context.Context, ld lead.Lead, exec ...core.DBExecutor) (lead.Lead, error) {
	row := boilLead(ld)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("leads").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return lead.Lead{}, errors.Wrap(err, "updating lead")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lead.Lead{}, lead.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo *leadRepository) DeleteLeadsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "leads", ids)
}

func (repo *leadRepository) LeadContacts(ctx context.Context, exec ...core.DBExecutor) ([]lead.Lead, error) {
	var rows []struct {
		Email string `db:"email"`
		Name  string `db:"name"`
	}
	b := sq.Select("email", "MAX(name) AS name").From("leads").GroupBy("email").OrderBy("email ASC")
	if err := selectx(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting lead contacts")
	}
	leads := make([]lead.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, lead.Lead{Email: row.Email, Name: row.Name})
	}
	return leads, nil
}

func (repo *leadRepository) GetSubscriberByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (lead.Subscriber, error) {
	var row subscriberRow
	b := sq.Select(subscriberColumns...).From("subscribers").Where(sq.Eq{"email": email})
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return lead.Subscriber{}, trapNoRowsErr(err, lead.ErrSubscriberNotFound, "selecting subscriber")
	}
	return row.unboil(), nil
}

func (repo *leadRepository) CreateSubscriber(ctx context.Context, sub lead.Subscriber, exec ...core.DBExecutor) (lead.Subscriber, error) {
	sub.ID = uuid.NewString()
	row := boilSubscriber(sub)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("subscribers").SetMap(vals)); err != nil {
		return lead.Subscriber{}, errors.Wrap(err, "inserting subscriber")
	}
	return row.unboil(), nil
}

func (repo *leadRepository) UpdateSubscriber(ctx context.Context, sub lead.Subscriber, exec ...core.DBExecutor) (lead.Subscriber, error) {
	row := boilSubscriber(sub)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("subscribers").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return lead.Subscriber{}, errors.Wrap(err, "updating subscriber")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return lead.Subscriber{}, lead.ErrSubscriberNotFound
	}
	return row.unboil(), nil
}

func subscriberConditions(filter *lead.SubscriberFilter) (sq.And, error) {
	conds := sq.And{}
	if filter == nil {
		return conds, nil
	}
	if filter.Search != "" {
		conds = append(conds, search(filter.Search, "email", "name"))
	}
	if filter.Subscribed != nil {
		conds = append(conds, sq.Eq{"subscribed": *filter.Subscribed})
	}
	preds, err := export.Filter{From: filter.From, To: filter.To}.Predicates("created_at", "")
	if err != nil {
		return nil, err
	}
	return append(conds, predicates(preds)...), nil
}

func (repo *leadRepository) QuerySubscribers(ctx context.Context, filter *lead.SubscriberFilter, ordering []core.DBOrdering, pg core.Page, exec ...core.DBExecutor) ([]lead.Subscriber, int, error) {
	conds, err := subscriberConditions(filter)
	if err != nil {
		return nil, 0, err
	}
	b := sq.Select().From("subscribers")
	if len(conds) > 0 {
		b = b.Where(conds)
	}

	var rows []subscriberRow
	total, err := paginate(ctx, repo.getExec(exec), &rows, b, subscriberColumns, ordering, pg)
	if err != nil {
		return nil, 0, errors.Wrap(err, "selecting subscribers")
	}
	subs := make([]lead.Subscriber, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unboil())
	}
	return subs, total, nil
}

func (repo *leadRepository) DeleteSubscribersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "subscribers", ids)
}
