package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
)

var adminColumns = []string{
	"id", "name", "email", "password_hash", "is_approved", "is_superadmin", "created_at", "updated_at", "last_login",
}

type adminRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	IsApproved   bool      `db:"is_approved"`
	IsSuperadmin bool      `db:"is_superadmin"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func boilAdmin(adm admin.Admin) adminRow {
	return adminRow{
		ID:           adm.ID,
		Name:         adm.Name,
		Email:        adm.Email,
		PasswordHash: string(adm.PasswordHash),
		IsApproved:   adm.IsApproved,
		IsSuperadmin: adm.IsSuperadmin,
		CreatedAt:    adm.CreatedAt.UTC(),
		UpdatedAt:    adm.UpdatedAt.UTC(),
		LastLogin:    null.TimeFromPtr(adm.LastLogin),
	}
}

func (row adminRow) unboil() admin.Admin {
	adm := admin.Admin{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: []byte(row.PasswordHash),
		IsApproved:   row.IsApproved,
		IsSuperadmin: row.IsSuperadmin,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		t := row.LastLogin.Time.UTC()
		adm.LastLogin = &t
	}
	return adm
}

func (row adminRow) values() map[string]interface{} {
	return map[string]interface{}{
		"name":          row.Name,
		"email":         row.Email,
		"password_hash": row.PasswordHash,
		"is_approved":   row.IsApproved,
		"is_superadmin": row.IsSuperadmin,
		"created_at":    row.CreatedAt,
		"updated_at":    row.UpdatedAt,
		"last_login":    row.LastLogin,
	}
}

type adminRepository struct {
	baseRepository
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(exec core.DBExecutor) *adminRepository {
	return &adminRepository{baseRepository{exec: exec}}
}

func (repo *adminRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded []admin.Admin, exec ...core.DBExecutor) error {
	b := sq.Select().From("admins").Where(sq.Eq{"email": email})
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, adm := range excluded {
			ids = append(ids, adm.ID)
		}
		b = b.Where(sq.NotEq{"id": ids})
	}
	found, err := exists(ctx, repo.getExec(exec), b)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if found {
		return admin.ErrEmailExists
	}
	return nil
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin, exec ...core.DBExecutor) (admin.Admin, error) {
	adm.ID = uuid.NewString()
	row := boilAdmin(adm)
	vals := row.values()
	vals["id"] = row.ID
	if _, err := execx(ctx, repo.getExec(exec), sq.Insert("admins").SetMap(vals)); err != nil {
		return admin.Admin{}, errors.Wrap(err, "inserting admin")
	}
	return row.unboil(), nil
}

func (repo *adminRepository) QueryAdmins(ctx context.Context, filter *admin.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]admin.Admin, error) {
	b := sq.Select(adminColumns...).From("admins").OrderBy(orderBy(ordering)...)
	if filter != nil {
		if filter.Search != "" {
			b = b.Where(search(filter.Search, "name", "email"))
		}
		if filter.IsApproved != nil {
			b = b.Where(sq.Eq{"is_approved": *filter.IsApproved})
		}
		if filter.IsSuperadmin != nil {
			b = b.Where(sq.Eq{"is_superadmin": *filter.IsSuperadmin})
		}
	}

	var rows []adminRow
	if err := selectx(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting admins")
	}
	admins := make([]admin.Admin, 0, len(rows))
	for _, row := range rows {
		admins = append(admins, row.unboil())
	}
	return admins, nil
}

func (repo *adminRepository) GetAdmin(ctx context.Context, filter admin.GetFilter, exec ...core.DBExecutor) (admin.Admin, error) {
	b := sq.Select(adminColumns...).From("admins")
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return admin.Admin{}, admin.ErrNotFound
		}
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Email != "":
		b = b.Where(sq.Eq{"email": filter.Email})
	default:
		return admin.Admin{}, admin.ErrNotFound
	}

	var row adminRow
	if err := get(ctx, repo.getExec(exec), &row, b); err != nil {
		return admin.Admin{}, trapNoRowsErr(err, admin.ErrNotFound, "selecting admin")
	}
	return row.unboil(), nil
}

func (repo *adminRepository) UpdateAdmin(ctx context.Context, adm admin.Admin, exec ...core.DBExecutor) (admin.Admin, error) {
	row := boilAdmin(adm)
	vals := row.values()
	delete(vals, "created_at")
	res, err := execx(ctx, repo.getExec(exec), sq.Update("admins").SetMap(vals).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "updating admin")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return admin.Admin{}, admin.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo *adminRepository) SetLastLogin(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	_, err := execx(ctx, repo.getExec(exec), sq.Update("admins").Set("last_login", at.UTC()).Where(sq.Eq{"id": id}))
	return errors.Wrap(err, "updating last login")
}

func (repo *adminRepository) DeleteAdminsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	return deleteByID(ctx, repo.getExec(exec), "admins", ids)
}
