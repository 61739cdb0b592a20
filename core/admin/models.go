package admin

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/nyumba/core"
)

// Admin is a back office account. A freshly signed up Admin cannot access the back office until approved.
type Admin struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	IsApproved   bool       `json:"is_approved"`
	IsSuperadmin bool       `json:"is_superadmin"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (adm *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	adm.PasswordHash = hash
	return nil
}

func (adm *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(adm.PasswordHash, []byte(pwd))
}

func (adm Admin) LogIdentity() (id, username, email string) {
	return adm.ID, adm.Name, adm.Email
}

// NewAdmin contains information needed to sign up.
type NewAdmin struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAdmin) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, na.Email)
}

// UpdateAdmin defines what information may be provided to modify an existing Admin.
type UpdateAdmin struct {
	Name            string `json:"name" validate:"max=120"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (ua *UpdateAdmin) Validate(ctx context.Context, orig Admin, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(ua.Name); name != "" {
		ua.Name = name
	} else {
		ua.Name = orig.Name
	}
	if email := core.CleanString(ua.Email, true /* lower */); email != "" {
		ua.Email = email
	} else {
		ua.Email = orig.Email
	}

	if err := validate.Struct(ua); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ua.Email, orig)
}

type ResetAdminPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetAdminPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search       string `query:"search"`
	IsApproved   *bool  `query:"is_approved"`
	IsSuperadmin *bool  `query:"is_superadmin"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single Admin; the first non-empty field wins.
type GetFilter struct {
	ID    string
	Email string
}

// OrderingFields maps API ordering fields to columns.
var OrderingFields = map[string]string{
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
	"last_login": "last_login",
}
