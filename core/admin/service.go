package admin

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("admin")
	ErrEmailExists    = errors.New("an admin with this email already exists")
	ErrInvalidCreds   = errors.New("invalid credentials")
	ErrSelfChange     = errors.New("you cannot change your own access rights")
	ErrInvalidResetPw = errors.New("invalid password reset link")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded []Admin, exec ...core.DBExecutor) error
		CreateAdmin(ctx context.Context, adm Admin, exec ...core.DBExecutor) (Admin, error)
		QueryAdmins(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Admin, error)
		GetAdmin(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Admin, error)
		UpdateAdmin(ctx context.Context, adm Admin, exec ...core.DBExecutor) (Admin, error)
		SetLastLogin(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
		DeleteAdminsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email string, excluded ...Admin) error
		SignUp(ctx context.Context, na NewAdmin) (Admin, error)
		Create(ctx context.Context, na NewAdmin, approved, superadmin bool) (Admin, error)
		Authenticate(ctx context.Context, email, pwd string) (Admin, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Admin, error)
		GetByID(ctx context.Context, id string) (Admin, error)
		GetByEmail(ctx context.Context, email string) (Admin, error)
		Update(ctx context.Context, id string, ua UpdateAdmin) (Admin, error)
		SetApproval(ctx context.Context, actor Admin, id string, approved bool) (Admin, error)
		SetSuperadmin(ctx context.Context, actor Admin, id string, superadmin bool) (Admin, error)
		Delete(ctx context.Context, actor Admin, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetAdminPassword) error
	}

	service struct {
		conf     *core.Config
		logger   core.Logger
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *TokenGenerator
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(conf *core.Config, logger core.Logger, repo Repository, mailSvc core.EmailService) *service {
	return &service{
		conf:     conf,
		logger:   logger,
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: NewTokenGenerator(conf.SecretKey, conf.Server.PasswordResetTimeoutDelta),
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, email string, excluded ...Admin) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excluded); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// SignUp registers an unapproved Admin and lets the superadmins know about it.
func (svc *service) SignUp(ctx context.Context, na NewAdmin) (Admin, error) {
	adm, err := svc.Create(ctx, na, false, false)
	if err != nil {
		return Admin{}, err
	}

	supers, err := svc.repo.QueryAdmins(ctx, &QueryFilter{IsSuperadmin: boolPtr(true)}, nil)
	if err != nil {
		svc.logger.Error("admin.SignUp: querying superadmins", err)
		return adm, nil
	}
	to := make([]mail.Address, 0, len(supers))
	for _, sa := range supers {
		to = append(to, mail.Address{Name: sa.Name, Address: sa.Email})
	}
	if len(to) > 0 {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			Bcc:          to,
			Subject:      "New admin account pending approval",
			TemplateName: "admin_signup",
			TemplateData: map[string]interface{}{"Admin": adm},
		})
	}
	return adm, nil
}

func (svc *service) Create(ctx context.Context, na NewAdmin, approved, superadmin bool) (Admin, error) {
	now := time.Now().UTC()
	adm := Admin{
		Name:         na.Name,
		Email:        na.Email,
		IsApproved:   approved || superadmin,
		IsSuperadmin: superadmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := adm.SetPassword(na.Password); err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAdmin(ctx, adm)
}

// Authenticate checks the credentials and records the login.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (Admin, error) {
	adm, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return Admin{}, ErrInvalidCreds
		}
		return Admin{}, err
	}
	if err := adm.CheckPassword(pwd); err != nil {
		return Admin{}, ErrInvalidCreds
	}

	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, adm.ID, now); err != nil {
		return Admin{}, errors.Wrap(err, "setting last login")
	}
	adm.LastLogin = &now
	return adm, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Admin, error) {
	return svc.repo.QueryAdmins(ctx, filter, core.FilterOrderings(ordering, OrderingFields))
}

func (svc *service) GetByID(ctx context.Context, id string) (Admin, error) {
	return svc.repo.GetAdmin(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Admin, error) {
	return svc.repo.GetAdmin(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAdmin) (Admin, error) {
	adm, err := svc.GetByID(ctx, id)
	if err != nil {
		return Admin{}, err
	}
	if ua.Name != "" {
		adm.Name = ua.Name
	}
	if ua.Email != "" {
		adm.Email = ua.Email
	}
	if ua.Password != "" {
		if err := adm.SetPassword(ua.Password); err != nil {
			return Admin{}, errors.Wrap(err, "hashing password")
		}
	}
	adm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAdmin(ctx, adm)
}

// SetApproval approves or revokes an Admin. Newly approved admins get an email.
func (svc *service) SetApproval(ctx context.Context, actor Admin, id string, approved bool) (Admin, error) {
	if actor.ID == id {
		return Admin{}, ErrSelfChange
	}
	adm, err := svc.GetByID(ctx, id)
	if err != nil {
		return Admin{}, err
	}
	if adm.IsApproved == approved {
		return adm, nil
	}

	adm.IsApproved = approved
	adm.UpdatedAt = time.Now().UTC()
	if adm, err = svc.repo.UpdateAdmin(ctx, adm); err != nil {
		return Admin{}, err
	}
	if approved {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: adm.Name, Address: adm.Email}},
			Subject:      "Your account has been approved",
			TemplateName: "admin_approved",
			TemplateData: map[string]interface{}{"Admin": adm},
		})
	}
	return adm, nil
}

func (svc *service) SetSuperadmin(ctx context.Context, actor Admin, id string, superadmin bool) (Admin, error) {
	if actor.ID == id {
		return Admin{}, ErrSelfChange
	}
	adm, err := svc.GetByID(ctx, id)
	if err != nil {
		return Admin{}, err
	}
	adm.IsSuperadmin = superadmin
	if superadmin {
		adm.IsApproved = true
	}
	adm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAdmin(ctx, adm)
}

func (svc *service) Delete(ctx context.Context, actor Admin, ids ...string) error {
	for _, id := range ids {
		if id == actor.ID {
			return ErrSelfChange
		}
	}
	return svc.repo.DeleteAdminsByID(ctx, ids)
}

// RequestPasswordReset emails a reset link to the Admin. Unknown emails are reported as ErrNotFound.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	adm, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token := svc.tokenGen.MakeToken(adm)

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: adm.Name, Address: adm.Email}},
		Subject:      "Password reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Admin": adm,
			"UID":   EncodeUID(adm),
			"Token": token,
		},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetAdminPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(ErrInvalidResetPw)
	}
	adm, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(ErrInvalidResetPw)
		}
		return err
	}
	if err := svc.tokenGen.VerifyToken(adm, data.Token); err != nil {
		return core.NewValidationError(err)
	}

	if err := adm.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	adm.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAdmin(ctx, adm)
	return err
}

func boolPtr(b bool) *bool { return &b }
