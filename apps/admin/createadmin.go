package main

import (
	"context"
	"time"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
)

// createAdmin updates or creates an approved admin.Admin
func (cli *commandLine) createAdmin(ctx context.Context, name, email, pwd string, superadmin bool) (admin.Admin, error) {
	email = core.CleanString(email, true /* lower */)
	if name = core.CleanString(name); name == "" {
		name = email
	}
	now := time.Now().UTC()

	adm, err := cli.adminRepo.GetAdmin(ctx, admin.GetFilter{Email: email})
	found := err == nil
	if err != nil {
		if !core.IsNotFound(err) {
			return admin.Admin{}, err
		}
		adm = admin.Admin{Email: email, CreatedAt: now}
	}
	adm.Name = name
	adm.IsApproved = true
	if superadmin {
		adm.IsSuperadmin = true
	}
	adm.UpdatedAt = now
	if err := adm.SetPassword(pwd); err != nil {
		return admin.Admin{}, err
	}

	if found {
		return cli.adminRepo.UpdateAdmin(ctx, adm)
	}
	return cli.adminRepo.CreateAdmin(ctx, adm)
}
