package main

import (
	"context"
	"time"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	adm, err := cli.adminRepo.GetAdmin(ctx, admin.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if err := adm.SetPassword(pwd); err != nil {
		return err
	}
	adm.UpdatedAt = time.Now().UTC()
	if _, err := cli.adminRepo.UpdateAdmin(ctx, adm); err != nil {
		return err
	}
	return nil
}

func (cli *commandLine) approve(ctx context.Context, email string) error {
	adm, err := cli.adminRepo.GetAdmin(ctx, admin.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if adm.IsApproved {
		return nil
	}
	adm.IsApproved = true
	adm.UpdatedAt = time.Now().UTC()
	_, err = cli.adminRepo.UpdateAdmin(ctx, adm)
	return err
}
