package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/nyumba/core/admin"
)

// approvedMiddleware must run after the jwt middleware. It loads the Admin from the DB,
// so revoked or deleted accounts are locked out before their token expires.
func approvedMiddleware(svc admin.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			adm, err := getContextAdmin(ctx, svc)
			if err != nil {
				return err
			}
			if !adm.IsApproved {
				return errPendingApproval
			}
			return next(ctx)
		}
	}
}

// superadminMiddleware must run after approvedMiddleware.
func superadminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			adm, ok := ctx.Get(adminContextKey).(admin.Admin)
			if !ok {
				return errUnauthorized
			}
			if !adm.IsSuperadmin {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
