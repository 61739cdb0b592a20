package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/admin"
)

type adminApi struct {
	svc admin.Service
}

// registerAdminAPI mounts the account management endpoints. g must be guarded by superadminMiddleware.
func registerAdminAPI(g *echo.Group, opts *Options) {
	api := adminApi{svc: opts.AdminSvc}

	g.GET("", api.query)
	g.DELETE("", api.destroyMultiple)
	g.GET("/:id", api.retrieve)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/approve", api.setApproval(true))
	g.POST("/:id/revoke", api.setApproval(false))
	g.POST("/:id/promote", api.setSuperadmin(true))
	g.POST("/:id/demote", api.setSuperadmin(false))
}

// trapSelfChange turns admin.ErrSelfChange into a 403.
func trapSelfChange(err error, msg string) error {
	if errors.Is(err, admin.ErrSelfChange) {
		return echo.NewHTTPError(http.StatusForbidden, admin.ErrSelfChange.Error())
	}
	return errors.Wrap(err, msg)
}

// Handlers

func (api *adminApi) query(ctx echo.Context) error {
	filter := new(admin.QueryFilter)
	if err := new(echo.DefaultBinder).BindQueryParams(ctx, filter); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	admins, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying admins")
	}
	if admins == nil {
		admins = []admin.Admin{}
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *adminApi) retrieve(ctx echo.Context) error {
	adm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding admin by ID")
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *adminApi) setApproval(approved bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextAdmin(ctx, api.svc)
		if err != nil {
			return err
		}
		adm, err := api.svc.SetApproval(ctx.Request().Context(), actor, ctx.Param("id"), approved)
		if err != nil {
			return trapSelfChange(err, "setting approval")
		}
		return ctx.JSON(http.StatusOK, adm)
	}
}

func (api *adminApi) setSuperadmin(superadmin bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextAdmin(ctx, api.svc)
		if err != nil {
			return err
		}
		adm, err := api.svc.SetSuperadmin(ctx.Request().Context(), actor, ctx.Param("id"), superadmin)
		if err != nil {
			return trapSelfChange(err, "setting superadmin")
		}
		return ctx.JSON(http.StatusOK, adm)
	}
}

func (api *adminApi) destroy(ctx echo.Context) error {
	actor, err := getContextAdmin(ctx, api.svc)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return trapSelfChange(err, "deleting admin")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	actor, err := getContextAdmin(ctx, api.svc)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), actor, query.IDs...); err != nil {
		return trapSelfChange(err, "deleting admins")
	}
	return ctx.NoContent(http.StatusNoContent)
}
