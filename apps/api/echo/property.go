package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/property"
)

type propertyApi struct {
	svc      property.Service
	validate *validator.Validate
}

func registerPropertyAPI(public, adm *echo.Group, opts *Options) {
	api := propertyApi{svc: opts.PropertySvc, validate: opts.Validate}

	pg := public.Group("/properties")
	pg.GET("", api.publicQuery)
	pg.GET("/:slug", api.publicRetrieve)

	ag := adm.Group("/properties")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.DELETE("", api.destroyMultiple)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.PATCH("/:id/flags", api.setFlags)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *propertyApi) publicQuery(ctx echo.Context) error {
	filter := new(property.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	if err := filter.Clean(); err != nil {
		return err
	}
	filter.Published = boolPtr(true)

	props, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying properties")
	}
	return ctx.JSON(http.StatusOK, props)
}

func (api *propertyApi) publicRetrieve(ctx echo.Context) error {
	prop, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"), true /* publishedOnly */)
	if err != nil {
		return errors.Wrap(err, "finding property by slug")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *propertyApi) query(ctx echo.Context) error {
	filter := new(property.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	if err := filter.Clean(); err != nil {
		return err
	}

	props, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying properties")
	}
	return ctx.JSON(http.StatusOK, props)
}

func (api *propertyApi) create(ctx echo.Context) error {
	var data property.PropertyInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PropertyInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prop, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating property")
	}
	return ctx.JSON(http.StatusCreated, prop)
}

func (api *propertyApi) retrieve(ctx echo.Context) error {
	prop, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding property by ID")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *propertyApi) update(ctx echo.Context) error {
	var data property.PropertyInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PropertyInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prop, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating property")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *propertyApi) setFlags(ctx echo.Context) error {
	var data property.Flags
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Flags")
	}

	prop, err := api.svc.SetFlags(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting property flags")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *propertyApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting property")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *propertyApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting properties")
	}
	return ctx.NoContent(http.StatusNoContent)
}
