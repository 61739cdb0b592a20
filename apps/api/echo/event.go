package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/event"
)

type eventApi struct {
	svc      event.Service
	validate *validator.Validate
}

func registerEventAPI(public, adm *echo.Group, opts *Options) {
	api := eventApi{svc: opts.EventSvc, validate: opts.Validate}

	pg := public.Group("/events")
	pg.GET("", api.publicQuery)
	pg.GET("/:slug", api.publicRetrieve)

	ag := adm.Group("/events")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.DELETE("", api.destroyMultiple)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *eventApi) publicQuery(ctx echo.Context) error {
	filter := new(event.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	if filter.When == "" {
		filter.When = event.WhenUpcoming
	}
	filter.Clean()
	filter.Published = boolPtr(true)

	evts, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, evts)
}

func (api *eventApi) publicRetrieve(ctx echo.Context) error {
	evt, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"), true /* publishedOnly */)
	if err != nil {
		return errors.Wrap(err, "finding event by slug")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) query(ctx echo.Context) error {
	filter := new(event.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	evts, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, evts)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.EventInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding event by ID")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data event.EventInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return ctx.NoContent(http.StatusNoContent)
}
