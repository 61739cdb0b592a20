package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/developer"
	"github.com/trezcool/nyumba/core/property"
)

type developerApi struct {
	svc      developer.Service
	propSvc  property.Service
	validate *validator.Validate
}

func registerDeveloperAPI(public, adm *echo.Group, opts *Options) {
	api := developerApi{svc: opts.DeveloperSvc, propSvc: opts.PropertySvc, validate: opts.Validate}

	pg := public.Group("/developers")
	pg.GET("", api.publicQuery)
	pg.GET("/:slug", api.publicRetrieve)

	ag := adm.Group("/developers")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.DELETE("", api.destroyMultiple)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// DeveloperDetail is a published developer along with its published properties.
type DeveloperDetail struct {
	Developer  developer.Developer `json:"developer"`
	Properties []property.Property `json:"properties"`
}

// Handlers

func (api *developerApi) publicQuery(ctx echo.Context) error {
	filter := new(developer.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()
	filter.Published = boolPtr(true)

	devs, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying developers")
	}
	return ctx.JSON(http.StatusOK, devs)
}

func (api *developerApi) publicRetrieve(ctx echo.Context) error {
	detail, err := developerDetail(ctx, api.svc, api.propSvc, ctx.Param("slug"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func developerDetail(ctx echo.Context, svc developer.Service, propSvc property.Service, slug string) (DeveloperDetail, error) {
	dev, err := svc.GetBySlug(ctx.Request().Context(), slug, true /* publishedOnly */)
	if err != nil {
		return DeveloperDetail{}, errors.Wrap(err, "finding developer by slug")
	}
	props, err := propSvc.Query(
		ctx.Request().Context(),
		&property.QueryFilter{DeveloperID: dev.ID, Published: boolPtr(true)},
		nil,
		core.Page{Number: 1, Size: core.MaxPageSize},
	)
	if err != nil {
		return DeveloperDetail{}, errors.Wrap(err, "querying developer properties")
	}
	return DeveloperDetail{Developer: dev, Properties: props.Results}, nil
}

func (api *developerApi) query(ctx echo.Context) error {
	filter := new(developer.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	devs, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying developers")
	}
	return ctx.JSON(http.StatusOK, devs)
}

func (api *developerApi) create(ctx echo.Context) error {
	var data developer.DeveloperInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeveloperInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	dev, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating developer")
	}
	return ctx.JSON(http.StatusCreated, dev)
}

func (api *developerApi) retrieve(ctx echo.Context) error {
	dev, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding developer by ID")
	}
	return ctx.JSON(http.StatusOK, dev)
}

func (api *developerApi) update(ctx echo.Context) error {
	var data developer.DeveloperInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeveloperInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	dev, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating developer")
	}
	return ctx.JSON(http.StatusOK, dev)
}

func (api *developerApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting developer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *developerApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting developers")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func boolPtr(b bool) *bool { return &b }
