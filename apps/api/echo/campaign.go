package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/campaign"
)

type campaignApi struct {
	svc      campaign.Service
	validate *validator.Validate
}

func registerCampaignAPI(adm *echo.Group, opts *Options) {
	api := campaignApi{svc: opts.CampaignSvc, validate: opts.Validate}

	g := adm.Group("/campaigns")
	g.GET("", api.query)
	g.POST("", api.create)
	g.DELETE("", api.destroyMultiple)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/schedule", api.schedule)
	g.POST("/:id/send", api.send)
}

// Handlers

func (api *campaignApi) query(ctx echo.Context) error {
	filter := new(campaign.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	cpns, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying campaigns")
	}
	return ctx.JSON(http.StatusOK, cpns)
}

func (api *campaignApi) create(ctx echo.Context) error {
	var data campaign.CampaignInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CampaignInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cpn, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating campaign")
	}
	return ctx.JSON(http.StatusCreated, cpn)
}

func (api *campaignApi) retrieve(ctx echo.Context) error {
	cpn, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding campaign by ID")
	}
	return ctx.JSON(http.StatusOK, cpn)
}

func (api *campaignApi) update(ctx echo.Context) error {
	var data campaign.CampaignInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CampaignInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cpn, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating campaign")
	}
	return ctx.JSON(http.StatusOK, cpn)
}

func (api *campaignApi) schedule(ctx echo.Context) error {
	var data campaign.ScheduleInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleInput")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	cpn, err := api.svc.Schedule(ctx.Request().Context(), ctx.Param("id"), data.At)
	if err != nil {
		return errors.Wrap(err, "scheduling campaign")
	}
	return ctx.JSON(http.StatusOK, cpn)
}

func (api *campaignApi) send(ctx echo.Context) error {
	cpn, err := api.svc.Send(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "sending campaign")
	}
	return ctx.JSON(http.StatusOK, cpn)
}

func (api *campaignApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting campaign")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *campaignApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting campaigns")
	}
	return ctx.NoContent(http.StatusNoContent)
}
