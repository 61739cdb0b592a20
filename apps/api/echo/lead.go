package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/core/upload"
)

type leadApi struct {
	svc      lead.Service
	uploader *upload.Uploader
	validate *validator.Validate
}

func registerLeadAPI(public, adm *echo.Group, opts *Options) {
	api := leadApi{svc: opts.LeadSvc, uploader: opts.Uploader, validate: opts.Validate}

	// TODO: rate limit & captcha on public forms
	fg := public.Group("/forms")
	fg.POST("/newsletter", api.subscribe)
	fg.POST("/newsletter/unsubscribe", api.unsubscribe)
	fg.POST("/kyc/document", api.uploadDocument, kindBodyLimit(upload.KindDocument))
	fg.POST("/:kind", api.submit)

	lg := adm.Group("/leads")
	lg.GET("", api.query)
	lg.DELETE("", api.destroyMultiple)
	lg.GET("/:id", api.retrieve)
	lg.PATCH("/:id", api.update)
	lg.DELETE("/:id", api.destroy)

	sg := adm.Group("/subscribers")
	sg.GET("", api.querySubscribers)
	sg.DELETE("", api.destroySubscribers)
}

// Handlers

func (api *leadApi) submit(ctx echo.Context) error {
	var data lead.LeadInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LeadInput")
	}
	data.Kind = ctx.Param("kind")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ld, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting lead")
	}
	return ctx.JSON(http.StatusCreated, ld)
}

func (api *leadApi) uploadDocument(ctx echo.Context) error {
	file, err := receiveFile(ctx, api.uploader, upload.KindDocument)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, file)
}

func (api *leadApi) subscribe(ctx echo.Context) error {
	var data lead.SubscribeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubscribeInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Subscribe(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "subscribing")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *leadApi) unsubscribe(ctx echo.Context) error {
	var data lead.UnsubscribeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UnsubscribeInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Unsubscribe(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "unsubscribing")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "You have been unsubscribed."})
}

func (api *leadApi) query(ctx echo.Context) error {
	page, ordering, err := listParams(ctx, nil)
	if err != nil {
		return err
	}
	rng, err := bindRange(ctx, "min_budget", "max_budget")
	if err != nil {
		return err
	}
	if _, err := rng.Filter(); err != nil {
		return err
	}
	filter := &lead.QueryFilter{
		Search:    ctx.QueryParam("search"),
		Kind:      ctx.QueryParam("kind"),
		Status:    ctx.QueryParam("status"),
		From:      rng.From,
		To:        rng.To,
		MinBudget: rng.MinAmount,
		MaxBudget: rng.MaxAmount,
	}
	filter.Clean()

	lds, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying leads")
	}
	return ctx.JSON(http.StatusOK, lds)
}

func (api *leadApi) retrieve(ctx echo.Context) error {
	ld, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lead by ID")
	}
	return ctx.JSON(http.StatusOK, ld)
}

func (api *leadApi) update(ctx echo.Context) error {
	var data lead.LeadUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LeadUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ld, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lead")
	}
	return ctx.JSON(http.StatusOK, ld)
}

func (api *leadApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lead")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *leadApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting leads")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *leadApi) querySubscribers(ctx echo.Context) error {
	filter := new(lead.SubscriberFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	rng, err := bindRange(ctx, "", "")
	if err != nil {
		return err
	}
	if _, err := rng.Filter(); err != nil {
		return err
	}
	filter.From, filter.To = rng.From, rng.To
	filter.Clean()

	subs, err := api.svc.QuerySubscribers(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying subscribers")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *leadApi) destroySubscribers(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.DeleteSubscribers(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting subscribers")
	}
	return ctx.NoContent(http.StatusNoContent)
}
