package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/blog"
)

type blogApi struct {
	svc      blog.Service
	validate *validator.Validate
}

func registerBlogAPI(public, adm *echo.Group, opts *Options) {
	api := blogApi{svc: opts.BlogSvc, validate: opts.Validate}

	pg := public.Group("/posts")
	pg.GET("", api.publicQuery)
	pg.GET("/:slug", api.publicRetrieve)

	ag := adm.Group("/posts")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.DELETE("", api.destroyMultiple)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *blogApi) publicQuery(ctx echo.Context) error {
	filter := new(blog.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()
	filter.Published = boolPtr(true)

	posts, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *blogApi) publicRetrieve(ctx echo.Context) error {
	post, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"), true /* publishedOnly */)
	if err != nil {
		return errors.Wrap(err, "finding post by slug")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *blogApi) query(ctx echo.Context) error {
	filter := new(blog.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	posts, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *blogApi) create(ctx echo.Context) error {
	var data blog.PostInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PostInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *blogApi) retrieve(ctx echo.Context) error {
	post, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding post by ID")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *blogApi) update(ctx echo.Context) error {
	var data blog.PostInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PostInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *blogApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *blogApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting posts")
	}
	return ctx.NoContent(http.StatusNoContent)
}
