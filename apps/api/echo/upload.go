package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/upload"
)

var errUploadNotFound = echo.NewHTTPError(http.StatusNotFound, "upload not found")

type uploadApi struct {
	uploader *upload.Uploader
}

func registerUploadAPI(adm *echo.Group, opts *Options) {
	api := uploadApi{uploader: opts.Uploader}

	g := adm.Group("/uploads")
	g.POST("", api.create, bodyLimit(opts))
	g.DELETE("", api.destroy)
	g.GET("/:id/progress", api.progress)
}

func bodyLimit(opts *Options) echo.MiddlewareFunc {
	return middleware.BodyLimit(opts.Conf.Server.MaxUploadSize)
}

// multipartOverhead is the room left for the form fields and part headers around the file.
const multipartOverhead = upload.MiB

// kindBodyLimit caps a request body to the max size of one upload kind.
func kindBodyLimit(kind string) echo.MiddlewareFunc {
	return middleware.BodyLimit(fmt.Sprintf("%dK", (upload.Rules[kind].MaxSize+multipartOverhead)/1024))
}

// receiveFile stores the multipart "file" field. The kind comes from the "kind" form field unless forced,
// and "upload_id" optionally names the upload for progress polling.
func receiveFile(ctx echo.Context, uploader *upload.Uploader, kind ...string) (upload.File, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return upload.File{}, core.NewFieldError("file", "this field is required")
	}
	src, err := fh.Open()
	if err != nil {
		return upload.File{}, errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	in := upload.Input{
		ID:       ctx.FormValue("upload_id"),
		Kind:     ctx.FormValue("kind"),
		Filename: fh.Filename,
		Size:     fh.Size,
		Reader:   src,
	}
	if len(kind) > 0 {
		in.Kind = kind[0]
	}

	file, err := uploader.Upload(ctx.Request().Context(), in)
	if err != nil {
		return upload.File{}, errors.Wrap(err, "uploading file")
	}
	return file, nil
}

// Handlers

func (api *uploadApi) create(ctx echo.Context) error {
	file, err := receiveFile(ctx, api.uploader)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, file)
}

func (api *uploadApi) progress(ctx echo.Context) error {
	prog, ok := api.uploader.Progress(ctx.Param("id"))
	if !ok {
		return errUploadNotFound
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *uploadApi) destroy(ctx echo.Context) error {
	if err := api.uploader.Delete(ctx.Request().Context(), ctx.QueryParam("key")); err != nil {
		return errors.Wrap(err, "deleting upload")
	}
	return ctx.NoContent(http.StatusNoContent)
}
