package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/export"
)

type exportApi struct {
	svc export.Service
}

func registerExportAPI(adm *echo.Group, opts *Options) {
	api := exportApi{svc: opts.ExportSvc}
	adm.GET("/exports/:target", api.export)
}

// export answers `GET /exports/:target?format=csv|xlsx&from=&to=&min_amount=&max_amount=&kind=&status=`
// with an attachment.
func (api *exportApi) export(ctx echo.Context) error {
	rng, err := bindRange(ctx, "min_amount", "max_amount")
	if err != nil {
		return err
	}
	filter, err := rng.Filter()
	if err != nil {
		return err
	}
	filter.Kind = ctx.QueryParam("kind")
	filter.Status = ctx.QueryParam("status")

	var buf bytes.Buffer
	format := ctx.QueryParam("format")
	filename, err := api.svc.Export(ctx.Request().Context(), ctx.Param("target"), format, filter, &buf)
	if err != nil {
		return errors.Wrap(err, "exporting "+ctx.Param("target"))
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, export.ContentType(formatOf(filename)), buf.Bytes())
}

// formatOf returns the extension of an export file name.
func formatOf(filename string) string {
	return strings.TrimPrefix(filepath.Ext(filename), ".")
}
