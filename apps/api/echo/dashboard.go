package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core/dashboard"
)

type dashboardApi struct {
	svc dashboard.Service
}

func registerDashboardAPI(adm *echo.Group, opts *Options) {
	api := dashboardApi{svc: opts.DashboardSvc}
	adm.GET("/dashboard", api.overview)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	ov, err := api.svc.Overview(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building dashboard overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}
