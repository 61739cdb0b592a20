package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/export"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=-created_at,name`; a leading "-" sorts descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// listParams binds the common list query params: filter (query tags), page and ordering.
func listParams(ctx echo.Context, filter interface{}) (core.Page, []core.DBOrdering, error) {
	var page core.Page
	binder := new(echo.DefaultBinder)
	if filter != nil {
		if err := binder.BindQueryParams(ctx, filter); err != nil {
			return page, nil, err
		}
	}
	if err := binder.BindQueryParams(ctx, &page); err != nil {
		return page, nil, err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	return page, ordering.Orderings, nil
}

// RangeParams are the date and amount bounds shared by lead, subscriber and export queries.
type RangeParams struct {
	From      *time.Time
	To        *time.Time
	MinAmount *float64
	MaxAmount *float64
}

// bindRange reads `from` & `to` (YYYY-MM-DD) and the amount bounds named minParam & maxParam.
func bindRange(ctx echo.Context, minParam, maxParam string) (RangeParams, error) {
	var rp RangeParams
	var from, to time.Time
	var minAmt, maxAmt float64

	b := echo.QueryParamsBinder(ctx).
		Time("from", &from, export.DateLayout).
		Time("to", &to, export.DateLayout)
	if minParam != "" {
		b = b.Float64(minParam, &minAmt).Float64(maxParam, &maxAmt)
	}
	if err := b.BindError(); err != nil {
		return rp, err
	}

	if ctx.QueryParam("from") != "" {
		rp.From = &from
	}
	if ctx.QueryParam("to") != "" {
		rp.To = &to
	}
	if minParam != "" && ctx.QueryParam(minParam) != "" {
		rp.MinAmount = &minAmt
	}
	if maxParam != "" && ctx.QueryParam(maxParam) != "" {
		rp.MaxAmount = &maxAmt
	}
	return rp, nil
}

// Filter converts the bounds to an export.Filter, rejecting inverted ranges.
func (rp RangeParams) Filter() (export.Filter, error) {
	f := export.Filter{From: rp.From, To: rp.To, MinAmount: rp.MinAmount, MaxAmount: rp.MaxAmount}
	return f, errors.WithStack(f.Validate())
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)
