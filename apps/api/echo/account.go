package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
)

type authApi struct {
	conf       *core.Config
	logger     core.Logger
	svc        admin.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, jwt, approved echo.MiddlewareFunc, opts *Options) {
	api := authApi{
		conf:       opts.Conf,
		logger:     opts.Logger,
		svc:        opts.AdminSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	// un-authed endpoints
	// TODO: rate limit `/login`, `/password-reset` & `/password-reset-confirm`
	g.POST("/signup", api.signUp)
	g.POST("/login", api.login)
	g.POST("/password-reset", api.resetPassword)
	g.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	g.POST("/token-refresh", api.refreshToken, jwt)
	g.GET("/me", api.me, jwt, approved)
	g.PUT("/me", api.updateMe, jwt, approved)
}

// Handlers

func (api *authApi) signUp(ctx echo.Context) error {
	var data admin.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	adm, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, adm)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), api.conf, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data admin.ResetAdminPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetAdminPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *authApi) me(ctx echo.Context) error {
	adm, err := getContextAdmin(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *authApi) updateMe(ctx echo.Context) error {
	adm, err := getContextAdmin(ctx, api.svc)
	if err != nil {
		return err
	}

	var data admin.UpdateAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAdmin")
	}
	if err := data.Validate(ctx.Request().Context(), adm, api.validate, api.svc); err != nil {
		return err
	}

	if adm, err = api.svc.Update(ctx.Request().Context(), adm.ID, data); err != nil {
		return errors.Wrap(err, "updating admin")
	}
	return ctx.JSON(http.StatusOK, adm)
}
