package echoapi

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
)

const (
	tokenContextKey = "adminToken"
	adminContextKey = "admin"
	tokenAudience   = "BackOffice"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	IsApproved   bool   `json:"is_approved,omitempty"`
	IsSuperadmin bool   `json:"is_superadmin,omitempty"`
}

func GetAdminClaims(conf *core.Config, adm admin.Admin, origIat ...int64) *Claims {
	now := time.Now()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   adm.ID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Email:        adm.Email,
		IsApproved:   adm.IsApproved,
		IsSuperadmin: adm.IsSuperadmin,
	}
}

// GenerateToken generates a signed JWT token string representing the admin Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func newJWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: echojwt.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(Claims) },
		ErrorHandler: func(ctx echo.Context, err error) error {
			if ctx.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return errMissingToken
			}
			return errInvalidToken.WithInternal(err)
		},
	})
}

func authenticate(ctx context.Context, conf *core.Config, email, pwd string, svc admin.Service) (*Claims, error) {
	adm, err := svc.Authenticate(ctx, email, pwd)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidCreds) {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "authenticating admin")
	}
	return GetAdminClaims(conf, adm), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextAdmin loads the authenticated Admin once per request.
func getContextAdmin(ctx echo.Context, svc admin.Service) (admin.Admin, error) {
	if adm, ok := ctx.Get(adminContextKey).(admin.Admin); ok {
		return adm, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return admin.Admin{}, err
	}
	adm, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if core.IsNotFound(err) {
			return admin.Admin{}, errUnauthorized
		}
		return admin.Admin{}, errors.Wrap(err, "finding admin by ID")
	}
	ctx.Set(adminContextKey, adm)
	return adm, nil
}

func refreshToken(ctx echo.Context, conf *core.Config, svc admin.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	adm, err := getContextAdmin(ctx, svc)
	if err != nil {
		return "", err
	}
	token, err := GenerateToken(conf, GetAdminClaims(conf, adm, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
