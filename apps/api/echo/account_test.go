package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/nyumba/apps/api/echo"
	"github.com/trezcool/nyumba/core/admin"
	"github.com/trezcool/nyumba/services/email"
)

func Test_authApi_login(t *testing.T) {
	e := setup(t)
	approved, pending, _ := e.staff(t)

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/auth/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "this field is required", "password": "this field is required"}`),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/login",
			body:     []byte(`{"email": "ghost@test.cd", "password": "` + strongPwd + `"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body:     []byte(`{"email": "agent@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "pending admins may log in", method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{"email": "` + pending.Email + `", "password": "` + strongPwd + `"}`), wantCode: http.StatusOK,
		},
		{
			name: "email is case insensitive", method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{"email": " AGENT@test.cd ", "password": "` + strongPwd + `"}`), wantCode: http.StatusOK,
		},
	}
	runHTTPTests(t, e, tests)

	t.Run("token claims", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", []byte(`{"email": "agent@test.cd", "password": "`+strongPwd+`"}`))
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		decode(t, rec, &resp)
		claims := new(Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(e.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, approved.ID, claims.Subject)
		assert.Equal(t, approved.Email, claims.Email)
		assert.True(t, claims.IsApproved)
		assert.False(t, claims.IsSuperadmin)
		assert.Equal(t, claims.IssuedAt.Unix(), claims.OrigIssuedAt)

		got, err := e.adminRepo.GetAdmin(req.Context(), admin.GetFilter{ID: approved.ID})
		require.NoError(t, err)
		assert.NotNil(t, got.LastLogin)
	})
}

func Test_authApi_signUp(t *testing.T) {
	e := setup(t)
	_, _, super := e.staff(t)

	tests := []httpTest{
		{
			name: "passwords mismatch", method: http.MethodPost, path: "/v1/auth/signup",
			body:     []byte(`{"name": "Jo", "email": "jo@test.cd", "password": "` + strongPwd + `", "password_confirm": "other"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "email taken", method: http.MethodPost, path: "/v1/auth/signup",
			body:     []byte(`{"name": "Jo", "email": "AGENT@test.cd", "password": "` + strongPwd + `", "password_confirm": "` + strongPwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "an admin with this email already exists"}`),
		},
	}
	runHTTPTests(t, e, tests)

	t.Run("pending admin is created and superadmins notified", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		body := []byte(`{"name": "Jo Kabila", "email": "jo@test.cd", "password": "` + strongPwd + `", "password_confirm": "` + strongPwd + `"}`)
		req, rec := newRequest(http.MethodPost, "/v1/auth/signup", body)
		e.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var adm admin.Admin
		decode(t, rec, &adm)
		assert.Equal(t, "jo@test.cd", adm.Email)
		assert.False(t, adm.IsApproved)
		assert.False(t, adm.IsSuperadmin)

		require.Len(t, emailsvc.SentMessages, 1)
		msg := emailsvc.SentMessages[0]
		require.Len(t, msg.Bcc, 1)
		assert.Equal(t, super.Email, msg.Bcc[0].Address)
		assert.Contains(t, msg.TextContent, "Jo Kabila")
	})
}

func Test_guardChain(t *testing.T) {
	e := setup(t)
	approved, pending, super := e.staff(t)
	gone := admin.Admin{ID: "0b0b5c84-3b8e-4a5b-9e3b-6c1d2c0f0a11", Email: "gone@test.cd", IsApproved: true}

	expired := GetAdminClaims(e.conf, approved)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expiredToken, err := GenerateToken(e.conf, expired)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "no token", path: "/v1/admin/dashboard", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "garbage token", path: "/v1/admin/dashboard", token: "not.a.jwt", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "expired token", path: "/v1/admin/dashboard", token: expiredToken, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "deleted admin", path: "/v1/admin/dashboard", token: getToken(t, e.conf, gone), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "admin not authenticated"}),
		},
		{
			name: "pending admin", path: "/v1/admin/dashboard", token: getToken(t, e.conf, pending), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPendingApproval),
		},
		{name: "approved admin", path: "/v1/admin/dashboard", token: getToken(t, e.conf, approved), wantCode: http.StatusOK},
		{
			name: "superadmin area, approved admin", path: "/v1/admin/admins", token: getToken(t, e.conf, approved),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "superadmin area, pending admin", path: "/v1/admin/admins", token: getToken(t, e.conf, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPendingApproval),
		},
		{name: "superadmin area, superadmin", path: "/v1/admin/admins", token: getToken(t, e.conf, super), wantCode: http.StatusOK},
		{name: "me, approved", path: "/v1/auth/me", token: getToken(t, e.conf, approved), wantCode: http.StatusOK},
		{
			name: "me, pending", path: "/v1/auth/me", token: getToken(t, e.conf, pending), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPendingApproval),
		},
	}
	runHTTPTests(t, e, tests)

	t.Run("approval is read from the database", func(t *testing.T) {
		token := getToken(t, e.conf, approved)
		approved.IsApproved = false
		_, err := e.adminRepo.UpdateAdmin(context.Background(), approved)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/dashboard", token)
		e.serve(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPendingApproval)}, rec)
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	e := setup(t)
	approved, _, _ := e.staff(t)

	stale := GetAdminClaims(e.conf, approved, time.Now().Add(-e.conf.Server.JWTRefreshExpirationDelta-time.Hour).Unix())
	staleToken, err := GenerateToken(e.conf, stale)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "no token", method: http.MethodPost, path: "/v1/auth/token-refresh", wantCode: http.StatusUnauthorized},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/auth/token-refresh", token: staleToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "ok", method: http.MethodPost, path: "/v1/auth/token-refresh", token: getToken(t, e.conf, approved), wantCode: http.StatusOK},
	}
	runHTTPTests(t, e, tests)
}

func Test_authApi_passwordReset(t *testing.T) {
	e := setup(t)
	approved, _, _ := e.staff(t)
	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	emailsvc.ResetSentMessages()
	tests := []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/auth/password-reset", body: []byte(`{"email": "lol"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: []byte(`{"email": "ghost@test.cd"}`), wantCode: http.StatusOK, wantData: success,
		},
		{
			name: "known email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: []byte(`{"email": "` + approved.Email + `"}`), wantCode: http.StatusOK, wantData: success,
		},
		{
			name: "bad reset link", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     []byte(`{"uid": "lol", "token": "lol", "password": "` + strongPwd + `", "password_confirm": "` + strongPwd + `"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid password reset link"}),
		},
	}
	runHTTPTests(t, e, tests)

	// only the known email got a message
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, approved.Email, emailsvc.SentMessages[0].To[0].Address)
	assert.Contains(t, emailsvc.SentMessages[0].TextContent, "uid="+admin.EncodeUID(approved))
}
