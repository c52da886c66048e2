package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/token"
)

func TestRegister_Buyer(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"role":             "buyer",
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "password",
		"password_confirm": "password",
	})
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleBuyer, user.Role)

	// auth cookies issued right away
	names := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = true
	}
	assert.True(t, names[token.AccessCookie])
	assert.True(t, names[token.RefreshCookie])
}

func TestRegister_PasswordMismatchReturnsFieldErrors(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"role":             "buyer",
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "password",
		"password_confirm": "different",
	})
	err := env.Auth.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)

	body, ok := he.Message.(echo.Map)
	require.True(t, ok)
	fields, ok := body["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "password_confirm")
}

func TestRegister_SellerGetsDerivedUsername(t *testing.T) {
	env := newTestEnv(t)

	first := env.registerSeller("Acme Shop", "one@example.com")
	assert.Equal(t, "acme-shop", first.Username)

	second := env.registerSeller("Acme Shop", "two@example.com")
	assert.Equal(t, "acme-shop2", second.Username)
}

func TestRegister_UnknownRole(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"role": "superuser",
	})
	err := env.Auth.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin_ReturnsRoleForDashboardRouting(t *testing.T) {
	env := newTestEnv(t)
	env.registerSeller("Acme", "acme@example.com")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "acme",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleSeller, resp["role"])
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.registerBuyer("alice")

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	err := env.Auth.Login(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.registerBuyer("alice")

	recLogin, cLogin := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "alice",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(cLogin))

	var refresh string
	for _, ck := range recLogin.Result().Cookies() {
		if ck.Name == token.RefreshCookie {
			refresh = ck.Value
		}
	}
	require.NotEmpty(t, refresh)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/logout", nil)
	c.Request().AddCookie(&http.Cookie{Name: token.RefreshCookie, Value: refresh})
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", refresh).First(&stored).Error)
	assert.True(t, stored.Revoked)
}
