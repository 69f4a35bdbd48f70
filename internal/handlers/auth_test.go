package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service/token"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &AuthHandler{
		DB:     db,
		Tokens: &token.Service{DB: db, JWTSecret: []byte("test-jwt"), RefreshSecret: []byte("test-refresh")},
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

const registerBody = `{"name":"Alice","email":"alice@example.com","password":"secret1","phone":"9876543210"}`

func TestRegisterAndLogin(t *testing.T) {
	h := newAuthHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody, 0)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "user", user.Role)
	require.NotContains(t, rec.Body.String(), "password")

	c, rec = jsonContext(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, 0)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newAuthHandler(t)

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody, 0)
	require.NoError(t, h.Register(c))

	c, _ = jsonContext(t, http.MethodPost, "/api/auth/register", registerBody, 0)
	err := h.Register(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newAuthHandler(t)

	c, _ := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody, 0)
	require.NoError(t, h.Register(c))

	c, _ = jsonContext(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"wrong"}`, 0)
	err := h.Login(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	h := newAuthHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody, 0)
	require.NoError(t, h.Register(c))

	c, rec = jsonContext(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, 0)
	require.NoError(t, h.Login(c))

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	c, rec = jsonContext(t, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`, 0)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// the old token was revoked by the rotation
	c, _ = jsonContext(t, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`, 0)
	err := h.Refresh(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h := newAuthHandler(t)

	c, rec := jsonContext(t, http.MethodPost, "/api/auth/register", registerBody, 0)
	require.NoError(t, h.Register(c))

	c, rec = jsonContext(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, 0)
	require.NoError(t, h.Login(c))

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	c, _ = jsonContext(t, http.MethodPost, "/api/auth/logout", `{"refresh_token":"`+login.RefreshToken+`"}`, 0)
	require.NoError(t, h.Logout(c))

	c, _ = jsonContext(t, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`, 0)
	err := h.Refresh(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
