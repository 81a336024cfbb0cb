package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

func newGuardedApp(tokens *utils.TokenManager) *fiber.App {
	app := fiber.New()
	app.Get("/me", RequireAuth(tokens), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": c.Locals(LocalUserID)})
	})
	app.Get("/admin", RequireAuth(tokens), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, accessToken string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: accessToken})
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireAuth(t *testing.T) {
	tokens := utils.NewTokenManager("a", "r", time.Minute, time.Hour)
	app := newGuardedApp(tokens)

	resp := get(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, app, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	access, _, err := tokens.GenerateAccessToken("user-1", false)
	require.NoError(t, err)
	resp = get(t, app, "/me", access)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	tokens := utils.NewTokenManager("a", "r", time.Minute, time.Hour)
	app := newGuardedApp(tokens)

	refresh, _, err := tokens.GenerateRefreshToken("user-1", "session-1")
	require.NoError(t, err)
	resp := get(t, app, "/me", refresh)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminOnly(t *testing.T) {
	tokens := utils.NewTokenManager("a", "r", time.Minute, time.Hour)
	app := newGuardedApp(tokens)

	plain, _, err := tokens.GenerateAccessToken("user-1", false)
	require.NoError(t, err)
	resp := get(t, app, "/admin", plain)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin, _, err := tokens.GenerateAccessToken("user-2", true)
	require.NoError(t, err)
	resp = get(t, app, "/admin", admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
