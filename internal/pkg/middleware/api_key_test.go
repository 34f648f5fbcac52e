package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", APIKeyAuthMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAPIKeyAuthMiddleware_ValidKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "super-secret-key")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "super-secret-key")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestAPIKeyAuthMiddleware_BearerToken(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "super-secret-key")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer super-secret-key")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestAPIKeyAuthMiddleware_WrongKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "super-secret-key")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "guessing")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPIKeyAuthMiddleware_MissingKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "super-secret-key")
	app := newProtectedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPIKeyAuthMiddleware_NotConfigured(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "")
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "anything")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
