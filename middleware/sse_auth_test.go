package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSSEApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("CARD_SERVICE_TOKEN", "svc-token")

	app := fiber.New()
	app.Get("/s/redemptions/live", SSEAuthMiddleware(), func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{"user_id": userID})
	})
	return app
}

func TestSSEAuthMiddleware(t *testing.T) {
	app := newSSEApp(t)

	cases := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"missing params", "", fiber.StatusBadRequest},
		{"missing user", "?token=svc-token", fiber.StatusBadRequest},
		{"wrong token", "?token=nope&user_id=user-1&roles=admin", fiber.StatusUnauthorized},
		{"not admin", "?token=svc-token&user_id=user-1&roles=member", fiber.StatusForbidden},
		{"admin", "?token=svc-token&user_id=user-1&roles=admin", fiber.StatusOK},
		{"admin mixed case", "?token=svc-token&user_id=user-1&roles=member,ADMIN", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/s/redemptions/live"+tc.query, nil)
		resp, err := app.Test(req)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.wantStatus, resp.StatusCode, tc.name)
	}
}

func TestSSEAuthMiddleware_SetsUserContext(t *testing.T) {
	app := newSSEApp(t)

	req := httptest.NewRequest("GET", "/s/redemptions/live?token=svc-token&user_id=admin-7&roles=admin", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		UserID string `json:"user_id"`
	}
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "admin-7", payload.UserID)
}
