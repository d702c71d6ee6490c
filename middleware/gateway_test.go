package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayAuthMiddleware(t *testing.T) {
	t.Setenv("CARD_SERVICE_TOKEN", "svc-token")

	app := fiber.New()
	app.Use(GatewayAuthMiddleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong token", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer token", "Bearer svc-token", fiber.StatusOK},
		{"bare token", "svc-token", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/ping", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.wantStatus, resp.StatusCode, tc.name)
	}
}
