package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddleware_CarriesTraceID(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Use(ContextMiddleware())

	var fromCtx any
	app.Get("/", func(c *fiber.Ctx) error {
		fromCtx = c.UserContext().Value(TraceIDKey)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, resp.Header.Get("X-Trace-ID"), 32)
	assert.Equal(t, resp.Header.Get("X-Trace-ID"), fromCtx)
}
