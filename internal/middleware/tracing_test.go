package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error {
		assert.Equal(t, c.GetRespHeader(TraceHeader), c.Locals(LocalTraceID))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Delete("/api/posts/:id", func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(42))
		return errors.New("storage offline")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/7", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get(TraceHeader), 32)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/posts/8", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /api/posts/:id", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "DELETE /api/posts/:id", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("quill.user_id", "42"))
}
