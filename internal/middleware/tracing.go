package middleware

import (
	"strconv"

	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// LocalTraceID holds the hex trace id of the request span.
const LocalTraceID = "traceID"

// TraceHeader echoes the trace id back to API clients.
const TraceHeader = "X-Trace-ID"

// TracingMiddleware opens a server span per request, continuing any upstream
// trace found in the headers. The span is renamed to the matched route once
// routing is done, so /api/posts/7 and /api/posts/8 share a name.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		parent := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(parent, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(c)...),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals(LocalTraceID, traceID)
		c.Set(TraceHeader, traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route(); route != nil && route.Path != "" {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(semconv.HTTPRoute(route.Path))
		}
		finishSpan(span, c, err)
		return err
	}
}

func requestAttributes(c *fiber.Ctx) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(c.Method()),
		semconv.URLPath(c.Path()),
		semconv.ClientAddress(c.IP()),
	}
	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		attrs = append(attrs, semconv.UserAgentOriginal(ua))
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		attrs = append(attrs, attribute.String("quill.request_id", rid))
	}
	return attrs
}

func finishSpan(span trace.Span, c *fiber.Ctx, err error) {
	status := c.Response().StatusCode()
	span.SetAttributes(semconv.HTTPResponseStatusCode(status))

	if userID, ok := CurrentUserID(c); ok {
		span.SetAttributes(attribute.String("quill.user_id", strconv.FormatUint(uint64(userID), 10)))
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= fiber.StatusInternalServerError:
		span.SetStatus(codes.Error, strconv.Itoa(status))
	}
}
