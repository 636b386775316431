package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OtelMiddleware records HTTP server metrics. Spans come from otelfiber,
// which must run before it so the request context carries the span.
type OtelMiddleware struct {
	log                       *zap.Logger
	httpRequestCounter        metric.Int64Counter
	httpRequestDuration       metric.Float64Histogram
	httpResponseStatusCounter metric.Int64Counter
	httpRequestSize           metric.Int64Histogram
	httpResponseSize          metric.Int64Histogram
	httpActiveRequests        metric.Int64UpDownCounter
}

func NewOtelMiddleware(meter metric.Meter, log *zap.Logger) *OtelMiddleware {
	httpRequestCounter, _ := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP request"),
		metric.WithUnit("{request}"),
	)

	httpRequestDuration, _ := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	httpResponseStatusCounter, _ := meter.Int64Counter(
		"http.server.response.status",
		metric.WithDescription("HTTP response status codes"),
		metric.WithUnit("{status}"),
	)

	httpRequestSize, _ := meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("Size of HTTP requests"),
		metric.WithUnit("By"),
	)

	httpResponseSize, _ := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP responses"),
		metric.WithUnit("By"),
	)

	httpActiveRequests, _ := meter.Int64UpDownCounter(
		"http.server.active.requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)

	return &OtelMiddleware{
		log:                       log,
		httpRequestCounter:        httpRequestCounter,
		httpRequestDuration:       httpRequestDuration,
		httpResponseStatusCounter: httpResponseStatusCounter,
		httpRequestSize:           httpRequestSize,
		httpResponseSize:          httpResponseSize,
		httpActiveRequests:        httpActiveRequests,
	}
}

func (m *OtelMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		method := c.Method()
		start := time.Now()

		inFlight := metric.WithAttributes(attribute.String("http.method", method))
		m.httpActiveRequests.Add(ctx, 1, inFlight)
		defer m.httpActiveRequests.Add(ctx, -1, inFlight)

		err := c.Next()

		// The matched route pattern keeps cardinality bounded; unmatched
		// requests all share the fallback handler's pattern.
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		duration := float64(time.Since(start).Nanoseconds()) / 1e6
		responseSize := int64(len(c.Response().Body()))

		m.httpRequestCounter.Add(ctx, 1, attrs)
		m.httpRequestDuration.Record(ctx, duration, attrs)
		m.httpResponseStatusCounter.Add(ctx, 1, attrs)
		m.httpRequestSize.Record(ctx, int64(len(c.Request().Body())), attrs)
		m.httpResponseSize.Record(ctx, responseSize, attrs)

		span := trace.SpanFromContext(ctx)
		m.log.Debug("HTTP request completed",
			zap.String("method", method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Float64("duration_ms", duration),
			zap.Int64("response_size", responseSize),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
		)

		return err
	}
}
