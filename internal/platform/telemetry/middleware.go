package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/audience-gateway/telemetry"

	// HeaderTraceID echoes the active trace to callers.
	HeaderTraceID = "X-Trace-ID"
)

// Metrics are the inbound HTTP instruments.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// NewMetrics registers the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	var (
		m   Metrics
		err error
	)

	if m.requestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Inbound request duration."), metric.WithUnit("s")); err != nil {
		return nil, err
	}

	if m.requestTotal, err = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Inbound requests served.")); err != nil {
		return nil, err
	}

	if m.activeRequests, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Inbound requests in flight.")); err != nil {
		return nil, err
	}

	return &m, nil
}

// Middleware returns otelgin followed by MetricsMiddleware, so the span
// exists by the time the trace header and logger are set.
func Middleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		MetricsMiddleware(),
	}
}

// MetricsMiddleware records request metrics. When a span is active it also
// sets X-Trace-ID and adds trace_id to the request logger.
func MetricsMiddleware() gin.HandlerFunc {
	// Instrument errors go to the otel error handler; requests still flow
	metrics, err := NewMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Header(HeaderTraceID, traceID)

			ctx = logging.WithTraceID(ctx, traceID)
			c.Request = c.Request.WithContext(ctx)
		}

		if metrics == nil {
			c.Next()
			return
		}

		inFlight := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
		)

		metrics.activeRequests.Add(ctx, 1, inFlight)
		defer metrics.activeRequests.Add(ctx, -1, inFlight)

		c.Next()

		done := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.Int("http.status_code", c.Writer.Status()),
		)
		metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), done)
		metrics.requestTotal.Add(ctx, 1, done)
	}
}
