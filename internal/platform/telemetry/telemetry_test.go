package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_Disabled(t *testing.T) {
	provider, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, provider)

	assert.NoError(t, provider.Shutdown(context.Background()))

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics()
	require.NoError(t, err)

	assert.NotNil(t, metrics.requestDuration)
	assert.NotNil(t, metrics.requestTotal)
	assert.NotNil(t, metrics.activeRequests)
}

func TestMiddleware_SetsTraceHeader(t *testing.T) {
	previous := otel.GetTracerProvider()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})

	router := gin.New()
	router.Use(Middleware("audience-gateway")...)
	router.GET("/api/v1/subscriber-hash", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/subscriber-hash", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^[0-9a-f]{32}$`, w.Header().Get(HeaderTraceID))
}

func TestMetricsMiddleware_WithoutTracing(t *testing.T) {
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/-/live", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get(HeaderTraceID))
}

func TestMetricsMiddleware_AddsTraceIDToLogger(t *testing.T) {
	previous := otel.GetTracerProvider()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), base))
		c.Next()
	})
	router.Use(Middleware("audience-gateway")...)
	router.GET("/api/v1/lists/:listID/members", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("listing members")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/lists/abc/members", nil))

	assert.Contains(t, buf.String(), `"trace_id":"`+w.Header().Get(HeaderTraceID)+`"`)
}

func TestProvider_ShutdownJoinsErrors(t *testing.T) {
	errA, errB := errors.New("trace flush failed"), errors.New("metric flush failed")

	p := &Provider{shutdowns: []func(context.Context) error{
		func(context.Context) error { return errA },
		func(context.Context) error { return nil },
		func(context.Context) error { return errB },
	}}

	err := p.Shutdown(context.Background())
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}
