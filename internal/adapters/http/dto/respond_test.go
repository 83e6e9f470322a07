package dto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/audience-gateway/internal/domain"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails map[string]string
	}{
		{
			name:       "member not found",
			err:        fmt.Errorf("member jane@example.com: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrorCodeNotFound,
		},
		{
			name:       "wrapped conflict",
			err:        fmt.Errorf("upserting member: %w", domain.ErrConflict),
			wantStatus: http.StatusConflict,
			wantCode:   ErrorCodeConflict,
		},
		{
			name:        "validation keeps the field",
			err:         domain.NewValidationError("email", "must be a valid email address"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeValidation,
			wantDetails: map[string]string{"email": "must be a valid email address"},
		},
		{
			name:       "forbidden",
			err:        fmt.Errorf("list is locked: %w", domain.ErrForbidden),
			wantStatus: http.StatusForbidden,
			wantCode:   ErrorCodeForbidden,
		},
		{
			name:       "marketing api down",
			err:        domain.NewUnavailableError("marketing-api", "connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrorCodeUnavailable,
		},
		{
			name:       "unknown errors are generic",
			err:        errors.New("dial tcp: secret-host:443"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantDetails, resp.Error.Details)
			assert.Nil(t, resp.Error.Upstream)
		})
	}

	t.Run("internal message hides the cause", func(t *testing.T) {
		_, resp := FromError(errors.New("dial tcp: secret-host:443"))
		assert.NotContains(t, resp.Error.Message, "secret-host")
	})
}

func TestFromError_RemoteError(t *testing.T) {
	err := fmt.Errorf("upserting member: %w", &domain.RemoteError{
		Kind:     domain.ErrValidation,
		Service:  "marketing-api",
		Status:   http.StatusBadRequest,
		Type:     "https://example.com/errors",
		Title:    "Invalid Resource",
		Detail:   "Your merge fields were invalid.",
		Instance: "abc-123",
		Fields:   map[string]string{"FNAME": "Please enter a value"},
		Cause:    errors.New("Title: Invalid Resource"),
	})

	status, resp := FromError(err)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrorCodeValidation, resp.Error.Code)
	assert.Equal(t, "upserting member: Title: Invalid Resource", resp.Error.Message)
	assert.Equal(t, map[string]string{"FNAME": "Please enter a value"}, resp.Error.Details)
	assert.Equal(t, &UpstreamDetail{
		Service:  "marketing-api",
		Status:   http.StatusBadRequest,
		Type:     "https://example.com/errors",
		Title:    "Invalid Resource",
		Detail:   "Your merge fields were invalid.",
		Instance: "abc-123",
	}, resp.Error.Upstream)
}

func TestFromError_RemoteErrorWithoutFields(t *testing.T) {
	status, resp := FromError(&domain.RemoteError{
		Kind:    domain.ErrUnavailable,
		Service: "marketing-api",
		Status:  http.StatusServiceUnavailable,
		Title:   "Service Unavailable",
	})

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Nil(t, resp.Error.Details)
	require.NotNil(t, resp.Error.Upstream)
	assert.Equal(t, "Service Unavailable", resp.Error.Upstream.Title)
}

func TestFromError_Nil(t *testing.T) {
	status, resp := FromError(nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, resp)
}

func TestGetTraceID(t *testing.T) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:  trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
	})

	tests := []struct {
		name  string
		setup func(*gin.Context)
		want  string
	}{
		{
			name: "active span wins",
			setup: func(c *gin.Context) {
				c.Request = c.Request.WithContext(trace.ContextWithSpanContext(c.Request.Context(), spanCtx))
				c.Set("trace_id", "ctx-trace")
			},
			want: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:  "context key",
			setup: func(c *gin.Context) { c.Set("trace_id", "ctx-trace") },
			want:  "ctx-trace",
		},
		{
			name:  "request id key",
			setup: func(c *gin.Context) { c.Set("request_id", "req-8") },
			want:  "req-8",
		},
		{
			name:  "request id header",
			setup: func(c *gin.Context) { c.Request.Header.Set("X-Request-ID", "req-9") },
			want:  "req-9",
		},
		{
			name:  "non-string context value is ignored",
			setup: func(c *gin.Context) { c.Set("trace_id", 42) },
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)

			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("writes the mapped envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("trace_id", "trace-404")

		HandleError(c, &domain.RemoteError{Kind: domain.ErrNotFound, Service: "marketing-api", Status: 404, Title: "Resource Not Found"})

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ErrorCodeNotFound, resp.Error.Code)
		assert.Equal(t, "trace-404", resp.TraceID)
	})

	t.Run("internal errors are logged with their cause", func(t *testing.T) {
		var buf bytes.Buffer

		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil).
			WithContext(logging.WithContext(context.Background(), logger))

		HandleError(c, errors.New("decoder exploded"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "decoder exploded")
		assert.Contains(t, buf.String(), "decoder exploded")
	})
}
