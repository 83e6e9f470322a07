// Package middleware holds the gin middleware of the inbound HTTP adapter.
package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

const (
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID ties every hop of one business transaction
	// together, including the outbound marketing API call.
	HeaderCorrelationID = "X-Correlation-ID"

	// gin.Context keys.
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"

	// maxInboundIDLength bounds caller-supplied IDs before they reach logs
	// and upstream headers.
	maxInboundIDLength = 128
)

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// trackedID describes one propagated identifier.
type trackedID struct {
	header string
	ginKey string
	ctxKey idKey
	logTag func(context.Context, string) context.Context
}

var (
	requestID     = trackedID{HeaderRequestID, ContextKeyRequestID, requestIDKey, logging.WithRequestID}
	correlationID = trackedID{HeaderCorrelationID, ContextKeyCorrelationID, correlationIDKey, logging.WithCorrelationID}
)

// ContextLogger seeds the request context with logger so later middleware
// enriches the service logger rather than the process default.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger != nil {
			c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		}

		c.Next()
	}
}

// RequestID keeps a well-formed inbound X-Request-ID or generates a UUID v4.
// The ID is echoed in the response, stored on both contexts and tagged onto
// the request logger.
func RequestID() gin.HandlerFunc {
	return requestID.middleware()
}

// CorrelationID is RequestID for X-Correlation-ID. Without an inbound value
// this request starts the transaction.
func CorrelationID() gin.HandlerFunc {
	return correlationID.middleware()
}

func (t trackedID) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(t.header)
		if !validInboundID(id) {
			id = uuid.NewString()
		}

		c.Set(t.ginKey, id)
		c.Header(t.header, id)

		ctx := context.WithValue(c.Request.Context(), t.ctxKey, id)
		c.Request = c.Request.WithContext(t.logTag(ctx, id))

		c.Next()
	}
}

// validInboundID accepts short IDs made of visible ASCII.
func validInboundID(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}

	return true
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string { return c.GetString(ContextKeyRequestID) }

// GetCorrelationID returns the correlation ID set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }

// RequestIDFromContext reads the request ID from a plain context. The
// outbound client forwards it to the marketing API.
func RequestIDFromContext(ctx context.Context) string {
	return idFrom(ctx, requestIDKey)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, correlationIDKey)
}

// ContextWithRequestID stores id for RequestIDFromContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores id for CorrelationIDFromContext.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func idFrom(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
