package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

// Recovery turns a handler panic into a logged error and a 500 envelope
// carrying the trace ID. It must be the first middleware on the engine.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return RecoveryWithWriter(logger, nil)
}

// RecoveryWithWriter is Recovery with an extra hook that receives the panic
// value and stack, e.g. to forward them to an error tracker.
func RecoveryWithWriter(logger *slog.Logger, stackHandler func(err any, stack []byte)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			if stackHandler != nil {
				stackHandler(r, stack)
			}

			traceID := dto.GetTraceID(c)

			logging.FromContextOr(c.Request.Context(), logger).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(stack)),
				slog.String("route", c.FullPath()),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			abortWith(c, http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
		}()

		c.Next()
	}
}

// abortWith writes resp unless the handler already started a response.
func abortWith(c *gin.Context, status int, resp *dto.ErrorResponse) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(status, resp)
}
