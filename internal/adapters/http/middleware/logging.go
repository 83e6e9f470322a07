package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

// redactedValue replaces email addresses in logged paths and queries.
const redactedValue = "[REDACTED]"

// Logging writes a "request started" and a "request completed" line per
// request, the latter at WARN for 4xx and ERROR for 5xx. Paths under /-/ are
// skipped. Member routes are logged by route template so email addresses
// never reach the log.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return LoggingWithSkipPaths(logger, nil)
}

// LoggingWithSkipPaths is Logging that also skips the exact paths given.
func LoggingWithSkipPaths(logger *slog.Logger, skipPaths []string) gin.HandlerFunc {
	skip := pathSet(skipPaths)

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if _, ok := skip[path]; ok || strings.HasPrefix(path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()
		target := loggedTarget(c)
		ctxLogger := logging.FromContextOr(c.Request.Context(), logger)

		ctxLogger.Info("request started",
			slog.String("method", c.Request.Method),
			slog.String("path", target),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ctxLogger.Log(c.Request.Context(), levelForStatus(status), "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", target),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

// loggedTarget returns the request path and query with addresses removed.
func loggedTarget(c *gin.Context) string {
	path := c.Request.URL.Path
	if route := c.FullPath(); strings.Contains(route, ":email") {
		path = route
	}

	if c.Request.URL.RawQuery == "" {
		return path
	}

	query := c.Request.URL.Query()
	if _, ok := query["email"]; ok {
		query.Set("email", redactedValue)
	}

	decoded, err := url.QueryUnescape(query.Encode())
	if err != nil {
		decoded = query.Encode()
	}

	return path + "?" + decoded
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
