package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/audience-gateway/internal/domain"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

const internalMessage = "an internal error occurred"

var kindCode = map[error]string{
	domain.ErrNotFound:    ErrorCodeNotFound,
	domain.ErrConflict:    ErrorCodeConflict,
	domain.ErrValidation:  ErrorCodeValidation,
	domain.ErrForbidden:   ErrorCodeForbidden,
	domain.ErrUnavailable: ErrorCodeUnavailable,
}

// FromError builds the response for err from its domain kind. Errors of no
// known kind become a 500 whose message hides the cause.
func FromError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	code, ok := kindCode[domain.KindOf(err)]
	if !ok {
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, internalMessage)
	}

	resp := NewErrorResponse(code, err.Error())

	var invalid *domain.ValidationError
	if errors.As(err, &invalid) && invalid.Field != "" {
		resp.Error.Details = map[string]string{invalid.Field: invalid.Message}
	}

	if remote, ok := domain.AsRemoteError(err); ok {
		resp.Error.Upstream = upstreamDetail(remote)
		if len(remote.Fields) > 0 {
			resp.Error.Details = remote.Fields
		}
	}

	return HTTPStatusFromCode(code), resp
}

func upstreamDetail(r *domain.RemoteError) *UpstreamDetail {
	return &UpstreamDetail{
		Service:  r.Service,
		Status:   r.Status,
		Type:     r.Type,
		Title:    r.Title,
		Detail:   r.Detail,
		Instance: r.Instance,
	}
}

// GetTraceID prefers the active span's trace ID, then the trace_id and
// request_id gin keys, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if c.Request != nil {
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			return sc.TraceID().String()
		}
	}

	for _, key := range [...]string{"trace_id", "request_id"} {
		if id := c.GetString(key); id != "" {
			return id
		}
	}

	if c.Request == nil {
		return ""
	}

	return c.Request.Header.Get("X-Request-ID")
}

// HandleError writes the envelope for err. 500s are logged with the real
// cause since the body only carries a generic message.
func HandleError(c *gin.Context, err error) {
	status, resp := FromError(err)
	resp.WithTraceID(GetTraceID(c))

	if status == http.StatusInternalServerError && c.Request != nil {
		logging.FromContext(c.Request.Context()).Error("unhandled error",
			slog.Any("error", err),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.JSON(status, resp)
}
