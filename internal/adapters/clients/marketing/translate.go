package marketing

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/audience-gateway/internal/domain"
)

// translateError maps a transport or EnsureSuccess failure to a domain error.
// API-reported failures become *domain.RemoteError with the original error as
// cause; everything else is reported as the service being unavailable.
func translateError(err error, serviceName, operation string) error {
	var (
		notFound *NotFoundError
		svcErr   *ServiceError
		decErr   *DecodeError
	)

	switch {
	case err == nil:
		return nil

	case errors.As(err, &notFound):
		return &domain.RemoteError{
			Kind:    domain.ErrNotFound,
			Service: serviceName,
			Status:  http.StatusNotFound,
			Title:   "Resource Not Found",
			Cause:   err,
		}

	case errors.As(err, &svcErr):
		return &domain.RemoteError{
			Kind:     kindForStatus(svcErr.StatusCode),
			Service:  serviceName,
			Status:   svcErr.StatusCode,
			Type:     svcErr.Type,
			Title:    svcErr.Title,
			Detail:   svcErr.Detail,
			Instance: svcErr.Instance,
			Fields:   svcErr.FieldErrors(),
			Cause:    err,
		}

	case errors.As(err, &decErr):
		return &domain.RemoteError{
			Kind:    domain.ErrUnavailable,
			Service: serviceName,
			Status:  decErr.StatusCode,
			Title:   http.StatusText(decErr.StatusCode),
			Detail:  "unreadable error response",
			Cause:   err,
		}

	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("max retries exceeded during %s", operation))

	default:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}

// kindForStatus picks the domain sentinel for a transport status.
func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		// The gateway's own credentials or quota, not the caller's request.
		return domain.ErrUnavailable
	default:
		if status >= http.StatusInternalServerError {
			return domain.ErrUnavailable
		}
		// Remaining 4xx statuses describe a bad request.
		return domain.ErrValidation
	}
}
