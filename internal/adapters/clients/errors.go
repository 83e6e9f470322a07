// Package clients is the resilient outbound HTTP client shared by the
// downstream adapters: retries, a circuit breaker, tracing and metrics.
package clients

import "errors"

// Infrastructure failures. Adapters translate them into domain errors.
var (
	// ErrCircuitOpen means the breaker refused the call without sending it.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last transport error once every
	// attempt failed without a response.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// errServerStatus marks an attempt answered with a 5xx.
	errServerStatus = errors.New("server error")
)
