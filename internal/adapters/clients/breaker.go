package clients

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jsamuelsen/audience-gateway/internal/platform/config"
)

// Fallbacks for zero-valued settings. Loaded configs never hit these; they
// cover clients built directly in tests.
const (
	fallbackMaxFailures     = 5
	fallbackMaxIdle         = 100
	fallbackMaxIdlePerHost  = 10
	fallbackIdleConnTimeout = 90 * time.Second
)

func orDefault[T int | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}

	return v
}

// newBreaker trips after MaxFailures consecutive failed calls, stays open
// for Timeout, then lets HalfOpenLimit probes through. A call fails when it
// got no response or every attempt returned a 5xx.
func newBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	trip := uint32(orDefault(cfg.MaxFailures, fallbackMaxFailures)) //nolint:gosec // validated range
	probes := uint32(orDefault(cfg.HalfOpenLimit, 1))               //nolint:gosec // validated range

	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: probes,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        orDefault(cfg.MaxIdleConns, fallbackMaxIdle),
		MaxIdleConnsPerHost: orDefault(cfg.MaxIdleConnsPerHost, fallbackMaxIdlePerHost),
		IdleConnTimeout:     orDefault(cfg.IdleConnTimeout, fallbackIdleConnTimeout),
	}
}
