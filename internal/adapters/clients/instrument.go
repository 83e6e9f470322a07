package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/audience-gateway/internal/adapters/clients"

// Outcome labels on the request metrics.
const (
	outcomeCircuitOpen = "circuit_open"
	outcomeCanceled    = "context_canceled"
	outcomeError       = "error"
)

type instruments struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

func newInstruments() (*instruments, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Outbound request latency including retries."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	total, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Outbound requests by outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &instruments{duration: duration, total: total}, nil
}

func (in *instruments) record(ctx context.Context, service, method, outcome string, status int, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", service),
		attribute.String("result", outcome),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	in.duration.Record(ctx, elapsed.Seconds(), set)
	in.total.Add(ctx, 1, set)
}

// finish turns the breaker outcome into what Do returns, recording the
// span status, metrics and a log line on the way.
func (c *Client) finish(
	ctx context.Context,
	span trace.Span,
	logger *slog.Logger,
	method string,
	elapsed time.Duration,
	resp *http.Response,
	err error,
) (*http.Response, error) {
	record := func(outcome string, status int) {
		c.inst.record(ctx, c.cfg.ServiceName, method, outcome, status, elapsed)
	}

	switch {
	case resp != nil:
		// Includes a 5xx that exhausted retries: the breaker saw a failure,
		// the caller still gets the body.
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
		}

		record(strconv.Itoa(resp.StatusCode/100)+"xx", resp.StatusCode)
		logger.Debug("request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

		return resp, nil

	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		span.SetStatus(codes.Error, ErrCircuitOpen.Error())
		record(outcomeCircuitOpen, 0)
		logger.Warn("request blocked by circuit breaker", slog.String("state", c.CircuitState()))

		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		span.SetStatus(codes.Error, err.Error())
		record(outcomeCanceled, 0)
		logger.Debug("request abandoned", slog.Any("error", err))

		return nil, err

	default:
		span.SetStatus(codes.Error, err.Error())
		record(outcomeError, 0)
		logger.Error("request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}
}
