package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/audience-gateway/internal/platform/config"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

const defaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path, e.g. https://us21.api.mailchimp.com/3.0.
	BaseURL string

	// ServiceName labels logs, spans, metrics and the breaker.
	ServiceName string

	// Timeout bounds one attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc, when set, signs every attempt including retries.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client sends requests to one downstream service. Each call passes through
// the circuit breaker, then up to Retry.MaxAttempts attempts with
// exponential backoff. Transport errors and 5xx responses are retried.
//
// A 5xx that survives every attempt is returned to the caller unread with a
// nil error, so the remote problem document can still be decoded.
type Client struct {
	cfg     Config
	baseURL string
	hc      *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	tracer  trace.Tracer
	inst    *instruments
	logger  *slog.Logger
}

// New validates cfg, filling zero Timeout and MaxAttempts with defaults.
func New(cfg *Config) (*Client, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config is required")
	case cfg.ServiceName == "":
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	cfg.Retry.MaxAttempts = max(cfg.Retry.MaxAttempts, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "clients.Client"), slog.String("downstream", cfg.ServiceName))

	inst, err := newInstruments()
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:     *cfg,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.Transport)},
		breaker: newBreaker(cfg.ServiceName, cfg.Circuit, logger),
		tracer:  otel.Tracer(instrumentationName),
		inst:    inst,
		logger:  logger,
	}, nil
}

// Get sends a GET to path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Send(ctx, http.MethodGet, path, http.NoBody)
}

// Put sends a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.Send(ctx, http.MethodPut, path, body)
}

// Delete sends a DELETE to path.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Send(ctx, http.MethodDelete, path, http.NoBody)
}

// Send builds a JSON request for method and path relative to BaseURL and
// passes it to Do.
func (c *Client) Send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil && body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// Do sends req with the breaker, retries, tracing and ID propagation.
//
// Retried bodies are replayed through req.GetBody, which http.NewRequest
// sets for bytes, strings and bytes.Buffer readers. Other streaming bodies
// need Retry.MaxAttempts of 1.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	c.propagateIDs(ctx, req)
	c.sign(req)

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.cfg.ServiceName),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.attempts(ctx, req, logger)
	})

	return c.finish(ctx, span, logger, req.Method, time.Since(start), resp, err)
}

// CircuitState is "closed", "half-open" or "open".
func (c *Client) CircuitState() string {
	return c.breaker.State().String()
}

func (c *Client) ServiceName() string {
	return c.cfg.ServiceName
}

// BasicAuth signs requests with HTTP Basic credentials.
func BasicAuth(username, password string) func(*http.Request) {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

func (c *Client) propagateIDs(ctx context.Context, req *http.Request) {
	for header, id := range map[string]string{
		middleware.HeaderRequestID:     middleware.RequestIDFromContext(ctx),
		middleware.HeaderCorrelationID: middleware.CorrelationIDFromContext(ctx),
	} {
		if id != "" {
			req.Header.Set(header, id)
		}
	}
}

func (c *Client) sign(req *http.Request) {
	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}
