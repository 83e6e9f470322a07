package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// drainLimit caps how much of a discarded body is read to keep the
// connection reusable.
const drainLimit = 64 << 10

// attempts runs req until it gets a non-5xx response, fails permanently or
// spends the attempt budget. A budget spent on 5xx responses returns the
// last one together with errServerStatus.
func (c *Client) attempts(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var (
		n    int
		last *http.Response
	)

	try := func() (*http.Response, error) {
		if n > 0 {
			if err := c.rewind(req); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		n++

		discard(last, logger)
		last = nil

		resp, err := c.hc.Do(req.WithContext(ctx))
		switch {
		case err != nil && retryable(err):
			logger.Debug("attempt failed", slog.Int("attempt", n), slog.Any("error", err))
			return nil, err
		case err != nil:
			return nil, backoff.Permanent(err)
		case resp.StatusCode >= http.StatusInternalServerError:
			logger.Debug("attempt got server error", slog.Int("attempt", n), slog.Int("status", resp.StatusCode))
			last = resp

			return nil, fmt.Errorf("%w: %d", errServerStatus, resp.StatusCode)
		default:
			return resp, nil
		}
	}

	resp, err := backoff.Retry(ctx, try,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.cfg.Retry.MaxAttempts)), //nolint:gosec // MaxAttempts is at least 1
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("retrying request",
				slog.Int("attempt", n+1),
				slog.Duration("backoff", wait),
				slog.Any("error", err),
			)
		}),
	)

	if last != nil && errors.Is(err, errServerStatus) {
		return last, err
	}

	discard(last, logger)

	return resp, err
}

// rewind resets the body and signs req again before a retry.
func (c *Client) rewind(req *http.Request) error {
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("rewinding request body: %w", err)
		}

		req.Body = body
	}

	c.sign(req)

	return nil
}

// newBackOff maps Retry onto an exponential policy. Zero values keep the
// library defaults except jitter, which is taken as given.
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	r := c.cfg.Retry
	b := backoff.NewExponentialBackOff()

	if r.InitialInterval > 0 {
		b.InitialInterval = r.InitialInterval
	}

	if r.MaxInterval > 0 {
		b.MaxInterval = r.MaxInterval
	}

	if r.Multiplier > 0 {
		b.Multiplier = r.Multiplier
	}

	b.RandomizationFactor = r.JitterFactor

	return b
}

// retryable reports transport errors worth another attempt: timeouts and
// dial or connection failures. Context errors never are.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}

// discard drains and closes a response the caller will never see.
func discard(resp *http.Response, logger *slog.Logger) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
	if err := resp.Body.Close(); err != nil {
		logger.Debug("closing discarded body", slog.Any("error", err))
	}
}
