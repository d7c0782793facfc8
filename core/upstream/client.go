// Package upstream is the HTTP client used by provider adapters.
//
// Every request is paced by the rate limiter, guarded by a per-provider
// circuit breaker and bounded by the configured timeout. Requests are issued
// on a context detached from cancellation so that a shutdown does not abort a
// call already in flight.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"collection-sync/core/metrics"
	"collection-sync/core/ratelimit"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrTransient marks failures worth retrying within the same cycle.
var ErrTransient = errors.New("transient upstream failure")

// StatusError is returned for non-success responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues GET requests on behalf of one provider.
type Client struct {
	name      string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*Response]
	limiter   *ratelimit.Registry
	userAgent string
	logger    *zap.Logger
}

// New creates a client named after its provider.
func New(name string, cfg Config, limiter *ratelimit.Registry, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breakerTimeout := time.Duration(cfg.BreakerTimeoutSeconds) * time.Second
	if breakerTimeout <= 0 {
		breakerTimeout = 2 * time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	c := &Client{
		name:      name,
		http:      &http.Client{Timeout: time.Duration(timeout) * time.Second},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Get fetches url, waiting on the rate limit policy of tag first. Response
// headers are fed back to the limiter. A 429 yields ratelimit.ErrTooManyRequests,
// network failures and 5xx responses yield ErrTransient, other non-2xx
// statuses produce a *StatusError.
func (c *Client) Get(ctx context.Context, tag, url string, headers map[string]string) (*Response, error) {
	if err := c.limiter.Wait(ctx, tag); err != nil {
		return nil, err
	}

	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.do(context.WithoutCancel(ctx), tag, url, headers)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s circuit open: %w", c.name, ErrTransient)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, tag, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("Upstream request", zap.String("provider", c.name), zap.String("url", url))
	c.limiter.RecordCall(tag)
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %v: %w", c.name, err, ErrTransient)
	}
	defer res.Body.Close()

	c.limiter.Observe(tag, res.Header)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %v: %w", c.name, err, ErrTransient)
	}

	out := &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}
	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return out, ratelimit.ErrTooManyRequests
	case res.StatusCode >= 500:
		return out, fmt.Errorf("%w: %w", &StatusError{URL: url, StatusCode: res.StatusCode}, ErrTransient)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return out, &StatusError{URL: url, StatusCode: res.StatusCode}
	}
	return out, nil
}
