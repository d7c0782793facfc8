package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"collection-sync/core/metrics"

	"go.uber.org/zap"
)

var (
	// ErrTooManyRequests is returned by fetches whose response body signals an exhausted budget.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrRetriesExhausted is returned by Retry after the final rate-limited attempt.
	ErrRetriesExhausted = errors.New("rate limit retries exhausted")
)

// Limiter is the call-site view of the rate limiter.
type Limiter interface {
	ShouldWait(tag string) time.Duration
	RecordCall(tag string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithJitter sets the upper bound of the random delay added to header cooldowns.
func WithJitter(max time.Duration) Option {
	return func(r *Registry) { r.maxJitter = max }
}

// Registry holds one policy per service tag.
type Registry struct {
	mu        sync.Mutex
	policies  map[string]Policy
	now       func() time.Time
	maxJitter time.Duration
	logger    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		policies:  make(map[string]Policy),
		now:       time.Now,
		maxJitter: 5 * time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register assigns a policy to a tag, replacing any previous one.
func (r *Registry) Register(tag string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[tag] = p
}

// ShouldWait returns how long the caller must sleep before calling tag.
// Unknown tags never wait.
func (r *Registry) ShouldWait(tag string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.policies[tag]; ok {
		return p.shouldWait(r.now())
	}
	return 0
}

// RecordCall counts one call against tag.
func (r *Registry) RecordCall(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.policies[tag]; ok {
		p.recordCall(r.now())
	}
}

// Observe feeds response headers to the policy of tag.
func (r *Registry) Observe(tag string, h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.policies[tag]; ok {
		p.observe(r.now(), h, r.jitter())
	}
}

// Trip forces tag into its cooldown, as if the budget were exhausted.
func (r *Registry) Trip(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.policies[tag]; ok {
		p.trip(r.now(), r.jitter())
	}
}

func (r *Registry) jitter() time.Duration {
	if r.maxJitter <= 0 {
		return 0
	}
	return rand.N(r.maxJitter)
}

// Wait sleeps until tag may be called. It returns ctx.Err() if the sleep was
// interrupted.
func (r *Registry) Wait(ctx context.Context, tag string) error {
	d := r.ShouldWait(tag)
	if d <= 0 {
		return ctx.Err()
	}
	metrics.RateLimitSleeps.WithLabelValues(tag).Inc()
	r.logger.Warn("Rate limit met, sleeping before resuming",
		zap.String("service", tag),
		zap.Duration("sleep", d),
	)
	return Sleep(ctx, d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn, retrying after a cooldown while it reports ErrTooManyRequests.
// fn runs at most maxRetries+1 times.
func (r *Registry) Retry(ctx context.Context, tag string, maxRetries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if err := r.Wait(ctx, tag); err != nil {
			return err
		}
		err := fn()
		if !errors.Is(err, ErrTooManyRequests) {
			return err
		}
		r.Trip(tag)
		if attempt >= maxRetries {
			return fmt.Errorf("%s after %d attempts: %w", tag, attempt+1, ErrRetriesExhausted)
		}
		r.logger.Warn("Service reported too many requests, cooling down",
			zap.String("service", tag),
			zap.Int("attempt", attempt+1),
		)
	}
}

var limitPhrases = []string{"too many requests", "too quickly", "rate limit"}

// LimitMessage reports whether a message sent in place of a payload says the
// caller is being throttled.
func LimitMessage(text string) bool {
	text = strings.ToLower(text)
	for _, phrase := range limitPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
