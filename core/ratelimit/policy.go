package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Policy decides how long a caller must wait before calling a service.
type Policy interface {
	shouldWait(now time.Time) time.Duration
	recordCall(now time.Time)
	observe(now time.Time, h http.Header, jitter time.Duration)
	trip(now time.Time, jitter time.Duration)
}

// CountPolicy allows Limit calls per Window.
type CountPolicy struct {
	Limit  int
	Window time.Duration

	count       int
	windowStart time.Time
}

// NewCountPolicy creates a fixed window policy.
func NewCountPolicy(limit int, window time.Duration) *CountPolicy {
	return &CountPolicy{Limit: limit, Window: window}
}

func (p *CountPolicy) expired(now time.Time) bool {
	return p.windowStart.IsZero() || !now.Before(p.windowStart.Add(p.Window))
}

func (p *CountPolicy) shouldWait(now time.Time) time.Duration {
	if p.expired(now) || p.count < p.Limit {
		return 0
	}
	return p.windowStart.Add(p.Window).Sub(now)
}

func (p *CountPolicy) recordCall(now time.Time) {
	if p.expired(now) {
		p.windowStart = now
		p.count = 0
	}
	p.count++
}

func (p *CountPolicy) observe(time.Time, http.Header, time.Duration) {}

// trip exhausts the current window.
func (p *CountPolicy) trip(now time.Time, _ time.Duration) {
	if p.expired(now) {
		p.windowStart = now
	}
	p.count = p.Limit
}

// HeaderPolicy cools down once the remaining-calls header reaches LowWater.
type HeaderPolicy struct {
	Headers  []string
	LowWater int
	Cooldown time.Duration

	remaining int
	until     time.Time
}

// NewHeaderPolicy creates a header driven policy. The first header present on
// a response wins.
func NewHeaderPolicy(lowWater int, cooldown time.Duration, headers ...string) *HeaderPolicy {
	return &HeaderPolicy{Headers: headers, LowWater: lowWater, Cooldown: cooldown, remaining: -1}
}

// Remaining returns the last observed budget, or -1 if none was seen.
func (p *HeaderPolicy) Remaining() int {
	return p.remaining
}

func (p *HeaderPolicy) shouldWait(now time.Time) time.Duration {
	if now.Before(p.until) {
		return p.until.Sub(now)
	}
	return 0
}

func (p *HeaderPolicy) recordCall(time.Time) {}

func (p *HeaderPolicy) observe(now time.Time, h http.Header, jitter time.Duration) {
	for _, name := range p.Headers {
		raw := strings.TrimSpace(h.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		p.remaining = v
		if v <= p.LowWater {
			p.until = now.Add(p.Cooldown + jitter)
		}
		return
	}
}

func (p *HeaderPolicy) trip(now time.Time, jitter time.Duration) {
	p.until = now.Add(p.Cooldown + jitter)
}
