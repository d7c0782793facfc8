package reconcile

import "time"

// Config holds the retry knobs of the reconciler.
type Config struct {
	// MaxPendingRetries bounds "access pending" retries of the same page.
	MaxPendingRetries int `mapstructure:"max_pending_retries" default:"5"`
	// PendingDelay is the wait between "access pending" retries.
	PendingDelay time.Duration `mapstructure:"pending_delay" default:"3s"`
	// MaxFetchRetries bounds retries of a page after a transient error.
	MaxFetchRetries int `mapstructure:"max_fetch_retries" default:"3"`
	// RetryDelay is the base backoff between transient retries.
	RetryDelay time.Duration `mapstructure:"retry_delay" default:"2s"`
}

// Options converts the configuration into reconciler options.
func (c Config) Options(maxDimension int) Options {
	return Options{
		MaxDimension:      maxDimension,
		MaxPendingRetries: c.MaxPendingRetries,
		PendingDelay:      c.PendingDelay,
		MaxFetchRetries:   c.MaxFetchRetries,
		RetryDelay:        c.RetryDelay,
	}
}
