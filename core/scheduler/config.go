package scheduler

import "time"

// Config controls the periodic fetch cycles.
type Config struct {
	// Interval is the time between two cycles of one provider.
	Interval time.Duration `mapstructure:"interval" default:"1m"`
	// RunOnStart runs every provider once as soon as the scheduler starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"true"`
	// ShutdownTimeoutSeconds bounds the wait for running cycles on stop.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" default:"30"`
}
