package upstream

// Config holds the settings shared by every provider HTTP client.
type Config struct {
	TimeoutSeconds        int    `mapstructure:"timeout_seconds" default:"30"`
	UserAgent             string `mapstructure:"user_agent" default:"CollectionSync/1.0 +https://github.com/collection-sync"`
	BreakerMaxFailures    uint32 `mapstructure:"breaker_max_failures" default:"5"`
	BreakerTimeoutSeconds int    `mapstructure:"breaker_timeout_seconds" default:"120"`
}
