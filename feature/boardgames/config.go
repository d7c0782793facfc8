package boardgames

// Config holds the BoardGameGeek settings.
type Config struct {
	// Enabled registers the provider with the scheduler.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// UserID is the BoardGameGeek username.
	UserID string `mapstructure:"user_id" default:""`
	// BaseURL is the BoardGameGeek root; the XML API lives under /xmlapi2.
	BaseURL string `mapstructure:"base_url" default:"https://boardgamegeek.com"`
	// CallsPerMinute paces XML API calls.
	CallsPerMinute int `mapstructure:"calls_per_minute" default:"30"`
	// MaxRetries bounds retries after BoardGameGeek reports a rate limit.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}
