package records

// Config holds the Discogs and iTunes settings.
type Config struct {
	// Enabled registers the provider with the scheduler.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// UserID is the Discogs username whose collection is mirrored.
	UserID string `mapstructure:"user_id" default:""`
	// Token is the Discogs personal access token.
	Token string `mapstructure:"token" default:""`
	// BaseURL is the Discogs API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.discogs.com"`
	// ITunesURL is the iTunes Search API root.
	ITunesURL string `mapstructure:"itunes_url" default:"https://itunes.apple.com"`
	// PerPage is the Discogs page size.
	PerPage int `mapstructure:"per_page" default:"100"`
	// CooldownSeconds is the Discogs cooldown once the remaining budget is spent.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"70"`
	// ITunesCallsPerMinute is the iTunes search budget.
	ITunesCallsPerMinute int `mapstructure:"itunes_calls_per_minute" default:"20"`
	// MaxRetries bounds retries after a 429.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}
