package books

// Config holds the Goodreads settings.
type Config struct {
	Enabled bool   `mapstructure:"enabled" default:"false"`
	UserID  string `mapstructure:"user_id" default:""`
	Key     string `mapstructure:"key" default:""`
	BaseURL string `mapstructure:"base_url" default:"https://www.goodreads.com"`
	// CallsPerMinute paces Goodreads API calls.
	CallsPerMinute int `mapstructure:"calls_per_minute" default:"60"`
	// MaxRetries bounds retries after Goodreads reports too many requests.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// OpenLibraryCallsPerMinute bounds cover downloads from covers.openlibrary.org.
	OpenLibraryCallsPerMinute int `mapstructure:"openlibrary_calls_per_minute" default:"20"`
}
