package assets

// Config controls artwork downloads.
type Config struct {
	// Root is the directory local paths are resolved against.
	Root string `mapstructure:"root" default:"./public/images"`
	// URLPrefix is the public prefix of returned local paths.
	URLPrefix string `mapstructure:"url_prefix" default:"/images"`
	// MaxDimension bounds the longest side of stored artwork.
	MaxDimension int `mapstructure:"max_dimension" default:"600"`
	// TimeoutSeconds bounds a single download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// UserAgent is sent with every download.
	UserAgent string `mapstructure:"user_agent" default:"CollectionSync/1.0"`
	// RequestsPerSecond paces downloads across all providers.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"4"`
	// JPEGQuality is the encoder quality (1-100).
	JPEGQuality int `mapstructure:"jpeg_quality" default:"90"`
	// Mirror uploads every stored image to the object storage bucket.
	Mirror bool `mapstructure:"mirror" default:"false"`
}
