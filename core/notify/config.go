package notify

// Config controls subscriber buffering and the optional redis bus.
type Config struct {
	// BufferSize is the per-subscriber event buffer.
	BufferSize int `mapstructure:"buffer_size" default:"64"`
	// RedisEnabled forwards events to other instances through redis pub/sub.
	RedisEnabled bool `mapstructure:"redis_enabled" default:"false"`
	// RedisAddr is the redis host:port.
	RedisAddr string `mapstructure:"redis_addr" default:"localhost:6379"`
	// RedisChannel is the pub/sub channel name.
	RedisChannel string `mapstructure:"redis_channel" default:"collection-sync-events"`
}
