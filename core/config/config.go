package config

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"collection-sync/core/assets"
	"collection-sync/core/database"
	"collection-sync/core/logger"
	"collection-sync/core/notify"
	"collection-sync/core/reconcile"
	"collection-sync/core/scheduler"
	"collection-sync/core/server"
	"collection-sync/core/storage"
	"collection-sync/core/upstream"
	"collection-sync/feature/boardgames"
	"collection-sync/feature/books"
	"collection-sync/feature/records"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the optional object storage mirror.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the Document Store.
	Database database.Config `mapstructure:"database"`
	// Assets holds configuration for artwork downloads.
	Assets assets.Config `mapstructure:"assets"`
	// Notify holds configuration for change notifications.
	Notify notify.Config `mapstructure:"notify"`
	// Scheduler holds the refresh interval.
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	// Sync holds the reconciler retry settings.
	Sync reconcile.Config `mapstructure:"sync"`
	// Upstream holds the HTTP client settings shared by providers.
	Upstream upstream.Config `mapstructure:"upstream"`

	Records    records.Config    `mapstructure:"records"`
	BoardGames boardgames.Config `mapstructure:"boardgames"`
	Books      books.Config      `mapstructure:"books"`

	// OverridesFile points to the JSON override table.
	OverridesFile string `mapstructure:"overrides_file" default:""`
}

// LoadConfig loads configuration from environment variables, an optional
// config.yaml and a .env file found in path.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
