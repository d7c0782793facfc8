package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required by the mutating endpoints.
	ApiKey string `mapstructure:"api_key" default:""`
	// AllowOrigins is the CORS allow list, comma separated.
	AllowOrigins string `mapstructure:"allow_origins" default:"*"`
	// ServeImages exposes the local artwork directory under /images.
	ServeImages bool `mapstructure:"serve_images" default:"true"`
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// RequiresAuth reports whether mutating endpoints are protected.
func (c Config) RequiresAuth() bool {
	return c.ApiKey != ""
}
