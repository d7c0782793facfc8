// Package server holds the HTTP server configuration.
//
// The listen port, the API key guarding the refresh and sync endpoints, and
// the CORS allow list are defined here and embedded by core/config. The Fiber
// application itself is assembled in cmd/start.go.
package server
