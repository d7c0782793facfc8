// Package config loads the collection-sync configuration.
//
// Values come from, in increasing priority: `default` struct tags, an optional
// config.yaml, a .env file and environment variables. Nested keys map to
// environment variables by replacing dots with underscores, so
// records.user_id is read from RECORDS_USER_ID.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, CORS origins
//   - Database: Document Store driver (sqlite, mysql, mongo) and connection
//   - Storage: optional MinIO/S3 mirror of downloaded artwork
//   - Assets: artwork directory, size bound, download pacing
//   - Notify: subscriber buffers and the optional Redis fan-out
//   - Scheduler, Sync: refresh interval and reconciler retries
//   - Upstream: provider HTTP client timeouts and circuit breaker
//   - Records, BoardGames, Books: provider credentials
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Scheduler.Interval)
package config
