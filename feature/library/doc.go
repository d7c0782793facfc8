// Package library exposes the cached collections over HTTP.
//
// Reads are served from the in-memory cache only. Change events are streamed
// as server-sent events; a client that reconnects or receives cache_cleared
// resyncs through the snapshot route. The sync and cache refresh routes are
// guarded by the API key middleware.
package library
