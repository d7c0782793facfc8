// Package ratelimit paces outbound calls to rate-limited services.
//
// Each service is identified by a tag and governed by one Policy:
//
//   - CountPolicy: fixed window call counter for services that publish no
//     budget (20 calls per 60s for iTunes and OpenLibrary).
//   - HeaderPolicy: cooldown driven by a remaining-calls response header
//     (Discogs), with random jitter.
//
// Callers ask ShouldWait before a call and RecordCall after it. Wait sleeps
// for the required duration and returns early with the context error when the
// process is shutting down; the caller must not retry an interrupted sleep.
//
// Retry wraps a fetch whose body may signal "too many requests" and retries it
// after a cooldown, up to a bounded number of attempts.
package ratelimit
