// Package middleware groups the Fiber middleware of the HTTP API.
//
//   - auth: API key validation for the refresh and sync endpoints.
//   - rayid: tags every request with a ray id, exposed in the X-Ray-ID
//     response header and picked up by logger.WithRayID.
package middleware
