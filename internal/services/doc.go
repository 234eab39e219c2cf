// Package services talks to remote HTTP APIs.
//
// [APIService] is a thin request helper with per-service headers and optional bearer authentication through
// [golang.org/x/oauth2]. [RESTBackend] builds on it to serve the taxonomy collections from a PostgREST-style
// hosted database:
//
//   - GET    /rest/v1/{labels|flags}?select=*&order=id.asc
//   - POST   /rest/v1/{labels|flags}?on_conflict=id with Prefer: resolution=merge-duplicates
//   - DELETE /rest/v1/{labels|flags}?id=eq.{id} with Prefer: return=representation
//
// The hosted database has no push channel here, so change notification comes from polling
// [RESTBackend.Fingerprint] through a taxonomy WatchedSource.
//
// # Error Handling
//
//   - [shared.ErrServiceUnavailable] : transport failure or a 502-504 response
//   - [shared.ErrAPIRequest] : any other non-2xx response
//   - [shared.ErrLabelNotFound], [shared.ErrFlagNotFound] : delete matched no row
package services
