// Package services defines the [Catalog] interface an import runs against and implements it for Spotify.
//
// # Catalog Interface
//
// An import needs four remote operations: search for one track, look up the current user,
// create a playlist, and add a batch of tracks. [Catalog] exposes exactly those.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2 on top of an [oauth2] client.
// Expired tokens are refreshed by the oauth2 transport; [SpotifyService.SetTokenRefreshCallback]
// lets callers persist the refreshed token. HTTP 429 responses are retried by the client.
//
// # Search
//
// [BuildQuery] produces "track:<name> artist:<artist>" or "track:<name>".
// [SpotifyService.FirstTrack] asks for a single result and reports "not found" as a false
// flag rather than an error, so missing or malformed results never look like failures.
//
// # Error Handling
//
// Client errors are mapped onto the shared sentinels, keeping the original error in the chain:
//   - [shared.ErrNotAuthenticated] : no token, HTTP 401, or a failed refresh
//   - [shared.ErrForbidden] : HTTP 403, usually a missing scope
//   - [shared.ErrRateLimited] : HTTP 429 that survived retries
//   - [shared.ErrAPIRequest] : anything else
//
// [IsFatal] separates errors that must stop an import from those that only affect one row.
package services
