// Package services implements the Spotify Web API client used by every surface of spotifetch.
//
// # Authentication
//
// [SpotifyClient] authenticates the application itself with the OAuth2 client-credentials grant.
// The token and its expiry live on the client instance and are replaced together under a mutex.
// [SpotifyClient.Authenticate] returns the cached token while it is valid and performs a new grant
// when it has expired or when the caller forces a refresh. Concurrent refreshes share one request.
//
// [SpotifyClient] also implements [oauth2.TokenSource].
//
// # Playlists
//
// [SpotifyClient.GetPlaylist] fetches a playlist and follows the track cursor until the last page.
// The first page exposes the cursor at tracks.next, later pages at the top-level next.
//
// # Error Handling
//
// Responses are classified by [CheckStatus]:
//   - 200, 201, 202, 204 : success
//   - 400, 401, 403 : [*StatusError] with [KindUser]
//   - 429 : [*StatusError] with [KindRateLimit]
//   - 500, 502, 503 : [*StatusError] with [KindServer]
//
// Failures of the token endpoint, including success responses without a usable token, are
// reported as [*AuthError], which matches [shared.ErrAuthFailed]. Every [*StatusError] matches
// [shared.ErrAPIRequest]. Nothing is retried.
package services
