// Package server exposes playlist fetching over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in registration order; the first added is the outermost.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so handlers read path
// wildcards with [http.Request.PathValue] and unsupported methods receive 405.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Routes
//
//   - GET /users/{userID}/playlists/{playlistID} : [PlaylistHandler], the complete playlist as JSON
//   - GET /healthz : [HealthHandler]
//
// Upstream failures are mapped to JSON error bodies: authentication failures and Spotify server
// errors become 502, Spotify rate limiting becomes 429 and an unknown playlist 404.
package server
