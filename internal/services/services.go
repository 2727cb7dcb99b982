// package services defines the Spotify Web API client and the interfaces the rest of the module consumes
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/spotifetch/internal/models"
	"golang.org/x/oauth2"
)

// PlaylistFetcher fetches a complete playlist, following pagination.
type PlaylistFetcher interface {
	GetPlaylist(ctx context.Context, userID, playlistID string) (*models.Playlist, error)
}

// Client is the full surface of [SpotifyClient] used by the CLI.
type Client interface {
	PlaylistFetcher
	oauth2.TokenSource

	// Authenticate returns a valid access token, requesting a new one when the cached token
	// has expired or force is set.
	Authenticate(ctx context.Context, force bool) (string, error)

	// FetchAuthenticated issues a bearer-authenticated GET and returns the JSON body.
	FetchAuthenticated(ctx context.Context, url string) (json.RawMessage, error)

	// URL resolves an API path such as "/me" against the base URL; absolute URLs pass through.
	URL(path string) string
}

var (
	_ Client          = (*SpotifyClient)(nil)
	_ PlaylistFetcher = (*SpotifyClient)(nil)
)
