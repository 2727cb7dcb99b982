// Spotify Web API client using the client-credentials grant.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultTimeout = 30 * time.Second
	errBodyLimit   = 512
	tokenFlightKey = "client_credentials"
)

// Credentials identify the application in the client-credentials grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// SpotifyClient talks to the Spotify Web API on behalf of the application (not a user).
//
// The access token is cached until its expiry. Token state is guarded by a mutex and
// concurrent refreshes are collapsed into a single token request.
type SpotifyClient struct {
	creds      Credentials
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *log.Logger
	tokenURL   string
	baseURL    string

	mu     sync.RWMutex
	token  *oauth2.Token // nil until the first successful grant
	flight singleflight.Group
}

// Option configures a [SpotifyClient].
type Option func(*SpotifyClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SpotifyClient) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithClock replaces the wall clock used for token expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *SpotifyClient) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTokenURL overrides the authorization endpoint.
func WithTokenURL(u string) Option {
	return func(s *SpotifyClient) {
		if u != "" {
			s.tokenURL = u
		}
	}
}

// WithBaseURL overrides the Web API base URL.
func WithBaseURL(u string) Option {
	return func(s *SpotifyClient) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyClient) {
		if l != nil {
			s.logger = shared.WithLogger(l, "service", "spotify")
		}
	}
}

// NewSpotifyClient creates a client for the given credentials.
//
// Empty credentials are accepted; the first token request will then fail with an [*AuthError].
func NewSpotifyClient(creds Credentials, opts ...Option) *SpotifyClient {
	c := &SpotifyClient{
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
		clock:      clockwork.NewRealClock(),
		logger:     log.New(io.Discard),
		tokenURL:   spotifyTokenURL,
		baseURL:    spotifyBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSpotifyClientFromConfig builds a client from the [shared.SpotifyConfig] table.
func NewSpotifyClientFromConfig(cfg shared.SpotifyConfig, opts ...Option) *SpotifyClient {
	base := []Option{WithTokenURL(cfg.TokenURL), WithBaseURL(cfg.APIURL)}
	return NewSpotifyClient(Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}, append(base, opts...)...)
}

// Authenticate returns a valid access token.
//
// A cached token is returned without a network call while now is strictly before its expiry,
// unless force is set. Otherwise a client-credentials grant is performed and the cached token
// and expiry are replaced together. A failed grant leaves the cached state untouched.
func (c *SpotifyClient) Authenticate(ctx context.Context, force bool) (string, error) {
	tok, err := c.authenticate(ctx, force)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token implements [oauth2.TokenSource]. The returned token is a copy.
func (c *SpotifyClient) Token() (*oauth2.Token, error) {
	tok, err := c.authenticate(context.Background(), false)
	if err != nil {
		return nil, err
	}
	cp := *tok
	return &cp, nil
}

func (c *SpotifyClient) authenticate(ctx context.Context, force bool) (*oauth2.Token, error) {
	if !force {
		if tok, ok := c.cachedToken(); ok {
			return tok, nil
		}
	}
	return c.refresh(ctx, force)
}

// refresh joins or starts the shared token request.
//
// The grant runs detached from the caller's cancellation and is bounded by the HTTP timeout.
// A canceled caller stops waiting without failing the others. Forced refreshes use their own
// flight and always issue a new grant.
func (c *SpotifyClient) refresh(ctx context.Context, force bool) (*oauth2.Token, error) {
	key := tokenFlightKey
	if force {
		key += ":force"
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		if !force {
			// a grant that finished after our cache check already stored a fresh token
			if tok, ok := c.cachedToken(); ok {
				return tok, nil
			}
		}

		timeout := c.httpClient.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return c.requestToken(gctx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for access token: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight token request")
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// cachedToken returns the stored token if it has not reached its expiry.
func (c *SpotifyClient) cachedToken() (*oauth2.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == nil || !c.clock.Now().Before(c.token.Expiry) {
		return nil, false
	}
	return c.token, true
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// requestToken performs the client-credentials grant and stores the result.
func (c *SpotifyClient) requestToken(ctx context.Context) (*oauth2.Token, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Message: "failed to create token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)

	c.logger.Debug("requesting access token", "url", c.tokenURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Message: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "token endpoint returned an error", Err: err}
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "invalid token response", Err: err}
	}

	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "invalid tokens returned"}
	}

	tok := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
		ExpiresIn:   int64(body.ExpiresIn),
		Expiry:      c.clock.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}

	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	c.logger.Debug("access token refreshed", "expires_at", tok.Expiry.Format(time.RFC3339))
	return tok, nil
}

// URL resolves path against the base URL. Absolute http(s) URLs are returned unchanged.
func (c *SpotifyClient) URL(path string) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// FetchAuthenticated performs a bearer-authenticated GET and returns the JSON body.
func (c *SpotifyClient) FetchAuthenticated(ctx context.Context, rawURL string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, rawURL, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// doRequest performs an authenticated GET and decodes the JSON body into result.
func (c *SpotifyClient) doRequest(ctx context.Context, rawURL string, result any) error {
	token, err := c.Authenticate(ctx, false)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("GET", "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}

// checkResponse applies [CheckStatus] and annotates failures with the URL and a body excerpt.
func checkResponse(resp *http.Response) error {
	err := CheckStatus(resp.StatusCode)
	if err == nil {
		return nil
	}

	se := err.(*StatusError)
	if resp.Request != nil && resp.Request.URL != nil {
		se.URL = resp.Request.URL.String()
	}
	if body, rerr := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit)); rerr == nil {
		se.Body = strings.TrimSpace(string(body))
	}
	return se
}

// GetPlaylist fetches a playlist and all of its tracks.
//
// The first response carries the track cursor under tracks.next; every following page
// is a bare paging object with a top-level next. Pages are fetched sequentially and
// appended in order. Any failure aborts the call without a partial result.
func (c *SpotifyClient) GetPlaylist(ctx context.Context, userID, playlistID string) (*models.Playlist, error) {
	if userID == "" || playlistID == "" {
		return nil, fmt.Errorf("%w: user ID and playlist ID are required", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("%s/users/%s/playlists/%s", c.baseURL, url.PathEscape(userID), url.PathEscape(playlistID))

	var sp spotifyPlaylist
	if err := c.doRequest(ctx, endpoint, &sp); err != nil {
		return nil, err
	}

	next := sp.Tracks.Next
	for page := 2; next != ""; page++ {
		var tp trackPage
		if err := c.doRequest(ctx, next, &tp); err != nil {
			return nil, fmt.Errorf("failed to fetch tracks page %d of playlist %s: %w", page, playlistID, err)
		}

		sp.Tracks.Items = append(sp.Tracks.Items, tp.Items...)
		next = tp.Next
	}

	c.logger.Debug("playlist fetched", "playlist", playlistID, "items", len(sp.Tracks.Items))
	return toPlaylist(&sp), nil
}
