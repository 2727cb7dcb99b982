package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// tokenEndpoint serves client-credentials grants, numbering issued tokens token-1, token-2, ...
type tokenEndpoint struct {
	t         *testing.T
	calls     atomic.Int32
	expiresIn int
	delay     time.Duration
	broken    atomic.Bool // respond 200 without an access_token
}

func (te *tokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := te.calls.Add(1)

	if r.Method != http.MethodPost {
		te.t.Errorf("expected POST, got %s", r.Method)
	}
	id, secret, ok := r.BasicAuth()
	if !ok || id != "client-id" || secret != "client-secret" {
		te.t.Errorf("unexpected basic auth %q:%q", id, secret)
	}
	if err := r.ParseForm(); err != nil {
		te.t.Errorf("failed to parse form: %v", err)
	}
	if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
		te.t.Errorf("expected grant_type client_credentials, got %q", got)
	}

	if te.delay > 0 {
		time.Sleep(te.delay)
	}

	w.Header().Set("Content-Type", "application/json")
	if te.broken.Load() {
		fmt.Fprint(w, `{"token_type":"Bearer","expires_in":3600}`)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": fmt.Sprintf("token-%d", n),
		"token_type":   "Bearer",
		"expires_in":   te.expiresIn,
	})
}

// newTestClient wires a client to an httptest server that routes /token to te and everything else to api.
func newTestClient(t *testing.T, te *tokenEndpoint, api http.HandlerFunc) (*SpotifyClient, clockwork.FakeClock) {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/token", te)
	if api != nil {
		mux.Handle("/", api)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	clock := clockwork.NewFakeClockAt(testEpoch)
	client := NewSpotifyClient(
		Credentials{ClientID: "client-id", ClientSecret: "client-secret"},
		WithHTTPClient(server.Client()),
		WithClock(clock),
		WithTokenURL(server.URL+"/token"),
		WithBaseURL(server.URL+"/v1"),
	)
	return client, clock
}

func baseURL(r *http.Request) string {
	return "http://" + r.Host
}

func trackItem(id, title string, ms int, artists ...string) map[string]any {
	as := make([]map[string]string, len(artists))
	for i, a := range artists {
		as[i] = map[string]string{"name": a}
	}
	return map[string]any{
		"added_at": "2024-01-02T03:04:05Z",
		"is_local": false,
		"track": map[string]any{
			"id":           id,
			"name":         title,
			"artists":      as,
			"album":        map[string]string{"name": "Album " + id},
			"duration_ms":  ms,
			"explicit":     false,
			"external_ids": map[string]string{"isrc": "ISRC" + id},
			"uri":          "spotify:track:" + id,
		},
	}
}

func expectedTrack(id, title string, seconds int, artists ...string) models.Track {
	return models.Track{
		ID:       id,
		Title:    title,
		Artists:  artists,
		Album:    "Album " + id,
		Duration: seconds,
		ISRC:     "ISRC" + id,
		URI:      "spotify:track:" + id,
		AddedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestSpotifyClient(t *testing.T) {
	t.Run("NewSpotifyClient", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			c := NewSpotifyClient(Credentials{ClientID: "id", ClientSecret: "secret"})

			if c.tokenURL != spotifyTokenURL {
				t.Errorf("expected token URL %s, got %s", spotifyTokenURL, c.tokenURL)
			}
			if c.baseURL != spotifyBaseURL {
				t.Errorf("expected base URL %s, got %s", spotifyBaseURL, c.baseURL)
			}
			if c.httpClient.Timeout != defaultTimeout {
				t.Errorf("expected timeout %v, got %v", defaultTimeout, c.httpClient.Timeout)
			}
			if c.token != nil {
				t.Error("expected no cached token")
			}
		})

		t.Run("From Config", func(t *testing.T) {
			c := NewSpotifyClientFromConfig(shared.SpotifyConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				TokenURL:     "http://localhost:9000/token",
				APIURL:       "http://localhost:9000/v1/",
			})

			if c.tokenURL != "http://localhost:9000/token" {
				t.Errorf("unexpected token URL %s", c.tokenURL)
			}
			if c.baseURL != "http://localhost:9000/v1" {
				t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
			}
			if c.creds.ClientID != "id" || c.creds.ClientSecret != "secret" {
				t.Errorf("unexpected credentials %+v", c.creds)
			}
		})

		t.Run("Empty Config Keeps Default URLs", func(t *testing.T) {
			c := NewSpotifyClientFromConfig(shared.SpotifyConfig{})
			if c.tokenURL != spotifyTokenURL || c.baseURL != spotifyBaseURL {
				t.Errorf("expected default URLs, got %s and %s", c.tokenURL, c.baseURL)
			}
		})
	})

	t.Run("URL", func(t *testing.T) {
		c := NewSpotifyClient(Credentials{}, WithBaseURL("https://api.example.com/v1"))

		tests := []struct {
			name string
			path string
			want string
		}{
			{"Leading Slash", "/me", "https://api.example.com/v1/me"},
			{"No Leading Slash", "browse/new-releases", "https://api.example.com/v1/browse/new-releases"},
			{"Absolute HTTPS", "https://other.example.com/x", "https://other.example.com/x"},
			{"Absolute HTTP", "http://other.example.com/x", "http://other.example.com/x"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := c.URL(tt.path); got != tt.want {
					t.Errorf("URL(%q) = %q, want %q", tt.path, got, tt.want)
				}
			})
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("Caches Token Until Expiry", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, clock := newTestClient(t, te, nil)
			ctx := context.Background()

			tok, err := c.Authenticate(ctx, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok != "token-1" {
				t.Errorf("expected token-1, got %s", tok)
			}

			tok, err = c.Authenticate(ctx, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok != "token-1" || te.calls.Load() != 1 {
				t.Errorf("expected cached token-1 with one call, got %s with %d calls", tok, te.calls.Load())
			}

			clock.Advance(3599 * time.Second)
			if tok, _ = c.Authenticate(ctx, false); tok != "token-1" || te.calls.Load() != 1 {
				t.Errorf("expected cached token one second before expiry, got %s with %d calls", tok, te.calls.Load())
			}

			clock.Advance(time.Second)
			tok, err = c.Authenticate(ctx, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok != "token-2" || te.calls.Load() != 2 {
				t.Errorf("expected refresh at expiry, got %s with %d calls", tok, te.calls.Load())
			}
		})

		t.Run("Stores Expiry From Response", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 120}
			c, _ := newTestClient(t, te, nil)

			if _, err := c.Authenticate(context.Background(), false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := testEpoch.Add(120 * time.Second)
			if !c.token.Expiry.Equal(want) {
				t.Errorf("expected expiry %v, got %v", want, c.token.Expiry)
			}
		})

		t.Run("Force Refreshes Valid Token", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, nil)
			ctx := context.Background()

			c.Authenticate(ctx, false)
			tok, err := c.Authenticate(ctx, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok != "token-2" {
				t.Errorf("expected forced token-2, got %s", tok)
			}
			if te.calls.Load() != 2 {
				t.Errorf("expected 2 token calls, got %d", te.calls.Load())
			}
		})

		t.Run("Missing Access Token Leaves State Unchanged", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, nil)
			ctx := context.Background()

			if _, err := c.Authenticate(ctx, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			before := c.token

			te.broken.Store(true)
			_, err := c.Authenticate(ctx, true)
			if err == nil {
				t.Fatal("expected error for response without access_token")
			}

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %T", err)
			}
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Error("expected error to match ErrAuthFailed")
			}

			if c.token != before || c.token.AccessToken != "token-1" || !c.token.Expiry.Equal(testEpoch.Add(time.Hour)) {
				t.Errorf("token state changed after failed grant: %+v", c.token)
			}

			tok, err := c.Authenticate(ctx, false)
			if err != nil || tok != "token-1" {
				t.Errorf("expected previous token-1 to remain usable, got %q, %v", tok, err)
			}
		})

		t.Run("Non-Positive Expiry", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 0}
			c, _ := newTestClient(t, te, nil)

			_, err := c.Authenticate(context.Background(), false)

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %v", err)
			}
			if c.token != nil {
				t.Error("expected no token to be cached")
			}
		})

		t.Run("Missing Expiry", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"access_token":"abc","token_type":"Bearer"}`)
			}))
			defer server.Close()

			c := NewSpotifyClient(Credentials{ClientID: "id", ClientSecret: "secret"}, WithTokenURL(server.URL))
			_, err := c.Authenticate(context.Background(), false)

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %v", err)
			}
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Error("expected error to match ErrAuthFailed")
			}
			if c.token != nil {
				t.Errorf("expected no token to be cached, got %+v", c.token)
			}
		})

		t.Run("Token Endpoint Errors", func(t *testing.T) {
			tests := []struct {
				name   string
				status int
				kind   StatusKind
			}{
				{"Bad Request", http.StatusBadRequest, KindUser},
				{"Unauthorized", http.StatusUnauthorized, KindUser},
				{"Rate Limited", http.StatusTooManyRequests, KindRateLimit},
				{"Server Error", http.StatusServiceUnavailable, KindServer},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						http.Error(w, `{"error":"invalid_client"}`, tt.status)
					}))
					defer server.Close()

					c := NewSpotifyClient(Credentials{ClientID: "id", ClientSecret: "bad"}, WithTokenURL(server.URL))
					_, err := c.Authenticate(context.Background(), false)

					var authErr *AuthError
					if !errors.As(err, &authErr) {
						t.Fatalf("expected *AuthError, got %v", err)
					}
					if authErr.StatusCode != tt.status {
						t.Errorf("expected status %d, got %d", tt.status, authErr.StatusCode)
					}

					se, ok := AsStatusError(err)
					if !ok {
						t.Fatal("expected wrapped *StatusError")
					}
					if se.Kind != tt.kind {
						t.Errorf("expected kind %v, got %v", tt.kind, se.Kind)
					}
					if !strings.Contains(se.Body, "invalid_client") {
						t.Errorf("expected body excerpt, got %q", se.Body)
					}
				})
			}
		})

		t.Run("Unreachable Endpoint", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			url := server.URL
			server.Close()

			c := NewSpotifyClient(Credentials{ClientID: "id", ClientSecret: "secret"}, WithTokenURL(url))
			_, err := c.Authenticate(context.Background(), false)

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %v", err)
			}
			if authErr.StatusCode != 0 {
				t.Errorf("expected status 0 for transport failure, got %d", authErr.StatusCode)
			}
		})

		t.Run("Concurrent Refresh Is Collapsed", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600, delay: 100 * time.Millisecond}
			c, _ := newTestClient(t, te, nil)

			var wg sync.WaitGroup
			tokens := make([]string, 8)
			for i := range tokens {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					tok, err := c.Authenticate(context.Background(), false)
					if err != nil {
						t.Errorf("expected no error, got %v", err)
					}
					tokens[i] = tok
				}(i)
			}
			wg.Wait()

			if te.calls.Load() != 1 {
				t.Errorf("expected a single token request, got %d", te.calls.Load())
			}
			for i, tok := range tokens {
				if tok != "token-1" {
					t.Errorf("goroutine %d got %q", i, tok)
				}
			}
		})

		t.Run("Canceled Caller Does Not Fail Joined Callers", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600, delay: 200 * time.Millisecond}
			c, _ := newTestClient(t, te, nil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			first := make(chan error, 1)
			go func() {
				_, err := c.Authenticate(ctx, false)
				first <- err
			}()

			for te.calls.Load() == 0 {
				time.Sleep(time.Millisecond)
			}

			type result struct {
				tok string
				err error
			}
			second := make(chan result, 1)
			go func() {
				tok, err := c.Authenticate(context.Background(), false)
				second <- result{tok, err}
			}()

			time.Sleep(20 * time.Millisecond)
			cancel()

			if err := <-first; !errors.Is(err, context.Canceled) {
				t.Errorf("expected canceled caller to see context.Canceled, got %v", err)
			}

			got := <-second
			if got.err != nil {
				t.Fatalf("expected joined caller to succeed, got %v", got.err)
			}
			if got.tok != "token-1" {
				t.Errorf("expected token-1, got %q", got.tok)
			}
			if te.calls.Load() != 1 {
				t.Errorf("expected a single token request, got %d", te.calls.Load())
			}

			if tok, err := c.Authenticate(context.Background(), false); err != nil || tok != "token-1" {
				t.Errorf("expected grant to be cached, got %q, %v", tok, err)
			}
		})

		t.Run("Refresh Reuses Token Stored By Finished Grant", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, nil)
			ctx := context.Background()

			if _, err := c.Authenticate(ctx, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			// a caller that missed the cache just before the grant stored its token
			tok, err := c.refresh(ctx, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok.AccessToken != "token-1" || te.calls.Load() != 1 {
				t.Errorf("expected stored token-1 with one call, got %s with %d calls", tok.AccessToken, te.calls.Load())
			}

			tok, err = c.refresh(ctx, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tok.AccessToken != "token-2" || te.calls.Load() != 2 {
				t.Errorf("expected forced token-2 with two calls, got %s with %d calls", tok.AccessToken, te.calls.Load())
			}
		})
	})

	t.Run("Token", func(t *testing.T) {
		te := &tokenEndpoint{t: t, expiresIn: 3600}
		c, _ := newTestClient(t, te, nil)

		tok, err := c.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "token-1" || tok.TokenType != "Bearer" {
			t.Errorf("unexpected token %+v", tok)
		}

		tok.AccessToken = "mutated"
		if c.token.AccessToken != "token-1" {
			t.Error("expected Token to return a copy")
		}
	})

	t.Run("FetchAuthenticated", func(t *testing.T) {
		t.Run("Returns Raw JSON", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
					t.Errorf("expected bearer token, got %q", got)
				}
				if r.URL.Path != "/v1/me" {
					t.Errorf("expected path /v1/me, got %s", r.URL.Path)
				}
				fmt.Fprint(w, `{"id":"app"}`)
			})

			raw, err := c.FetchAuthenticated(context.Background(), c.URL("/me"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(raw) != `{"id":"app"}` {
				t.Errorf("unexpected body %s", raw)
			}
		})

		t.Run("Auth Failure Skips Request", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			te.broken.Store(true)

			var apiCalls atomic.Int32
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				apiCalls.Add(1)
			})

			_, err := c.FetchAuthenticated(context.Background(), c.URL("/me"))
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if apiCalls.Load() != 0 {
				t.Errorf("expected no API calls, got %d", apiCalls.Load())
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			})

			if _, err := c.FetchAuthenticated(context.Background(), c.URL("/me")); err == nil {
				t.Error("expected decode error")
			}
		})
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		t.Run("Single Page", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/users/alice/playlists/pl1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				writeJSON(t, w, map[string]any{
					"id":            "pl1",
					"name":          "Road Trip",
					"description":   "songs for driving",
					"public":        true,
					"snapshot_id":   "snap-abc",
					"owner":         map[string]string{"id": "alice", "display_name": "Alice"},
					"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/pl1"},
					"images":        []map[string]any{{"url": "https://i.scdn.co/image/1", "width": 640, "height": 640}},
					"tracks": map[string]any{
						"total": 3,
						"next":  nil,
						"items": []any{
							trackItem("t1", "First", 181500, "Artist A"),
							map[string]any{"added_at": "2024-01-02T03:04:05Z", "track": nil},
							trackItem("t2", "Second", 240000, "Artist B", "Artist C"),
						},
					},
				})
			})

			p, err := c.GetPlaylist(context.Background(), "alice", "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if p.ID != "pl1" || p.Name != "Road Trip" || !p.Public {
				t.Errorf("unexpected playlist fields %+v", p)
			}
			if p.Owner.DisplayName != "Alice" || p.CoverURL() != "https://i.scdn.co/image/1" {
				t.Errorf("unexpected owner or cover: %+v", p)
			}
			if p.TrackCount != 3 {
				t.Errorf("expected reported total 3, got %d", p.TrackCount)
			}

			want := []models.Track{
				expectedTrack("t1", "First", 181, "Artist A"),
				expectedTrack("t2", "Second", 240, "Artist B", "Artist C"),
			}
			if diff := cmp.Diff(want, p.Tracks); diff != "" {
				t.Errorf("tracks mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run("Follows Cursor Across Pages", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			var apiCalls atomic.Int32
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				apiCalls.Add(1)
				if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
					t.Errorf("expected bearer token on every page, got %q", got)
				}

				switch r.URL.Query().Get("offset") {
				case "":
					writeJSON(t, w, map[string]any{
						"id":   "pl1",
						"name": "Long",
						"tracks": map[string]any{
							"total": 5,
							"items": []any{trackItem("t1", "One", 1000, "A"), trackItem("t2", "Two", 2000, "A")},
							"next":  baseURL(r) + "/v1/playlists/pl1/tracks?offset=2",
						},
						// A top-level next on the first page is not a track cursor.
						"next": baseURL(r) + "/v1/wrong",
					})
				case "2":
					writeJSON(t, w, map[string]any{
						"items": []any{trackItem("t3", "Three", 3000, "B"), trackItem("t4", "Four", 4000, "B")},
						"next":  baseURL(r) + "/v1/playlists/pl1/tracks?offset=4",
						// Later pages have no nested tracks object.
					})
				case "4":
					writeJSON(t, w, map[string]any{
						"items": []any{trackItem("t5", "Five", 5000, "C")},
						"next":  nil,
					})
				default:
					t.Errorf("unexpected request %s", r.URL)
					w.WriteHeader(http.StatusNotFound)
				}
			})

			p, err := c.GetPlaylist(context.Background(), "alice", "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var ids []string
			for _, tr := range p.Tracks {
				ids = append(ids, tr.ID)
			}
			if diff := cmp.Diff([]string{"t1", "t2", "t3", "t4", "t5"}, ids); diff != "" {
				t.Errorf("track order mismatch (-want +got):\n%s", diff)
			}
			if apiCalls.Load() != 3 {
				t.Errorf("expected 3 page requests, got %d", apiCalls.Load())
			}
			if te.calls.Load() != 1 {
				t.Errorf("expected token to be reused across pages, got %d grants", te.calls.Load())
			}
		})

		t.Run("Escapes Path Segments", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.EscapedPath() != "/v1/users/a%2Fb/playlists/pl%201" {
					t.Errorf("unexpected escaped path %s", r.URL.EscapedPath())
				}
				writeJSON(t, w, map[string]any{"id": "pl 1", "tracks": map[string]any{"items": []any{}}})
			})

			if _, err := c.GetPlaylist(context.Background(), "a/b", "pl 1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Missing Arguments", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, nil)

			for _, args := range [][2]string{{"", "pl1"}, {"alice", ""}} {
				_, err := c.GetPlaylist(context.Background(), args[0], args[1])
				if !errors.Is(err, shared.ErrMissingArgument) {
					t.Errorf("GetPlaylist(%q, %q): expected ErrMissingArgument, got %v", args[0], args[1], err)
				}
			}
			if te.calls.Load() != 0 {
				t.Errorf("expected no token requests, got %d", te.calls.Load())
			}
		})

		t.Run("First Page Errors", func(t *testing.T) {
			tests := []struct {
				name   string
				status int
				kind   StatusKind
			}{
				{"Unauthorized", http.StatusUnauthorized, KindUser},
				{"Forbidden", http.StatusForbidden, KindUser},
				{"Rate Limited", http.StatusTooManyRequests, KindRateLimit},
				{"Internal Error", http.StatusInternalServerError, KindServer},
				{"Bad Gateway", http.StatusBadGateway, KindServer},
				{"Not Found", http.StatusNotFound, KindUnexpected},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					te := &tokenEndpoint{t: t, expiresIn: 3600}
					c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(tt.status)
					})

					p, err := c.GetPlaylist(context.Background(), "alice", "pl1")
					if p != nil {
						t.Error("expected no playlist on failure")
					}

					se, ok := AsStatusError(err)
					if !ok {
						t.Fatalf("expected *StatusError, got %v", err)
					}
					if se.StatusCode != tt.status || se.Kind != tt.kind {
						t.Errorf("expected %d/%v, got %d/%v", tt.status, tt.kind, se.StatusCode, se.Kind)
					}
					if !errors.Is(err, shared.ErrAPIRequest) {
						t.Error("expected error to match ErrAPIRequest")
					}
					if errors.Is(err, shared.ErrAuthFailed) {
						t.Error("API failures must not match ErrAuthFailed")
					}
				})
			}
		})

		t.Run("Later Page Error Aborts", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("offset") == "1" {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				writeJSON(t, w, map[string]any{
					"id": "pl1",
					"tracks": map[string]any{
						"items": []any{trackItem("t1", "One", 1000, "A")},
						"next":  baseURL(r) + "/v1/playlists/pl1/tracks?offset=1",
					},
				})
			})

			p, err := c.GetPlaylist(context.Background(), "alice", "pl1")
			if p != nil {
				t.Error("expected no partial playlist")
			}

			se, ok := AsStatusError(err)
			if !ok || !se.ServerError() {
				t.Fatalf("expected server *StatusError, got %v", err)
			}
			if !strings.Contains(err.Error(), "page 2") {
				t.Errorf("expected page number in error, got %q", err.Error())
			}
		})

		t.Run("Auth Failure", func(t *testing.T) {
			te := &tokenEndpoint{t: t, expiresIn: 3600}
			te.broken.Store(true)
			c, _ := newTestClient(t, te, func(w http.ResponseWriter, r *http.Request) {
				t.Error("expected no API request without a token")
			})

			_, err := c.GetPlaylist(context.Background(), "alice", "pl1")
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Errorf("expected *AuthError, got %v", err)
			}
		})
	})
}
