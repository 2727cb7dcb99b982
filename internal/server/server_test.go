package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/services"
	"github.com/desertthunder/spotifetch/internal/shared"
	th "github.com/desertthunder/spotifetch/internal/testing"
)

func newTestServer(t *testing.T, client *th.MockClient) (*httptest.Server, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	srv := New("127.0.0.1:0", client, shared.NewLogger(&logs))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, &logs
}

func get(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return resp, body
}

func TestServer(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		ts, _ := newTestServer(t, th.NewMockClient(nil))

		resp, body := get(t, ts.URL+"/healthz")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if body["status"] != "ok" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("Get Playlist", func(t *testing.T) {
		client := th.NewMockClient(map[string]*models.Playlist{
			"alice:pl1": th.SamplePlaylist("pl1", "Road Trip", 3),
		})
		ts, logs := newTestServer(t, client)

		resp, err := http.Get(ts.URL + "/users/alice/playlists/pl1")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}

		var p models.Playlist
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode playlist: %v", err)
		}
		if p.ID != "pl1" || len(p.Tracks) != 3 {
			t.Errorf("unexpected playlist %+v", p)
		}

		if calls := client.Calls(); len(calls) != 1 || calls[0] != "alice:pl1" {
			t.Errorf("unexpected fetcher calls %v", calls)
		}
		if !strings.Contains(logs.String(), "/users/alice/playlists/pl1") {
			t.Errorf("expected request to be logged, got %q", logs.String())
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		ts, _ := newTestServer(t, th.NewMockClient(nil))

		resp, err := http.Post(ts.URL+"/users/alice/playlists/pl1", "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("Error Mapping", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			status   int
			kind     string
			upstream float64
		}{
			{"Auth Failure", &services.AuthError{StatusCode: 401, Message: "bad client", Err: &services.StatusError{StatusCode: 401, Kind: services.KindUser}}, http.StatusBadGateway, "auth", 0},
			{"Upstream User Error", &services.StatusError{StatusCode: 403, Kind: services.KindUser}, http.StatusBadGateway, "user error", 403},
			{"Rate Limited", &services.StatusError{StatusCode: 429, Kind: services.KindRateLimit}, http.StatusTooManyRequests, "rate limited", 429},
			{"Upstream Server Error", fmt.Errorf("page 2: %w", &services.StatusError{StatusCode: 503, Kind: services.KindServer}), http.StatusBadGateway, "server error", 503},
			{"Not Found", &services.StatusError{StatusCode: 404, Kind: services.KindUnexpected}, http.StatusNotFound, "unexpected status", 404},
			{"Timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "", 0},
			{"Other", fmt.Errorf("decode failure"), http.StatusInternalServerError, "", 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client := th.NewMockClient(nil)
				client.PlaylistErrors["alice:pl1"] = tt.err
				ts, _ := newTestServer(t, client)

				resp, body := get(t, ts.URL+"/users/alice/playlists/pl1")
				if resp.StatusCode != tt.status {
					t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
				}
				if body["error"] == "" {
					t.Error("expected error message")
				}
				if tt.kind != "" && body["kind"] != tt.kind {
					t.Errorf("expected kind %q, got %v", tt.kind, body["kind"])
				}
				if tt.upstream != 0 && body["upstream_status"] != tt.upstream {
					t.Errorf("expected upstream_status %v, got %v", tt.upstream, body["upstream_status"])
				}
			})
		}
	})

	t.Run("Unknown Route", func(t *testing.T) {
		ts, _ := newTestServer(t, th.NewMockClient(nil))

		resp, err := http.Get(ts.URL + "/users/alice")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("ListenAndServe Stops On Cancel", func(t *testing.T) {
		srv := New("127.0.0.1:0", th.NewMockClient(nil), nil)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- srv.ListenAndServe(ctx) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Recover", func(t *testing.T) {
		var logs bytes.Buffer
		logger := shared.NewLogger(&logs)

		router := NewBasicRouter()
		router.Use(LoggingMiddleware(logger), RecoverMiddleware(logger))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(logs.String(), "handler panic") {
			t.Errorf("expected panic to be logged, got %q", logs.String())
		}
		if !strings.Contains(logs.String(), "status=500") {
			t.Errorf("expected logged status 500, got %q", logs.String())
		}
	})

	t.Run("Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Logging Levels", func(t *testing.T) {
		var logs bytes.Buffer
		logger := shared.NewLogger(&logs)
		logger.SetLevel(log.DebugLevel)

		h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tea", nil))

		if !strings.Contains(logs.String(), "WARN") || !strings.Contains(logs.String(), "status=418") {
			t.Errorf("expected warn log with status, got %q", logs.String())
		}
	})
}
