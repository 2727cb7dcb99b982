// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotifetch/internal/models"
	"golang.org/x/oauth2"
)

// MockBaseURL is the API root used by [MockClient.URL].
const MockBaseURL = "https://api.spotify.test/v1"

// MockClient is a test double for [services.Client].
//
// Playlists and PlaylistErrors are keyed by "userID:playlistID". Raw is keyed by full URL.
type MockClient struct {
	Playlists      map[string]*models.Playlist
	PlaylistErrors map[string]error
	Raw            map[string]json.RawMessage
	AccessToken    string
	AuthErr        error
	Delay          time.Duration // Applied to every GetPlaylist call

	mu         sync.Mutex
	calls      []string
	authCalls  int
	forceCalls int
}

// NewMockClient returns a client serving the given playlists, keyed by "userID:playlistID".
func NewMockClient(playlists map[string]*models.Playlist) *MockClient {
	if playlists == nil {
		playlists = map[string]*models.Playlist{}
	}
	return &MockClient{
		Playlists:      playlists,
		PlaylistErrors: map[string]error{},
		Raw:            map[string]json.RawMessage{},
		AccessToken:    "mock-token",
	}
}

func (m *MockClient) GetPlaylist(ctx context.Context, userID, playlistID string) (*models.Playlist, error) {
	key := userID + ":" + playlistID

	m.mu.Lock()
	m.calls = append(m.calls, key)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	if err := m.PlaylistErrors[key]; err != nil {
		return nil, err
	}
	p, ok := m.Playlists[key]
	if !ok {
		return nil, fmt.Errorf("mock: no playlist %s", key)
	}

	cp := *p
	cp.Tracks = append([]models.Track(nil), p.Tracks...)
	return &cp, nil
}

func (m *MockClient) Authenticate(ctx context.Context, force bool) (string, error) {
	m.mu.Lock()
	m.authCalls++
	if force {
		m.forceCalls++
	}
	m.mu.Unlock()

	if m.AuthErr != nil {
		return "", m.AuthErr
	}
	return m.AccessToken, nil
}

func (m *MockClient) Token() (*oauth2.Token, error) {
	tok, err := m.Authenticate(context.Background(), false)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (m *MockClient) FetchAuthenticated(ctx context.Context, url string) (json.RawMessage, error) {
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	raw, ok := m.Raw[url]
	if !ok {
		return nil, fmt.Errorf("mock: no response for %s", url)
	}
	return raw, nil
}

func (m *MockClient) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return MockBaseURL + "/" + strings.TrimLeft(path, "/")
}

// Calls returns the "userID:playlistID" keys requested so far, in call order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// AuthCalls returns the total and forced Authenticate call counts.
func (m *MockClient) AuthCalls() (total, forced int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authCalls, m.forceCalls
}

// SamplePlaylist builds a playlist with n generated tracks.
func SamplePlaylist(id, name string, n int) *models.Playlist {
	p := &models.Playlist{
		ID:          id,
		Name:        name,
		Description: "Test playlist " + name,
		Owner:       models.Owner{ID: "owner", DisplayName: "Owner"},
		Public:      true,
		SnapshotID:  "snap-" + id,
		URL:         "https://open.spotify.com/playlist/" + id,
		Images:      []models.Image{{URL: "https://i.scdn.co/image/" + id, Width: 640, Height: 640}},
		TrackCount:  n,
		Tracks:      make([]models.Track, 0, n),
	}
	for i := 1; i <= n; i++ {
		p.Tracks = append(p.Tracks, models.Track{
			ID:       fmt.Sprintf("%s-t%d", id, i),
			Title:    fmt.Sprintf("Song %d", i),
			Artists:  []string{fmt.Sprintf("Artist %d", i)},
			Album:    fmt.Sprintf("Album %d", i),
			Duration: 180 + i,
			ISRC:     fmt.Sprintf("USTST%07d", i),
			URI:      fmt.Sprintf("spotify:track:%s-t%d", id, i),
		})
	}
	return p
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
