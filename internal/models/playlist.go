package models

import (
	"strings"
	"time"
)

// Playlist is a Spotify playlist with every track collected across pages.
type Playlist struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Owner         Owner   `json:"owner"`
	Public        bool    `json:"public"`
	Collaborative bool    `json:"collaborative"`
	SnapshotID    string  `json:"snapshot_id,omitempty"`
	URL           string  `json:"url,omitempty"`
	Images        []Image `json:"images,omitempty"`
	TrackCount    int     `json:"track_count"` // Total reported by the API, including unavailable items
	Tracks        []Track `json:"tracks"`
}

// Owner identifies the user that owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Image is a cover image in one resolution.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Track represents a playlist entry
type Track struct {
	ID       string    `json:"id,omitempty"`
	Title    string    `json:"title"`
	Artists  []string  `json:"artists"`
	Album    string    `json:"album,omitempty"`
	Duration int       `json:"duration"` // Duration in seconds
	ISRC     string    `json:"isrc,omitempty"`
	Explicit bool      `json:"explicit,omitempty"`
	IsLocal  bool      `json:"is_local,omitempty"`
	URI      string    `json:"uri,omitempty"`
	AddedAt  time.Time `json:"added_at,omitzero"`
}

// Artist returns the credited artists joined by ", ".
func (t Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// CoverURL returns the first (largest) cover image, or "".
func (p *Playlist) CoverURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// TotalDuration sums track durations in seconds.
func (p *Playlist) TotalDuration() int {
	total := 0
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
