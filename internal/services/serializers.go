package services

import (
	"time"

	"github.com/desertthunder/spotifetch/internal/models"
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"` // "track" or "episode"
	Artists     []spotifyArtist `json:"artists"`
	Album       spotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	URI         string          `json:"uri"`
}

// playlistItem is an entry of a playlist's track paging object.
//
// Track is null for items that are no longer available.
type playlistItem struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *spotifyTrack `json:"track"`
}

// trackPage is a paging object of playlist items. It appears nested under "tracks"
// in the playlist response and bare at the top level of every following page.
type trackPage struct {
	Href     string         `json:"href"`
	Items    []playlistItem `json:"items"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Total    int            `json:"total"`
	Next     string         `json:"next"`
	Previous string         `json:"previous"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyPlaylist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Public        *bool          `json:"public"` // null when the visibility is unknown
	Collaborative bool           `json:"collaborative"`
	SnapshotID    string         `json:"snapshot_id"`
	Owner         spotifyOwner   `json:"owner"`
	ExternalURLs  externalURLs   `json:"external_urls"`
	Images        []spotifyImage `json:"images"`
	Tracks        trackPage      `json:"tracks"`
}

// toPlaylist maps the assembled API playlist to [models.Playlist].
//
// Items without a track object are dropped; order of the remaining items is kept.
func toPlaylist(sp *spotifyPlaylist) *models.Playlist {
	p := &models.Playlist{
		ID:            sp.ID,
		Name:          sp.Name,
		Description:   sp.Description,
		Owner:         models.Owner{ID: sp.Owner.ID, DisplayName: sp.Owner.DisplayName},
		Public:        sp.Public != nil && *sp.Public,
		Collaborative: sp.Collaborative,
		SnapshotID:    sp.SnapshotID,
		URL:           sp.ExternalURLs.Spotify,
		TrackCount:    sp.Tracks.Total,
		Tracks:        make([]models.Track, 0, len(sp.Tracks.Items)),
	}

	for _, img := range sp.Images {
		p.Images = append(p.Images, models.Image{URL: img.URL, Width: img.Width, Height: img.Height})
	}

	for _, item := range sp.Tracks.Items {
		if item.Track == nil {
			continue
		}
		p.Tracks = append(p.Tracks, toTrack(item))
	}

	if p.TrackCount == 0 {
		p.TrackCount = len(sp.Tracks.Items)
	}
	return p
}

func toTrack(item playlistItem) models.Track {
	st := item.Track
	track := models.Track{
		ID:       st.ID,
		Title:    st.Name,
		Artists:  make([]string, 0, len(st.Artists)),
		Album:    st.Album.Name,
		Duration: st.DurationMS / 1000,
		ISRC:     st.ExternalIDs.ISRC,
		Explicit: st.Explicit,
		IsLocal:  item.IsLocal,
		URI:      st.URI,
	}

	for _, a := range st.Artists {
		track.Artists = append(track.Artists, a.Name)
	}

	if item.AddedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.AddedAt); err == nil {
			track.AddedAt = t
		}
	}
	return track
}
