package models

import (
	"fmt"
	"time"
)

// Snapshot is a persisted copy of a playlist as fetched at FetchedAt.
//
// ID and Sequence are assigned by the repository on create.
type Snapshot struct {
	ID                string     `json:"id"`
	Sequence          int        `json:"sequence"`
	PlaylistID        string     `json:"playlist_id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	OwnerID           string     `json:"owner_id,omitempty"`
	SpotifySnapshotID string     `json:"spotify_snapshot_id,omitempty"`
	Public            bool       `json:"public"`
	TrackCount        int        `json:"track_count"`
	FetchedAt         time.Time  `json:"fetched_at"`
	CreatedAt         time.Time  `json:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	Tracks            []Track    `json:"tracks,omitempty"`
}

// NewSnapshot captures p as requested for userID.
func NewSnapshot(userID string, p *Playlist, fetchedAt time.Time) *Snapshot {
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)

	return &Snapshot{
		PlaylistID:        p.ID,
		UserID:            userID,
		Name:              p.Name,
		Description:       p.Description,
		OwnerID:           p.Owner.ID,
		SpotifySnapshotID: p.SnapshotID,
		Public:            p.Public,
		TrackCount:        len(p.Tracks),
		FetchedAt:         fetchedAt,
		Tracks:            tracks,
	}
}

// Validate checks the fields required for persistence.
func (s *Snapshot) Validate() error {
	if s.PlaylistID == "" {
		return fmt.Errorf("snapshot playlist_id is required")
	}
	if s.UserID == "" {
		return fmt.Errorf("snapshot user_id is required")
	}
	if s.FetchedAt.IsZero() {
		return fmt.Errorf("snapshot fetched_at is required")
	}
	if s.Tracks != nil && s.TrackCount != len(s.Tracks) {
		return fmt.Errorf("snapshot track_count %d does not match %d tracks", s.TrackCount, len(s.Tracks))
	}
	return nil
}

// Playlist rebuilds a [Playlist] from the snapshot for export.
func (s *Snapshot) Playlist() *Playlist {
	return &Playlist{
		ID:          s.PlaylistID,
		Name:        s.Name,
		Description: s.Description,
		Owner:       Owner{ID: s.OwnerID},
		Public:      s.Public,
		SnapshotID:  s.SpotifySnapshotID,
		TrackCount:  s.TrackCount,
		Tracks:      s.Tracks,
	}
}
