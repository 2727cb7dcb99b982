package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/jonboulle/clockwork"
)

const snapshotColumns = `id, sequence, playlist_id, user_id, name, description, owner_id, spotify_snapshot_id,
	public, track_count, fetched_at, created_at, deleted_at`

// SnapshotRepository stores playlist snapshots and their ordered tracks.
type SnapshotRepository struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, clock: clockwork.NewRealClock()}
}

// Create inserts snapshot and its tracks in one transaction, assigning ID, sequence and created_at.
func (r *SnapshotRepository) Create(snapshot *models.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(tx, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	createdAt := r.clock.Now().UTC()

	query := `
		INSERT INTO snapshots (id, sequence, playlist_id, user_id, name, description, owner_id, spotify_snapshot_id,
			public, track_count, fetched_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		id,
		sequence,
		snapshot.PlaylistID,
		snapshot.UserID,
		snapshot.Name,
		snapshot.Description,
		snapshot.OwnerID,
		snapshot.SpotifySnapshotID,
		snapshot.Public,
		snapshot.TrackCount,
		snapshot.FetchedAt.UTC(),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshot_tracks (snapshot_id, position, track_id, title, artists, album, duration, isrc,
			explicit, is_local, uri, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, track := range snapshot.Tracks {
		artists, err := json.Marshal(nonNil(track.Artists))
		if err != nil {
			return fmt.Errorf("failed to encode artists of track %d: %w", i, err)
		}

		var addedAt sql.NullTime
		if !track.AddedAt.IsZero() {
			addedAt = sql.NullTime{Time: track.AddedAt.UTC(), Valid: true}
		}

		_, err = stmt.Exec(id, i, track.ID, track.Title, string(artists), track.Album, track.Duration, track.ISRC,
			track.Explicit, track.IsLocal, track.URI, addedAt)
		if err != nil {
			return fmt.Errorf("failed to insert track %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	snapshot.ID = id
	snapshot.Sequence = sequence
	snapshot.CreatedAt = createdAt
	return nil
}

// RecordSnapshot stores playlist as fetched now on behalf of userID.
func (r *SnapshotRepository) RecordSnapshot(userID string, playlist *models.Playlist) (*models.Snapshot, error) {
	snapshot := models.NewSnapshot(userID, playlist, r.clock.Now().UTC())
	if err := r.Create(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Get retrieves a snapshot with its tracks, excluding soft-deleted snapshots.
func (r *SnapshotRepository) Get(id string) (*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = ? AND deleted_at IS NULL`

	snapshot, err := r.scanOne(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	return r.withTracks(snapshot)
}

// Latest retrieves the most recently fetched snapshot of a playlist, with its tracks.
func (r *SnapshotRepository) Latest(playlistID string) (*models.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE playlist_id = ? AND deleted_at IS NULL
		ORDER BY fetched_at DESC, sequence DESC
		LIMIT 1
	`

	snapshot, err := r.scanOne(r.db.QueryRow(query, playlistID))
	if err != nil {
		return nil, err
	}
	return r.withTracks(snapshot)
}

// List retrieves snapshots matching criteria without their tracks, newest first.
//
// Supported criteria: "playlist_id" and "user_id" (string), "limit" (int).
func (r *SnapshotRepository) List(criteria map[string]any) ([]*models.Snapshot, error) {
	var (
		clauses = []string{"deleted_at IS NULL"}
		args    []any
	)

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		clauses = append(clauses, "playlist_id = ?")
		args = append(args, playlistID)
	}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, userID)
	}

	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY sequence DESC`

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return snapshots, nil
}

// Delete soft-deletes a snapshot by ID
func (r *SnapshotRepository) Delete(id string) error {
	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, r.clock.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, id)
	}
	return nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func (r *SnapshotRepository) scanOne(row *sql.Row) (*models.Snapshot, error) {
	snapshot, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSnapshotNotFound
	}
	return snapshot, err
}

func (r *SnapshotRepository) scan(s scanner) (*models.Snapshot, error) {
	var (
		snapshot  models.Snapshot
		deletedAt sql.NullTime
	)

	err := s.Scan(
		&snapshot.ID,
		&snapshot.Sequence,
		&snapshot.PlaylistID,
		&snapshot.UserID,
		&snapshot.Name,
		&snapshot.Description,
		&snapshot.OwnerID,
		&snapshot.SpotifySnapshotID,
		&snapshot.Public,
		&snapshot.TrackCount,
		&snapshot.FetchedAt,
		&snapshot.CreatedAt,
		&deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	if deletedAt.Valid {
		snapshot.DeletedAt = &deletedAt.Time
	}
	return &snapshot, nil
}

// withTracks loads the ordered tracks of snapshot.
func (r *SnapshotRepository) withTracks(snapshot *models.Snapshot) (*models.Snapshot, error) {
	query := `
		SELECT track_id, title, artists, album, duration, isrc, explicit, is_local, uri, added_at
		FROM snapshot_tracks
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot tracks: %w", err)
	}
	defer rows.Close()

	snapshot.Tracks = []models.Track{}
	for rows.Next() {
		var (
			track   models.Track
			artists string
			addedAt sql.NullTime
		)

		err := rows.Scan(&track.ID, &track.Title, &artists, &track.Album, &track.Duration, &track.ISRC,
			&track.Explicit, &track.IsLocal, &track.URI, &addedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot track: %w", err)
		}

		if err := json.Unmarshal([]byte(artists), &track.Artists); err != nil {
			return nil, fmt.Errorf("failed to decode artists of %q: %w", track.Title, err)
		}
		if addedAt.Valid {
			track.AddedAt = addedAt.Time
		}

		snapshot.Tracks = append(snapshot.Tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return snapshot, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
