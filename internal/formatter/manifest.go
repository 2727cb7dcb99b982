package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/spotifetch/internal/shared"
)

// PlaylistExportResult is the outcome of exporting one playlist in a bulk run.
type PlaylistExportResult struct {
	UserID       string
	PlaylistID   string
	PlaylistName string
	TrackCount   int
	Success      bool
	Files        []string
	SnapshotID   string // Set when the export was also recorded as a snapshot
	Error        error
}

// BulkExportResult summarizes a bulk export. Results keep the order of the requested playlists.
type BulkExportResult struct {
	Format            Format
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

type manifestEntry struct {
	UserID       string   `json:"user_id"`
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name,omitempty"`
	TrackCount   int      `json:"track_count"`
	Status       string   `json:"status"`
	Files        []string `json:"files,omitempty"`
	SnapshotID   string   `json:"snapshot_id,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type manifest struct {
	Format            Format          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	OutputDirectory   string          `json:"output_directory"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Playlists         []manifestEntry `json:"playlists"`
}

// WriteBulkExportManifest writes a JSON summary of result to path.
func WriteBulkExportManifest(result *BulkExportResult, exportedAt time.Time, path string) error {
	m := manifest{
		Format:            result.Format,
		ExportedAt:        exportedAt.UTC(),
		OutputDirectory:   result.OutputDirectory,
		TotalPlaylists:    result.TotalPlaylists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Playlists:         make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := manifestEntry{
			UserID:       r.UserID,
			PlaylistID:   r.PlaylistID,
			PlaylistName: r.PlaylistName,
			TrackCount:   r.TrackCount,
			Status:       "success",
			Files:        r.Files,
			SnapshotID:   r.SnapshotID,
		}
		if !r.Success {
			entry.Status = "failed"
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
