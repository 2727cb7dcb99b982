package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	ExportPlaylist
	RecordSnapshot
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case ExportPlaylist:
		return "export_playlist"
	case RecordSnapshot:
		return "record_snapshot"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingPlaylistUpdate(step, total int, ref PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s...", ref),
	}
}

func exportCompletedUpdate(step, total int, name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s (%d tracks)", name, tracks),
	}
}

func exportFailedUpdate(step, total int, ref PlaylistRef, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %v", ref, err),
	}
}

func snapshotRecordedUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Recorded snapshot %s", id),
		Data:    id,
	}
}

func manifestWrittenUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
		Data:    path,
	}
}
