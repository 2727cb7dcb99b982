// package tasks implements long-running playlist operations that report progress over channels.
package tasks

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/services"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/jonboulle/clockwork"
)

// PlaylistRef identifies a playlist by owner and ID.
type PlaylistRef struct {
	UserID     string
	PlaylistID string
}

// ParsePlaylistRef parses "userID:playlistID".
func ParsePlaylistRef(s string) (PlaylistRef, error) {
	userID, playlistID, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || userID == "" || playlistID == "" {
		return PlaylistRef{}, fmt.Errorf("%w: playlist reference %q must be USER:PLAYLIST", shared.ErrInvalidArgument, s)
	}
	return PlaylistRef{UserID: userID, PlaylistID: playlistID}, nil
}

func (r PlaylistRef) String() string {
	return r.UserID + ":" + r.PlaylistID
}

// SnapshotRecorder persists a fetched playlist. Implemented by [repositories.SnapshotRepository].
type SnapshotRecorder interface {
	RecordSnapshot(userID string, playlist *models.Playlist) (*models.Snapshot, error)
}

// Exporter fetches playlists and writes them to disk.
type Exporter struct {
	fetcher  services.PlaylistFetcher
	recorder SnapshotRecorder
	clock    clockwork.Clock
	logger   *log.Logger
}

// NewExporter creates an Exporter. recorder and logger may be nil.
func NewExporter(fetcher services.PlaylistFetcher, recorder SnapshotRecorder, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{
		fetcher:  fetcher,
		recorder: recorder,
		clock:    clockwork.NewRealClock(),
		logger:   shared.WithLogger(logger, "task", "export"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
