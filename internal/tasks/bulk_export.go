package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/desertthunder/spotifetch/internal/formatter"
	"github.com/desertthunder/spotifetch/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0

	// ManifestFile is written to the output directory of every bulk export.
	ManifestFile = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: spotify_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Playlist fetches started per second (default: 5)
	Snapshot   bool             // Also record each fetched playlist as a snapshot
}

// BulkExport exports multiple playlists concurrently with client-side pacing and progress tracking.
//
// A failed playlist is recorded in its result and does not stop the others. Results keep the order
// of refs. A manifest summarizing the run is written to the output directory. Only cancellation of
// ctx or an unusable output directory fail the whole call.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	refs []PlaylistRef,
	opts BulkExportOpts,
) (*formatter.BulkExportResult, error) {
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: playlist fetcher not initialized", shared.ErrServiceUnavailable)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no playlists to export", shared.ErrMissingArgument)
	}

	opts = e.withDefaults(opts)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(refs)
	results := make([]formatter.PlaylistExportResult, total)
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	var completed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumWorkers)

	for i, ref := range refs {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				results[i] = failedResult(ref, err)
				return err
			}

			e.sendProgress(prog, fetchingPlaylistUpdate(i+1, total, ref))
			res := e.exportOne(gctx, prog, ref, opts)
			results[i] = res

			step := int(completed.Add(1))
			if res.Success {
				e.sendProgress(prog, exportCompletedUpdate(step, total, res.PlaylistName, res.TrackCount))
			} else {
				e.logger.Warn("playlist export failed", "ref", ref, "error", res.Error)
				e.sendProgress(prog, exportFailedUpdate(step, total, ref, res.Error))
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}

	result := &formatter.BulkExportResult{
		Format:          opts.Format,
		TotalPlaylists:  total,
		OutputDirectory: opts.OutputDir,
		Results:         results,
	}
	for _, res := range results {
		if res.Success {
			result.SuccessfulExports++
		} else {
			result.FailedExports++
		}
	}

	if waitErr != nil {
		return result, fmt.Errorf("bulk export interrupted: %w", waitErr)
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	if err := formatter.WriteBulkExportManifest(result, e.clock.Now(), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestWrittenUpdate(manifestPath))

	e.logger.Info("bulk export finished",
		"total", total, "succeeded", result.SuccessfulExports, "failed", result.FailedExports, "dir", opts.OutputDir)
	return result, nil
}

func (e *Exporter) withDefaults(opts BulkExportOpts) BulkExportOpts {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", e.clock.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	return opts
}

// exportOne fetches a single playlist, writes it and optionally records a snapshot.
func (e *Exporter) exportOne(ctx context.Context, prog chan<- ProgressUpdate, ref PlaylistRef, opts BulkExportOpts) formatter.PlaylistExportResult {
	result := formatter.PlaylistExportResult{
		UserID:     ref.UserID,
		PlaylistID: ref.PlaylistID,
		Files:      []string{},
	}

	playlist, err := e.fetcher.GetPlaylist(ctx, ref.UserID, ref.PlaylistID)
	if err != nil {
		result.Error = fmt.Errorf("failed to fetch playlist: %w", err)
		return result
	}
	result.PlaylistName = playlist.Name
	result.TrackCount = len(playlist.Tracks)

	path, err := formatter.WriteExport(playlist, opts.Format, opts.OutputDir)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Files = append(result.Files, path)

	if opts.Snapshot && e.recorder != nil {
		snapshot, err := e.recorder.RecordSnapshot(ref.UserID, playlist)
		if err != nil {
			result.Error = fmt.Errorf("failed to record snapshot: %w", err)
			return result
		}
		result.SnapshotID = snapshot.ID
		e.sendProgress(prog, snapshotRecordedUpdate(1, 1, snapshot.ID))
	}

	result.Success = true
	return result
}

func failedResult(ref PlaylistRef, err error) formatter.PlaylistExportResult {
	return formatter.PlaylistExportResult{
		UserID:     ref.UserID,
		PlaylistID: ref.PlaylistID,
		Error:      err,
	}
}
