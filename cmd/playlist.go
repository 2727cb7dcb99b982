package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/spotifetch/internal/formatter"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/desertthunder/spotifetch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistGet fetches a playlist with every page of tracks and prints it.
func (r *Runner) PlaylistGet(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	userID, playlistID := cmd.String("user"), cmd.String("id")
	r.logger.Info("fetching playlist", "user", userID, "playlist", playlistID)

	playlist, err := client.GetPlaylist(ctx, userID, playlistID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlaylist(playlist)
	return nil
}

// PlaylistExport fetches a playlist and writes it to a file in the chosen format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	userID, playlistID := cmd.String("user"), cmd.String("id")
	r.logger.Info("exporting playlist", "user", userID, "playlist", playlistID, "format", format)

	playlist, err := client.GetPlaylist(ctx, userID, playlistID)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(playlist, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Exported %q (%d tracks) to %s\n", playlist.Name, len(playlist.Tracks), path)

	if cmd.Bool("snapshot") {
		repo, err := r.snapshots()
		if err != nil {
			return err
		}
		snapshot, err := repo.RecordSnapshot(userID, playlist)
		if err != nil {
			return fmt.Errorf("failed to record snapshot: %w", err)
		}
		r.writePlain("✓ Recorded snapshot %s (#%d)\n", snapshot.ID, snapshot.Sequence)
	}
	return nil
}

// PlaylistBulk exports every --ref concurrently and writes a manifest to the output directory.
func (r *Runner) PlaylistBulk(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	refs := make([]tasks.PlaylistRef, 0, len(cmd.StringSlice("ref")))
	for _, s := range cmd.StringSlice("ref") {
		ref, err := tasks.ParsePlaylistRef(s)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  r.config.Export.OutputDir,
		NumWorkers: r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
		Snapshot:   cmd.Bool("snapshot"),
	}
	if cmd.IsSet("out") {
		opts.OutputDir = cmd.String("out")
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	var recorder tasks.SnapshotRecorder
	if opts.Snapshot {
		repo, err := r.snapshots()
		if err != nil {
			return err
		}
		recorder = repo
	}

	exporter := tasks.NewExporter(client, recorder, r.logger)

	progress := make(chan tasks.ProgressUpdate, len(refs)*3)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := exporter.BulkExport(ctx, progress, refs, opts)
	close(progress)
	wg.Wait()

	if result != nil {
		r.writeBulkSummary(result)
	}
	if err != nil {
		return err
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d of %d playlists failed to export", result.FailedExports, result.TotalPlaylists)
	}
	return nil
}

func (r *Runner) exportFormat(cmd *cli.Command) (formatter.Format, error) {
	name := r.config.Export.Format
	if cmd.IsSet("format") {
		name = cmd.String("format")
	}
	return formatter.ParseFormat(name)
}

func (r *Runner) writePlaylist(p *models.Playlist) {
	r.writePlainHeader(p.Name)
	if p.Description != "" {
		r.writePlain("%s\n", p.Description)
	}
	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}
	r.writePlain("Owner: %s\n", owner)
	r.writePlain("Tracks: %d\n", len(p.Tracks))
	r.writePlain("Duration: %s\n", shared.FormatDuration(p.TotalDuration()))
	r.writePlain("Visibility: %s\n", shared.VisibilityString(p.Public))
	if p.URL != "" {
		r.writePlain("URL: %s\n", p.URL)
	}
	r.writePlain("\n")

	for i, t := range p.Tracks {
		r.writePlain("%3d. %s - %s [%s]\n", i+1, t.Artist(), t.Title, shared.FormatDuration(t.Duration))
	}
}

func (r *Runner) writeBulkSummary(result *formatter.BulkExportResult) {
	r.writePlainln("Exported %d of %d playlists (%s) to %s",
		result.SuccessfulExports, result.TotalPlaylists, result.Format, result.OutputDirectory)

	for _, res := range result.Results {
		if res.Success {
			continue
		}
		r.writePlain("✗ %s:%s: %v\n", res.UserID, res.PlaylistID, res.Error)
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
}
