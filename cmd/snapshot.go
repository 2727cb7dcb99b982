package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/spotifetch/internal/formatter"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// SnapshotList prints recorded snapshots as a table, newest first.
func (r *Runner) SnapshotList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.snapshots()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if v := cmd.String("playlist"); v != "" {
		criteria["playlist_id"] = v
	}
	if v := cmd.String("user"); v != "" {
		criteria["user_id"] = v
	}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}

	snapshots, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshots, true)
	}

	if len(snapshots) == 0 {
		return r.writePlain("No snapshots recorded\n")
	}

	table := tablewriter.NewWriter(r.output)
	table.SetHeader([]string{"ID", "Seq", "User", "Playlist", "Name", "Tracks", "Fetched"})
	table.SetAutoWrapText(false)
	for _, s := range snapshots {
		table.Append([]string{
			s.ID,
			strconv.Itoa(s.Sequence),
			s.UserID,
			s.PlaylistID,
			s.Name,
			strconv.Itoa(s.TrackCount),
			s.FetchedAt.Local().Format(time.DateTime),
		})
	}
	table.Render()
	return nil
}

// SnapshotShow renders a stored snapshot with the playlist formatters.
//
// Without an ID the newest snapshot of --playlist is shown.
func (r *Runner) SnapshotShow(ctx context.Context, cmd *cli.Command) error {
	id, playlistID := cmd.StringArg("id"), cmd.String("playlist")
	if id == "" && playlistID == "" {
		return fmt.Errorf("%w: snapshot ID or --playlist is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.snapshots()
	if err != nil {
		return err
	}

	get := func() (*models.Snapshot, error) { return repo.Get(id) }
	if id == "" {
		get = func() (*models.Snapshot, error) { return repo.Latest(playlistID) }
	}

	snapshot, err := get()
	if err != nil {
		return err
	}

	if format == formatter.FormatJSON {
		return r.writeJSON(snapshot, true)
	}

	data, err := formatter.Export(snapshot.Playlist(), format)
	if err != nil {
		return err
	}
	r.writePlain("Snapshot %s (#%d) of %s, fetched %s\n\n",
		snapshot.ID, snapshot.Sequence, snapshot.PlaylistID, snapshot.FetchedAt.Local().Format(time.DateTime))
	_, err = r.output.Write(data)
	return err
}

// SnapshotDelete soft-deletes a snapshot.
func (r *Runner) SnapshotDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: snapshot ID is required", shared.ErrMissingArgument)
	}

	repo, err := r.snapshots()
	if err != nil {
		return err
	}

	if err := repo.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted snapshot %s\n", id)
}
