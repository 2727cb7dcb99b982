// submodule cmd contains command definitions
package main

import (
	"fmt"

	"github.com/desertthunder/spotifetch/internal/formatter"
	"github.com/urfave/cli/v3"
)

func playlistFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "user",
			Aliases:  []string{"u"},
			Usage:    "Spotify user ID that owns the playlist",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "id",
			Usage:    "Playlist ID",
			Required: true,
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("Export format (%v); defaults to [export] format", formatter.Formats),
	}
}

// playlistCommand handles playlist fetch and export operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Fetch and export playlists",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Fetch a playlist with every track",
				Flags: append(playlistFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				),
				Action: r.PlaylistGet,
			},
			{
				Name:  "export",
				Usage: "Export a playlist to a file",
				Flags: append(playlistFlags(),
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory (default: {id}.{ext})",
					},
					&cli.BoolFlag{
						Name:  "snapshot",
						Usage: "Also record the playlist in the snapshot database",
					},
				),
				Action: r.PlaylistExport,
			},
			{
				Name:  "bulk",
				Usage: "Export many playlists concurrently",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "ref",
						Aliases:  []string{"r"},
						Usage:    "Playlist reference as user:playlist_id (repeatable)",
						Required: true,
					},
					formatFlag(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output directory; defaults to [export] output_dir or spotify_export_{epoch}",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (max 10); defaults to [export] workers",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlist fetches started per second; defaults to [export] rate_limit",
					},
					&cli.BoolFlag{
						Name:  "snapshot",
						Usage: "Also record every playlist in the snapshot database",
					},
				},
				Action: r.PlaylistBulk,
			},
		},
	}
}

// apiCommand handles raw authenticated API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct Spotify Web API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authenticated GET of an API path or URL, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "gjson path to extract from the response (e.g. tracks.items.#.track.name)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// authCommand handles client-credentials token operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage client-credentials authentication",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "Obtain an access token and report its expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Request a new token even if the cached one is valid",
					},
					&cli.BoolFlag{
						Name:  "show",
						Usage: "Print the full access token instead of a masked one",
					},
				},
				Action: r.AuthToken,
			},
		},
	}
}

// snapshotCommand handles stored playlist snapshots
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Inspect recorded playlist snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List snapshots, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only snapshots of this playlist ID",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only snapshots requested for this user ID",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SnapshotList,
			},
			{
				Name:  "show",
				Usage: "Show a snapshot with its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Render format (%v)", formatter.Formats),
						Value:   string(formatter.FormatTable),
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Show the newest snapshot of this playlist ID when no ID is given",
					},
				},
				Action: r.SnapshotShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a snapshot",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.SnapshotDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the snapshot database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve playlists as JSON over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host; defaults to [server] host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port; defaults to [server] port",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for browsing a playlist.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse a playlist in an interactive TUI",
		Flags:   playlistFlags(),
		Action:  r.TUI,
	}
}
