// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] fetches many playlists, identified by [PlaylistRef] ("user:playlist"),
// through a bounded worker pool. Fetch starts are paced by a token-bucket limiter so large runs
// stay under Spotify's rate limit. Every playlist is written with [formatter.WriteExport] and the
// run is summarized in an export_manifest.json next to the exported files.
//
// A playlist that fails is reported in its [formatter.PlaylistExportResult] and the remaining
// playlists continue. Results keep the order of the requested refs.
//
// # Progress Reporting
//
// Operations accept an optional send-only channel of [ProgressUpdate]. Updates use select with
// default so a slow or absent reader never blocks the export.
//
// # Snapshots
//
// When [BulkExportOpts].Snapshot is set and the [Exporter] has a [SnapshotRecorder]
// (repositories.SnapshotRepository), each fetched playlist is also stored as a snapshot.
package tasks
