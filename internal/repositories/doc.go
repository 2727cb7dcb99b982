// Package repositories implements SQLite persistence for playlist snapshots.
//
// A snapshot is an immutable copy of a playlist as it was fetched, stored in the snapshots table
// with its tracks in snapshot_tracks keyed by position. Snapshots are soft-deleted via deleted_at
// and excluded from queries once deleted.
//
// Key Implementations:
//   - [SnapshotRepository] : snapshot create, lookup, listing and soft delete
//
// Sequence numbers provide stable, human-readable ordering (e.g., snapshot #15) independent of UUIDs
// and timestamps. They are taken from a dedicated sequence table inside the insert transaction.
package repositories
