// Package models defines the domain entities of spotifetch.
//
// The package contains two categories of types:
//
// 1. Playlist data mapped from the Spotify Web API
//   - [Playlist] : Playlist metadata with its complete, ordered track listing
//   - [Track] : Song metadata with ISRC for cross-service matching
//
// 2. Persistent entities stored by the repositories package
//   - [Snapshot] : A point-in-time copy of a fetched playlist
package models
