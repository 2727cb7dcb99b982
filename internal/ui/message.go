package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifetch/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistFetched MsgKind = iota
)

type playlistResult struct {
	playlist *models.Playlist
	err      error
}

// playlistFetchedMsg is the constructor for [MsgPlaylistFetched]
func playlistFetchedMsg(playlist *models.Playlist, err error) Msg {
	return Msg{
		kind: MsgPlaylistFetched,
		data: playlistResult{playlist, err},
	}
}
