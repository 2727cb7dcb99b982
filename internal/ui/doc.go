// Package ui implements an interactive playlist browser using bubbletea's Elm architecture.
//
// The TUI moves through these views:
//  1. [LoadingView] : spinner while the playlist and all of its pages are fetched
//  2. [TrackListView] : filterable list of every track, in playlist order
//  3. [DetailView] : metadata of the selected track
//  4. [ErrorView] : the fetch error, rendered with the error style
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Fetches run as [tea.Cmd]s so the interface stays responsive; r re-fetches the playlist from any view but loading.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
