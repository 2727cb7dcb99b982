package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/services"
	"github.com/desertthunder/spotifetch/internal/shared"
)

// View represents the current screen in the TUI.
type View int

const (
	LoadingView View = iota
	TrackListView
	DetailView
	ErrorView
)

func (v View) String() string {
	switch v {
	case LoadingView:
		return "loading"
	case TrackListView:
		return "tracks"
	case DetailView:
		return "detail"
	case ErrorView:
		return "error"
	default:
		return "unknown"
	}
}

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Model is the main TUI model, browsing a single playlist.
type Model struct {
	ctx        context.Context
	fetcher    services.PlaylistFetcher
	userID     string
	playlistID string

	view      View
	width     int
	height    int
	spinner   spinner.Model
	trackList list.Model
	help      help.Model
	keys      keyMap

	playlist *models.Playlist
	selected *models.Track
	err      error
}

// NewModel creates a [Model] that loads playlistID owned by userID on start.
func NewModel(ctx context.Context, fetcher services.PlaylistFetcher, userID, playlistID string) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok))

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), defaultWidth, defaultHeight-4)
	l.SetShowHelp(false)

	return Model{
		ctx:        ctx,
		fetcher:    fetcher,
		userID:     userID,
		playlistID: playlistID,
		view:       LoadingView,
		width:      defaultWidth,
		height:     defaultHeight,
		spinner:    s,
		trackList:  l,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the spinner and the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchPlaylist())
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.trackList.SetSize(msg.Width, max(msg.Height-4, 1))
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case Msg:
		return m.handleMsg(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.view == TrackListView {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistFetched:
		res := msg.data.(playlistResult)
		if res.err != nil {
			m.err = res.err
			m.view = ErrorView
			return m, nil
		}

		m.err = nil
		m.playlist = res.playlist
		m.selected = nil
		m.trackList.Title = fmt.Sprintf("%s (%d tracks)", res.playlist.Name, len(res.playlist.Tracks))
		cmd := m.trackList.SetItems(trackItems(res.playlist.Tracks))
		m.trackList.ResetSelected()
		m.view = TrackListView
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the filter input is focused every key belongs to the list.
	if m.view == TrackListView && m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	switch m.view {
	case TrackListView:
		switch {
		case key.Matches(msg, m.keys.reload):
			return m.reload()
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.trackList.SelectedItem().(trackItem); ok {
				track := item.track
				m.selected = &track
				m.view = DetailView
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	case DetailView:
		switch {
		case key.Matches(msg, m.keys.back):
			m.selected = nil
			m.view = TrackListView
		case key.Matches(msg, m.keys.reload):
			return m.reload()
		}
	case ErrorView:
		if key.Matches(msg, m.keys.reload) {
			return m.reload()
		}
	}
	return m, nil
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.view = LoadingView
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.fetchPlaylist())
}

// fetchPlaylist retrieves the whole playlist, following every page.
func (m Model) fetchPlaylist() tea.Cmd {
	return func() tea.Msg {
		if m.fetcher == nil {
			return playlistFetchedMsg(nil, fmt.Errorf("%w: playlist fetcher not initialized", shared.ErrServiceUnavailable))
		}
		playlist, err := m.fetcher.GetPlaylist(m.ctx, m.userID, m.playlistID)
		return playlistFetchedMsg(playlist, err)
	}
}

// View renders the current screen.
func (m Model) View() string {
	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case TrackListView:
		return m.renderTrackList()
	case DetailView:
		return m.renderDetail()
	case ErrorView:
		return m.renderError()
	default:
		return "Unknown view"
	}
}

func (m Model) renderLoading() string {
	return fmt.Sprintf("\n %s Loading playlist %s...\n\n%s", m.spinner.View(), m.playlistID,
		styles.help.Render(m.help.ShortHelpView([]key.Binding{m.keys.quit})))
}

func (m Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.filter, m.keys.reload, m.keys.quit}
	return m.trackList.View() + "\n" + styles.help.Render(m.help.ShortHelpView(helpKeys))
}

func (m Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	t := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(t.Title))
	b.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Artists", t.Artist())
	row("Album", t.Album)
	row("Duration", shared.FormatDuration(t.Duration))
	row("ISRC", t.ISRC)
	if t.Explicit {
		row("Explicit", styles.warn.Render("yes"))
	}
	if !t.AddedAt.IsZero() {
		row("Added", t.AddedAt.Format("2006-01-02 15:04"))
	}
	row("URI", t.URI)
	if m.playlist != nil {
		row("Playlist", m.playlist.Name)
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.reload, m.keys.quit})))
	return b.String()
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(styles.err.Render("Failed to load playlist"))
	b.WriteString("\n\n")
	b.WriteString(m.err.Error())
	b.WriteString("\n\n")

	if se, ok := services.AsStatusError(m.err); ok && se.RateLimited() {
		b.WriteString(styles.warn.Render("Spotify is rate limiting requests, wait before reloading."))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.help.Render(m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.quit})))
	return b.String()
}
