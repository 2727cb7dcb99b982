package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors names the hex colors a [Palette] is built from.
type Colors struct {
	Accent  string
	Success string
	Error   string
	Warning string
	Muted   string
}

var spotifyColors = Colors{
	Accent:  "#1DB954",
	Success: "#04B575",
	Error:   "#FF5F56",
	Warning: "#FFA500",
	Muted:   "#626262",
}

var styles = NewPalette(spotifyColors)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style // fixed-width key column of the detail view
}

func NewPalette(c Colors) *Palette {
	return &Palette{
		title: NewBold(c.Accent).MarginBottom(1),
		ok:    NewStyle(c.Success),
		err:   NewBold(c.Error),
		warn:  NewStyle(c.Warning),
		help:  NewEm(c.Muted),
		label: NewStyle(c.Muted).Width(10),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
