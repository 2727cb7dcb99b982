package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	position int
	track    models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist() }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.track.Title) }
func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.track.Artist(), shared.FormatDuration(i.track.Duration))
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{position: i + 1, track: track}
	}
	return items
}
