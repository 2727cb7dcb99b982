// package formatter renders playlists to export formats (JSON, CSV, Markdown, plain text, tables)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotifetch/internal/models"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/olekukonko/tablewriter"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatTable    Format = "table"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatTable}

// ParseFormat resolves a user-supplied format name. Matching is case-insensitive and
// accepts the aliases "md" and "text".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, s, formatList())
	}
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Extension returns the file extension written for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatText, FormatTable:
		return "txt"
	default:
		return "json"
	}
}

// Export renders playlist in format f.
func Export(playlist *models.Playlist, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(playlist)
	case FormatCSV:
		return ExportToCSV(playlist)
	case FormatMarkdown:
		return ExportToMarkdown(playlist)
	case FormatText:
		return ExportToText(playlist)
	case FormatTable:
		return ExportToTable(playlist)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToJSON renders the full playlist, tracks included, as indented JSON.
func ExportToJSON(playlist *models.Playlist) ([]byte, error) {
	data, err := shared.MarshalJSON(playlist, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders one row per track with columns:
// Position, ID, Title, Artists, Album, Duration, ISRC, Explicit, URI, Added At
func ExportToCSV(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artists", "Album", "Duration", "ISRC", "Explicit", "URI", "Added At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range playlist.Tracks {
		addedAt := ""
		if !track.AddedAt.IsZero() {
			addedAt = track.AddedAt.UTC().Format(time.RFC3339)
		}

		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Title,
			track.Artist(),
			track.Album,
			strconv.Itoa(track.Duration),
			track.ISRC,
			strconv.FormatBool(track.Explicit),
			track.URI,
			addedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a Markdown document with the cover image, metadata, and a numbered track list.
func ExportToMarkdown(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)

	if cover := playlist.CoverURL(); cover != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", cover)
	}

	if playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", playlist.Description)
	}

	if playlist.Owner.ID != "" {
		owner := playlist.Owner.DisplayName
		if owner == "" {
			owner = playlist.Owner.ID
		}
		fmt.Fprintf(&buf, "**Owner**: %s\n", owner)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(playlist.Tracks))
	fmt.Fprintf(&buf, "**Duration**: %s\n", shared.FormatDuration(playlist.TotalDuration()))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", shared.VisibilityString(playlist.Public))

	if playlist.URL != "" {
		fmt.Fprintf(&buf, "[Open in Spotify](%s)\n\n", playlist.URL)
	}

	buf.WriteString("## Tracks\n\n")
	for i, track := range playlist.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist(), track.Title, albumPart, shared.FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText renders a plain text listing.
func ExportToText(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(playlist.Tracks))

	for i, track := range playlist.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist(), track.Title)
	}

	return buf.Bytes(), nil
}

// ExportToTable renders the tracks as an ASCII table.
func ExportToTable(playlist *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"#", "Title", "Artists", "Album", "Duration"})
	table.SetAutoWrapText(false)
	table.SetFooter([]string{"", "", "", fmt.Sprintf("%d tracks", len(playlist.Tracks)), shared.FormatDuration(playlist.TotalDuration())})

	for i, track := range playlist.Tracks {
		table.Append([]string{
			strconv.Itoa(i + 1),
			track.Title,
			track.Artist(),
			track.Album,
			shared.FormatDuration(track.Duration),
		})
	}
	table.Render()

	return buf.Bytes(), nil
}

// WriteExport renders playlist in format f and writes it to path.
//
// An empty path defaults to {playlist.ID}.{ext}; an existing directory receives that file name.
// Parent directories are created. The written path is returned.
func WriteExport(playlist *models.Playlist, f Format, path string) (string, error) {
	name := fmt.Sprintf("%s.%s", playlist.ID, f.Extension())
	switch {
	case path == "":
		path = name
	case isDir(path):
		path = filepath.Join(path, name)
	}

	data, err := Export(playlist, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
