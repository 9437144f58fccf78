// package formatter renders stored tracks as M3U playlists, CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatM3U      = "m3u"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// ToM3U renders tracks as an extended M3U playlist. Tracks without a URL are skipped.
func ToM3U(tracks []models.Track) []byte {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")

	for _, track := range tracks {
		if track.URL == "" {
			continue
		}
		duration := track.Duration
		if duration <= 0 {
			duration = -1
		}
		fmt.Fprintf(&buf, "#EXTINF:%d,%s - %s\n", duration, oneLine(track.Artist), oneLine(track.Title))
		if track.Cover != "" {
			fmt.Fprintf(&buf, "#EXTIMG:%s\n", track.Cover)
		}
		buf.WriteString(track.URL)
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ToCSV converts tracks to CSV with columns: Video ID, Title, Artist, Album, Duration, Year, URL
func ToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Video ID", "Title", "Artist", "Album", "Duration", "Year", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		year := ""
		if track.Year > 0 {
			year = strconv.Itoa(track.Year)
		}
		record := []string{
			track.VideoID,
			track.Title,
			track.Artist,
			track.Album,
			strconv.Itoa(track.Duration),
			year,
			track.URL,
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

// ToMarkdown lists tracks under one heading per artist, artists in sorted order.
func ToMarkdown(tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Links\n\n")
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(tracks))

	grouped := models.GroupTracks(tracks)
	for _, artist := range grouped.Artists() {
		fmt.Fprintf(&buf, "\n## %s\n\n", artist)
		for i, track := range grouped[artist] {
			albumPart := ""
			if track.Album != "" {
				albumPart = fmt.Sprintf(" (%s)", track.Album)
			}
			fmt.Fprintf(&buf, "%d. [%s](%s)%s [%s]\n", i+1, track.Title, track.URL, albumPart, shared.FormatDuration(track.Duration))
		}
	}

	return buf.Bytes()
}

// Export renders tracks in the named format.
func Export(tracks []models.Track, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatM3U:
		return ToM3U(tracks), nil
	case FormatCSV:
		return ToCSV(tracks)
	case FormatMarkdown, "md":
		return ToMarkdown(tracks), nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders tracks and writes them to path.
func WriteExport(tracks []models.Track, format, path string) error {
	data, err := Export(tracks, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
