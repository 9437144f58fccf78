package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/tasks"
)

var (
	border = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	header = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

// Progress renders a refresh progress update as one line.
func Progress(update tasks.ProgressUpdate) string {
	switch {
	case strings.Contains(update.Message, "✗"):
		return Styles.Err(update.Message)
	case update.Phase == tasks.Finished:
		return Styles.OK(update.Message)
	case update.Phase == tasks.ExtractAudio:
		return Styles.Help(update.Message)
	default:
		return update.Message
	}
}

// Tracks renders tracks as a table.
func Tracks(tracks []models.Track) string {
	t := newTable("#", "Artist", "Title", "Album", "Length", "Video")
	for i, track := range tracks {
		t.Row(strconv.Itoa(i+1), track.Artist, track.Title, track.Album, shared.FormatDuration(track.Duration), track.VideoID)
	}
	return t.String()
}

// Runs renders refresh history as a table, newest first.
func Runs(runs []*models.RefreshRun) string {
	t := newTable("Seq", "Started", "Trigger", "Status", "Artists", "Tracks", "Took")
	for _, run := range runs {
		artists := fmt.Sprintf("%d/%d", run.ArtistsTotal()-run.ArtistsFailed(), run.ArtistsTotal())
		tracks := strconv.Itoa(run.TracksTotal())
		if run.TracksFailed() > 0 {
			tracks += fmt.Sprintf(" (%d failed)", run.TracksFailed())
		}
		t.Row(
			strconv.Itoa(run.Sequence()),
			run.StartedAt().Local().Format(time.DateTime),
			string(run.Trigger()),
			status(run.Status()),
			artists,
			tracks,
			run.Duration().Round(time.Second).String(),
		)
	}
	return t.String()
}

// Artists renders the stored artist list, one numbered line each.
func Artists(artists []string) string {
	if len(artists) == 0 {
		return Styles.Help("no artists configured")
	}
	var sb strings.Builder
	for i, a := range artists {
		fmt.Fprintf(&sb, "%3d. %s\n", i+1, a)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Summary renders the outcome of a refresh.
func Summary(result *tasks.RefreshResult) string {
	var sb strings.Builder
	sb.WriteString(Styles.Title("Refresh summary"))
	sb.WriteString("\n")
	for _, ar := range result.Artists {
		if ar.Error != "" {
			sb.WriteString(Styles.Err("✗ "+ar.Artist) + "  " + Styles.Help(ar.Error) + "\n")
			continue
		}
		line := fmt.Sprintf("✓ %s  %d/%d tracks", ar.Artist, ar.Tracks, ar.Songs)
		if ar.Resolved != "" && !strings.EqualFold(ar.Resolved, ar.Artist) {
			line += fmt.Sprintf(" (as %s)", ar.Resolved)
		}
		sb.WriteString(Styles.OK(line) + "\n")
	}
	fmt.Fprintf(&sb, "%d tracks, %d artists failed, %d songs failed", len(result.Tracks), result.ArtistsFailed, result.TracksFailed)
	if result.Duplicates > 0 {
		fmt.Fprintf(&sb, ", %d duplicates skipped", result.Duplicates)
	}
	if !result.Written {
		sb.WriteString("\n" + Styles.Warn("links file was not replaced"))
	}
	return sb.String()
}

func status(s models.RefreshStatus) string {
	switch s {
	case models.RefreshCompleted:
		return Styles.OK(string(s))
	case models.RefreshFailed:
		return Styles.Err(string(s))
	default:
		return Styles.Warn(string(s))
	}
}
