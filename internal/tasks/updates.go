package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a refresh.
//
// Used to send real-time updates to the CLI or logs for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ResolveArtist Phase = iota
	FetchSongs
	ExtractAudio
	WriteLinks
	Finished
)

func (p Phase) String() string {
	switch p {
	case ResolveArtist:
		return "resolve_artist"
	case FetchSongs:
		return "fetch_songs"
	case ExtractAudio:
		return "extract_audio"
	case WriteLinks:
		return "write_links"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func resolveArtistUpdate(step, total int, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveArtist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s...", step, total, artist),
	}
}

func fetchSongsUpdate(step, total int, artist string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %d songs", step, total, artist, count),
	}
}

func artistFailedUpdate(step, total int, artist string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveArtist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, artist, err),
	}
}

func extractAudioUpdate(step, total int, stub string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   ExtractAudio,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, stub, err),
		}
	}
	return ProgressUpdate{
		Phase:   ExtractAudio,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, stub),
	}
}

func writeLinksUpdate(count int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteLinks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d tracks to %s...", count, path),
	}
}

func finishedUpdate(result *RefreshResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: Finished,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Refresh finished: %d tracks, %d artists failed, %d songs failed",
			len(result.Tracks), result.ArtistsFailed, result.TracksFailed),
		Data: result,
	}
}
