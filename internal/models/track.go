package models

import (
	"sort"
	"time"
)

// SongStub is a song listed by a catalog before its audio is resolved.
type SongStub struct {
	VideoID   string
	Title     string
	Artist    string
	Album     string
	Duration  int // Duration in seconds
	Thumbnail string
}

// AudioInfo is what an extractor learns about a single video.
type AudioInfo struct {
	VideoID     string
	Title       string
	Artist      string
	Album       string
	Thumbnail   string
	URL         string // Direct, signed audio stream URL
	Duration    int    // Duration in seconds
	Year        int
	ReleaseDate string
	ExpiresAt   time.Time // When the signed URL stops working, zero if unknown
}

// Track is a single record of links.json.
type Track struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Cover       string `json:"cover"`
	URL         string `json:"url"`
	Duration    int    `json:"duration,omitempty"`
	Year        int    `json:"year,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	VideoID     string `json:"video_id"`

	// Group is the requested artist the track was listed under. It keys the grouped document.
	Group string `json:"-"`
}

// NewTrack merges catalog and extractor data, preferring catalog text fields and extractor media fields.
func NewTrack(artist string, stub SongStub, info *AudioInfo) Track {
	t := Track{
		Title:    firstNonEmpty(stub.Title, info.Title),
		Artist:   firstNonEmpty(stub.Artist, info.Artist, artist),
		Album:    firstNonEmpty(stub.Album, info.Album),
		Cover:    firstNonEmpty(info.Thumbnail, stub.Thumbnail),
		URL:      info.URL,
		Duration: info.Duration,
		VideoID:  firstNonEmpty(info.VideoID, stub.VideoID),
		Group:    artist,

		Year:        info.Year,
		ReleaseDate: info.ReleaseDate,
	}
	if t.Duration == 0 {
		t.Duration = stub.Duration
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GroupedTracks is the links document keyed by artist name.
type GroupedTracks map[string][]Track

// GroupKey is the artist a track is filed under: its requested artist, else the catalog artist.
func (t Track) GroupKey() string {
	return firstNonEmpty(t.Group, t.Artist)
}

// GroupTracks buckets tracks by [Track.GroupKey], keeping order inside each bucket.
func GroupTracks(tracks []Track) GroupedTracks {
	grouped := GroupedTracks{}
	for _, t := range tracks {
		key := t.GroupKey()
		grouped[key] = append(grouped[key], t)
	}
	return grouped
}

// Artists returns the artist keys in sorted order.
func (g GroupedTracks) Artists() []string {
	artists := make([]string, 0, len(g))
	for a := range g {
		artists = append(artists, a)
	}
	sort.Strings(artists)
	return artists
}

// Flatten lists every track, artists in sorted order. Each track keeps its key as [Track.Group].
func (g GroupedTracks) Flatten() []Track {
	tracks := []Track{}
	for _, a := range g.Artists() {
		for _, t := range g[a] {
			t.Group = a
			tracks = append(tracks, t)
		}
	}
	return tracks
}
