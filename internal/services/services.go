// package services defines the interfaces ytlinks uses to talk to outside systems
//
// Catalogs (YouTube Music via proxy, Spotify) and extractors (yt-dlp, native YouTube client)
package services

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
	"golang.org/x/time/rate"
)

// Catalog resolves artists and lists their songs.
type Catalog interface {
	// ResolveArtist maps a name, handle or channel reference to a catalog identifier.
	ResolveArtist(ctx context.Context, artist models.Artist) (*models.ArtistRef, error)

	// ArtistSongs lists the artist's songs in catalog order.
	// A limit of zero or less returns everything the catalog offers.
	ArtistSongs(ctx context.Context, ref *models.ArtistRef, limit int) ([]models.SongStub, error)

	// Name returns the name of the catalog (e.g., "YouTube Music", "Spotify")
	Name() string
}

// TrackSearcher finds a single song by title and artist.
type TrackSearcher interface {
	SearchTrack(ctx context.Context, title, artist string) (*models.SongStub, error)
}

// Extractor resolves a direct audio URL and metadata for a video.
type Extractor interface {
	Extract(ctx context.Context, videoID string) (*models.AudioInfo, error)

	// Name returns the name of the extractor (e.g., "yt-dlp")
	Name() string
}

// NewLimiter builds a limiter allowing rps requests per second. Non-positive values disable limiting.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewHTTPClient returns a client with the given timeout; zero means no timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
