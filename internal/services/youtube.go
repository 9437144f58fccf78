// YouTube Music API [Catalog] implementation
//
// Communicates with the FastAPI proxy server running on port 8080.
// The proxy wraps ytmusicapi Python library for YouTube Music operations.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"` // Duration in seconds
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
}

// YouTubeArtistResult is a single artist hit from /api/search?filter=artists.
type YouTubeArtistResult struct {
	BrowseID string `json:"browseId"`
	Artist   string `json:"artist"`
}

// YouTubeArtistPage is the subset of /api/artists/{id} ytlinks reads.
type YouTubeArtistPage struct {
	Name      string `json:"name"`
	ChannelID string `json:"channelId"`
	Songs     struct {
		BrowseID string         `json:"browseId"`
		Results  []YouTubeTrack `json:"results"`
	} `json:"songs"`
}

// Stub converts the track to a [models.SongStub].
func (t YouTubeTrack) Stub() models.SongStub {
	stub := models.SongStub{
		VideoID:   t.VideoID,
		Title:     t.Title,
		Duration:  t.DurationSec,
		Thumbnail: largestImage(t.Thumbnails),
	}
	if len(t.Artists) > 0 {
		stub.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		stub.Album = t.Album.Name
	}
	return stub
}

func largestImage(images []YouTubeImage) string {
	best := ""
	width := -1
	for _, img := range images {
		if img.Width > width {
			best, width = img.URL, img.Width
		}
	}
	return best
}

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	BaseURL        string
	AuthFile       string // Path to browser.json, sent as X-Auth-File
	HTTPClient     *http.Client
	Limiter        *rate.Limiter
	MatchThreshold float64
}

// YouTubeService implements [Catalog] and [TrackSearcher] for YouTube Music via proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
	limiter    *rate.Limiter
	threshold  float64
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYTBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0)
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = DefaultMatchThreshold
	}

	return &YouTubeService{
		baseURL:    opts.BaseURL,
		authFile:   opts.AuthFile,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		threshold:  opts.MatchThreshold,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ResolveArtist maps an artist to its YouTube Music browseId.
//
// Channel IDs and channel URLs are used directly. Anything else calls
// GET /api/search?q={name}&filter=artists and keeps the closest match.
func (y *YouTubeService) ResolveArtist(ctx context.Context, artist models.Artist) (*models.ArtistRef, error) {
	if id, ok := artist.ChannelID(); ok {
		return &models.ArtistRef{ID: id, Catalog: y.Name(), Query: artist.String()}, nil
	}

	query := artist.Query()
	if query == "" {
		return nil, fmt.Errorf("%w: empty artist", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=artists", url.QueryEscape(query))
	var results []YouTubeArtistResult
	if err := y.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(results))
	usable := make([]YouTubeArtistResult, 0, len(results))
	for _, r := range results {
		if r.BrowseID == "" {
			continue
		}
		candidates = append(candidates, r.Artist)
		usable = append(usable, r)
	}

	idx := BestMatch(query, candidates, y.threshold)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrArtistNotFound, query)
	}

	return &models.ArtistRef{
		ID:      usable[idx].BrowseID,
		Name:    usable[idx].Artist,
		Catalog: y.Name(),
		Query:   artist.String(),
	}, nil
}

// ArtistSongs lists an artist's songs.
//
// Calls GET /api/artists/{id}; when the page links a full songs playlist,
// GET /api/playlists/{browseId} supplies the list instead of the preview.
func (y *YouTubeService) ArtistSongs(ctx context.Context, ref *models.ArtistRef, limit int) ([]models.SongStub, error) {
	var page YouTubeArtistPage
	if err := y.doRequest(ctx, "/api/artists/"+url.PathEscape(ref.ID), &page); err != nil {
		return nil, err
	}
	if ref.Name == "" {
		ref.Name = page.Name
	}

	tracks := page.Songs.Results
	if page.Songs.BrowseID != "" {
		var playlist struct {
			Tracks []YouTubeTrack `json:"tracks"`
		}
		if err := y.doRequest(ctx, "/api/playlists/"+url.PathEscape(page.Songs.BrowseID), &playlist); err != nil {
			return nil, err
		}
		if len(playlist.Tracks) > 0 {
			tracks = playlist.Tracks
		}
	}

	songs := make([]models.SongStub, 0, len(tracks))
	for _, t := range tracks {
		if t.VideoID == "" {
			continue
		}
		stub := t.Stub()
		if stub.Artist == "" {
			stub.Artist = ref.Name
		}
		songs = append(songs, stub)
		if limit > 0 && len(songs) == limit {
			break
		}
	}

	return songs, nil
}

// SearchTrack searches for a track by title and artist, returning the best match.
//
// Calls GET /api/search?q={title} {artist}&filter=songs on the proxy.
func (y *YouTubeService) SearchTrack(ctx context.Context, title, artist string) (*models.SongStub, error) {
	query := fmt.Sprintf("%s %s", title, artist)
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))

	var results []YouTubeTrack
	if err := y.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.VideoID != "" {
			stub := r.Stub()
			return &stub, nil
		}
	}

	return nil, fmt.Errorf("%w: '%s' by '%s'", shared.ErrTrackNotFound, title, artist)
}
