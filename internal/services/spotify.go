// Spotify [Catalog] implementation
//
// Uses the client credentials flow, so no user login or callback server is needed.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultSpotifyMarket = "US"
	spotifySearchLimit   = 5
)

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID       string
	ClientSecret   string
	Market         string
	Searcher       TrackSearcher // Maps Spotify tracks to YouTube videos
	HTTPClient     *http.Client  // Base client for token and API requests
	Limiter        *rate.Limiter
	MatchThreshold float64
	TokenURL       string // Overrides the Spotify accounts endpoint
	APIBaseURL     string // Overrides https://api.spotify.com/v1/
	Logger         *log.Logger
}

// SpotifyService implements [Catalog] on top of the Spotify Web API.
type SpotifyService struct {
	client    *spotify.Client
	searcher  TrackSearcher
	limiter   *rate.Limiter
	market    string
	threshold float64
	logger    *log.Logger
}

// NewSpotifyService creates a Spotify catalog authenticated with client credentials.
func NewSpotifyService(ctx context.Context, opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	if opts.Searcher == nil {
		return nil, fmt.Errorf("%w: spotify catalog needs a track searcher", shared.ErrMissingConfig)
	}
	if opts.Market == "" {
		opts.Market = defaultSpotifyMarket
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyauth.TokenURL
	}
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0)
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = DefaultMatchThreshold
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	var clientOpts []spotify.ClientOption
	if opts.APIBaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.APIBaseURL))
	}

	return &SpotifyService{
		client:    spotify.New(config.Client(ctx), clientOpts...),
		searcher:  opts.Searcher,
		limiter:   opts.Limiter,
		market:    opts.Market,
		threshold: opts.MatchThreshold,
		logger:    opts.Logger,
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// ResolveArtist searches Spotify artists and keeps the closest match.
func (s *SpotifyService) ResolveArtist(ctx context.Context, artist models.Artist) (*models.ArtistRef, error) {
	query := artist.Query()
	if query == "" {
		return nil, fmt.Errorf("%w: empty artist", shared.ErrInvalidInput)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := s.client.Search(ctx, query, spotify.SearchTypeArtist, spotify.Limit(spotifySearchLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: spotify search: %v", shared.ErrAPIRequest, err)
	}
	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrArtistNotFound, query)
	}

	found := result.Artists.Artists
	names := make([]string, len(found))
	for i, a := range found {
		names[i] = a.Name
	}
	best := found[BestMatch(query, names, s.threshold)]

	return &models.ArtistRef{
		ID:      string(best.ID),
		Name:    best.Name,
		Catalog: s.Name(),
		Query:   artist.String(),
	}, nil
}

// ArtistSongs fetches the artist's top tracks and maps each to a YouTube video.
//
// Tracks without a YouTube match are skipped.
func (s *SpotifyService) ArtistSongs(ctx context.Context, ref *models.ArtistRef, limit int) ([]models.SongStub, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tracks, err := s.client.GetArtistsTopTracks(ctx, spotify.ID(ref.ID), s.market)
	if err != nil {
		return nil, fmt.Errorf("%w: spotify top tracks: %v", shared.ErrAPIRequest, err)
	}

	songs := make([]models.SongStub, 0, len(tracks))
	for _, t := range tracks {
		if limit > 0 && len(songs) == limit {
			break
		}

		stub := spotifyStub(t, ref.Name)
		match, err := s.searcher.SearchTrack(ctx, stub.Title, stub.Artist)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			s.logger.Warn("no YouTube match for Spotify track", "spotify_id", string(t.ID), "title", stub.Title, "artist", stub.Artist, "error", err)
			continue
		}

		stub.VideoID = match.VideoID
		if stub.Thumbnail == "" {
			stub.Thumbnail = match.Thumbnail
		}
		songs = append(songs, stub)
	}

	return songs, nil
}

func spotifyStub(t spotify.FullTrack, fallbackArtist string) models.SongStub {
	stub := models.SongStub{
		Title:    t.Name,
		Artist:   fallbackArtist,
		Album:    t.Album.Name,
		Duration: int(t.Duration) / 1000,
	}
	if len(t.Artists) > 0 {
		stub.Artist = t.Artists[0].Name
	}
	if len(t.Album.Images) > 0 {
		stub.Thumbnail = t.Album.Images[0].URL
	}
	return stub
}
