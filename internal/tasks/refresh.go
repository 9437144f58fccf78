// package tasks implements the refresh pipeline and its scheduler.
//
// The core abstraction is RefreshEngine, which turns a list of artists into the links document.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/logs.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	"golang.org/x/sync/errgroup"
)

// LinksWriter replaces the links document.
type LinksWriter interface {
	WriteTracks(tracks []models.Track, groupByArtist bool) error
	Path() string
}

// RunRecorder persists refresh history.
type RunRecorder interface {
	Create(run *models.RefreshRun) error
	Update(run *models.RefreshRun) error
}

// Refresher runs the pipeline. Implemented by [RefreshEngine].
type Refresher interface {
	Run(ctx context.Context, trigger models.RefreshTrigger, artists []string, progress chan<- ProgressUpdate) (*RefreshResult, error)
}

// ArtistResult summarizes one artist of a refresh.
type ArtistResult struct {
	Artist     string `json:"artist"`
	Resolved   string `json:"resolved,omitempty"` // Name as the catalog spells it
	Songs      int    `json:"songs"`
	Tracks     int    `json:"tracks"`
	Failed     int    `json:"failed"`
	Duplicates int    `json:"duplicates,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RefreshResult contains all data from a refresh.
type RefreshResult struct {
	Run           *models.RefreshRun
	Tracks        []models.Track
	Artists       []ArtistResult
	ArtistsFailed int
	TracksFailed  int
	Duplicates    int
	Written       bool // Whether the links document was replaced
}

// RefreshOpts configures a [RefreshEngine].
type RefreshOpts struct {
	Catalog           services.Catalog
	Extractor         services.Extractor
	Links             LinksWriter
	Runs              RunRecorder // Optional
	Logger            *log.Logger
	Concurrency       int  // Parallel extractions per artist, default 1
	MaxSongsPerArtist int  // 0 = unlimited
	Dedupe            bool // Drop repeated video IDs across artists
	GroupByArtist     bool
}

// RefreshEngine resolves artists to tracks and writes the links document.
type RefreshEngine struct {
	opts RefreshOpts
}

// NewRefreshEngine creates a new RefreshEngine with the provided dependencies.
func NewRefreshEngine(opts RefreshOpts) *RefreshEngine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &RefreshEngine{opts: opts}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *RefreshEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run refreshes the links document from artists, processed in input order.
//
// Per-artist and per-song failures are logged and counted. The document is
// not replaced when the context is cancelled or when every artist failed.
func (e *RefreshEngine) Run(ctx context.Context, trigger models.RefreshTrigger, artists []string, progress chan<- ProgressUpdate) (*RefreshResult, error) {
	if e.opts.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if e.opts.Extractor == nil {
		return nil, fmt.Errorf("%w: extractor not initialized", shared.ErrServiceUnavailable)
	}
	if e.opts.Links == nil {
		return nil, fmt.Errorf("%w: links file not configured", shared.ErrMissingConfig)
	}

	list := models.ArtistsFromStrings(artists)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no artists to refresh", shared.ErrEmptyInput)
	}

	logger := shared.WithLogger(e.opts.Logger, "trigger", string(trigger))
	result := &RefreshResult{
		Run:     models.NewRefreshRun(trigger, len(list)),
		Tracks:  []models.Track{},
		Artists: make([]ArtistResult, 0, len(list)),
	}
	e.recordStart(logger, result.Run)

	seen := map[string]bool{}
	for i, artist := range list {
		if err := ctx.Err(); err != nil {
			return e.fail(logger, result, err)
		}

		ar, tracks := e.refreshArtist(ctx, logger, i+1, len(list), artist, seen, progress)
		result.Artists = append(result.Artists, ar)
		result.Tracks = append(result.Tracks, tracks...)
		result.TracksFailed += ar.Failed
		result.Duplicates += ar.Duplicates
		if ar.Error != "" {
			result.ArtistsFailed++
		}
	}

	if err := ctx.Err(); err != nil {
		return e.fail(logger, result, err)
	}
	if result.ArtistsFailed == len(list) {
		return e.fail(logger, result, fmt.Errorf("%w: every artist failed", shared.ErrServiceUnavailable))
	}

	e.sendProgress(progress, writeLinksUpdate(len(result.Tracks), e.opts.Links.Path()))
	if err := e.opts.Links.WriteTracks(result.Tracks, e.opts.GroupByArtist); err != nil {
		return e.fail(logger, result, fmt.Errorf("failed to write links: %w", err))
	}
	result.Written = true

	result.Run.Complete(result.ArtistsFailed, len(result.Tracks), result.TracksFailed)
	e.recordFinish(logger, result.Run)

	logger.Info("refresh completed",
		"artists", len(list),
		"artists_failed", result.ArtistsFailed,
		"tracks", len(result.Tracks),
		"tracks_failed", result.TracksFailed,
		"duration", result.Run.Duration().Round(time.Millisecond))
	e.sendProgress(progress, finishedUpdate(result))
	return result, nil
}

// refreshArtist resolves one artist and extracts its songs, preserving catalog order.
func (e *RefreshEngine) refreshArtist(
	ctx context.Context,
	logger *log.Logger,
	step, total int,
	artist models.Artist,
	seen map[string]bool,
	progress chan<- ProgressUpdate,
) (ArtistResult, []models.Track) {
	ar := ArtistResult{Artist: artist.String()}
	alog := shared.WithLogger(logger, "artist", artist.String(), "kind", artist.Kind().String())

	e.sendProgress(progress, resolveArtistUpdate(step, total, artist.String()))
	ref, err := e.opts.Catalog.ResolveArtist(ctx, artist)
	if err != nil {
		alog.Warn("artist lookup failed", "error", err)
		ar.Error = err.Error()
		e.sendProgress(progress, artistFailedUpdate(step, total, artist.String(), err))
		return ar, nil
	}
	ar.Resolved = ref.Name

	stubs, err := e.opts.Catalog.ArtistSongs(ctx, ref, e.opts.MaxSongsPerArtist)
	if err != nil {
		alog.Warn("song listing failed", "artist_id", ref.ID, "error", err)
		ar.Error = err.Error()
		e.sendProgress(progress, artistFailedUpdate(step, total, artist.String(), err))
		return ar, nil
	}
	if e.opts.MaxSongsPerArtist > 0 && len(stubs) > e.opts.MaxSongsPerArtist {
		stubs = stubs[:e.opts.MaxSongsPerArtist]
	}

	if e.opts.Dedupe {
		unique := stubs[:0:0]
		for _, s := range stubs {
			if seen[s.VideoID] {
				ar.Duplicates++
				continue
			}
			seen[s.VideoID] = true
			unique = append(unique, s)
		}
		stubs = unique
	}

	ar.Songs = len(stubs)
	e.sendProgress(progress, fetchSongsUpdate(step, total, artist.String(), len(stubs)))

	tracks := e.extractAll(ctx, alog, artist.String(), stubs, progress)
	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if t != nil {
			out = append(out, *t)
		}
	}
	ar.Tracks = len(out)
	ar.Failed = len(stubs) - len(out)
	return ar, out
}

// extractAll resolves audio for stubs with bounded fan-out. Failed songs leave a nil slot.
func (e *RefreshEngine) extractAll(
	ctx context.Context,
	logger *log.Logger,
	artist string,
	stubs []models.SongStub,
	progress chan<- ProgressUpdate,
) []*models.Track {
	tracks := make([]*models.Track, len(stubs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, stub := range stubs {
		g.Go(func() error {
			info, err := e.opts.Extractor.Extract(gctx, stub.VideoID)
			label := stub.Title
			if label == "" {
				label = stub.VideoID
			}
			e.sendProgress(progress, extractAudioUpdate(i+1, len(stubs), label, err))

			if err != nil {
				logger.Warn("audio extraction failed", "video_id", stub.VideoID, "title", stub.Title, "error", err)
				return nil
			}
			track := models.NewTrack(artist, stub, info)
			tracks[i] = &track
			return nil
		})
	}

	_ = g.Wait()
	return tracks
}

func (e *RefreshEngine) fail(logger *log.Logger, result *RefreshResult, err error) (*RefreshResult, error) {
	result.Run.Fail(err)
	e.recordFinish(logger, result.Run)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("refresh cancelled", "error", err)
	} else {
		logger.Error("refresh failed", "error", err)
	}
	return result, err
}

func (e *RefreshEngine) recordStart(logger *log.Logger, run *models.RefreshRun) {
	if e.opts.Runs == nil {
		return
	}
	if err := e.opts.Runs.Create(run); err != nil {
		logger.Warn("failed to record refresh start", "error", err)
	}
}

func (e *RefreshEngine) recordFinish(logger *log.Logger, run *models.RefreshRun) {
	if e.opts.Runs == nil || run.ID() == "" {
		return
	}
	if err := e.opts.Runs.Update(run); err != nil {
		logger.Warn("failed to record refresh result", "error", err)
	}
}
