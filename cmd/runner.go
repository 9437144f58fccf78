package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/repositories"
	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/store"
	"github.com/desertthunder/ytlinks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil are built from the configuration on first use.
type Runner struct {
	config     *shared.Config
	catalog    services.Catalog
	extractor  services.Extractor
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    services.Catalog
	Extractor  services.Extractor
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		extractor:  opts.Extractor,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, refreshCommand, artistsCommand, linksCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration named by the --config flag once.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.ResolveConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if config.Server.LogFile != "" {
		logger, err := shared.NewFileLogger(config.Server.LogFile)
		if err != nil {
			return nil, err
		}
		r.logger = logger
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Server.LogLevel))
	if config.Server.LogFile != "" {
		r.logger.Info("logging to file", "path", config.Server.LogFile)
	}
	r.config = config
	return config, nil
}

// stack is everything a refresh needs, built from configuration.
type stack struct {
	config  *shared.Config
	db      *sql.DB
	links   *store.LinksFile
	artists *store.ArtistsFile
	runs    *repositories.RefreshRepository
	cache   *repositories.AudioCacheRepository
	engine  *tasks.RefreshEngine
}

func (s *stack) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// recorder returns the run repository as a [tasks.RunRecorder], nil when no database is open.
func (s *stack) recorder() tasks.RunRecorder {
	if s.runs == nil {
		return nil
	}
	return s.runs
}

// audioCache returns the cache repository as a [services.AudioCache], nil when no database is open.
func (s *stack) audioCache() services.AudioCache {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// newStack opens the database (optional), builds the catalog and extractor and wires the refresh engine.
func (r *Runner) newStack(ctx context.Context, cmd *cli.Command) (*stack, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	st := &stack{
		config:  config,
		links:   store.NewLinksFile(config.Files.Links),
		artists: store.NewArtistsFile(config.Files.Artists),
	}

	if config.Database.Path != "" {
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			r.logger.Warn("database unavailable, refresh history and audio cache disabled", "path", config.Database.Path, "error", err)
		} else {
			st.db = db
			st.runs = repositories.NewRefreshRepository(db)
			st.cache = repositories.NewAudioCacheRepository(db)
		}
	}

	catalog, err := r.catalogFor(ctx, config)
	if err != nil {
		st.Close()
		return nil, err
	}
	extractor, err := r.extractorFor(ctx, config, st.audioCache())
	if err != nil {
		st.Close()
		return nil, err
	}
	r.logger.Debug("refresh stack ready", "catalog", catalog.Name(), "extractor", extractor.Name())

	st.engine = tasks.NewRefreshEngine(tasks.RefreshOpts{
		Catalog:           catalog,
		Extractor:         extractor,
		Links:             st.links,
		Runs:              st.recorder(),
		Logger:            r.logger,
		Concurrency:       config.Refresh.Concurrency,
		MaxSongsPerArtist: config.Refresh.MaxSongsPerArtist,
		Dedupe:            config.Refresh.Dedupe,
		GroupByArtist:     config.Files.GroupByArtist,
	})
	return st, nil
}

func (r *Runner) catalogClient(config *shared.Config) *http.Client {
	if r.httpClient != nil {
		return r.httpClient
	}
	return services.NewHTTPClient(config.Catalog.Timeout.Duration)
}

func (r *Runner) youtube(config *shared.Config) *services.YouTubeService {
	return services.NewYouTubeService(services.YouTubeOpts{
		BaseURL:        config.Credentials.YouTube.ProxyURL,
		AuthFile:       config.Credentials.YouTube.HeadersPath,
		HTTPClient:     r.catalogClient(config),
		Limiter:        services.NewLimiter(config.Catalog.RequestsPerSecond),
		MatchThreshold: config.Catalog.MatchThreshold,
	})
}

func (r *Runner) catalogFor(ctx context.Context, config *shared.Config) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	yt := r.youtube(config)
	switch config.Catalog.Provider {
	case shared.CatalogSpotify:
		sp, err := services.NewSpotifyService(ctx, services.SpotifyOpts{
			ClientID:       config.Credentials.Spotify.ClientID,
			ClientSecret:   config.Credentials.Spotify.ClientSecret,
			Market:         config.Credentials.Spotify.Market,
			Searcher:       yt,
			HTTPClient:     r.catalogClient(config),
			Limiter:        services.NewLimiter(config.Catalog.RequestsPerSecond),
			MatchThreshold: config.Catalog.MatchThreshold,
			Logger:         shared.WithLogger(r.logger, "catalog", shared.CatalogSpotify),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Spotify catalog: %w", err)
		}
		r.catalog = sp
	default:
		r.catalog = yt
	}
	return r.catalog, nil
}

func (r *Runner) extractorFor(ctx context.Context, config *shared.Config, cache services.AudioCache) (services.Extractor, error) {
	if r.extractor != nil {
		return r.extractor, nil
	}

	var inner services.Extractor
	switch config.Extractor.Provider {
	case shared.ExtractorNative:
		inner = services.NewNativeExtractor(services.NewHTTPClient(config.Extractor.Timeout.Duration))
	default:
		if config.Extractor.Install && config.Extractor.Executable == "" {
			r.logger.Info("ensuring yt-dlp is installed")
			if err := services.InstallYTDLP(ctx); err != nil {
				return nil, fmt.Errorf("failed to install yt-dlp: %w", err)
			}
		}
		inner = services.NewYTDLPExtractor(services.YTDLPOpts{
			Executable: config.Extractor.Executable,
			Cookies:    config.Extractor.Cookies,
			Format:     config.Extractor.Format,
			Timeout:    config.Extractor.Timeout.Duration,
		})
	}

	r.extractor = inner
	if config.Extractor.Cache && cache != nil {
		r.extractor = services.NewCachedExtractor(inner, cache, config.Extractor.CacheMargin.Duration, r.logger)
	}
	return r.extractor, nil
}

func (r *Runner) proxy(config *shared.Config) *services.APIService {
	if r.api == nil {
		r.api = services.NewAPIService(config.Credentials.YouTube.ProxyURL, r.catalogClient(config))
	}
	return r.api
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
