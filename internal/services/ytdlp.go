// yt-dlp [Extractor] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const defaultYTDLPFormat = "bestaudio"

// YTDLPInfo is the subset of yt-dlp's --dump-json output ytlinks reads.
type YTDLPInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Track       string  `json:"track"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	Thumbnail   string  `json:"thumbnail"`
	URL         string  `json:"url"`
	Duration    float64 `json:"duration"`
	ReleaseYear int     `json:"release_year"`
	ReleaseDate string  `json:"release_date"` // YYYYMMDD
	UploadDate  string  `json:"upload_date"`  // YYYYMMDD
}

// AudioInfo converts yt-dlp output, preferring music metadata over video metadata.
func (i YTDLPInfo) AudioInfo() *models.AudioInfo {
	info := &models.AudioInfo{
		VideoID:     i.ID,
		Title:       firstNonBlank(i.Track, i.Title),
		Artist:      firstNonBlank(strings.SplitN(i.Artist, ",", 2)[0], i.Channel, i.Uploader),
		Album:       i.Album,
		Thumbnail:   i.Thumbnail,
		URL:         i.URL,
		Duration:    int(i.Duration),
		Year:        i.ReleaseYear,
		ReleaseDate: formatYTDLPDate(i.ReleaseDate),
		ExpiresAt:   URLExpiry(i.URL),
	}
	if info.Year == 0 && len(i.ReleaseDate) >= 4 {
		info.Year, _ = strconv.Atoi(i.ReleaseDate[:4])
	}
	return info
}

func formatYTDLPDate(s string) string {
	if len(s) != 8 {
		return s
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return s
	}
	return t.Format(time.DateOnly)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ParseYTDLPOutput decodes a single --dump-json document.
func ParseYTDLPOutput(stdout []byte) (*models.AudioInfo, error) {
	var raw YTDLPInfo
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed parsing yt-dlp JSON: %v", shared.ErrExtractionFailed, err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: missing video id in yt-dlp output", shared.ErrExtractionFailed)
	}
	if raw.URL == "" {
		return nil, fmt.Errorf("%w: yt-dlp returned no audio url for %s", shared.ErrExtractionFailed, raw.ID)
	}
	return raw.AudioInfo(), nil
}

// YTDLPOpts configures a [YTDLPExtractor].
type YTDLPOpts struct {
	Executable string // Explicit yt-dlp path, empty to search PATH (or the cache after Install)
	Cookies    string // Netscape cookies.txt, skipped when missing
	Format     string
	Timeout    time.Duration
}

type ytdlpRunFunc func(ctx context.Context, url string) (string, error)

// YTDLPExtractor implements [Extractor] by running yt-dlp.
type YTDLPExtractor struct {
	opts YTDLPOpts
	run  ytdlpRunFunc
}

// NewYTDLPExtractor creates an extractor backed by the yt-dlp binary.
func NewYTDLPExtractor(opts YTDLPOpts) *YTDLPExtractor {
	if opts.Format == "" {
		opts.Format = defaultYTDLPFormat
	}
	e := &YTDLPExtractor{opts: opts}
	e.run = e.runCommand
	return e
}

// InstallYTDLP downloads yt-dlp into the go-ytdlp cache when it is not already available.
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// Name returns the extractor name.
func (e *YTDLPExtractor) Name() string {
	return "yt-dlp"
}

func (e *YTDLPExtractor) command() *ytdlp.Command {
	cmd := ytdlp.New().
		DumpJSON().
		NoPlaylist().
		SkipDownload().
		NoWarnings().
		Format(e.opts.Format)

	if e.opts.Cookies != "" && shared.FileExists(e.opts.Cookies) {
		cmd = cmd.Cookies(e.opts.Cookies)
	}
	if e.opts.Executable != "" {
		cmd = cmd.SetExecutable(e.opts.Executable)
	}
	return cmd
}

func (e *YTDLPExtractor) runCommand(ctx context.Context, url string) (string, error) {
	result, err := e.command().Run(ctx, url)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// Extract runs yt-dlp for videoID and parses its JSON output.
func (e *YTDLPExtractor) Extract(ctx context.Context, videoID string) (*models.AudioInfo, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("%w: empty video id", shared.ErrInvalidInput)
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	stdout, err := e.run(ctx, WatchURL(videoID))
	if err != nil {
		return nil, fmt.Errorf("%w: yt-dlp %s: %v", shared.ErrExtractionFailed, videoID, err)
	}
	return ParseYTDLPOutput([]byte(stdout))
}
