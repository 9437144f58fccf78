// Native YouTube [Extractor] implementation
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/kkdai/youtube/v2"
)

// NativeExtractor implements [Extractor] with a pure Go YouTube client, no yt-dlp binary required.
type NativeExtractor struct {
	client youtube.Client
}

// NewNativeExtractor creates an extractor using httpClient, or [http.DefaultClient] when nil.
func NewNativeExtractor(httpClient *http.Client) *NativeExtractor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NativeExtractor{client: youtube.Client{HTTPClient: httpClient}}
}

// Name returns the extractor name.
func (e *NativeExtractor) Name() string {
	return "native"
}

// Extract picks the highest-bitrate audio-only format and resolves its stream URL.
func (e *NativeExtractor) Extract(ctx context.Context, videoID string) (*models.AudioInfo, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("%w: empty video id", shared.ErrInvalidInput)
	}

	video, err := e.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube %s: %v", shared.ErrExtractionFailed, videoID, err)
	}

	format, ok := bestAudioFormat(video.Formats)
	if !ok {
		return nil, fmt.Errorf("%w: no audio formats for %s", shared.ErrExtractionFailed, videoID)
	}

	streamURL, err := e.client.GetStreamURLContext(ctx, video, &format)
	if err != nil {
		return nil, fmt.Errorf("%w: stream url %s: %v", shared.ErrExtractionFailed, videoID, err)
	}

	info := &models.AudioInfo{
		VideoID:   video.ID,
		Title:     video.Title,
		Artist:    video.Author,
		Thumbnail: bestThumbnail(video.Thumbnails),
		URL:       streamURL,
		Duration:  int(video.Duration.Seconds()),
		ExpiresAt: URLExpiry(streamURL),
	}
	if !video.PublishDate.IsZero() {
		info.Year = video.PublishDate.Year()
	}
	return info, nil
}

// bestAudioFormat prefers audio-only formats, highest bitrate first.
func bestAudioFormat(formats youtube.FormatList) (youtube.Format, bool) {
	var best youtube.Format
	found := false
	for _, f := range formats.Type("audio") {
		if !found || f.Bitrate > best.Bitrate {
			best, found = f, true
		}
	}
	return best, found
}

func bestThumbnail(thumbs youtube.Thumbnails) string {
	best := ""
	var width uint
	for _, t := range thumbs {
		if best == "" || t.Width > width {
			best, width = t.URL, t.Width
		}
	}
	return best
}
