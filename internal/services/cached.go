package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// AudioCache stores resolved audio by video ID.
type AudioCache interface {
	Get(ctx context.Context, videoID string) (*models.AudioInfo, error)
	Put(ctx context.Context, info *models.AudioInfo) error
}

// CachedExtractor wraps an [Extractor], reusing signed URLs until margin before they expire.
type CachedExtractor struct {
	inner  Extractor
	cache  AudioCache
	margin time.Duration
	logger *log.Logger
	now    func() time.Time
}

// NewCachedExtractor wraps inner with cache.
func NewCachedExtractor(inner Extractor, cache AudioCache, margin time.Duration, logger *log.Logger) *CachedExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedExtractor{
		inner:  inner,
		cache:  cache,
		margin: margin,
		logger: logger,
		now:    time.Now,
	}
}

// Name returns the wrapped extractor name.
func (c *CachedExtractor) Name() string {
	return c.inner.Name() + " (cached)"
}

// Fresh reports whether info can still be served at now.
func (c *CachedExtractor) Fresh(info *models.AudioInfo, now time.Time) bool {
	if info == nil || info.URL == "" || info.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(c.margin).Before(info.ExpiresAt)
}

// Extract serves a fresh cache entry or falls through to the wrapped extractor.
//
// Cache read and write failures are logged and otherwise ignored.
func (c *CachedExtractor) Extract(ctx context.Context, videoID string) (*models.AudioInfo, error) {
	cached, err := c.cache.Get(ctx, videoID)
	switch {
	case err == nil && c.Fresh(cached, c.now()):
		c.logger.Debug("audio cache hit", "video_id", videoID)
		return cached, nil
	case err != nil && !errors.Is(err, shared.ErrCacheMiss):
		c.logger.Warn("audio cache read failed", "video_id", videoID, "error", err)
	}

	info, err := c.inner.Extract(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if !info.ExpiresAt.IsZero() {
		if err := c.cache.Put(ctx, info); err != nil {
			c.logger.Warn("audio cache write failed", "video_id", videoID, "error", err)
		}
	}
	return info, nil
}
