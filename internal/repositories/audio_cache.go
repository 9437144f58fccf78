package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// AudioCacheRepository stores resolved [models.AudioInfo] by video ID.
//
// It satisfies services.AudioCache.
type AudioCacheRepository struct {
	db *sql.DB
}

// NewAudioCacheRepository creates a new [AudioCacheRepository] with the given database connection
func NewAudioCacheRepository(db *sql.DB) *AudioCacheRepository {
	return &AudioCacheRepository{db: db}
}

// Get returns the cached entry or [shared.ErrCacheMiss]
func (r *AudioCacheRepository) Get(ctx context.Context, videoID string) (*models.AudioInfo, error) {
	query := `
		SELECT video_id, title, artist, album, thumbnail, url, duration, year, release_date, expires_at
		FROM audio_cache
		WHERE video_id = ?
	`

	var info models.AudioInfo
	err := r.db.QueryRowContext(ctx, query, videoID).Scan(
		&info.VideoID, &info.Title, &info.Artist, &info.Album, &info.Thumbnail, &info.URL,
		&info.Duration, &info.Year, &info.ReleaseDate, &info.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCacheMiss, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query audio cache: %w", err)
	}

	info.ExpiresAt = info.ExpiresAt.UTC()
	return &info, nil
}

// Put inserts or replaces the entry for info.VideoID
func (r *AudioCacheRepository) Put(ctx context.Context, info *models.AudioInfo) error {
	if info == nil || info.VideoID == "" || info.URL == "" {
		return fmt.Errorf("%w: audio cache entry needs a video id and url", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO audio_cache (video_id, title, artist, album, thumbnail, url, duration, year, release_date, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			thumbnail = excluded.thumbnail,
			url = excluded.url,
			duration = excluded.duration,
			year = excluded.year,
			release_date = excluded.release_date,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		info.VideoID, info.Title, info.Artist, info.Album, info.Thumbnail, info.URL,
		info.Duration, info.Year, info.ReleaseDate, info.ExpiresAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store audio cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries expiring before the given time and reports how many were removed
func (r *AudioCacheRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audio_cache WHERE expires_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge audio cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
