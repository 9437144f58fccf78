package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	tu "github.com/desertthunder/ytlinks/internal/testing"
)

type memoryCache struct {
	entries map[string]*models.AudioInfo
	getErr  error
	putErr  error
	puts    int
}

func (m *memoryCache) Get(ctx context.Context, videoID string) (*models.AudioInfo, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	info, ok := m.entries[videoID]
	if !ok {
		return nil, shared.ErrCacheMiss
	}
	return info, nil
}

func (m *memoryCache) Put(ctx context.Context, info *models.AudioInfo) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[info.VideoID] = info
	return nil
}

func TestCachedExtractor(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	logger := log.New(io.Discard)

	setup := func() (*CachedExtractor, *memoryCache, *tu.MockExtractor) {
		inner := tu.NewMockExtractor()
		cache := &memoryCache{entries: map[string]*models.AudioInfo{}}
		c := NewCachedExtractor(inner, cache, 10*time.Minute, logger)
		c.now = func() time.Time { return now }
		return c, cache, inner
	}

	t.Run("Fresh Entry Is Served", func(t *testing.T) {
		c, cache, inner := setup()
		cache.entries["v1"] = &models.AudioInfo{VideoID: "v1", URL: "cached", ExpiresAt: now.Add(time.Hour)}

		info, err := c.Extract(ctx, "v1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.URL != "cached" {
			t.Errorf("expected cached url, got %s", info.URL)
		}
		if inner.Calls("v1") != 0 {
			t.Error("expected inner extractor to be skipped")
		}
	})

	t.Run("Entry Inside Margin Is Refreshed", func(t *testing.T) {
		c, cache, inner := setup()
		cache.entries["v1"] = &models.AudioInfo{VideoID: "v1", URL: "cached", ExpiresAt: now.Add(5 * time.Minute)}
		inner.Info["v1"] = &models.AudioInfo{VideoID: "v1", URL: "fresh", ExpiresAt: now.Add(6 * time.Hour)}

		info, err := c.Extract(ctx, "v1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.URL != "fresh" || inner.Calls("v1") != 1 {
			t.Errorf("expected fresh extraction, got %s (%d calls)", info.URL, inner.Calls("v1"))
		}
		if cache.entries["v1"].URL != "fresh" {
			t.Error("expected cache to be updated")
		}
	})

	t.Run("Unknown Expiry Is Not Cached", func(t *testing.T) {
		c, cache, _ := setup()
		if _, err := c.Extract(ctx, "v2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cache.puts != 0 {
			t.Errorf("expected no cache write, got %d", cache.puts)
		}
	})

	t.Run("Cache Errors Are Not Fatal", func(t *testing.T) {
		c, cache, inner := setup()
		cache.getErr = errors.New("disk on fire")
		cache.putErr = errors.New("disk on fire")
		inner.Info["v3"] = &models.AudioInfo{VideoID: "v3", URL: "fresh", ExpiresAt: now.Add(time.Hour)}

		info, err := c.Extract(ctx, "v3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.URL != "fresh" {
			t.Errorf("unexpected url %s", info.URL)
		}
	})

	t.Run("Inner Errors Propagate", func(t *testing.T) {
		c, _, inner := setup()
		inner.Fail["bad"] = true
		if _, err := c.Extract(ctx, "bad"); !errors.Is(err, tu.ErrMock) {
			t.Errorf("expected ErrMock, got %v", err)
		}
	})

	t.Run("Name", func(t *testing.T) {
		c, _, _ := setup()
		if c.Name() != "mock (cached)" {
			t.Errorf("unexpected name %q", c.Name())
		}
	})
}
