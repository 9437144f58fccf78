package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/kkdai/youtube/v2"
)

func TestBestAudioFormat(t *testing.T) {
	t.Run("Highest Bitrate Audio", func(t *testing.T) {
		formats := youtube.FormatList{
			{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000},
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130000},
			{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000},
		}
		got, ok := bestAudioFormat(formats)
		if !ok || got.ItagNo != 251 {
			t.Errorf("expected itag 251, got %d (ok=%v)", got.ItagNo, ok)
		}
	})

	t.Run("No Audio", func(t *testing.T) {
		formats := youtube.FormatList{{ItagNo: 137, MimeType: `video/mp4; codecs="avc1"`}}
		if _, ok := bestAudioFormat(formats); ok {
			t.Error("expected no audio format")
		}
	})
}

func TestBestThumbnail(t *testing.T) {
	thumbs := youtube.Thumbnails{
		{URL: "default.jpg", Width: 120, Height: 90},
		{URL: "max.jpg", Width: 1280, Height: 720},
		{URL: "hq.jpg", Width: 480, Height: 360},
	}
	if got := bestThumbnail(thumbs); got != "max.jpg" {
		t.Errorf("expected max.jpg, got %s", got)
	}
	if got := bestThumbnail(nil); got != "" {
		t.Errorf("expected empty thumbnail, got %s", got)
	}
}

func TestNativeExtractor(t *testing.T) {
	e := NewNativeExtractor(nil)
	if e.Name() != "native" {
		t.Errorf("unexpected name %q", e.Name())
	}
	if _, err := e.Extract(context.Background(), ""); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
