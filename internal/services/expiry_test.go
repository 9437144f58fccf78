package services

import (
	"testing"
	"time"
)

func TestURLExpiry(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want time.Time
	}{
		{"signed", "https://rr.googlevideo.com/videoplayback?expire=1700000000&ei=x", time.Unix(1700000000, 0).UTC()},
		{"missing", "https://example.com/audio.webm", time.Time{}},
		{"garbage", "https://example.com/?expire=soon", time.Time{}},
		{"unparseable url", "://", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URLExpiry(tt.url); !got.Equal(tt.want) {
				t.Errorf("URLExpiry(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
