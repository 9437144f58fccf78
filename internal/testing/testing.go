// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
)

// ErrMock is returned by mocks configured to fail.
var ErrMock = errors.New("mock failure")

// MockCatalog is a test double for [services.Catalog].
//
// Songs are keyed by the artist string as submitted; artists listed in Fail return [ErrMock].
type MockCatalog struct {
	Songs map[string][]models.SongStub
	Fail  map[string]bool

	mu       sync.Mutex
	resolved []string
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{Songs: map[string][]models.SongStub{}, Fail: map[string]bool{}}
}

func (m *MockCatalog) ResolveArtist(ctx context.Context, artist models.Artist) (*models.ArtistRef, error) {
	m.mu.Lock()
	m.resolved = append(m.resolved, artist.String())
	m.mu.Unlock()

	if m.Fail[artist.String()] {
		return nil, fmt.Errorf("%w: resolve %s", ErrMock, artist)
	}
	if _, ok := m.Songs[artist.String()]; !ok {
		return nil, fmt.Errorf("%w: unknown artist %s", ErrMock, artist)
	}
	return &models.ArtistRef{ID: "id-" + artist.String(), Name: artist.String(), Catalog: m.Name(), Query: artist.String()}, nil
}

func (m *MockCatalog) ArtistSongs(ctx context.Context, ref *models.ArtistRef, limit int) ([]models.SongStub, error) {
	songs := m.Songs[ref.Query]
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// Resolved lists the artists ResolveArtist was called with, in call order.
func (m *MockCatalog) Resolved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolved...)
}

// MockExtractor is a test double for [services.Extractor].
//
// Unknown video IDs get a generated [models.AudioInfo]; IDs listed in Fail return [ErrMock].
// IDs listed in Delay sleep before answering.
type MockExtractor struct {
	Info  map[string]*models.AudioInfo
	Fail  map[string]bool
	Delay map[string]time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Info:  map[string]*models.AudioInfo{},
		Fail:  map[string]bool{},
		Delay: map[string]time.Duration{},
		calls: map[string]int{},
	}
}

func (m *MockExtractor) Extract(ctx context.Context, videoID string) (*models.AudioInfo, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[videoID]++
	m.mu.Unlock()

	if d := m.Delay[videoID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Fail[videoID] {
		return nil, fmt.Errorf("%w: extract %s", ErrMock, videoID)
	}
	if info, ok := m.Info[videoID]; ok {
		return info, nil
	}
	return &models.AudioInfo{
		VideoID:   videoID,
		URL:       "https://audio.example/" + videoID,
		Thumbnail: "https://img.example/" + videoID + ".jpg",
	}, nil
}

func (m *MockExtractor) Name() string { return "mock" }

// Calls returns how many times videoID was extracted.
func (m *MockExtractor) Calls(videoID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[videoID]
}

// Stubs builds n songs for artist with video IDs "<prefix>-1".."<prefix>-n".
func Stubs(artist, prefix string, n int) []models.SongStub {
	songs := make([]models.SongStub, n)
	for i := range songs {
		songs[i] = models.SongStub{
			VideoID: fmt.Sprintf("%s-%d", prefix, i+1),
			Title:   fmt.Sprintf("%s song %d", artist, i+1),
			Artist:  artist,
			Album:   artist + " album",
		}
	}
	return songs
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// JSONResponse builds a response with a JSON body for [MockRoundTripper].
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
