package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

var emptyDocument = []byte("[]")

// LinksFile reads and replaces links.json.
type LinksFile struct {
	path string
	mu   sync.RWMutex
}

// NewLinksFile returns a [LinksFile] for path.
func NewLinksFile(path string) *LinksFile {
	return &LinksFile{path: path}
}

// Path returns the file location.
func (l *LinksFile) Path() string {
	return l.path
}

// Read returns the stored document verbatim, or "[]" when the file does not exist or is blank.
func (l *LinksFile) Read() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read links file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyDocument, nil
	}
	return data, nil
}

// ReadTracks decodes the stored document, flattening the grouped form in key order.
func (l *LinksFile) ReadTracks() ([]models.Track, error) {
	data, err := l.Read()
	if err != nil {
		return nil, err
	}
	return DecodeTracks(data)
}

// DecodeTracks accepts either links document shape.
func DecodeTracks(data []byte) ([]models.Track, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []models.Track{}, nil
	}

	if trimmed[0] == '{' {
		var grouped models.GroupedTracks
		if err := json.Unmarshal(trimmed, &grouped); err != nil {
			return nil, fmt.Errorf("%w: links document: %v", shared.ErrInvalidInput, err)
		}
		return grouped.Flatten(), nil
	}

	var tracks []models.Track
	if err := json.Unmarshal(trimmed, &tracks); err != nil {
		return nil, fmt.Errorf("%w: links document: %v", shared.ErrInvalidInput, err)
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	return tracks, nil
}

// WriteTracks replaces the document with tracks, as an array or grouped by artist.
func (l *LinksFile) WriteTracks(tracks []models.Track, groupByArtist bool) error {
	var doc any = tracks
	if tracks == nil {
		doc = []models.Track{}
	}
	if groupByArtist {
		doc = models.GroupTracks(tracks)
	}

	data, err := shared.MarshalJSON(doc, true)
	if err != nil {
		return fmt.Errorf("failed to encode links: %w", err)
	}
	return l.write(data)
}

// WriteRaw validates raw as JSON and stores it re-indented.
//
// Empty bodies, null, empty arrays and empty objects are rejected with [shared.ErrEmptyInput].
func (l *LinksFile) WriteRaw(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: no data provided", shared.ErrEmptyInput)
	}

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return fmt.Errorf("%w: body is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	switch v := doc.(type) {
	case nil:
		return fmt.Errorf("%w: no data provided", shared.ErrEmptyInput)
	case []any:
		if len(v) == 0 {
			return fmt.Errorf("%w: no data provided", shared.ErrEmptyInput)
		}
	case map[string]any:
		if len(v) == 0 {
			return fmt.Errorf("%w: no data provided", shared.ErrEmptyInput)
		}
	default:
		return fmt.Errorf("%w: links document must be an array or object", shared.ErrInvalidInput)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "    "); err != nil {
		return fmt.Errorf("failed to format links: %w", err)
	}
	out.WriteByte('\n')
	return l.write(out.Bytes())
}

func (l *LinksFile) write(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return writeAtomic(l.path, data)
}
