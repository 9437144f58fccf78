package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/ytlinks/internal/shared"
)

// ArtistsFile stores the artist list.
type ArtistsFile struct {
	path string
	mu   sync.Mutex
}

// NewArtistsFile returns an [ArtistsFile] for path. A ".txt" extension selects the line format.
func NewArtistsFile(path string) *ArtistsFile {
	return &ArtistsFile{path: path}
}

// Path returns the file location.
func (a *ArtistsFile) Path() string {
	return a.path
}

func (a *ArtistsFile) lineFormat() bool {
	return strings.EqualFold(filepath.Ext(a.path), ".txt")
}

// List returns the stored artists, empty when the file does not exist.
func (a *ArtistsFile) List() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load()
}

// Add appends name unless an equal name (after normalization) is already stored.
func (a *ArtistsFile) Add(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%w: artist name is required", shared.ErrEmptyInput)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	artists, err := a.load()
	if err != nil {
		return false, err
	}
	if indexOf(artists, name) >= 0 {
		return false, nil
	}
	return true, a.save(append(artists, name))
}

// Remove deletes name, reporting whether it was present.
func (a *ArtistsFile) Remove(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%w: artist name is required", shared.ErrEmptyInput)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	artists, err := a.load()
	if err != nil {
		return false, err
	}
	i := indexOf(artists, name)
	if i < 0 {
		return false, nil
	}
	return true, a.save(append(artists[:i], artists[i+1:]...))
}

// Replace stores names, dropping blanks and duplicates.
func (a *ArtistsFile) Replace(names []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.save(Dedupe(names))
}

// Dedupe trims names and drops blanks and normalized duplicates, keeping first occurrences.
func Dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := shared.NormalizeArtist(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func indexOf(artists []string, name string) int {
	key := shared.NormalizeArtist(name)
	for i, existing := range artists {
		if shared.NormalizeArtist(existing) == key {
			return i
		}
	}
	return -1
}

func (a *ArtistsFile) load() ([]string, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artists file: %w", err)
	}
	if a.lineFormat() {
		return parseArtistLines(data), nil
	}
	return parseArtistJSON(data)
}

func (a *ArtistsFile) save(artists []string) error {
	if artists == nil {
		artists = []string{}
	}

	var data []byte
	if a.lineFormat() {
		data = []byte(strings.Join(artists, "\n"))
		if len(artists) > 0 {
			data = append(data, '\n')
		}
	} else {
		var err error
		if data, err = shared.MarshalJSON(artists, true); err != nil {
			return fmt.Errorf("failed to encode artists: %w", err)
		}
	}
	return writeAtomic(a.path, data)
}

func parseArtistLines(data []byte) []string {
	artists := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		artists = append(artists, line)
	}
	return Dedupe(artists)
}

// parseArtistJSON accepts a bare array or {"artists": [...]}.
func parseArtistJSON(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []string{}, nil
	}

	var artists []string
	if trimmed[0] == '{' {
		var wrapped struct {
			Artists []string `json:"artists"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: artists file: %v", shared.ErrInvalidInput, err)
		}
		artists = wrapped.Artists
	} else if err := json.Unmarshal(trimmed, &artists); err != nil {
		return nil, fmt.Errorf("%w: artists file: %v", shared.ErrInvalidInput, err)
	}
	return Dedupe(artists), nil
}
