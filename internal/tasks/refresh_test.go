package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/store"
	tu "github.com/desertthunder/ytlinks/internal/testing"
)

type memoryRecorder struct {
	mu      sync.Mutex
	created int
	updates []models.RefreshStatus
}

func (m *memoryRecorder) Create(run *models.RefreshRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	run.SetID("run-1")
	return nil
}

func (m *memoryRecorder) Update(run *models.RefreshRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, run.Status())
	return nil
}

type failingLinks struct{}

func (failingLinks) WriteTracks([]models.Track, bool) error { return errors.New("disk full") }
func (failingLinks) Path() string { return "links.json" }

func newTestEngine(t *testing.T, opts RefreshOpts) (*RefreshEngine, *store.LinksFile) {
	t.Helper()
	links := store.NewLinksFile(filepath.Join(t.TempDir(), "links.json"))
	if opts.Links == nil {
		opts.Links = links
	}
	opts.Logger = log.New(io.Discard)
	return NewRefreshEngine(opts), links
}

func TestRefreshEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Input Is Rejected", func(t *testing.T) {
		engine, links := newTestEngine(t, RefreshOpts{Catalog: tu.NewMockCatalog(), Extractor: tu.NewMockExtractor()})

		for _, input := range [][]string{nil, {}, {"", "   "}} {
			if _, err := engine.Run(ctx, models.TriggerManual, input, nil); !errors.Is(err, shared.ErrEmptyInput) {
				t.Errorf("Run(%q): expected ErrEmptyInput, got %v", input, err)
			}
		}
		tu.AssertNoFile(t, links.Path())
	})

	t.Run("Missing Dependencies", func(t *testing.T) {
		engine := NewRefreshEngine(RefreshOpts{})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"a"}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Writes Tracks In Order", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["Tarkan"] = tu.Stubs("Tarkan", "t", 3)
		catalog.Songs["Sezen Aksu"] = tu.Stubs("Sezen Aksu", "s", 2)

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), Concurrency: 4})
		result, err := engine.Run(ctx, models.TriggerManual, []string{"Tarkan", "Sezen Aksu"}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Written {
			t.Error("expected links to be written")
		}

		tracks, err := links.ReadTracks()
		if err != nil {
			t.Fatalf("failed to read links: %v", err)
		}
		want := []string{"t-1", "t-2", "t-3", "s-1", "s-2"}
		if len(tracks) != len(want) {
			t.Fatalf("expected %d tracks, got %d", len(want), len(tracks))
		}
		for i, id := range want {
			if tracks[i].VideoID != id {
				t.Errorf("track %d: expected %s, got %s", i, id, tracks[i].VideoID)
			}
		}
		if tracks[0].URL != "https://audio.example/t-1" || tracks[0].Cover == "" || tracks[0].Title != "Tarkan song 1" {
			t.Errorf("unexpected merged track %+v", tracks[0])
		}
		if result.Run.Status() != models.RefreshCompleted || result.Run.TracksTotal() != 5 {
			t.Errorf("unexpected run %+v", result.Run.View())
		}
	})

	t.Run("Keeps Catalog Order When Extraction Finishes Out Of Order", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["Tarkan"] = tu.Stubs("Tarkan", "t", 4)
		extractor := tu.NewMockExtractor()
		for i := 1; i <= 4; i++ {
			extractor.Delay[fmt.Sprintf("t-%d", i)] = time.Duration(5-i) * 15 * time.Millisecond
		}

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: extractor, Concurrency: 4})
		progress := make(chan ProgressUpdate, 32)
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"Tarkan"}, progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var finished []string
		for u := range progress {
			if u.Phase == ExtractAudio {
				finished = append(finished, u.Message)
			}
		}
		if len(finished) != 4 || !strings.Contains(finished[0], "Tarkan song 4") {
			t.Errorf("expected the last song to finish first, got %v", finished)
		}

		tracks, _ := links.ReadTracks()
		want := []string{"t-1", "t-2", "t-3", "t-4"}
		if len(tracks) != len(want) {
			t.Fatalf("expected %d tracks, got %d", len(want), len(tracks))
		}
		for i, id := range want {
			if tracks[i].VideoID != id {
				t.Errorf("track %d: expected %s, got %s", i, id, tracks[i].VideoID)
			}
		}
	})

	t.Run("Failing Artist Does Not Block Others", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["good"] = tu.Stubs("good", "g", 2)
		catalog.Songs["after"] = tu.Stubs("after", "a", 1)
		catalog.Fail["bad"] = true

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor()})
		result, err := engine.Run(ctx, models.TriggerManual, []string{"good", "bad", "after"}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.ArtistsFailed != 1 || result.Artists[1].Error == "" {
			t.Errorf("expected one failed artist, got %+v", result.Artists)
		}
		if got := catalog.Resolved(); len(got) != 3 {
			t.Errorf("expected all artists to be attempted, got %v", got)
		}

		tracks, _ := links.ReadTracks()
		if len(tracks) != 3 {
			t.Errorf("expected 3 tracks, got %d", len(tracks))
		}
	})

	t.Run("Failures Are Logged With Artist Kind", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["ok"] = tu.Stubs("ok", "o", 1)
		catalog.Fail["@nobody"] = true

		var logs bytes.Buffer
		links := store.NewLinksFile(filepath.Join(t.TempDir(), "links.json"))
		engine := NewRefreshEngine(RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), Links: links, Logger: log.New(&logs)})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"ok", "@nobody"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := logs.String()
		if !strings.Contains(out, "artist lookup failed") || !strings.Contains(out, "kind=handle") {
			t.Errorf("expected lookup failure with artist kind, got %q", out)
		}
	})

	t.Run("Failing Songs Are Skipped", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 3)
		extractor := tu.NewMockExtractor()
		extractor.Fail["a-2"] = true

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: extractor, Concurrency: 2})
		result, err := engine.Run(ctx, models.TriggerManual, []string{"a"}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TracksFailed != 1 || result.Artists[0].Tracks != 2 {
			t.Errorf("unexpected counters %+v", result.Artists[0])
		}

		tracks, _ := links.ReadTracks()
		if len(tracks) != 2 || tracks[0].VideoID != "a-1" || tracks[1].VideoID != "a-3" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("Every Artist Failing Keeps Previous File", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Fail["x"] = true

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor()})
		links.WriteRaw([]byte(`[{"title":"keep"}]`))

		result, err := engine.Run(ctx, models.TriggerManual, []string{"x"}, nil)
		if err == nil {
			t.Fatal("expected error when every artist fails")
		}
		if result.Written || result.Run.Status() != models.RefreshFailed {
			t.Errorf("unexpected result %+v", result.Run.View())
		}
		tracks, _ := links.ReadTracks()
		if len(tracks) != 1 || tracks[0].Title != "keep" {
			t.Errorf("expected previous document to survive, got %+v", tracks)
		}
	})

	t.Run("Max Songs Per Artist", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 10)

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), MaxSongsPerArtist: 4})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"a"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tracks, _ := links.ReadTracks()
		if len(tracks) != 4 {
			t.Errorf("expected 4 tracks, got %d", len(tracks))
		}
	})

	t.Run("Dedupe Across Artists", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "x", 2)
		catalog.Songs["b"] = tu.Stubs("b", "x", 3)
		extractor := tu.NewMockExtractor()

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: extractor, Dedupe: true})
		result, err := engine.Run(ctx, models.TriggerManual, []string{"a", "b"}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Duplicates != 2 {
			t.Errorf("expected 2 duplicates, got %d", result.Duplicates)
		}
		if extractor.Calls("x-1") != 1 {
			t.Errorf("expected duplicate to be extracted once, got %d", extractor.Calls("x-1"))
		}
		tracks, _ := links.ReadTracks()
		if len(tracks) != 3 {
			t.Errorf("expected 3 unique tracks, got %d", len(tracks))
		}
	})

	t.Run("Grouped Output", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 1)
		catalog.Songs["b"] = tu.Stubs("b", "b", 1)

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), GroupByArtist: true})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"a", "b"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, _ := links.Read()
		var grouped map[string][]models.Track
		if err := json.Unmarshal(data, &grouped); err != nil {
			t.Fatalf("expected grouped object, got %v", err)
		}
		if len(grouped["a"]) != 1 || len(grouped["b"]) != 1 {
			t.Errorf("unexpected groups %+v", grouped)
		}
	})

	t.Run("Grouped Output Keys By Requested Artist", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		songs := tu.Stubs("Daft Punk", "dp", 2)
		songs[1].Artist = "Pharrell Williams"
		catalog.Songs["Daft Punk"] = songs

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), GroupByArtist: true})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"Daft Punk"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, _ := links.Read()
		var grouped map[string][]models.Track
		if err := json.Unmarshal(data, &grouped); err != nil {
			t.Fatalf("expected grouped object, got %v", err)
		}
		if len(grouped) != 1 || len(grouped["Daft Punk"]) != 2 {
			t.Fatalf("expected both songs under Daft Punk, got %+v", grouped)
		}
		if grouped["Daft Punk"][1].Artist != "Pharrell Williams" {
			t.Errorf("expected featured artist on the record, got %+v", grouped["Daft Punk"][1])
		}

		tracks, _ := links.ReadTracks()
		if err := links.WriteTracks(tracks, true); err != nil {
			t.Fatalf("rewrite failed: %v", err)
		}
		data, _ = links.Read()
		grouped = nil
		json.Unmarshal(data, &grouped)
		if len(grouped) != 1 {
			t.Errorf("expected rewrite to keep grouping, got %+v", grouped)
		}
	})

	t.Run("Records Runs", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 1)
		recorder := &memoryRecorder{}

		engine, _ := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), Runs: recorder})
		if _, err := engine.Run(ctx, models.TriggerSchedule, []string{"a"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if recorder.created != 1 || len(recorder.updates) != 1 || recorder.updates[0] != models.RefreshCompleted {
			t.Errorf("unexpected recorder state %+v", recorder)
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 1)
		recorder := &memoryRecorder{}

		engine, _ := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor(), Links: failingLinks{}, Runs: recorder})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"a"}, nil); err == nil {
			t.Fatal("expected write error")
		}
		if len(recorder.updates) != 1 || recorder.updates[0] != models.RefreshFailed {
			t.Errorf("expected failed run to be recorded, got %+v", recorder.updates)
		}
	})

	t.Run("Cancelled Context Writes Nothing", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 1)

		engine, links := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor()})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := engine.Run(cctx, models.TriggerManual, []string{"a"}, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		tu.AssertNoFile(t, links.Path())
	})

	t.Run("Progress Updates", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 2)

		progress := make(chan ProgressUpdate, 32)
		engine, _ := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor()})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"a"}, progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		phases := map[Phase]int{}
		var last ProgressUpdate
		for u := range progress {
			phases[u.Phase]++
			last = u
		}
		if phases[ResolveArtist] != 1 || phases[ExtractAudio] != 2 || phases[WriteLinks] != 1 {
			t.Errorf("unexpected phase counts %v", phases)
		}
		if last.Phase != Finished {
			t.Errorf("expected final update to be %s, got %s", Finished, last.Phase)
		}
	})

	t.Run("Progress Never Blocks", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.Songs["a"] = tu.Stubs("a", "a", 5)

		engine, _ := newTestEngine(t, RefreshOpts{Catalog: catalog, Extractor: tu.NewMockExtractor()})
		if _, err := engine.Run(ctx, models.TriggerManual, []string{"a"}, make(chan ProgressUpdate)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		ResolveArtist: "resolve_artist",
		FetchSongs:    "fetch_songs",
		ExtractAudio:  "extract_audio",
		WriteLinks:    "write_links",
		Finished:      "finished",
		Phase(99):     "",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
