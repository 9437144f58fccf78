package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "refresh_runs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestRefreshRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewRefreshRepository(setupTestDB(t))
		run := models.NewRefreshRun(models.TriggerManual, 3)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" || run.Sequence() != 1 {
			t.Errorf("expected id and sequence to be set, got %q/%d", run.ID(), run.Sequence())
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Trigger() != models.TriggerManual || got.Status() != models.RefreshRunning || got.ArtistsTotal() != 3 {
			t.Errorf("unexpected run %+v", got.View())
		}
		if got.FinishedAt() != nil {
			t.Error("expected running run to have no finish time")
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		repo := NewRefreshRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrRefreshNotFound) {
			t.Errorf("expected ErrRefreshNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRefreshRepository(setupTestDB(t))
		run := models.NewRefreshRun(models.TriggerSchedule, 2)
		repo.Create(run)

		run.Complete(1, 10, 2)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if got.Status() != models.RefreshCompleted || got.ArtistsFailed() != 1 || got.TracksTotal() != 10 || got.TracksFailed() != 2 {
			t.Errorf("unexpected run %+v", got.View())
		}
		if got.FinishedAt() == nil {
			t.Error("expected finish time")
		}
	})

	t.Run("Update Failed Run Keeps Message", func(t *testing.T) {
		repo := NewRefreshRepository(setupTestDB(t))
		run := models.NewRefreshRun(models.TriggerCLI, 1)
		repo.Create(run)

		run.Fail(errors.New("disk full"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if got.Status() != models.RefreshFailed || got.ErrorMessage() != "disk full" {
			t.Errorf("unexpected run %+v", got.View())
		}
	})

	t.Run("Update Not Found", func(t *testing.T) {
		repo := NewRefreshRepository(setupTestDB(t))
		run := models.NewRefreshRun(models.TriggerCLI, 1)
		run.SetID("missing")
		if err := repo.Update(run); !errors.Is(err, shared.ErrRefreshNotFound) {
			t.Errorf("expected ErrRefreshNotFound, got %v", err)
		}
	})

	t.Run("List And Latest", func(t *testing.T) {
		repo := NewRefreshRepository(setupTestDB(t))

		if _, err := repo.Latest(); !errors.Is(err, shared.ErrRefreshNotFound) {
			t.Errorf("expected ErrRefreshNotFound on empty table, got %v", err)
		}

		for i := 0; i < 5; i++ {
			if err := repo.Create(models.NewRefreshRun(models.TriggerSchedule, i)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(3)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].Sequence() != 5 || runs[2].Sequence() != 3 {
			t.Errorf("expected newest first, got %d..%d", runs[0].Sequence(), runs[2].Sequence())
		}

		latest, err := repo.Latest()
		if err != nil || latest.Sequence() != 5 {
			t.Errorf("expected latest sequence 5, got %v (%v)", latest, err)
		}

		all, _ := repo.List(0)
		if len(all) != 5 {
			t.Errorf("expected default limit to include all 5 runs, got %d", len(all))
		}
	})
}

func TestAudioCacheRepository(t *testing.T) {
	ctx := context.Background()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Miss", func(t *testing.T) {
		repo := NewAudioCacheRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Put And Get", func(t *testing.T) {
		repo := NewAudioCacheRepository(setupTestDB(t))
		info := &models.AudioInfo{
			VideoID: "v1", Title: "Song", Artist: "Artist", Album: "Album", Thumbnail: "t.jpg",
			URL: "https://a/1", Duration: 200, Year: 2001, ReleaseDate: "2001-02-03", ExpiresAt: expires,
		}
		if err := repo.Put(ctx, info); err != nil {
			t.Fatalf("failed to put entry: %v", err)
		}

		got, err := repo.Get(ctx, "v1")
		if err != nil {
			t.Fatalf("failed to get entry: %v", err)
		}
		if !got.ExpiresAt.Equal(info.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", info.ExpiresAt, got.ExpiresAt)
		}
		got.ExpiresAt = info.ExpiresAt
		if *got != *info {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, info)
		}
	})

	t.Run("Put Replaces", func(t *testing.T) {
		repo := NewAudioCacheRepository(setupTestDB(t))
		repo.Put(ctx, &models.AudioInfo{VideoID: "v1", URL: "old", ExpiresAt: expires})
		repo.Put(ctx, &models.AudioInfo{VideoID: "v1", URL: "new", ExpiresAt: expires.Add(time.Hour)})

		got, _ := repo.Get(ctx, "v1")
		if got.URL != "new" || !got.ExpiresAt.Equal(expires.Add(time.Hour)) {
			t.Errorf("expected replaced entry, got %+v", got)
		}
	})

	t.Run("Put Rejects Incomplete", func(t *testing.T) {
		repo := NewAudioCacheRepository(setupTestDB(t))
		if err := repo.Put(ctx, &models.AudioInfo{VideoID: "v1"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		repo := NewAudioCacheRepository(setupTestDB(t))
		repo.Put(ctx, &models.AudioInfo{VideoID: "old", URL: "u", ExpiresAt: expires.Add(-48 * time.Hour)})
		repo.Put(ctx, &models.AudioInfo{VideoID: "new", URL: "u", ExpiresAt: expires.Add(48 * time.Hour)})

		removed, err := repo.Purge(ctx, expires)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removed, got %d", removed)
		}
		if _, err := repo.Get(ctx, "old"); !errors.Is(err, shared.ErrCacheMiss) {
			t.Error("expected expired entry to be gone")
		}
		if _, err := repo.Get(ctx, "new"); err != nil {
			t.Errorf("expected live entry to remain, got %v", err)
		}
	})
}
