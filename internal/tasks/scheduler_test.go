package tasks

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

type staticArtists struct {
	artists []string
	err     error
}

func (s staticArtists) List() ([]string, error) { return s.artists, s.err }

type fakeEngine struct {
	block   bool
	started chan models.RefreshTrigger
	release chan struct{}

	mu    sync.Mutex
	calls []models.RefreshTrigger
}

func newFakeEngine(block bool) *fakeEngine {
	return &fakeEngine{block: block, started: make(chan models.RefreshTrigger, 16), release: make(chan struct{})}
}

func (f *fakeEngine) Run(ctx context.Context, trigger models.RefreshTrigger, artists []string, progress chan<- ProgressUpdate) (*RefreshResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, trigger)
	f.mu.Unlock()

	select {
	case f.started <- trigger:
	default:
	}
	if f.block {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &RefreshResult{}, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func receive(t *testing.T, ch <-chan models.RefreshTrigger) models.RefreshTrigger {
	t.Helper()
	select {
	case trigger := <-ch:
		return trigger
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for run")
		return ""
	}
}

func newTestScheduler(engine Refresher, interval time.Duration, onStart bool) *Scheduler {
	return NewScheduler(SchedulerOpts{
		Engine:   engine,
		Artists:  staticArtists{artists: []string{"a"}},
		Interval: interval,
		OnStart:  onStart,
		Logger:   log.New(io.Discard),
	})
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("Start Validation", func(t *testing.T) {
		if err := NewScheduler(SchedulerOpts{}).Start(ctx); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		s := newTestScheduler(newFakeEngine(false), 0, false)
		if err := s.Start(ctx); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Trigger Before Start", func(t *testing.T) {
		s := newTestScheduler(newFakeEngine(false), time.Hour, false)
		if err := s.Trigger(models.TriggerManual); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Runs On Start", func(t *testing.T) {
		engine := newFakeEngine(false)
		s := newTestScheduler(engine, time.Hour, true)
		if err := s.Start(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer s.Stop()

		if got := receive(t, engine.started); got != models.TriggerStartup {
			t.Errorf("expected startup trigger, got %s", got)
		}
		if err := s.Start(ctx); err == nil {
			t.Error("expected second Start to fail")
		}
	})

	t.Run("Triggers Coalesce While Running", func(t *testing.T) {
		engine := newFakeEngine(true)
		s := newTestScheduler(engine, time.Hour, false)
		s.Start(ctx)
		defer s.Stop()

		if err := s.Trigger(models.TriggerManual); err != nil {
			t.Fatalf("expected first trigger to be accepted, got %v", err)
		}
		receive(t, engine.started)

		if err := s.Trigger(models.TriggerManual); !errors.Is(err, shared.ErrRefreshInProgress) {
			t.Errorf("expected ErrRefreshInProgress, got %v", err)
		}
		if _, err := s.RunNow(ctx, models.TriggerRequest, []string{"a"}, nil); !errors.Is(err, shared.ErrRefreshInProgress) {
			t.Errorf("expected RunNow to be rejected, got %v", err)
		}
		if !s.Running() {
			t.Error("expected scheduler to report running")
		}

		engine.release <- struct{}{}
		waitFor(t, "run to finish", func() bool { return !s.Running() })

		if last := s.Last(); last.Trigger != models.TriggerManual || last.Err != nil || last.FinishedAt.IsZero() {
			t.Errorf("unexpected last status %+v", last)
		}
		if err := s.Trigger(models.TriggerManual); err != nil {
			t.Errorf("expected trigger after completion to be accepted, got %v", err)
		}
		receive(t, engine.started)
		engine.release <- struct{}{}
	})

	t.Run("Ticks On Interval", func(t *testing.T) {
		engine := newFakeEngine(false)
		s := newTestScheduler(engine, 10*time.Millisecond, false)
		s.Start(ctx)
		defer s.Stop()

		if got := receive(t, engine.started); got != models.TriggerSchedule {
			t.Errorf("expected schedule trigger, got %s", got)
		}
	})

	t.Run("Stop Cancels Active Run", func(t *testing.T) {
		engine := newFakeEngine(true)
		s := newTestScheduler(engine, time.Hour, true)
		s.Start(ctx)
		receive(t, engine.started)

		stopped := make(chan struct{})
		go func() {
			s.Stop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Fatal("Stop did not return")
		}
		if last := s.Last(); !errors.Is(last.Err, context.Canceled) {
			t.Errorf("expected cancelled run, got %v", last.Err)
		}
	})

	t.Run("Trigger After Stop", func(t *testing.T) {
		engine := newFakeEngine(false)
		s := newTestScheduler(engine, time.Hour, false)
		if err := s.Start(ctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		s.Stop()

		if err := s.Trigger(models.TriggerManual); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if s.Running() {
			t.Error("expected guard to stay released after a rejected trigger")
		}
		if _, err := s.RunNow(ctx, models.TriggerRequest, []string{"a"}, nil); err != nil {
			t.Errorf("expected RunNow to still work, got %v", err)
		}
	})

	t.Run("Trigger After Parent Context Ends", func(t *testing.T) {
		engine := newFakeEngine(false)
		s := newTestScheduler(engine, time.Hour, false)
		cctx, cancel := context.WithCancel(ctx)
		if err := s.Start(cctx); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		defer s.Stop()
		cancel()

		if err := s.Trigger(models.TriggerManual); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if s.Running() {
			t.Error("expected scheduler to report idle")
		}
	})

	t.Run("RunNow", func(t *testing.T) {
		engine := newFakeEngine(false)
		s := newTestScheduler(engine, time.Hour, false)

		if _, err := s.RunNow(ctx, models.TriggerRequest, []string{"a"}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Running() {
			t.Error("expected guard to be released")
		}
		if last := s.Last(); last.Trigger != models.TriggerRequest {
			t.Errorf("unexpected last trigger %s", last.Trigger)
		}
	})

	t.Run("Artist Source Error", func(t *testing.T) {
		engine := newFakeEngine(false)
		s := NewScheduler(SchedulerOpts{
			Engine:   engine,
			Artists:  staticArtists{err: errors.New("unreadable")},
			Interval: time.Hour,
			OnStart:  true,
			Logger:   log.New(io.Discard),
		})
		s.Start(ctx)
		defer s.Stop()

		waitFor(t, "failed run", func() bool {
			last := s.Last()
			return !last.Running && last.Err != nil
		})
		engine.mu.Lock()
		defer engine.mu.Unlock()
		if len(engine.calls) != 0 {
			t.Errorf("expected engine not to run, got %v", engine.calls)
		}
	})
}
