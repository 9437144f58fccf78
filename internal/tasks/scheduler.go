package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// ArtistSource supplies the artist list at the start of each scheduled run.
type ArtistSource interface {
	List() ([]string, error)
}

// SchedulerOpts configures a [Scheduler].
type SchedulerOpts struct {
	Engine   Refresher
	Artists  ArtistSource
	Interval time.Duration
	OnStart  bool // Run once immediately after Start
	Logger   *log.Logger
}

// RunStatus is the outcome of the most recent run.
type RunStatus struct {
	Running    bool
	Trigger    models.RefreshTrigger
	FinishedAt time.Time
	Result     *RefreshResult
	Err        error
}

// Scheduler runs the refresh pipeline from a single goroutine on an interval and on demand.
//
// At most one run is active at a time; triggers received meanwhile are rejected with [shared.ErrRefreshInProgress].
type Scheduler struct {
	opts     SchedulerOpts
	busy     atomic.Bool
	triggers chan models.RefreshTrigger

	mu      sync.Mutex
	last    RunStatus
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(opts SchedulerOpts) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Scheduler{
		opts:     opts,
		triggers: make(chan models.RefreshTrigger, 1),
	}
}

// Start launches the scheduling loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.Engine == nil || s.opts.Artists == nil {
		return fmt.Errorf("%w: scheduler needs an engine and an artist source", shared.ErrMissingConfig)
	}
	if s.opts.Interval <= 0 {
		return fmt.Errorf("%w: refresh interval must be positive", shared.ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return fmt.Errorf("%w: scheduler already started", shared.ErrInvalidArgument)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.ctx = ctx
	s.done = make(chan struct{})

	if s.opts.OnStart && s.busy.CompareAndSwap(false, true) {
		s.triggers <- models.TriggerStartup
	}

	go s.loop(ctx, s.done)
	return nil
}

// Stop cancels the loop and any active run, then waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Trigger queues an immediate run unless one is already active or queued.
//
// Once the loop's context is done, triggers fail with [shared.ErrServiceUnavailable].
func (s *Scheduler) Trigger(trigger models.RefreshTrigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return fmt.Errorf("%w: scheduler not started", shared.ErrServiceUnavailable)
	}
	if s.stopped || s.ctx.Err() != nil {
		return fmt.Errorf("%w: scheduler stopped", shared.ErrServiceUnavailable)
	}

	if !s.busy.CompareAndSwap(false, true) {
		return shared.ErrRefreshInProgress
	}
	select {
	case s.triggers <- trigger:
		return nil
	default:
		s.busy.Store(false)
		return shared.ErrRefreshInProgress
	}
}

// RunNow runs artists synchronously in the caller's goroutine, sharing the single-run guard with the loop.
func (s *Scheduler) RunNow(ctx context.Context, trigger models.RefreshTrigger, artists []string, progress chan<- ProgressUpdate) (*RefreshResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, shared.ErrRefreshInProgress
	}
	defer s.busy.Store(false)

	s.setRunning(trigger)
	result, err := s.opts.Engine.Run(ctx, trigger, artists, progress)
	s.finish(trigger, result, err)
	return result, err
}

// Running reports whether a run is active or queued.
func (s *Scheduler) Running() bool {
	return s.busy.Load()
}

// Last returns the status of the most recent run.
func (s *Scheduler) Last() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.last
	status.Running = s.busy.Load()
	return status
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.opts.Logger.Info("scheduler started", "interval", s.opts.Interval, "on_start", s.opts.OnStart)
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			s.opts.Logger.Info("scheduler stopped")
			return
		case trigger := <-s.triggers:
			s.runScheduled(ctx, trigger)
		case <-ticker.C:
			if !s.busy.CompareAndSwap(false, true) {
				s.opts.Logger.Info("skipping scheduled refresh, one is already running")
				continue
			}
			s.runScheduled(ctx, models.TriggerSchedule)
		}
	}
}

// shutdown rejects further triggers and releases the guard held by a queued one.
func (s *Scheduler) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	select {
	case <-s.triggers:
		s.busy.Store(false)
	default:
	}
}

// runScheduled expects the busy flag to be held and releases it.
func (s *Scheduler) runScheduled(ctx context.Context, trigger models.RefreshTrigger) {
	defer s.busy.Store(false)

	s.setRunning(trigger)
	artists, err := s.opts.Artists.List()
	if err != nil {
		s.opts.Logger.Error("failed to read artist list", "error", err)
		s.finish(trigger, nil, err)
		return
	}

	result, err := s.opts.Engine.Run(ctx, trigger, artists, nil)
	if errors.Is(err, shared.ErrEmptyInput) {
		s.opts.Logger.Info("no artists configured, skipping refresh", "trigger", string(trigger))
	}
	s.finish(trigger, result, err)
}

func (s *Scheduler) setRunning(trigger models.RefreshTrigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last.Trigger = trigger
}

func (s *Scheduler) finish(trigger models.RefreshTrigger, result *RefreshResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = RunStatus{Trigger: trigger, FinishedAt: time.Now().UTC(), Result: result, Err: err}
}
