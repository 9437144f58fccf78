package models

import (
	"fmt"
	"time"
)

// RefreshStatus is the lifecycle state of a [RefreshRun].
type RefreshStatus string

const (
	RefreshRunning   RefreshStatus = "running"
	RefreshCompleted RefreshStatus = "completed"
	RefreshFailed    RefreshStatus = "failed"
)

// RefreshTrigger names what started a [RefreshRun].
type RefreshTrigger string

const (
	TriggerSchedule RefreshTrigger = "schedule"
	TriggerStartup  RefreshTrigger = "startup"
	TriggerManual   RefreshTrigger = "manual"
	TriggerRequest  RefreshTrigger = "request"
	TriggerCLI      RefreshTrigger = "cli"
)

// RefreshRun records one execution of the refresh pipeline.
type RefreshRun struct {
	id            string
	sequence      int
	trigger       RefreshTrigger
	status        RefreshStatus
	artistsTotal  int
	artistsFailed int
	tracksTotal   int
	tracksFailed  int
	errorMessage  string
	startedAt     time.Time
	finishedAt    *time.Time
}

// NewRefreshRun creates a running [RefreshRun] started now.
func NewRefreshRun(trigger RefreshTrigger, artistsTotal int) *RefreshRun {
	return &RefreshRun{
		trigger:      trigger,
		status:       RefreshRunning,
		artistsTotal: artistsTotal,
		startedAt:    time.Now().UTC(),
	}
}

// RestoreRefreshRun rebuilds a [RefreshRun] from stored columns.
func RestoreRefreshRun(id string, sequence int, trigger RefreshTrigger, status RefreshStatus,
	artistsTotal, artistsFailed, tracksTotal, tracksFailed int,
	errorMessage string, startedAt time.Time, finishedAt *time.Time,
) *RefreshRun {
	return &RefreshRun{
		id:            id,
		sequence:      sequence,
		trigger:       trigger,
		status:        status,
		artistsTotal:  artistsTotal,
		artistsFailed: artistsFailed,
		tracksTotal:   tracksTotal,
		tracksFailed:  tracksFailed,
		errorMessage:  errorMessage,
		startedAt:     startedAt,
		finishedAt:    finishedAt,
	}
}

func (r *RefreshRun) ID() string { return r.id }
func (r *RefreshRun) SetID(id string) { r.id = id }
func (r *RefreshRun) Sequence() int { return r.sequence }
func (r *RefreshRun) SetSequence(seq int) { r.sequence = seq }
func (r *RefreshRun) Trigger() RefreshTrigger { return r.trigger }
func (r *RefreshRun) Status() RefreshStatus { return r.status }
func (r *RefreshRun) ArtistsTotal() int { return r.artistsTotal }
func (r *RefreshRun) ArtistsFailed() int { return r.artistsFailed }
func (r *RefreshRun) TracksTotal() int { return r.tracksTotal }
func (r *RefreshRun) TracksFailed() int { return r.tracksFailed }
func (r *RefreshRun) ErrorMessage() string { return r.errorMessage }
func (r *RefreshRun) StartedAt() time.Time { return r.startedAt }
func (r *RefreshRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *RefreshRun) CreatedAt() time.Time { return r.startedAt }

// UpdatedAt returns the finish time, or the start time while running.
func (r *RefreshRun) UpdatedAt() time.Time {
	if r.finishedAt != nil {
		return *r.finishedAt
	}
	return r.startedAt
}

// Complete marks the run completed with the final counters.
func (r *RefreshRun) Complete(artistsFailed, tracksTotal, tracksFailed int) {
	now := time.Now().UTC()
	r.status = RefreshCompleted
	r.artistsFailed = artistsFailed
	r.tracksTotal = tracksTotal
	r.tracksFailed = tracksFailed
	r.finishedAt = &now
}

// Fail marks the run failed.
func (r *RefreshRun) Fail(err error) {
	now := time.Now().UTC()
	r.status = RefreshFailed
	if err != nil {
		r.errorMessage = err.Error()
	}
	r.finishedAt = &now
}

// Duration is the elapsed time of a finished run, or time since start while running.
func (r *RefreshRun) Duration() time.Duration {
	if r.finishedAt != nil {
		return r.finishedAt.Sub(r.startedAt)
	}
	return time.Since(r.startedAt)
}

// Validate checks the run's invariants.
func (r *RefreshRun) Validate() error {
	switch r.status {
	case RefreshRunning, RefreshCompleted, RefreshFailed:
	default:
		return fmt.Errorf("invalid refresh status %q", r.status)
	}
	if r.trigger == "" {
		return fmt.Errorf("refresh trigger is required")
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("refresh start time is required")
	}
	if r.artistsFailed > r.artistsTotal || r.tracksFailed < 0 || r.tracksTotal < 0 {
		return fmt.Errorf("refresh counters out of range")
	}
	return nil
}

// RefreshRunView is the JSON shape of a [RefreshRun].
type RefreshRunView struct {
	ID            string     `json:"id"`
	Sequence      int        `json:"sequence"`
	Trigger       string     `json:"trigger"`
	Status        string     `json:"status"`
	ArtistsTotal  int        `json:"artists_total"`
	ArtistsFailed int        `json:"artists_failed"`
	TracksTotal   int        `json:"tracks_total"`
	TracksFailed  int        `json:"tracks_failed"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// View converts the run to its JSON shape.
func (r *RefreshRun) View() RefreshRunView {
	return RefreshRunView{
		ID:            r.id,
		Sequence:      r.sequence,
		Trigger:       string(r.trigger),
		Status:        string(r.status),
		ArtistsTotal:  r.artistsTotal,
		ArtistsFailed: r.artistsFailed,
		TracksTotal:   r.tracksTotal,
		TracksFailed:  r.tracksFailed,
		ErrorMessage:  r.errorMessage,
		StartedAt:     r.startedAt,
		FinishedAt:    r.finishedAt,
	}
}
