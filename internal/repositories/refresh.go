package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

const refreshColumns = `id, sequence, triggered_by, status, artists_total, artists_failed,
	tracks_total, tracks_failed, error_message, started_at, finished_at`

// DefaultHistoryLimit caps List when no positive limit is given.
const DefaultHistoryLimit = 20

// RefreshRepository persists [models.RefreshRun] records.
type RefreshRepository struct {
	db *sql.DB
}

// NewRefreshRepository creates a new [RefreshRepository] with the given database connection
func NewRefreshRepository(db *sql.DB) *RefreshRepository {
	return &RefreshRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *RefreshRepository) Create(run *models.RefreshRun) error {
	sequence, err := NextSequence(r.db, "refresh_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO refresh_runs (` + refreshColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(), run.Sequence(), string(run.Trigger()), string(run.Status()),
		run.ArtistsTotal(), run.ArtistsFailed(), run.TracksTotal(), run.TracksFailed(),
		nullString(run.ErrorMessage()), run.StartedAt(), nullTime(run.FinishedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RefreshRepository) Get(id string) (*models.RefreshRun, error) {
	query := `SELECT ` + refreshColumns + ` FROM refresh_runs WHERE id = ?`

	run, err := scanRefreshRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRefreshNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh run: %w", err)
	}
	return run, nil
}

// Update writes a run's status, counters and finish time
func (r *RefreshRepository) Update(run *models.RefreshRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE refresh_runs
		SET status = ?, artists_total = ?, artists_failed = ?, tracks_total = ?, tracks_failed = ?,
			error_message = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(run.Status()), run.ArtistsTotal(), run.ArtistsFailed(), run.TracksTotal(), run.TracksFailed(),
		nullString(run.ErrorMessage()), nullTime(run.FinishedAt()), run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update refresh run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRefreshNotFound, run.ID())
	}

	return nil
}

// List returns the most recent runs, newest first
func (r *RefreshRepository) List(limit int) ([]*models.RefreshRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `SELECT ` + refreshColumns + ` FROM refresh_runs ORDER BY sequence DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.RefreshRun{}
	for rows.Next() {
		run, err := scanRefreshRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Latest returns the newest run, or [shared.ErrRefreshNotFound] when none exist
func (r *RefreshRepository) Latest() (*models.RefreshRun, error) {
	runs, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, shared.ErrRefreshNotFound
	}
	return runs[0], nil
}

func scanRefreshRun(row scanner) (*models.RefreshRun, error) {
	var (
		id            string
		sequence      int
		trigger       string
		status        string
		artistsTotal  int
		artistsFailed int
		tracksTotal   int
		tracksFailed  int
		errorMessage  sql.NullString
		startedAt     time.Time
		finishedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &trigger, &status, &artistsTotal, &artistsFailed,
		&tracksTotal, &tracksFailed, &errorMessage, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}

	return models.RestoreRefreshRun(id, sequence, models.RefreshTrigger(trigger), models.RefreshStatus(status),
		artistsTotal, artistsFailed, tracksTotal, tracksFailed,
		errorMessage.String, startedAt, finished), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
