package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/repositories"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/tasks"
	"github.com/desertthunder/ytlinks/internal/ui"
	"github.com/urfave/cli/v3"
)

// refreshReport is the JSON form of a refresh for --json output.
type refreshReport struct {
	Run           *models.RefreshRunView `json:"run,omitempty"`
	Tracks        int                    `json:"tracks"`
	ArtistsFailed int                    `json:"artists_failed"`
	TracksFailed  int                    `json:"tracks_failed"`
	Duplicates    int                    `json:"duplicates"`
	Written       bool                   `json:"written"`
	Artists       []tasks.ArtistResult   `json:"artists"`
	Error         string                 `json:"error,omitempty"`
}

func newRefreshReport(result *tasks.RefreshResult, err error) refreshReport {
	report := refreshReport{
		Tracks:        len(result.Tracks),
		ArtistsFailed: result.ArtistsFailed,
		TracksFailed:  result.TracksFailed,
		Duplicates:    result.Duplicates,
		Written:       result.Written,
		Artists:       result.Artists,
	}
	if result.Run != nil {
		view := result.Run.View()
		report.Run = &view
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

// Refresh runs the pipeline once, for --artist values or the stored list.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	st, err := r.newStack(ctx, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	artists := cmd.StringSlice("artist")
	if len(artists) == 0 {
		if artists, err = st.artists.List(); err != nil {
			return fmt.Errorf("failed to read artist list: %w", err)
		}
	}
	if len(artists) == 0 {
		return fmt.Errorf("%w: no artists in %s, add some with 'ytlinks artists add' or pass --artist", shared.ErrEmptyInput, st.artists.Path())
	}

	useJSON := cmd.Bool("json")
	showProgress := !useJSON && !cmd.Bool("quiet")

	var progress chan tasks.ProgressUpdate
	var wg sync.WaitGroup
	if showProgress {
		progress = make(chan tasks.ProgressUpdate, 64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for update := range progress {
				r.writePlain("%s\n", ui.Progress(update))
			}
		}()
	}

	result, runErr := st.engine.Run(ctx, models.TriggerCLI, artists, progress)
	if progress != nil {
		close(progress)
		wg.Wait()
	}

	if result == nil {
		return runErr
	}
	if useJSON {
		if err := r.writeJSON(newRefreshReport(result, runErr), true); err != nil {
			return err
		}
		return runErr
	}

	r.writePlainln("%s", ui.Summary(result))
	if result.Written {
		r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("✓ Wrote %d tracks to %s", len(result.Tracks), st.links.Path())))
	}
	return runErr
}

// History prints recent refresh runs from the database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("%w: refresh history needs a database: %v", shared.ErrServiceUnavailable, err)
	}
	defer db.Close()

	runs, err := repositories.NewRefreshRepository(db).List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]models.RefreshRunView, 0, len(runs))
		for _, run := range runs {
			views = append(views, run.View())
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		return r.writePlain("%s\n", ui.Styles.Help("no refresh runs recorded yet"))
	}
	return r.writePlain("%s\n", ui.Runs(runs))
}
