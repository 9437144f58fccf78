package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlinks/internal/formatter"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/store"
	"github.com/desertthunder/ytlinks/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

func (r *Runner) linksFile(cmd *cli.Command) (*store.LinksFile, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.NewLinksFile(config.Files.Links), nil
}

// LinksShow prints the stored tracks as a table, or the raw document with --json.
func (r *Runner) LinksShow(ctx context.Context, cmd *cli.Command) error {
	lf, err := r.linksFile(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := lf.Read()
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	}

	tracks, err := lf.ReadTracks()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return r.writePlain("%s\n", ui.Styles.Help("no tracks in "+lf.Path()))
	}
	return r.writePlain("%s\n", ui.Tracks(tracks))
}

// LinksBrowse opens a track browser on the terminal and prints the URL of the track picked with enter.
//
// The browser draws on stderr so the URL can be piped, e.g. mpv "$(ytlinks links browse)".
func (r *Runner) LinksBrowse(ctx context.Context, cmd *cli.Command) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stderr.Fd()) {
		return fmt.Errorf("%w: links browse needs a terminal, use 'ytlinks links show' instead", shared.ErrInvalidArgument)
	}

	lf, err := r.linksFile(cmd)
	if err != nil {
		return err
	}
	tracks, err := lf.ReadTracks()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return r.writePlain("%s\n", ui.Styles.Help("no tracks in "+lf.Path()))
	}

	browser := ui.NewBrowser(fmt.Sprintf("%s (%d tracks)", lf.Path(), len(tracks)), tracks)
	p := tea.NewProgram(browser, tea.WithContext(ctx), tea.WithOutput(os.Stderr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running browser: %w", err)
	}

	if track := browser.Selected(); track != nil {
		return r.writePlain("%s\n", track.URL)
	}
	return nil
}

// LinksExport renders the stored tracks in another format, to a file or stdout.
func (r *Runner) LinksExport(ctx context.Context, cmd *cli.Command) error {
	lf, err := r.linksFile(cmd)
	if err != nil {
		return err
	}

	tracks, err := lf.ReadTracks()
	if err != nil {
		return err
	}

	format := cmd.String("format")
	output := cmd.String("output")
	if output == "" {
		data, err := formatter.Export(tracks, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := formatter.WriteExport(tracks, format, output); err != nil {
		return err
	}
	r.logger.Info("links exported", "format", format, "tracks", len(tracks), "path", output)
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("✓ Exported %d tracks to %s", len(tracks), output)))
}
