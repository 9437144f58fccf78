package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/store"
	"github.com/desertthunder/ytlinks/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) artistsFile(cmd *cli.Command) (*store.ArtistsFile, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.NewArtistsFile(config.Files.Artists), nil
}

func artistName(cmd *cli.Command) (string, error) {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return "", fmt.Errorf("%w: artist name is required", shared.ErrMissingArgument)
	}
	return name, nil
}

// ArtistsList prints the stored artist list.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	af, err := r.artistsFile(cmd)
	if err != nil {
		return err
	}

	artists, err := af.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}
	return r.writePlain("%s\n", ui.Artists(artists))
}

// ArtistsAdd appends an artist unless an equivalent name is already stored.
func (r *Runner) ArtistsAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := artistName(cmd)
	if err != nil {
		return err
	}
	af, err := r.artistsFile(cmd)
	if err != nil {
		return err
	}

	added, err := af.Add(name)
	if err != nil {
		return err
	}
	if !added {
		return r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("%s is already listed", name)))
	}
	r.logger.Info("artist added", "artist", name, "path", af.Path())
	return r.writePlain("%s\n", ui.Styles.OK("✓ Added "+name))
}

// ArtistsRemove deletes an artist from the stored list.
func (r *Runner) ArtistsRemove(ctx context.Context, cmd *cli.Command) error {
	name, err := artistName(cmd)
	if err != nil {
		return err
	}
	af, err := r.artistsFile(cmd)
	if err != nil {
		return err
	}

	removed, err := af.Remove(name)
	if err != nil {
		return err
	}
	if !removed {
		return r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("%s is not listed", name)))
	}
	r.logger.Info("artist removed", "artist", name, "path", af.Path())
	return r.writePlain("%s\n", ui.Styles.OK("✓ Removed "+name))
}
