package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "ytlinks",
		Usage:    "Resolve artists to playable audio links and serve them as links.json",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}
