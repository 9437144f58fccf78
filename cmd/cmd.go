// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// serveCommand runs the HTTP server and the refresh scheduler
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve links.json over HTTP and refresh it on a schedule",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind, overrides config and PORT",
			},
			&cli.BoolFlag{
				Name:  "no-refresh",
				Usage: "Skip the refresh at startup",
			},
		},
		Action: r.Serve,
	}
}

// refreshCommand runs the pipeline once
func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Rebuild links.json once from the artist list",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist to process instead of the stored list (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide per-song progress",
			},
			jsonFlag(),
		},
		Action: r.Refresh,
	}
}

// artistsCommand manages the stored artist list
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Manage the artist list",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print stored artists",
				Flags:  []cli.Flag{configFlag(), jsonFlag()},
				Action: r.ArtistsList,
			},
			{
				Name:  "add",
				Usage: "Add an artist, skipping duplicates",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ArtistsAdd,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove an artist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ArtistsRemove,
			},
		},
	}
}

// linksCommand inspects and exports the links document
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Inspect and export links.json",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print stored tracks",
				Flags:  []cli.Flag{configFlag(), jsonFlag()},
				Action: r.LinksShow,
			},
			{
				Name:   "browse",
				Usage:  "Browse stored tracks interactively and print the chosen audio URL",
				Flags:  []cli.Flag{configFlag()},
				Action: r.LinksBrowse,
			},
			{
				Name:  "export",
				Usage: "Export stored tracks as m3u, csv or markdown",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (m3u, csv, markdown)",
						Value:   "m3u",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.LinksExport,
			},
		},
	}
}

// historyCommand lists recorded refresh runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent refresh runs",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			jsonFlag(),
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for the database, yt-dlp and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "ytdlp",
				Usage:  "Download the yt-dlp binary into the local cache",
				Action: r.SetupYTDLP,
			},
			{
				Name:    "cookies",
				Aliases: []string{"youtube", "yt"},
				Usage:   "Write cookies.txt (and proxy browser auth) from a browser cURL command",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for browser.json (default: credentials.youtube.headers_path or browser.json)",
					},
					&cli.BoolFlag{
						Name:  "skip-proxy",
						Usage: "Only write cookies.txt, do not register headers with the proxy",
					},
				},
				Action: r.SetupCookies,
			},
		},
	}
}
