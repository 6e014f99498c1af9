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

// setupCommand initializes configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// ingestCommand reads a service library into local snapshots.
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Read a service library into the local store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "from",
				Aliases: []string{"f"},
				Usage:   "Source service (applemusic, spotify)",
				Value:   "applemusic",
			},
			&cli.StringFlag{
				Name:    "kinds",
				Aliases: []string{"k"},
				Usage:   "Comma-separated kinds (songs,albums,artists,playlists,history); empty for all",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Ingest a canonical library JSON file instead of walking a service",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run report as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Ingest,
	}
}

// exportCommand writes snapshotted entities onto a destination service.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the latest snapshots onto a destination service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "to",
				Aliases: []string{"t"},
				Usage:   "Destination service (applemusic, spotify)",
				Value:   "spotify",
			},
			&cli.StringFlag{
				Name:    "kinds",
				Aliases: []string{"k"},
				Usage:   "Comma-separated kinds (songs,albums,artists); empty for all three",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run report as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Export,
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "Recreate snapshotted playlists on a destination service",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "to",
						Aliases: []string{"t"},
						Usage:   "Destination service (applemusic, spotify)",
						Value:   "spotify",
					},
					&cli.StringSliceFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Playlist name to export (repeatable); empty for all",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run report as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.ExportPlaylists,
			},
		},
	}
}

// cacheCommand inspects and clears the native record cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the native record cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached record counts and snapshot runs",
				Action: r.CacheStats,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output stats as JSON",
					},
				},
			},
			{
				Name:  "clear",
				Usage: "Remove cached records",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Only clear one service's records",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}
