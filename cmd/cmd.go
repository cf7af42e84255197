// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// defaultGenres is the scout list used when no --genre flags are given.
var defaultGenres = []string{
	"Techno", "Hard Techno", "Industrial Techno", "Peak Time Techno", "Dark Techno",
	"Acid Techno", "Melodic Techno", "Warehouse Techno", "Rave Techno", "Schranz",
	"Driving Techno", "Raw Techno", "Hypnotic Techno", "Minimal Techno",
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the config file and archive database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file and initialize the job archive database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the scout HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// scrapeCommand runs a scout job from the terminal
func scrapeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Run a scout job and export its results",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Genre to search (repeatable; defaults to the techno scout list)",
			},
			&cli.IntFlag{
				Name:    "min-followers",
				Aliases: []string{"m"},
				Usage:   "Minimum follower count per playlist",
				Value:   2500,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file; extension selects the format (.csv or .html)",
			},
		},
		Action: r.Scrape,
	}
}

// jobsCommand inspects and exports archived jobs
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect archived scout jobs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived jobs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.JobsList,
			},
			{
				Name:  "show",
				Usage: "Show one archived job",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.JobsShow,
			},
			{
				Name:  "export",
				Usage: "Export an archived job's results",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file; extension selects the format (.csv or .html)",
					},
				},
				Action: r.JobsExport,
			},
		},
	}
}

// tuiCommand launches the interactive scout monitor
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Run a scout job with an interactive monitor",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Genre to search (repeatable; defaults to the techno scout list)",
			},
			&cli.IntFlag{
				Name:    "min-followers",
				Aliases: []string{"m"},
				Usage:   "Minimum follower count per playlist",
				Value:   2500,
			},
		},
		Action: r.TUI,
	}
}
