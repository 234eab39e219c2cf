// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles first-run setup of the config file and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Action: r.SetupConfig,
			},
		},
	}
}

// taxonomyCommand handles label and flag maintenance
func taxonomyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "taxonomy",
		Aliases: []string{"tax"},
		Usage:   "Inspect and maintain event labels and flags",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List labels and their flags in ask order",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list labels in this category",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TaxonomyList,
			},
			{
				Name:  "import",
				Usage: "Validate and write labels and flags from a JSON document",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.TaxonomyImport,
			},
			{
				Name:  "label",
				Usage: "Label operations",
				Commands: []*cli.Command{
					{
						Name:  "set",
						Usage: "Create or replace a label",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Usage: "Label ID", Required: true},
							&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
							&cli.StringFlag{Name: "category", Usage: "Category the label is listed under", Required: true},
							&cli.StringFlag{Name: "hotkey", Usage: "Single-character hotkey"},
							&cli.StringSliceFlag{Name: "flag", Usage: "Flag ID asked for this label (repeatable)"},
							&cli.StringFlag{Name: "conditions", Usage: "Flag conditions as a JSON array"},
							&cli.BoolFlag{Name: "pressure", Usage: "Ask for pressure"},
							&cli.BoolFlag{Name: "body-part", Usage: "Ask for a body part"},
						},
						Action: r.TaxonomyLabelSet,
					},
				},
			},
			{
				Name:  "flag",
				Usage: "Flag operations",
				Commands: []*cli.Command{
					{
						Name:  "set",
						Usage: "Create or replace a flag",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Usage: "Flag ID", Required: true},
							&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
							&cli.IntFlag{Name: "priority", Usage: "Ask order, lowest first"},
							&cli.StringSliceFlag{
								Name:     "value",
								Usage:    "Answer as VALUE or VALUE:HOTKEY (repeatable)",
								Required: true,
							},
						},
						Action: r.TaxonomyFlagSet,
					},
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a label or a flag",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "collection"},
					&cli.StringArg{Name: "id"},
				},
				Action: r.TaxonomyDelete,
			},
			{
				Name:  "diagnose",
				Usage: "Report data issues in stored rows",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TaxonomyDiagnose,
			},
			{
				Name:  "repair",
				Usage: "Rewrite affected rows in normalized form",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report what would be rewritten without writing",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Row writes per second (default: taxonomy.repair_rate_per_sec)",
					},
				},
				Action: r.TaxonomyRepair,
			},
		},
	}
}

// eventsCommand handles match log operations
func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Match log operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List logged events, oldest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "team", Usage: "Only events for this team"},
					&cli.StringFlag{Name: "player", Usage: "Only events for this player ID"},
					&cli.IntFlag{Name: "limit", Usage: "Only the most recent N events"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.EventsList,
			},
			{
				Name:  "delete",
				Usage: "Remove a logged event",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.EventsDelete,
			},
			{
				Name:  "export",
				Usage: "Export the match log to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, json, markdown, or txt",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: match_log.<ext>)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title for markdown and text exports",
					},
				},
				Action: r.EventsExport,
			},
		},
	}
}

// logCommand returns the top-level TUI command for logging a match.
func logCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "log",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive match logger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address while logging",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the HTTP surface.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve health, metrics, the match log, and the taxonomy over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}
