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
		Usage: "Output JSON",
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles API key management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the alignment API key",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Store an API key from a flag or a copied cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "key",
						Aliases: []string{"k"},
						Usage:   "API key",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing a cURL command copied from the dashboard",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the API dashboard in a browser",
					},
					&cli.BoolFlag{
						Name:  "skip-verify",
						Usage: "Store the key without calling the API",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Verify the configured API key",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored API key",
				Action: r.AuthLogout,
			},
		},
	}
}

// alignCommand handles alignment task operations
func alignCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "align",
		Aliases: []string{"alignments", "a"},
		Usage:   "Submit, check and browse alignment tasks",
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "Create an alignment task for an audio URL and wait for it",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-wait",
						Usage: "Return after the task is created",
					},
					jsonFlag(),
				},
				Action: r.AlignSubmit,
			},
			{
				Name:      "check",
				Usage:     "Fetch a task once and record its status",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.AlignCheck,
			},
			{
				Name:  "sync",
				Usage: "Replace cached alignments with the most recent tasks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tasks to list (default: api.list_limit)",
					},
				},
				Action: r.AlignSync,
			},
			{
				Name:  "list",
				Usage: "List cached alignments, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "Sync with the API before listing",
					},
					&cli.StringFlag{
						Name:  "selected",
						Usage: "Task id to keep selected",
					},
					jsonFlag(),
				},
				Action: r.AlignList,
			},
			{
				Name:      "show",
				Usage:     "Show an alignment with its matched assets",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.AlignShow,
			},
			{
				Name:  "refresh",
				Usage: "Re-check cached tasks that have not finished",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Re-check finished tasks too",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (default: refresh.workers)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second (default: refresh.rate_limit)",
					},
				},
				Action: r.AlignRefresh,
			},
		},
	}
}

// assetsCommand handles demo asset operations
func assetsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "Browse the demo asset manifest",
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load the manifest and report how many assets are playable",
				Action: r.AssetsLoad,
			},
			{
				Name:  "list",
				Usage: "List playable assets",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "selected",
						Usage: "Asset src to keep selected",
					},
					jsonFlag(),
				},
				Action: r.AssetsList,
			},
			{
				Name:      "related",
				Usage:     "List alignments whose audio resolves to an asset",
				Arguments: []cli.Argument{&cli.StringArg{Name: "src"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.AssetsRelated,
			},
		},
	}
}

// recordsCommand handles persisted alignment records
func recordsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "Inspect saved alignment records",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved records",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.RecordsList,
			},
			{
				Name:  "export",
				Usage: "Export saved records",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, md or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.RecordsExport,
			},
			{
				Name:   "clear",
				Usage:  "Delete every saved record",
				Action: r.RecordsClear,
			},
		},
	}
}

// exportCommand writes an alignment transcript to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export an alignment transcript (lrc, srt, csv, txt, json)",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format",
				Value:   "lrc",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: <id>.<format>)",
			},
		},
		Action: r.Export,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the alignment API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand exposes the caches over HTTP
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve alignments and assets as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Serve saved records without syncing first",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for browsing alignments.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive alignment browser",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Browse saved records without syncing",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the TUI owns the terminal",
				Value: "./tmp/alignx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
