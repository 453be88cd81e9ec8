// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

const version = "0.1.0"

// App builds the root command. Running it without a subcommand performs an import.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "sheetify",
		Usage:   "Create a Spotify playlist from a spreadsheet of songs",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with Spotify credentials",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors, and hide progress",
			},
		},
		Before:   r.Before,
		Action:   r.Import,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		importCommand, authCommand, initCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// importCommand reads a spreadsheet and creates the playlist
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import songs from a spreadsheet into a new Spotify playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Spreadsheet to read (.xlsx or .csv)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write songs that were not found (.xlsx or .csv)",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Playlist name",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create a private playlist",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Tracks added per request (1-100)",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print an unstyled summary that lists every missing song",
			},
		},
		Action: r.Import,
	}
}

// authCommand authorizes sheetify and caches the token
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize with Spotify using OAuth2 and cache the token",
		Action: r.Auth,
	}
}

// initCommand writes a starter configuration file
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write an example config.toml",
		Action: r.Init,
	}
}

// historyCommand lists recorded imports
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List previous imports, or show or delete one by ID",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "delete",
				Usage: "Delete the run given by ID and its missing songs",
			},
		},
		Action: r.History,
	}
}
