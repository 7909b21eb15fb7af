// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// setupCommand writes a starter config and prepares the credential store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the credential store",
		Action: r.Setup,
	}
}

// connectCommand runs the implicit-grant flow through the local callback server.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "connect",
		Aliases: []string{"login"},
		Usage:   "Authorize access to your Spotify listening history",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser redirect",
				Value: 2 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Connect,
	}
}

// genresCommand loads the genre table for the stored credential.
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "Show the genres of your top artists, most frequent first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of genres to show (0 for all)",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "fragment",
				Usage: "Redirect fragment (#access_token=...) pasted from the browser",
			},
			&cli.StringFlag{
				Name:  "uncategorized",
				Usage: "Count artists without genres under this label instead of dropping them",
			},
		},
		Action: r.Genres,
	}
}

// statusCommand reports the stored credential.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether a valid credential is stored",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Confirm the credential with Spotify",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// disconnectCommand forgets the stored credential.
func disconnectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "disconnect",
		Aliases: []string{"logout"},
		Usage:   "Delete the stored credential",
		Action:  r.Disconnect,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive genre browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/topgenres-tui.log",
			},
		},
		Action: r.TUI,
	}
}
