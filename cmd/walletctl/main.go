package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// set via ldflags
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newApp(openEnv).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(open envOpener) *cli.App {
	return &cli.App{
		Name:  "walletctl",
		Usage: "Operator CLI for the walletpay backend",
		Description: `Inspect and change walletpay state directly in the database.

Use it to flip the admin override address, look at recorded transactions and
list the token registry without going through the HTTP API.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Commands: []*cli.Command{
			{
				Name:  "override",
				Usage: "Admin override recipient per chain",
				Subcommands: []*cli.Command{
					overrideListCommand(open),
					overrideGetCommand(open),
					overrideSetCommand(open),
				},
			},
			{
				Name:  "tx",
				Usage: "Recorded transactions",
				Subcommands: []*cli.Command{
					txListCommand(open),
				},
			},
			{
				Name:  "tokens",
				Usage: "Token registry",
				Subcommands: []*cli.Command{
					tokensListCommand(open),
				},
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres connection URL or DSN (defaults to the DB_* settings)",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON instead of tables",
			},
		},
	}
}
