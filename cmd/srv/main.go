package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var server srv

func main() {
	app := cli.NewApp()
	app.Name = "taskex"
	app.Usage = "Points economy backend for the task exchange"
	app.Action = cli.ShowAppHelp
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start the api service",
			Category:    "Api",
			Description: `Serves the whole HTTP surface: auth, campaigns, applications, webhooks.`,
		},
		{
			Action:      server.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database schema",
			Category:    "Database",
			Description: `Creates or updates the tables to match the current entities.`,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
