package cmd

import (
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "postvibe",
		Usage: "Sentiment statistics for social media posts",
		Description: `Searches social media posts by keyword, author handle or keyword
		within a location radius, classifies each post's sentiment through an
		external text-classification API and stores the results in an SQLite
		database. Serves current and historical sentiment statistics over a
		JSON API.

		Flags can generally be set via environment variables, e.g.:

		--database => POSTVIBE_DATABASE=postvibe.db
		--port => POSTVIBE_PORT=8080
		`,
		Commands: []*cli.Command{
			serveCmd(),
			searchCmd(),
			trendsCmd(),
			statsCmd(),
			migrateCmd(),
			rollbackCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}
