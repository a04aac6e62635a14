package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"postvibe/analysis"
	"postvibe/server"
)

// searchCmd runs a single search batch from the command line and prints the
// report as JSON. Log messages go to stderr so the output can be piped to
// jq or a file.
func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run one search batch and print the report as JSON",
		ArgsUsage: "<keyword or @handle>",
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of posts to search for (1-100)",
				Value: server.CountDefault,
			},
			&cli.StringFlag{
				Name:    "location",
				Aliases: []string{"l"},
				Usage:   "Restrict the keyword search to a 10 mile radius around this place",
			},
		},
		Action: func(ctx *cli.Context) error {
			keyword := ctx.Args().First()
			if keyword == "" {
				return fmt.Errorf("a keyword or @handle argument is required")
			}

			count := ctx.Int("count")
			if count < 1 || count > server.CountMax {
				return fmt.Errorf("count must be between 1 and %d", server.CountMax)
			}

			// Keep stdout clean for the JSON report
			log.SetOutput(os.Stderr)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			analyzer, _, store, err := buildStack(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := analyzer.Search(ctx.Context, analysis.Params{
				Keyword:  keyword,
				Count:    count,
				Location: ctx.String("location"),
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
	}
}
