package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func trendsCmd() *cli.Command {
	return &cli.Command{
		Name:        "trends",
		Usage:       "Print the 7-day keyword sentiment rankings as JSON",
		Description: `Prints the top 10 most positive and most negative keywords from the past 7 days.`,
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
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

			trends, err := analyzer.Trends(ctx.Context)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(trends, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			return nil
		},
	}
}
