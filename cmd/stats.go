package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"postvibe/db"
)

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print stored post counts",
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			store, err := db.NewStore(cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			total, err := store.CollectionSize(ctx.Context)
			if err != nil {
				return err
			}
			fmt.Printf("%d posts stored\n", total)

			counts, err := store.KeywordCounts(ctx.Context)
			if err != nil {
				return err
			}
			for _, entry := range counts {
				fmt.Printf("%8d  %s\n", entry.Count, entry.Keyword)
			}

			return nil
		},
	}
}
