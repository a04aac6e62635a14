package cmd

import (
	"fmt"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"postvibe/db"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the configured database. Will create the database if it does not exist.`,
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Database configured: %s\n", cfg.Database)
			return db.Migrate(cfg.Database)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			answer, err := prompt.New().
				Ask(fmt.Sprintf("Roll back the last migration on %s?", cfg.Database)).
				Choose([]string{"no", "yes"})
			if err != nil {
				return err
			}
			if answer != "yes" {
				fmt.Println("Rollback cancelled")
				return nil
			}

			return db.Rollback(cfg.Database)
		},
	}
}
