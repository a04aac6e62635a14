package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"postvibe/db"
	"postvibe/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the postvibe JSON API",
		Description: `Starts the postvibe HTTP server.

Runs pending database migrations, waits for the classification API to become
reachable and then serves search, trends and overtime statistics endpoints.`,
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"POSTVIBE_PORT"},
				Value:   8080,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			if err := db.Migrate(cfg.Database); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}

			analyzer, classifier, store, err := buildStack(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			// Boot-time readiness probe only. Once a batch is running the
			// pipeline itself never retries.
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 500 * time.Millisecond
			bo.MaxInterval = 10 * time.Second
			bo.MaxElapsedTime = 2 * time.Minute

			if err := backoff.Retry(func() error {
				return classifier.Ready(ctx.Context)
			}, backoff.WithContext(bo, ctx.Context)); err != nil {
				return fmt.Errorf("classification API never became ready: %w", err)
			}

			app := server.Server(&server.ServerConfig{Analyzer: analyzer})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)

			go func() {
				<-c
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.Error("Error shutting down server: ", err)
				}
			}()

			log.WithFields(log.Fields{
				"port":    ctx.Int("port"),
				"workers": cfg.Workers,
			}).Info("Starting server...")

			return app.Listen(fmt.Sprintf(":%d", ctx.Int("port")))
		},
	}
}
