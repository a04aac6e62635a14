package cmd

import (
	"github.com/urfave/cli/v2"

	"postvibe/analysis"
	"postvibe/config"
	"postvibe/db"
	"postvibe/geo"
	"postvibe/search"
	"postvibe/sentiment"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the configuration file",
		EnvVars: []string{"POSTVIBE_CONFIG"},
		Value:   "config/postvibe.toml",
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Usage:   "SQLite database path, overrides the config file",
		EnvVars: []string{"POSTVIBE_DATABASE"},
	}
}

func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if ctx.String("database") != "" {
		cfg.Database = ctx.String("database")
	}
	if cfg.Database == "" {
		cfg.Database = "postvibe.db"
	}
	return cfg, nil
}

// buildStack wires the full pipeline from configuration: store, search
// client, geocoder, classifier, supervisor and analyzer.
func buildStack(cfg *config.TomlConfig) (*analysis.Analyzer, *sentiment.Classifier, *db.Store, error) {
	store, err := db.NewStore(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	classifier := sentiment.NewClassifier(cfg.Classifier.BaseURL, cfg.Classifier.Token)
	supervisor := sentiment.NewSupervisor(cfg.Workers, classifier, store)
	searchClient := search.NewClient(cfg.Search.BaseURL, cfg.Search.Token, store)
	resolver := geo.NewResolver(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)

	return analysis.NewAnalyzer(searchClient, resolver, supervisor, store), classifier, store, nil
}
