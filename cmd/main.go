package main

import (
	"context"
	"os"

	"github.com/scoutfm/scoutfm/internal/fetch"
	"github.com/scoutfm/scoutfm/internal/services"
	"github.com/scoutfm/scoutfm/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "err", err)
		}
	}

	fetcher := fetch.New(config.Scraper, logger)
	catalog := services.NewSpotifyService(config.Credentials.Spotify, fetcher, logger)
	discovery := services.NewDuckDuckGoService(fetcher, config.Scraper.MaxLinksPerQuery, logger)

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Catalog:   catalog,
		Discovery: discovery,
		Fetcher:   fetcher,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "scoutfm",
		Usage:    "Find genre playlists and scout their curators' contact channels",
		Version:  "1.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
