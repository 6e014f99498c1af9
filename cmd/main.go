package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/nocturne-labs/tunesync/internal/services"
	"github.com/nocturne-labs/tunesync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	timeout := time.Duration(config.Limits.TimeoutSeconds) * time.Second

	// Clients are built once here and shared for the whole process, so all
	// requests to one service draw from a single rate limit budget.
	var appleMusic, spotify services.Catalog
	if config.Credentials.AppleMusic.DeveloperToken != "" {
		client := services.NewHTTPClient(config.Limits.AppleMusicRPS, timeout)
		if svc, err := services.NewAppleMusicService(config.Credentials.AppleMusic, client); err == nil {
			appleMusic = svc
		} else {
			logger.Warn("apple music unavailable", "error", err)
		}
	}
	if config.Credentials.Spotify.AccessToken != "" {
		client := services.NewHTTPClient(config.Limits.SpotifyRPS, timeout)
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify, client); err == nil {
			spotify = svc
		} else {
			logger.Warn("spotify unavailable", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		AppleMusic: appleMusic,
		Spotify:    spotify,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tunesync",
		Usage:    "Sync your music library between Apple Music & Spotify",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
