package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mmcdole/lectern/internal/cli"
	"github.com/mmcdole/lectern/internal/config"
	"github.com/mmcdole/lectern/internal/content"
	"github.com/mmcdole/lectern/internal/log"
	"github.com/mmcdole/lectern/internal/relevance"
	"github.com/mmcdole/lectern/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting lectern", "version", Version)

	topics, err := cfg.Topics()
	if err != nil {
		return fmt.Errorf("invalid relevance topics: %w", err)
	}

	services := cli.Services{
		Selector:     relevance.New(topics),
		CacheTTL:     cfg.Cache.TTL,
		ContextLimit: cfg.Relevance.Limit,
		Logger:       logger,
	}

	if cfg.IsConfigured() {
		services.Remote = content.NewClient(cfg.Server.URL, cfg.Server.ChaptersPath, cfg.Server.APIKey, cfg.Server.Timeout, logger)
	}

	// The mirror is optional; another lectern process may hold its lock
	mirror, err := store.NewMirrorStore(cfg.Store.Path)
	if err != nil {
		logger.Warn("offline mirror unavailable", "path", cfg.Store.Path, "error", err)
	} else {
		defer mirror.Close()
		services.Mirror = mirror
	}

	cli.SetServices(services)
	cli.SetVersion(Version)

	if err := cli.Execute(); err != nil {
		return err
	}

	logger.Info("shutting down")
	return nil
}
