package main

import (
	"context"
	_ "embed"
	"flag"
	"os"
	"strings"
	"time"

	"catalogue/pkg/cdns"
	"catalogue/pkg/config"
	"catalogue/pkg/datasets"
	"catalogue/pkg/log"
	"catalogue/pkg/seed"
	"catalogue/pkg/server"
	"catalogue/pkg/users"
)

//go:embed VERSION
var Version string

func main() {
	_ = log.Logger

	configPath := flag.String("c", "", "Server config file (default "+config.DefaultServerConfigFile+" if present)")
	port := flag.Int("port", 0, "Server port")
	dbPath := flag.String("db", "", "SQLite database path")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath, map[string]any{
		"port":      *port,
		"db_path":   *dbPath,
		"log_level": *logLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	if *debug {
		log.SetDebugMode()
		log.Debug().Msg("Debug mode enabled")
	}

	ctx := context.Background()

	datasetCatalogue, err := datasets.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to open dataset catalogue")
	}
	cdnCatalogue, err := cdns.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to open CDN catalogue")
	}
	directory, err := users.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to open user directory")
	}

	loadSeeds(ctx, cfg, datasetCatalogue, cdnCatalogue)

	catalogue := server.NewCatalogueServer(
		strings.TrimSpace(Version),
		datasetCatalogue,
		cdnCatalogue,
		directory,
		time.Duration(cfg.SessionTTLSeconds)*time.Second,
	)

	if err := catalogue.Start(cfg.Address()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}

	os.Exit(0)
}

// loadSeeds runs both seed loaders. The loaders log their own counts, so only
// file level failures are reported here.
func loadSeeds(ctx context.Context, cfg *config.ServerConfig, datasetCatalogue seed.DatasetAdder, cdnCatalogue seed.CDNAdder) {
	if _, err := seed.LoadDatasets(ctx, cfg.SeedDatasetPath, users.AdminUser, datasetCatalogue); err != nil {
		log.Warn().Err(err).Str("path", cfg.SeedDatasetPath).Msg("Dataset seed file not loaded")
	}
	if _, err := seed.LoadCDNs(ctx, cfg.SeedCDNPath, cdnCatalogue); err != nil {
		log.Warn().Err(err).Str("path", cfg.SeedCDNPath).Msg("CDN seed file not loaded")
	}
}
