package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/b3screener/b3screener/internal/common"
	"github.com/b3screener/b3screener/internal/pipeline"
	"github.com/b3screener/b3screener/internal/scraper"
	"github.com/b3screener/b3screener/internal/storage/badger"
)

var (
	configPath  = flag.String("config", "", "Configuration file path")
	workers     = flag.Int("workers", 0, "Concurrent workers per batch (overrides config)")
	batchSize   = flag.Int("batch", 0, "Symbols per batch (overrides config)")
	useBrowser  = flag.Bool("browser", false, "Force the headless browser fetch strategy")
	limit       = flag.Int("limit", 0, "Cap the number of symbols scraped (0 = all)")
	history     = flag.Int("history", 0, "Print the N most recent run summaries and exit")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("B3 Screener version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Validate, fail fast
	// 4. Initialize logger, print banner

	// Auto-discover config file if not specified
	path := *configPath
	if path == "" {
		if _, err := os.Stat("b3screener.toml"); err == nil {
			path = "b3screener.toml"
		} else if _, err := os.Stat("deployments/local/b3screener.toml"); err == nil {
			path = "deployments/local/b3screener.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *workers, *batchSize, *useBrowser)

	if err := config.Validate(); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Str("config", path).
		Int("workers", config.Scraper.Workers).
		Int("batch_size", config.Scraper.BatchSize).
		Bool("use_browser", config.Scraper.UseBrowser).
		Str("base_url", config.Scraper.BaseURL).
		Msg("Application configuration loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := badger.NewBadgerDB(logger, config.Storage.Badger.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open run storage")
		os.Exit(1)
	}
	defer db.Close()
	runs := badger.NewRunStorage(db, logger)

	if *history > 0 {
		summaries, err := runs.ListRuns(ctx, *history)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to list runs")
			os.Exit(1)
		}
		for _, s := range summaries {
			fmt.Printf("%s  %s  total=%d success=%d empty=%d errors=%d  %.1fs  %s\n",
				s.StartedAt.Format("2006-01-02 15:04:05"), s.ID,
				s.Total, s.Success, s.Empty, s.Errors,
				s.Elapsed().Seconds(), s.OutputFile)
		}
		return
	}

	fetcher := scraper.NewFetcher(config.Scraper, logger)
	defer fetcher.Close()

	runner := pipeline.NewRunner(config, fetcher, runs, logger)
	runner.Limit = *limit

	if config.Schedule.Enabled {
		if err := runner.RunScheduled(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Scheduler failed")
			os.Exit(1)
		}
		return
	}

	summary, err := runner.Execute(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Run ended early")
	}
	if summary != nil && summary.OutputFile != "" {
		logger.Info().Str("file", summary.OutputFile).Msg("Results written")
	}
	if err != nil {
		os.Exit(1)
	}
}
