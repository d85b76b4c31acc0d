package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/b3screener/b3screener/internal/common"
	"github.com/b3screener/b3screener/internal/discovery"
	"github.com/b3screener/b3screener/internal/export"
	"github.com/b3screener/b3screener/internal/models"
	"github.com/b3screener/b3screener/internal/scraper"
	"github.com/b3screener/b3screener/internal/storage/badger"
)

// Runner wires discovery, scraping, export and persistence into one
// end-to-end pipeline.
type Runner struct {
	config  *common.Config
	fetcher scraper.Fetcher
	runs    badger.RunStorage
	logger  arbor.ILogger

	// Limit caps the symbol count for a run; zero means no cap.
	Limit int
}

func NewRunner(config *common.Config, fetcher scraper.Fetcher, runs badger.RunStorage, logger arbor.ILogger) *Runner {
	return &Runner{
		config:  config,
		fetcher: fetcher,
		runs:    runs,
		logger:  logger,
	}
}

// Execute performs one full run: discover symbols, scrape them in batches,
// write the workbook and persist the run. Returns the summary of what
// happened even when some symbols failed; the error is reserved for
// failures that stop the run itself.
func (r *Runner) Execute(ctx context.Context) (*models.RunSummary, error) {
	runID := uuid.New().String()
	runCtx, cancel := context.WithTimeout(ctx, r.config.Scraper.RunTimeout)
	defer cancel()

	r.logger.Info().Str("run_id", runID).Msg("Starting run")
	startedAt := time.Now()

	symbols, err := r.discoverSymbols(runCtx)
	if err != nil {
		return nil, err
	}
	if r.Limit > 0 && len(symbols) > r.Limit {
		r.logger.Info().Int("limit", r.Limit).Int("discovered", len(symbols)).Msg("Applying symbol limit")
		symbols = symbols[:r.Limit]
	}

	builder := scraper.NewRecordBuilder(r.fetcher, r.logger)
	scheduler := scraper.NewBatchScheduler(
		builder,
		r.config.Scraper.Workers,
		r.config.Scraper.BatchSize,
		r.config.Scraper.BatchDelay,
		r.logger,
	)

	records, runErr := scheduler.Run(runCtx, symbols)
	finishedAt := time.Now()
	summary := models.Summarize(runID, records, startedAt, finishedAt)

	if len(records) > 0 {
		writer := export.NewExcelWriter(r.config.Output.Dir, r.logger)
		if path, err := writer.Write(records); err != nil {
			r.logger.Error().Err(err).Msg("Workbook export failed")
		} else {
			summary.OutputFile = path
		}
	}

	if r.runs != nil {
		run := &models.Run{ID: runID, StartedAt: startedAt, Summary: summary, Records: records}
		if err := r.runs.SaveRun(runCtx, run); err != nil {
			r.logger.Error().Err(err).Str("run_id", runID).Msg("Run persistence failed")
		}
	}

	r.logger.Info().
		Str("run_id", runID).
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("empty", summary.Empty).
		Int("errors", summary.Errors).
		Str("elapsed", summary.Elapsed().Round(time.Millisecond).String()).
		Str("per_second", fmt.Sprintf("%.2f", summary.Throughput)).
		Msg("Run complete")

	return &summary, runErr
}

// discoverSymbols tries the selector page first and falls back to the
// built-in sample list when the site yields nothing.
func (r *Runner) discoverSymbols(ctx context.Context) ([]string, error) {
	disc := discovery.NewSymbolDiscovery(r.fetcher, r.config.Scraper.BaseURL, r.logger)
	symbols, err := disc.Discover(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn().Err(err).Msg("Symbol discovery failed, using sample list")
		return discovery.SampleSymbols(), nil
	}
	if len(symbols) == 0 {
		r.logger.Warn().Msg("Symbol discovery returned nothing, using sample list")
		return discovery.SampleSymbols(), nil
	}
	return symbols, nil
}

// RunScheduled blocks running the pipeline on the configured cron
// expression until the context is cancelled.
func (r *Runner) RunScheduled(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(r.config.Schedule.Cron, func() {
		if _, err := r.Execute(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", r.config.Schedule.Cron, err)
	}

	r.logger.Info().Str("cron", r.config.Schedule.Cron).Msg("Scheduler started")
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	r.logger.Info().Msg("Scheduler stopped")
	return nil
}
