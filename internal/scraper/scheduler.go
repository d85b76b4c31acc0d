package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/b3screener/b3screener/internal/models"
)

// BatchScheduler walks a symbol list in contiguous batches. Symbols inside
// a batch are processed concurrently by a bounded worker pool; batches run
// strictly one after another with a pause between them.
type BatchScheduler struct {
	builder    Builder
	workers    int
	batchSize  int
	batchDelay time.Duration
	logger     arbor.ILogger
}

func NewBatchScheduler(builder Builder, workers, batchSize int, batchDelay time.Duration, logger arbor.ILogger) *BatchScheduler {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchScheduler{
		builder:    builder,
		workers:    workers,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		logger:     logger,
	}
}

// Run processes every symbol and returns the records in completion order.
// Cancellation stops new batches from starting; records already completed
// are returned alongside the context error.
func (s *BatchScheduler) Run(ctx context.Context, symbols []string) ([]*models.StockRecord, error) {
	total := len(symbols)
	records := make([]*models.StockRecord, 0, total)
	if total == 0 {
		return records, nil
	}

	batchCount := (total + s.batchSize - 1) / s.batchSize
	startedAt := time.Now()

	for start := 0; start < total; start += s.batchSize {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().
				Int("completed", len(records)).
				Int("total", total).
				Msg("Run cancelled, returning partial results")
			return records, err
		}

		end := start + s.batchSize
		if end > total {
			end = total
		}
		batch := symbols[start:end]
		batchIndex := start/s.batchSize + 1

		s.logger.Info().
			Int("batch", batchIndex).
			Int("batches", batchCount).
			Int("size", len(batch)).
			Msg("Starting batch")

		records = append(records, s.runBatch(ctx, batch, len(records), total, startedAt)...)

		if end < total {
			if err := s.pause(ctx); err != nil {
				return records, err
			}
		}
	}

	elapsed := time.Since(startedAt)
	s.logger.Info().
		Int("records", len(records)).
		Str("elapsed", elapsed.Round(time.Millisecond).String()).
		Str("per_second", fmt.Sprintf("%.2f", runningRate(len(records), elapsed))).
		Msg("All batches complete")

	return records, nil
}

// runBatch fans the batch out over a fresh worker pool and collects the
// records in completion order.
func (s *BatchScheduler) runBatch(ctx context.Context, batch []string, done, total int, startedAt time.Time) []*models.StockRecord {
	workers := s.workers
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make(chan string)
	results := make([]*models.StockRecord, 0, len(batch))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				record := s.builder.Build(ctx, symbol)

				mu.Lock()
				results = append(results, record)
				completed := done + len(results)
				mu.Unlock()

				s.logger.Info().
					Str("symbol", symbol).
					Str("status", string(record.Status)).
					Int("completed", completed).
					Int("total", total).
					Str("per_second", fmt.Sprintf("%.2f", runningRate(completed, time.Since(startedAt)))).
					Msg("Symbol processed")
			}
		}()
	}

	for _, symbol := range batch {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()

	return results
}

// runningRate is the observed throughput so far, items completed per
// elapsed second.
func runningRate(completed int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(completed) / elapsed.Seconds()
}

// pause waits the configured inter-batch delay, returning early on
// cancellation.
func (s *BatchScheduler) pause(ctx context.Context) error {
	if s.batchDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.batchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
