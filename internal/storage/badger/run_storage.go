package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/b3screener/b3screener/internal/models"
)

// RunStorage persists completed scraping runs and their summaries.
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
}

type runStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) RunStorage {
	return &runStorage{
		db:     db,
		logger: logger,
	}
}

func (s *runStorage) SaveRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	s.logger.Debug().Str("run_id", run.ID).Int("records", len(run.Records)).Msg("Run persisted")
	return nil
}

func (s *runStorage) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	if err := s.db.Store().Get(runID, &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (s *runStorage) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.Run
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	summaries := make([]models.RunSummary, len(runs))
	for i := range runs {
		summaries[i] = runs[i].Summary
	}
	return summaries, nil
}
