package scraper

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/b3screener/b3screener/internal/models"
)

// Builder produces one finished record for one symbol.
type Builder interface {
	Build(ctx context.Context, symbol string) *models.StockRecord
}

// RecordBuilder fetches the indicators page for a symbol, extracts the raw
// field map and runs normalization over it.
type RecordBuilder struct {
	fetcher   Fetcher
	extractor *PageExtractor
	mapper    *FieldMapper
	logger    arbor.ILogger
}

func NewRecordBuilder(fetcher Fetcher, logger arbor.ILogger) *RecordBuilder {
	return &RecordBuilder{
		fetcher:   fetcher,
		extractor: NewPageExtractor(logger),
		mapper:    NewFieldMapper(logger),
		logger:    logger,
	}
}

// Build never returns nil. A fetch failure yields an error record carrying
// only the symbol and cause; a page with no recognizable tables yields an
// empty record.
func (b *RecordBuilder) Build(ctx context.Context, symbol string) *models.StockRecord {
	record := models.NewStockRecord(symbol)

	doc, err := b.fetcher.Fetch(ctx, symbol)
	if err != nil {
		b.logger.Warn().Err(err).Str("symbol", symbol).Msg("Fetch failed")
		record.Fail(err)
		return record
	}

	fields := b.extractor.Extract(doc)
	if len(fields) == 0 {
		b.logger.Warn().Str("symbol", symbol).Msg("Page contained no indicator tables")
		record.Status = models.RecordStatusEmpty
		return record
	}

	for key, value := range fields {
		record.Fields[key] = value
	}
	b.mapper.Apply(record)
	record.Status = models.RecordStatusSuccess

	b.logger.Debug().
		Str("symbol", symbol).
		Int("fields", record.FieldCount()).
		Msg("Record built")
	return record
}
