// Package models defines the shared data types for the screener pipeline.
package models

import (
	"time"
)

// SymbolKey is the reserved record key holding the trading code. The key
// matches the source site's own column label so exported rows line up with
// what the site shows.
const SymbolKey = "Código"

// RecordStatus tracks a record through its lifecycle:
// pending -> populated/normalized -> success | empty | error.
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending"
	RecordStatusSuccess RecordStatus = "success"
	// RecordStatusEmpty means the page was fetched but no recognized data
	// section was found. Distinguished from error: it usually means a
	// delisted or inactive symbol, not a transport failure.
	RecordStatusEmpty RecordStatus = "empty"
	RecordStatusError RecordStatus = "error"
)

// StockRecord holds the extracted and normalized fields for one symbol.
// Field values are string (raw or date), float64, int64 or nil. Records are
// never mutated after aggregation.
type StockRecord struct {
	Symbol string                 `json:"symbol"`
	Fields map[string]interface{} `json:"fields"`
	Status RecordStatus           `json:"status"`
	// Error holds the failure cause for error records; such records carry
	// no extracted fields beyond the symbol.
	Error string `json:"error,omitempty"`
	// Unnormalized lists field names whose raw text matched no parse
	// pattern for their assigned normalizer. The raw text is retained in
	// Fields; this list keeps the signal visible downstream.
	Unnormalized []string `json:"unnormalized,omitempty"`
}

// NewStockRecord creates a pending record for one symbol. The symbol is
// always present under SymbolKey.
func NewStockRecord(symbol string) *StockRecord {
	return &StockRecord{
		Symbol: symbol,
		Fields: map[string]interface{}{SymbolKey: symbol},
		Status: RecordStatusPending,
	}
}

// Fail transitions the record to the error state, dropping any partial
// fields so an error record carries only the symbol and the cause.
func (r *StockRecord) Fail(err error) {
	r.Status = RecordStatusError
	r.Error = err.Error()
	r.Fields = map[string]interface{}{SymbolKey: r.Symbol}
}

// FieldCount returns the number of extracted fields excluding the symbol.
func (r *StockRecord) FieldCount() int {
	return len(r.Fields) - 1
}

// RunSummary describes one completed pipeline run.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Success    int       `json:"success"`
	Empty      int       `json:"empty"`
	Errors     int       `json:"errors"`
	// Throughput is symbols completed per second over the whole run.
	Throughput float64 `json:"throughput"`
	OutputFile string  `json:"output_file,omitempty"`
}

// Elapsed returns the wall-clock duration of the run.
func (s RunSummary) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Run is the persisted unit: one summary plus the aggregate record list in
// completion order. StartedAt is duplicated from the summary so stored runs
// can be listed newest-first without touching nested fields.
type Run struct {
	ID        string         `json:"id" badgerhold:"key"`
	StartedAt time.Time      `json:"started_at"`
	Summary   RunSummary     `json:"summary"`
	Records   []*StockRecord `json:"records"`
}

// Summarize computes a RunSummary from an aggregate record list.
func Summarize(id string, records []*StockRecord, startedAt, finishedAt time.Time) RunSummary {
	summary := RunSummary{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Total:      len(records),
	}
	for _, rec := range records {
		switch rec.Status {
		case RecordStatusError:
			summary.Errors++
		case RecordStatusEmpty:
			summary.Empty++
		default:
			summary.Success++
		}
	}
	if elapsed := finishedAt.Sub(startedAt).Seconds(); elapsed > 0 {
		summary.Throughput = float64(len(records)) / elapsed
	}
	return summary
}
