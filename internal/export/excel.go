package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/xuri/excelize/v2"

	"github.com/b3screener/b3screener/internal/models"
)

const sheetName = "Stocks"

// financialColumns get a two-decimal number format so large scaled values
// stay readable.
var financialColumns = map[string]bool{
	"Indicador - Market Cap Empresa": true,
	"Indicador - Enterprise Value":   true,
	"DRE 12M - Receita Líquida":      true,
	"DRE 12M - EBITDA":               true,
	"DRE 12M - Lucro Líquido":        true,
}

// ExcelWriter renders a run's records as a single-sheet workbook.
type ExcelWriter struct {
	dir    string
	logger arbor.ILogger
}

func NewExcelWriter(dir string, logger arbor.ILogger) *ExcelWriter {
	return &ExcelWriter{dir: dir, logger: logger}
}

// Write produces stocks_data_<timestamp>.xlsx in the configured directory
// and returns the full path. The header row is the union of field names
// across all records, symbol column first, remaining columns sorted.
func (w *ExcelWriter) Write(records []*models.StockRecord) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("creating sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("removing default sheet: %w", err)
	}

	headers := headerRow(records)
	for col, name := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", fmt.Errorf("addressing header cell: %w", err)
		}
		if err := file.SetCellValue(sheetName, cell, name); err != nil {
			return "", fmt.Errorf("writing header %q: %w", name, err)
		}
	}

	numberStyle, err := file.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return "", fmt.Errorf("creating number style: %w", err)
	}

	for row, record := range records {
		for col, name := range headers {
			value, present := record.Fields[name]
			if !present {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return "", fmt.Errorf("addressing cell: %w", err)
			}
			if err := file.SetCellValue(sheetName, cell, value); err != nil {
				return "", fmt.Errorf("writing %s for %s: %w", name, record.Symbol, err)
			}
			if financialColumns[name] {
				if err := file.SetCellStyle(sheetName, cell, cell, numberStyle); err != nil {
					return "", fmt.Errorf("styling cell: %w", err)
				}
			}
		}
	}

	path := filepath.Join(w.dir, fmt.Sprintf("stocks_data_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := file.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}

	w.logger.Info().
		Str("file", path).
		Int("rows", len(records)).
		Int("columns", len(headers)).
		Msg("Workbook written")
	return path, nil
}

// headerRow computes the union of field names, symbol first, the rest in
// sorted order so column layout is stable across runs.
func headerRow(records []*models.StockRecord) []string {
	seen := map[string]bool{models.SymbolKey: true}
	rest := make([]string, 0, 128)
	for _, record := range records {
		for name := range record.Fields {
			if !seen[name] {
				seen[name] = true
				rest = append(rest, name)
			}
		}
	}
	sort.Strings(rest)
	return append([]string{models.SymbolKey}, rest...)
}
