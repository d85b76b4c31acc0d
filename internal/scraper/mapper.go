package scraper

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/b3screener/b3screener/internal/models"
	"github.com/b3screener/b3screener/internal/normalize"
)

// EarningsYieldKey is the derived field computed from profit per share and
// the last close price.
const EarningsYieldKey = "Earnings Yield (%)"

// lastCloseKey and the profit-per-share keys feed the earnings yield.
const lastCloseKey = "Último Preço de Fechamento"

var profitPerShareKeys = []string{
	"DRE 12M - Lucro/Ação",
	"DRE 3M - Lucro/Ação",
}

// normalizer converts one raw token; ok=false keeps the raw text.
type normalizer func(string) (interface{}, bool)

func currencyRule(text string) (interface{}, bool) {
	v, ok := normalize.Currency(text)
	return v, ok
}

func currencyScaleRule(text string) (interface{}, bool) {
	v, ok := normalize.CurrencyWithScale(text)
	return v, ok
}

func percentageRule(text string) (interface{}, bool) {
	v, ok := normalize.Percentage(text)
	return v, ok
}

func ratioRule(text string) (interface{}, bool) {
	v, ok := normalize.Ratio(text)
	return v, ok
}

func integerRule(text string) (interface{}, bool) {
	v, ok := normalize.Integer(text)
	return v, ok
}

func dateRule(text string) (interface{}, bool) {
	v, ok := normalize.Date(text)
	return v, ok
}

// normalizationRules is the static dispatch table from canonical field name
// to normalizer. Read-only during a run; append-only across versions. A
// field absent from the table keeps its raw text.
var normalizationRules = map[string]normalizer{
	// Basic prices
	"Último Preço de Fechamento":       currencyRule,
	"Volume Financeiro Transacionado":  currencyScaleRule,

	// Relative-price multiples
	"Indicador - Preço/Lucro":           ratioRule,
	"Indicador - Preço/VPA":             ratioRule,
	"Indicador - Preço/Receita Líquida": ratioRule,
	"Indicador - Preço/FCO":             ratioRule,
	"Indicador - Preço/FCF":             ratioRule,
	"Indicador - Preço/Ativo Total":     ratioRule,
	"Indicador - Preço/EBIT":            ratioRule,
	"Indicador - Preço/Capital Giro":    ratioRule,
	"Indicador - Preço/NCAV":            ratioRule,
	"Indicador - EV/EBIT":               ratioRule,
	"Indicador - EV/EBITDA":             ratioRule,
	"Indicador - EV/Receita Líquida":    ratioRule,
	"Indicador - EV/FCO":                ratioRule,
	"Indicador - EV/FCF":                ratioRule,
	"Indicador - EV/Ativo Total":        ratioRule,

	// Market cap and enterprise value
	"Indicador - Market Cap Empresa": currencyScaleRule,
	"Indicador - Enterprise Value":   currencyScaleRule,

	// Dates
	"Indicador - Data Demonstração Financeira Atual": dateRule,
	"Indicador - Data do Preço da Ação":              dateRule,

	// Prices and yields
	"Indicador - Preço Atual da Ação": currencyRule,
	"Indicador - Dividend Yield":      percentageRule,

	// Income statement, trailing 12 months
	"DRE 12M - Receita Líquida":             currencyScaleRule,
	"DRE 12M - Resultado Bruto":             currencyScaleRule,
	"DRE 12M - EBIT":                        currencyScaleRule,
	"DRE 12M - Depreciação e Amortização":   currencyScaleRule,
	"DRE 12M - EBITDA":                      currencyScaleRule,
	"DRE 12M - Lucro Líquido":               currencyScaleRule,
	"DRE 12M - Lucro/Ação":                  currencyScaleRule,

	// Income statement, trailing 3 months
	"DRE 3M - Receita Líquida":           currencyScaleRule,
	"DRE 3M - Resultado Bruto":           currencyScaleRule,
	"DRE 3M - EBIT":                      currencyScaleRule,
	"DRE 3M - Depreciação e Amortização": currencyScaleRule,
	"DRE 3M - EBITDA":                    currencyScaleRule,
	"DRE 3M - Lucro Líquido":             currencyScaleRule,
	"DRE 3M - Lucro/Ação":                currencyScaleRule,

	// Returns and margins, percentages
	"Retorno/Margem - Retorno s/ Capital Tangível Inicial":              percentageRule,
	"Retorno/Margem - Retorno s/ Capital Investido Inicial":             percentageRule,
	"Retorno/Margem - Retorno s/ Capital Tangível Inicial Pré-Impostos": percentageRule,
	"Retorno/Margem - Retorno s/ Capital Investido Inicial Pré-Impostos": percentageRule,
	"Retorno/Margem - Retorno s/ Patrimônio Líquido Inicial":            percentageRule,
	"Retorno/Margem - Retorno s/ Ativo Inicial":                         percentageRule,
	"Retorno/Margem - Margem Bruta":                                     percentageRule,
	"Retorno/Margem - Margem Líquida":                                   percentageRule,
	"Retorno/Margem - Margem EBIT":                                      percentageRule,
	"Retorno/Margem - Margem EBITDA":                                    percentageRule,

	// Returns and margins, ratios
	"Retorno/Margem - Giro do Ativo Inicial":         ratioRule,
	"Retorno/Margem - Alavancagem Financeira":        ratioRule,
	"Retorno/Margem - Passivo/Patrimônio Líquido":    ratioRule,
	"Retorno/Margem - Dívida Líquida/EBITDA":         ratioRule,

	// Balance sheet, financial values
	"Balanço - Caixa e Equivalentes de Caixa": currencyScaleRule,
	"Balanço - Ativo Total":                   currencyScaleRule,
	"Balanço - Dívida de Curto Prazo":         currencyScaleRule,
	"Balanço - Dívida de Longo Prazo":         currencyScaleRule,
	"Balanço - Dívida Bruta":                  currencyScaleRule,
	"Balanço - Dívida Líquida":                currencyScaleRule,
	"Balanço - Patrimônio Líquido":            currencyScaleRule,
	"Balanço - Valor Patrimonial da Ação":     currencyScaleRule,

	// Balance sheet, share counts
	"Balanço - Ações Ordinárias":                       integerRule,
	"Balanço - Ações Preferenciais":                    integerRule,
	"Balanço - Total":                                  integerRule,
	"Balanço - Ações Ordinárias em Tesouraria":         integerRule,
	"Balanço - Ações Preferenciais em Tesouraria":      integerRule,
	"Balanço - Total em Tesouraria":                    integerRule,
	"Balanço - Ações Ordinárias (Exceto Tesouraria)":   integerRule,
	"Balanço - Ações Preferenciais (Exceto Tesouraria)": integerRule,
	"Balanço - Total (Exceto Tesouraria)":              integerRule,

	// Cash flow, trailing 12 months
	"FC 12M - Fluxo de Caixa Operacional":                 currencyScaleRule,
	"FC 12M - Fluxo de Caixa de Investimentos":            currencyScaleRule,
	"FC 12M - Fluxo de Caixa de Financiamentos":           currencyScaleRule,
	"FC 12M - Aumento (Redução) de Caixa e Equivalentes":  currencyScaleRule,

	// Cash flow, trailing 3 months
	"FC 3M - Fluxo de Caixa Operacional":                currencyScaleRule,
	"FC 3M - Fluxo de Caixa de Investimentos":           currencyScaleRule,
	"FC 3M - Fluxo de Caixa de Financiamentos":          currencyScaleRule,
	"FC 3M - Aumento (Redução) de Caixa e Equivalentes": currencyScaleRule,

	// Experimental capex / free cash flow
	"CAPEX/FCL - CAPEX 3 meses":                  currencyScaleRule,
	"CAPEX/FCL - Fluxo de Caixa Livre 3 meses":   currencyScaleRule,
	"CAPEX/FCL - CAPEX 12 meses":                 currencyScaleRule,
	"CAPEX/FCL - Fluxo de Caixa Livre 12 meses":  currencyScaleRule,

	// Derived
	EarningsYieldKey: percentageRule,

	// Price / volume behavior
	"Preço/Volume - Menor Preço 52 semanas":       currencyRule,
	"Preço/Volume - Maior Preço 52 semanas":       currencyRule,
	"Preço/Volume - Variação 2025":                percentageRule,
	"Preço/Volume - Variação 1 ano":               percentageRule,
	"Preço/Volume - Variação 2 anos(total)":       percentageRule,
	"Preço/Volume - Variação 2 anos(anual)":       percentageRule,
	"Preço/Volume - Variação 3 anos(total)":       percentageRule,
	"Preço/Volume - Variação 3 anos(anual)":       percentageRule,
	"Preço/Volume - Variação 4 anos(total)":       percentageRule,
	"Preço/Volume - Variação 4 anos(anual)":       percentageRule,
	"Preço/Volume - Variação 5 anos(total)":       percentageRule,
	"Preço/Volume - Variação 5 anos(anual)":       percentageRule,
	"Preço/Volume - Volume Diário Médio (3 meses)": currencyScaleRule,
}

// FieldMapper applies the static rule table to a populated record and
// derives the earnings yield.
type FieldMapper struct {
	logger arbor.ILogger
}

func NewFieldMapper(logger arbor.ILogger) *FieldMapper {
	return &FieldMapper{logger: logger}
}

// Apply normalizes every field present in both the record and the rule
// table. A failed normalization keeps the raw text, records the field name
// in the record's Unnormalized list and never blocks other fields. The
// earnings yield is derived first so it is normalized in the same pass.
func (m *FieldMapper) Apply(record *models.StockRecord) {
	record.Fields[EarningsYieldKey] = m.earningsYield(record)

	for field, rule := range normalizationRules {
		raw, present := record.Fields[field]
		if !present {
			continue
		}
		text, isText := raw.(string)
		if !isText || text == "" {
			continue
		}
		// Placeholder cells mean "no value", not a failed parse; the raw
		// text stays as-is without a diagnostic.
		if normalize.IsPlaceholder(text) {
			continue
		}

		value, ok := rule(text)
		if !ok {
			record.Unnormalized = append(record.Unnormalized, field)
			m.logger.Debug().
				Str("symbol", record.Symbol).
				Str("field", field).
				Str("raw", text).
				Msg("Field did not normalize, raw text retained")
			continue
		}
		record.Fields[field] = value
	}
}

// earningsYield computes (profit per share / last close) * 100 as a signed
// percentage string with two decimals, or "N/A" when either component is
// missing or the price is not positive.
func (m *FieldMapper) earningsYield(record *models.StockRecord) string {
	var profit float64
	found := false
	for _, key := range profitPerShareKeys {
		raw, present := record.Fields[key]
		if !present {
			continue
		}
		text, isText := raw.(string)
		if !isText {
			continue
		}
		if v, ok := normalize.Currency(text); ok {
			profit = v
			found = true
			break
		}
	}
	if !found {
		return "N/A"
	}

	rawPrice, present := record.Fields[lastCloseKey]
	if !present {
		return "N/A"
	}
	priceText, isText := rawPrice.(string)
	if !isText {
		return "N/A"
	}
	price, ok := normalize.Currency(priceText)
	if !ok || price <= 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.2f%%", profit/price*100)
}
