package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// valuePolicy selects how the value cell of a two-column row is reduced to
// raw text before normalization.
type valuePolicy int

const (
	// policyText takes the cell text verbatim.
	policyText valuePolicy = iota
	// policyIndicator preserves scaled currency shapes verbatim and
	// otherwise extracts the first numeric token, re-applying the sign.
	policyIndicator
	// policyCurrencyKeep preserves any currency value verbatim and
	// otherwise extracts the first signed numeric token.
	policyCurrencyKeep
	// policyScaledMatch extracts a signed scaled-currency match, falling
	// back to the full cell text.
	policyScaledMatch
	// policyNumericToken extracts the first signed numeric token, falling
	// back to the full cell text.
	policyNumericToken
)

// section describes one named two-column data table on the indicators page.
// Row keys are prefixed by the section label to prevent collisions.
type section struct {
	tableID string
	prefix  string
	policy  valuePolicy
}

// sections is the fixed, ordered list of data sections extracted per
// symbol. Missing sections are simply absent from the output.
var sections = []section{
	{"tabela_resumo_empresa", "", policyText},
	{"tabela_resumo_empresa_precos_relativos", "Indicador", policyIndicator},
	{"tabela_resumo_empresa_dre_12meses", "DRE 12M", policyCurrencyKeep},
	{"tabela_resumo_empresa_dre_3meses", "DRE 3M", policyCurrencyKeep},
	{"tabela_resumo_empresa_precos", "Preço/Volume", policyText},
	{"tabela_resumo_empresa_margens_retornos", "Retorno/Margem", policyNumericToken},
	{"tabela_resumo_empresa_bp", "Balanço", policyIndicator},
	{"tabela_resumo_empresa_fc_12meses", "FC 12M", policyScaledMatch},
	{"tabela_resumo_empresa_fc_3meses", "FC 3M", policyScaledMatch},
	{"tabela_resumo_empresa_experimental", "CAPEX/FCL", policyScaledMatch},
}

var (
	// Currency with a scale suffix ("R$ 1,5 M", "- R$ 7,15 B", "250 mil").
	// Kept verbatim so the normalizer sees sign and scale intact.
	scaledCurrencyShapeRe = regexp.MustCompile(`[-\s]*R\$.*[BMK]|\bmil\b`)
	currencyShapeRe       = regexp.MustCompile(`[-\s]*R\$`)
	scaledCurrencyMatchRe = regexp.MustCompile(`[-+]?\s*R\$\s*[\d.,]+\s*[BMK]?`)
	numericTokenRe        = regexp.MustCompile(`[-+]?[\d.,]+%?`)
	unsignedTokenRe       = regexp.MustCompile(`[0-9]+[.,]?[0-9]*%?`)
)

// PageExtractor walks the fixed section list of a parsed indicators page
// and produces section-prefixed raw key/value pairs.
type PageExtractor struct {
	logger arbor.ILogger
}

func NewPageExtractor(logger arbor.ILogger) *PageExtractor {
	return &PageExtractor{logger: logger}
}

// Extract returns the raw fields of one document. An empty map means no
// recognized section was found; the caller classifies that as an empty
// record, not an error.
func (e *PageExtractor) Extract(doc *goquery.Document) map[string]string {
	fields := make(map[string]string)

	for _, sec := range sections {
		table := doc.Find("table#" + sec.tableID)
		if table.Length() == 0 {
			continue
		}

		rows := table.Find("tbody tr")
		if rows.Length() == 0 {
			rows = table.Find("tr")
		}

		rows.Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() != 2 {
				return
			}
			label := strings.TrimSpace(cells.Eq(0).Text())
			if label == "" {
				return
			}

			value := extractValue(cells.Eq(1), sec.policy)

			key := label
			if sec.prefix != "" {
				key = sec.prefix + " - " + label
			}
			fields[key] = value
		})
	}

	if len(fields) == 0 {
		e.logger.Debug().Msg("No recognized data tables in document")
	}
	return fields
}

// extractValue reduces a value cell to raw text per the section policy.
// When the cell embeds an anchor, the anchor's text is preferred.
func extractValue(cell *goquery.Selection, policy valuePolicy) string {
	if policy == policyText {
		return strings.TrimSpace(cell.Text())
	}

	link := cell.Find("a")
	if link.Length() == 0 {
		return strings.TrimSpace(cell.Text())
	}
	text := strings.TrimSpace(link.First().Text())

	switch policy {
	case policyIndicator:
		if scaledCurrencyShapeRe.MatchString(text) {
			return text
		}
		negative := strings.HasPrefix(text, "-")
		if token := unsignedTokenRe.FindString(text); token != "" {
			if negative {
				return "-" + token
			}
			return token
		}
		return text

	case policyCurrencyKeep:
		if currencyShapeRe.MatchString(text) {
			return text
		}
		if token := numericTokenRe.FindString(text); token != "" {
			return token
		}
		return text

	case policyScaledMatch:
		if match := scaledCurrencyMatchRe.FindString(text); match != "" {
			return match
		}
		return text

	case policyNumericToken:
		if token := numericTokenRe.FindString(text); token != "" {
			return token
		}
		return text
	}

	return text
}
