package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/b3screener/b3screener/internal/common"
	"github.com/b3screener/b3screener/internal/scraper"
)

// sampleSymbols backs runs when the listing page yields nothing usable.
var sampleSymbols = []string{
	"PETR4", "VALE3", "ITUB4", "BBDC4", "ABEV3",
	"WEGE3", "MGLU3", "TTEN3", "B3SA3", "RENT3",
}

// SampleSymbols returns a copy of the built-in fallback list.
func SampleSymbols() []string {
	out := make([]string, len(sampleSymbols))
	copy(out, sampleSymbols)
	return out
}

// SymbolDiscovery harvests tradable symbols from the stock selector page by
// submitting its filter form with default values and reading the result
// links.
type SymbolDiscovery struct {
	fetcher scraper.Fetcher
	baseURL string
	logger  arbor.ILogger
}

func NewSymbolDiscovery(fetcher scraper.Fetcher, baseURL string, logger arbor.ILogger) *SymbolDiscovery {
	return &SymbolDiscovery{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Discover returns the deduplicated symbol list from the selector page.
// An empty slice with a nil error means the page loaded but produced no
// symbols; callers decide whether to fall back.
func (d *SymbolDiscovery) Discover(ctx context.Context) ([]string, error) {
	selectorURL := scraper.SelectorURL(d.baseURL)
	doc, err := d.fetcher.FetchURL(ctx, selectorURL)
	if err != nil {
		return nil, fmt.Errorf("loading selector page: %w", err)
	}

	resultURL, err := d.submissionURL(doc)
	if err != nil {
		return nil, err
	}

	d.logger.Debug().Str("url", resultURL).Msg("Submitting selector form")
	results, err := d.fetcher.FetchURL(ctx, resultURL)
	if err != nil {
		return nil, fmt.Errorf("submitting selector form: %w", err)
	}

	symbols := harvestSymbols(results)
	d.logger.Info().Int("symbols", len(symbols)).Msg("Symbol discovery complete")
	return symbols, nil
}

// submissionURL rebuilds the filter form's GET request with its default
// field values.
func (d *SymbolDiscovery) submissionURL(doc *goquery.Document) (string, error) {
	var form *goquery.Selection
	doc.Find("form").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		action, _ := s.Attr("action")
		if strings.Contains(action, "selecao_acoes.php") {
			form = s
			return false
		}
		return true
	})
	if form == nil {
		return "", fmt.Errorf("selector page has no filter form")
	}

	action, _ := form.Attr("action")
	target, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("parsing form action %q: %w", action, err)
	}
	base, err := url.Parse(d.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	resolved := base.ResolveReference(target)

	params := resolved.Query()
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		name, _ := input.Attr("name")
		inputType, _ := input.Attr("type")
		if strings.EqualFold(inputType, "checkbox") {
			if _, checked := input.Attr("checked"); !checked {
				return
			}
		}
		value, _ := input.Attr("value")
		params.Set(name, value)
	})
	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		value := ""
		options := sel.Find("option")
		options.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
			if _, selected := opt.Attr("selected"); selected {
				value = optionValue(opt)
				return false
			}
			return true
		})
		if value == "" && options.Length() > 0 {
			value = optionValue(options.First())
		}
		params.Set(name, value)
	})

	resolved.RawQuery = params.Encode()
	return resolved.String(), nil
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

// harvestSymbols pulls the cod_negociacao query value out of every result
// link, then normalizes and deduplicates.
func harvestSymbols(doc *goquery.Document) []string {
	var raw []string
	doc.Find(`a[href*="cod_negociacao="]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		_, after, found := strings.Cut(href, "cod_negociacao=")
		if !found {
			return
		}
		code, _, _ := strings.Cut(after, "&")
		if decoded, err := url.QueryUnescape(code); err == nil {
			code = decoded
		}
		raw = append(raw, code)
	})
	return common.DedupeSymbols(raw)
}
