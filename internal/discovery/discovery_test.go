package discovery

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

const selectorFixture = `
<html><body>
<form action="selecao_acoes.php" method="get">
  <input type="hidden" name="sel" value="1">
  <input type="checkbox" name="somente_ativas" value="1" checked>
  <input type="checkbox" name="somente_novas" value="1">
  <select name="setor">
    <option value="0">Todos</option>
    <option value="12" selected>Energia</option>
  </select>
  <select name="ordem">
    <option value="alfabetica">Alfab.</option>
  </select>
</form>
</body></html>`

const resultsFixture = `
<html><body>
<table>
  <tr><td><a href="principais_indicadores.php?cod_negociacao=PETR4&x=1">PETR4</a></td></tr>
  <tr><td><a href="principais_indicadores.php?cod_negociacao=vale3">VALE3</a></td></tr>
  <tr><td><a href="principais_indicadores.php?cod_negociacao=PETR4">PETR4 de novo</a></td></tr>
  <tr><td><a href="principais_indicadores.php?cod_negociacao=XX">curto demais</a></td></tr>
  <tr><td><a href="outra_pagina.php?id=9">sem código</a></td></tr>
</table>
</body></html>`

// routedFetcher serves fixtures keyed by URL substring.
type routedFetcher struct {
	routes map[string]string
	calls  []string
}

func (f *routedFetcher) Fetch(ctx context.Context, symbol string) (*goquery.Document, error) {
	return nil, fmt.Errorf("not used")
}

func (f *routedFetcher) FetchURL(_ context.Context, pageURL string) (*goquery.Document, error) {
	f.calls = append(f.calls, pageURL)
	for fragment, html := range f.routes {
		if strings.Contains(pageURL, fragment) {
			return goquery.NewDocumentFromReader(strings.NewReader(html))
		}
	}
	return nil, fmt.Errorf("no route for %s", pageURL)
}

func (f *routedFetcher) Close() {}

func TestSymbolDiscovery_Discover(t *testing.T) {
	fetcher := &routedFetcher{routes: map[string]string{
		"seleciona_acoes.php": selectorFixture,
		"selecao_acoes.php":   resultsFixture,
	}}
	disc := NewSymbolDiscovery(fetcher, "https://www.investsite.com.br", arbor.NewLogger())

	symbols, err := disc.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []string{"PETR4", "VALE3"}
	if len(symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", symbols, want)
	}
	for i, symbol := range want {
		if symbols[i] != symbol {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], symbol)
		}
	}

	if len(fetcher.calls) != 2 {
		t.Fatalf("expected 2 fetches, got %v", fetcher.calls)
	}
	submission := fetcher.calls[1]
	if !strings.Contains(submission, "somente_ativas=1") {
		t.Errorf("checked checkbox missing from submission: %s", submission)
	}
	if strings.Contains(submission, "somente_novas") {
		t.Errorf("unchecked checkbox leaked into submission: %s", submission)
	}
	if !strings.Contains(submission, "setor=12") {
		t.Errorf("selected option missing from submission: %s", submission)
	}
	if !strings.Contains(submission, "ordem=alfabetica") {
		t.Errorf("first option default missing from submission: %s", submission)
	}
}

func TestSymbolDiscovery_NoForm(t *testing.T) {
	fetcher := &routedFetcher{routes: map[string]string{
		"seleciona_acoes.php": "<html><body><p>sem formulário</p></body></html>",
	}}
	disc := NewSymbolDiscovery(fetcher, "https://www.investsite.com.br", arbor.NewLogger())

	if _, err := disc.Discover(context.Background()); err == nil {
		t.Fatal("expected an error when the filter form is missing")
	}
}

func TestHarvestSymbols(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsFixture))
	if err != nil {
		t.Fatal(err)
	}

	symbols := harvestSymbols(doc)

	if len(symbols) != 2 {
		t.Fatalf("symbols = %v, want 2 entries", symbols)
	}
	if symbols[0] != "PETR4" || symbols[1] != "VALE3" {
		t.Errorf("symbols = %v, want [PETR4 VALE3]", symbols)
	}
}

func TestSampleSymbolsIsACopy(t *testing.T) {
	first := SampleSymbols()
	first[0] = "XXXX9"
	second := SampleSymbols()
	if second[0] == "XXXX9" {
		t.Error("SampleSymbols should return a fresh copy")
	}
}
