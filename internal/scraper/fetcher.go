// Package scraper implements the fetch-extract-normalize pipeline for
// per-symbol indicator pages.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/b3screener/b3screener/internal/common"
)

// FetchError wraps a transport or non-success response failure for one URL.
// It is isolated and non-fatal to a batch: the caller records it as data.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch failed for %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves and parses one document. Implementations must be safe
// for concurrent use: the underlying session/connection state is configured
// once before a batch run and shared by all workers.
type Fetcher interface {
	// Fetch retrieves the indicators page for one symbol.
	Fetch(ctx context.Context, symbol string) (*goquery.Document, error)
	// FetchURL retrieves an arbitrary page on the source site.
	FetchURL(ctx context.Context, pageURL string) (*goquery.Document, error)
	Close()
}

// IndicatorsURL builds the per-symbol page URL.
func IndicatorsURL(baseURL, symbol string) string {
	return fmt.Sprintf("%s/principais_indicadores.php?cod_negociacao=%s", baseURL, url.QueryEscape(symbol))
}

// SelectorURL builds the symbol selector page URL used by discovery.
func SelectorURL(baseURL string) string {
	return baseURL + "/seleciona_acoes.php"
}

// NewFetcher selects the fetch strategy from configuration.
func NewFetcher(cfg common.ScraperConfig, logger arbor.ILogger) Fetcher {
	if cfg.UseBrowser {
		return NewBrowserFetcher(cfg, logger)
	}
	return NewHTTPFetcher(cfg, logger)
}

// HTTPFetcher fetches pages over a shared resty client. The client keeps a
// cookie jar and pooled connections reused across all workers; a shared
// rate limiter caps the request rate against the source.
type HTTPFetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	baseURL string
	logger  arbor.ILogger
}

// NewHTTPFetcher creates the plain-HTTP fetch strategy.
func NewHTTPFetcher(cfg common.ScraperConfig, logger arbor.ILogger) *HTTPFetcher {
	client := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	return &HTTPFetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, symbol string) (*goquery.Document, error) {
	return f.FetchURL(ctx, IndicatorsURL(f.baseURL, symbol))
}

func (f *HTTPFetcher) FetchURL(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("parse document: %w", err)}
	}

	f.logger.Debug().
		Str("url", pageURL).
		Int("status", resp.StatusCode()).
		Msg("Fetched page")

	return doc, nil
}

func (f *HTTPFetcher) Close() {}

// BrowserFetcher fetches pages through a headless browser. Used as the
// alternate strategy when the source gates plain HTTP clients. Each request
// derives its own browser context from the shared allocator, so workers
// fetch in parallel just like the HTTP strategy.
type BrowserFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	baseURL     string
	logger      arbor.ILogger
}

// NewBrowserFetcher creates the browser-automation fetch strategy. The
// allocator is configured once; per-request tabs derive from it.
func NewBrowserFetcher(cfg common.ScraperConfig, logger arbor.ILogger) *BrowserFetcher {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     cfg.RequestTimeout,
		baseURL:     cfg.BaseURL,
		logger:      logger,
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, symbol string) (*goquery.Document, error) {
	return f.FetchURL(ctx, IndicatorsURL(f.baseURL, symbol))
}

func (f *BrowserFetcher) FetchURL(ctx context.Context, pageURL string) (*goquery.Document, error) {
	browserCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	// Honor caller cancellation as well as the per-request timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("parse document: %w", err)}
	}

	f.logger.Debug().Str("url", pageURL).Msg("Fetched page via browser")

	return doc, nil
}

func (f *BrowserFetcher) Close() {
	f.allocCancel()
}
