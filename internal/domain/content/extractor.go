package content

import (
	"context"

	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
)

// Fetcher performs a single GET and returns the decoded body text. HTTP
// error statuses are not errors: their bodies are returned like any other.
type Fetcher interface {
	FetchText(ctx context.Context, url, userAgent string) (string, error)
}

// Extractor runs extractions, fetching first when given a URL.
type Extractor struct {
	fetcher Fetcher
	metrics *monitoring.Metrics
}

// NewExtractor creates an extractor that fetches through f.
func NewExtractor(f Fetcher) *Extractor {
	return &Extractor{fetcher: f}
}

// WithMetrics adds extraction counters
func (e *Extractor) WithMetrics(metrics *monitoring.Metrics) *Extractor {
	e.metrics = metrics
	return e
}

// ExtractFromHTML extracts from markup already in hand.
func (e *Extractor) ExtractFromHTML(html string) *ExtractedContent {
	result := ExtractFromHTML(html)
	e.record("html", "success", result.WordCount)
	return result
}

// ExtractFromURL fetches url once with UserAgent and extracts the body.
// Every failure is a *FetchError matching ErrFetch; nothing is parsed then.
func (e *Extractor) ExtractFromURL(ctx context.Context, url string) (*ExtractedContent, error) {
	text, err := e.fetcher.FetchText(ctx, url, UserAgent)
	if err != nil {
		e.record("url", "error", 0)
		return nil, &FetchError{URL: url, Err: err}
	}

	result := ExtractFromHTML(text)
	e.record("url", "success", result.WordCount)
	return result, nil
}

func (e *Extractor) record(source, status string, words int) {
	if e.metrics != nil {
		e.metrics.RecordExtraction(source, status, words)
	}
}
