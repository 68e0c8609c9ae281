package page

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/DannyMang/theta/internal/domain/content"
	"github.com/DannyMang/theta/internal/infrastructure/fetch"
)

const headingsXPath = "//*[name()='h1' or name()='h2' or name()='h3' or name()='h4' or name()='h5' or name()='h6']"

// Fetcher retrieves a document with its response metadata
type Fetcher interface {
	Fetch(ctx context.Context, url, userAgent string) (*fetch.Response, error)
}

// Analyzer turns fetched markup into a Page
type Analyzer struct {
	fetcher   Fetcher
	extractor *content.Extractor
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewAnalyzer creates an analyzer. The extractor is used for the
// plain-text part so its metrics cover pages too.
func NewAnalyzer(fetcher Fetcher, extractor *content.Extractor) *Analyzer {
	return &Analyzer{
		fetcher:   fetcher,
		extractor: extractor,
		sanitizer: bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

// Analyze fetches url once and analyzes the body
func (a *Analyzer) Analyze(ctx context.Context, url string) (*Page, error) {
	resp, err := a.fetcher.Fetch(ctx, url, content.UserAgent)
	if err != nil {
		return nil, &content.FetchError{URL: url, Err: err}
	}

	page, err := a.AnalyzeHTML(url, resp.Body)
	if err != nil {
		return nil, err
	}

	page.StatusCode = resp.StatusCode
	page.ContentType = resp.ContentType
	page.Charset = resp.Charset
	page.Truncated = resp.Truncated
	return page, nil
}

// AnalyzeHTML analyzes markup without fetching
func (a *Analyzer) AnalyzeHTML(url, markup string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Page{
		URL:         url,
		Content:     a.extractor.ExtractFromHTML(markup),
		HTML:        a.sanitizer.Sanitize(markup),
		Metadata:    extractMetadata(doc),
		Headings:    extractHeadings(doc.Nodes[0]),
		ExtractedAt: a.now().UTC(),
	}, nil
}

// extractMetadata collects meta tags keyed by property or name, plus the
// canonical link and document language. The first value for a key wins.
func extractMetadata(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	set := func(key, value string) {
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return
		}
		if _, exists := meta[key]; !exists {
			meta[key] = value
		}
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		value := s.AttrOr("content", "")
		if property := s.AttrOr("property", ""); property != "" {
			set(property, value)
			return
		}
		if name := s.AttrOr("name", ""); name != "" {
			set(name, value)
			return
		}
		if charset := s.AttrOr("charset", ""); charset != "" {
			set("charset", charset)
		}
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		set("canonical", href)
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		set("lang", lang)
	}

	return meta
}

func extractHeadings(root *html.Node) []Heading {
	headings := []Heading{}

	nodes, err := htmlquery.QueryAll(root, headingsXPath)
	if err != nil {
		return headings
	}

	for _, n := range nodes {
		text := strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
		if text == "" {
			continue
		}
		headings = append(headings, Heading{
			Level: int(n.Data[1] - '0'),
			Text:  text,
			ID:    htmlquery.SelectAttr(n, "id"),
		})
	}
	return headings
}
