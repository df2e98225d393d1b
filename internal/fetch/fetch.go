// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch extracts the readable text of a web article.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/intel-engine/internal/httputil"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// maxPageBytes bounds how much of a page is read.
const maxPageBytes = 5 << 20

// Article is the extracted content of one page.
type Article struct {
	Title   string
	Text    string
	Authors []string
}

// Extractor fetches a URL and returns its article content.
type Extractor interface {
	Extract(ctx context.Context, url string) (Article, error)
}

// HTMLExtractor fetches pages with a plain HTTP client and reads paragraph
// text from the static markup.
type HTMLExtractor struct {
	Client *http.Client
	Config types.FetchConfig
}

// NewHTMLExtractor returns an extractor whose client enforces cfg.Timeout.
func NewHTMLExtractor(cfg types.FetchConfig) *HTMLExtractor {
	return &HTMLExtractor{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// Extract implements Extractor.
func (e *HTMLExtractor) Extract(ctx context.Context, url string) (Article, error) {
	if e.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Config.Timeout)
		defer cancel()
	}
	ua := e.Config.UserAgent
	if ua == "" {
		ua = types.BrowserUserAgent
	}
	resp, err := httputil.Get(ctx, e.Client, url, ua)
	if err != nil {
		return Article{}, err
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return Article{}, fmt.Errorf("%s: unsupported content type %q", url, ct)
	}
	return ParseArticle(io.LimitReader(resp.Body, maxPageBytes))
}

var noiseSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe, .advertisement, .ad"

// ParseArticle reads an HTML document and returns its title, paragraph text
// and any declared authors. Paragraphs inside article or main elements are
// preferred over the rest of the page.
func ParseArticle(r io.Reader) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Article{}, fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find(noiseSelectors).Remove()

	var a Article
	a.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	)

	for _, scope := range []string{"article p", "main p", "p"} {
		if text := paragraphs(doc.Find(scope)); text != "" {
			a.Text = text
			break
		}
	}

	seen := make(map[string]bool)
	addAuthor := func(s string) {
		s = normalize.CleanText(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		a.Authors = append(a.Authors, s)
	}
	doc.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("content")
		addAuthor(v)
	})
	doc.Find(`[rel="author"], .byline .author`).Each(func(_ int, s *goquery.Selection) {
		addAuthor(s.Text())
	})
	return a, nil
}

func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := normalize.CleanText(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = normalize.CleanText(v); v != "" {
			return v
		}
	}
	return ""
}
