// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// duckHTMLBase is the DuckDuckGo HTML endpoint. Declared as a var so tests
// can substitute an httptest server.
var duckHTMLBase = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the engine's JavaScript-free result page.
type DuckDuckGo struct {
	Client *http.Client
	Config types.SearchConfig
}

// NewDuckDuckGo returns a searcher with a client bounded by cfg.Timeout.
func NewDuckDuckGo(cfg types.SearchConfig) *DuckDuckGo {
	return &DuckDuckGo{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// News implements Searcher. Results are restricted to the past week.
func (d *DuckDuckGo) News(ctx context.Context, query string, limit int) ([]Result, error) {
	return d.search(ctx, url.Values{"q": {query}, "df": {"w"}}, limit)
}

// Text implements Searcher.
func (d *DuckDuckGo) Text(ctx context.Context, query string, limit int) ([]Result, error) {
	return d.search(ctx, url.Values{"q": {query}}, limit)
}

func (d *DuckDuckGo) search(ctx context.Context, params url.Values, limit int) ([]Result, error) {
	if strings.TrimSpace(params.Get("q")) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = d.Config.MaxResults
	}
	if d.Config.Region != "" {
		params.Set("kl", d.Config.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, duckHTMLBase, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ua := d.Config.UserAgent
	if ua == "" {
		ua = types.BrowserUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusAccepted:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d: %w", resp.StatusCode, ErrRateLimited)
	default:
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	return parseResults(resp.Body, limit)
}

// parseResults extracts hits from a result page. A page carrying the
// bot-challenge form is reported as ErrRateLimited.
func parseResults(r io.Reader, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing result page: %w", err)
	}
	if doc.Find(".anomaly-modal__modal, #challenge-form").Length() > 0 {
		return nil, fmt.Errorf("challenge page: %w", ErrRateLimited)
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		res := Result{
			Title:   normalize.CleanText(link.Text()),
			URL:     target,
			Snippet: normalize.CleanText(s.Find(".result__snippet").First().Text()),
			Source:  normalize.CleanText(s.Find(".result__url").First().Text()),
			Date:    normalize.CleanText(s.Find(".result__timestamp").First().Text()),
		}
		if res.Source == "" {
			res.Source = HostOf(target)
		}
		results = append(results, res)
		return true
	})
	return results, nil
}

// resolveRedirect unwraps the engine's click-tracking link
// (//duckduckgo.com/l/?uddg=<target>) to the destination URL.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
