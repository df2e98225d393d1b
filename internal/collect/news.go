// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/intel-engine/internal/fetch"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/search"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// NewsCollector gathers OSINT web news for a set of keywords.
type NewsCollector struct {
	Searcher  search.Searcher
	Extractor fetch.Extractor
	Keywords  []string

	// Limit is the number of results requested per keyword.
	Limit int

	// FallbackDelay is the pause before the text-mode retry.
	FallbackDelay time.Duration

	// MinTextLength is the shortest extracted body accepted before the
	// search snippet is used instead.
	MinTextLength int

	// MaxBodyChars bounds the body sent to the oracle.
	MaxBodyChars int
}

// Name implements Collector.
func (c *NewsCollector) Name() string { return "osint" }

// Category implements Collector.
func (c *NewsCollector) Category() types.Category { return types.CategoryOSINT }

// Collect implements Collector.
func (c *NewsCollector) Collect(ctx context.Context, sink Sink) error {
	for _, kw := range c.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		results, err := c.search(ctx, kw)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sink.Fail("keyword "+kw, err)
			continue
		}
		for _, r := range results {
			if err := c.ingest(ctx, sink, kw, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// search runs the news query, falling back to a text query after a pause
// when the news mode fails.
func (c *NewsCollector) search(ctx context.Context, kw string) ([]search.Result, error) {
	results, err := c.Searcher.News(ctx, kw, c.Limit)
	if err == nil {
		return results, nil
	}
	if err := sleepCtx(ctx, c.FallbackDelay); err != nil {
		return nil, err
	}
	results, err2 := c.Searcher.Text(ctx, kw+" news", c.Limit)
	if err2 != nil {
		return nil, fmt.Errorf("news search: %w; text search: %v", err, err2)
	}
	return results, nil
}

func (c *NewsCollector) ingest(ctx context.Context, sink Sink, kw string, r search.Result) error {
	if r.URL == "" {
		return nil
	}
	ok, err := sink.Admit(ctx, r.URL)
	if err != nil || !ok {
		return err
	}

	body := ""
	author := r.Source
	if c.Extractor != nil {
		if a, err := c.Extractor.Extract(ctx, r.URL); err == nil {
			body = normalize.CleanText(a.Text)
			if len(a.Authors) > 0 {
				author = strings.Join(a.Authors, ", ")
			}
		}
	}
	if body == "" || utf8.RuneCountInString(body) < c.MinTextLength {
		body = r.Snippet
	}
	if author == "" {
		author = "Web Search"
	}

	maxBody := c.MaxBodyChars
	if maxBody <= 0 {
		maxBody = 3000
	}
	return sink.Submit(ctx, normalize.Draft{
		Category:   types.CategoryOSINT,
		SourceID:   r.URL,
		Keyword:    kw,
		RawText:    r.Title + "\n\n" + body,
		Author:     author,
		Summary:    r.Snippet,
		Date:       r.Date,
		Classify:   true,
		OracleText: normalize.Truncate(body, maxBody),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
