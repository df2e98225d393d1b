// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// BrowserExtractor renders pages in headless Chrome before extraction, for
// sites that build their content with scripts. It needs a local Chrome or
// Chromium binary.
type BrowserExtractor struct {
	Config types.FetchConfig

	// Settle is how long to wait after the body is ready for late
	// script-inserted content (default 1s).
	Settle time.Duration
}

// Extract implements Extractor.
func (e *BrowserExtractor) Extract(ctx context.Context, url string) (Article, error) {
	timeout := e.Config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settle := e.Settle
	if settle <= 0 {
		settle = time.Second
	}
	ua := e.Config.UserAgent
	if ua == "" {
		ua = types.BrowserUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(ua))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, timeout+settle)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return Article{}, fmt.Errorf("rendering %s: %w", url, err)
	}
	return ParseArticle(strings.NewReader(html))
}
