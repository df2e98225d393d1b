// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/intel-engine/internal/httputil"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/severity"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// kevEntry is the subset of a known-exploited-vulnerabilities catalog
// entry the collector reads.
type kevEntry struct {
	CVEID            string `json:"cveID"`
	VendorProject    string `json:"vendorProject"`
	Product          string `json:"product"`
	ShortDescription string `json:"shortDescription"`
}

type kevCatalog struct {
	Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
}

// CyberCollector gathers CYBINT from the exploited-vulnerability catalog
// and security news feeds.
type CyberCollector struct {
	Client *http.Client
	Config types.CyberConfig

	// Scorer labels feed entries. Nil uses the default vocabulary scorer.
	Scorer severity.Scorer

	// SkipCatalog and SkipFeeds disable one half of the collector.
	SkipCatalog bool
	SkipFeeds   bool

	// Now stamps catalog records. Nil uses the wall clock.
	Now func() time.Time
}

// Name implements Collector.
func (c *CyberCollector) Name() string { return "cybint" }

// Category implements Collector.
func (c *CyberCollector) Category() types.Category { return types.CategoryCYBINT }

// Collect implements Collector.
func (c *CyberCollector) Collect(ctx context.Context, sink Sink) error {
	if !c.SkipCatalog {
		if err := c.collectCatalog(ctx, sink); err != nil {
			if isFatal(ctx, err) {
				return err
			}
			sink.Fail("kev catalog", err)
		}
	}
	if c.SkipFeeds {
		return nil
	}

	for _, f := range c.Config.Feeds {
		if err := c.collectFeed(ctx, sink, f.Name, f.URL); err != nil {
			if isFatal(ctx, err) {
				return err
			}
			sink.Fail("feed "+f.Name, err)
		}
	}
	return nil
}

func (c *CyberCollector) collectCatalog(ctx context.Context, sink Sink) error {
	var catalog kevCatalog
	if err := httputil.GetJSON(ctx, c.client(), c.Config.KEVURL, c.Config.UserAgent, &catalog); err != nil {
		return err
	}

	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}

	entries := catalog.Vulnerabilities
	if c.Config.KEVLimit > 0 && len(entries) > c.Config.KEVLimit {
		entries = entries[:c.Config.KEVLimit]
	}
	for _, raw := range entries {
		var e kevEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			sink.Fail("kev entry", err)
			continue
		}
		if err := sink.Submit(ctx, kevDraft(e, raw, now)); err != nil {
			return err
		}
	}
	return nil
}

// kevDraft maps a catalog entry. Catalog entries are confirmed exploitation,
// so they carry a fixed critical label and skip the oracle. They are stamped
// at collection time; dateAdded stays in the raw entry.
func kevDraft(e kevEntry, raw json.RawMessage, collected time.Time) normalize.Draft {
	vendor := e.VendorProject
	if vendor == "" {
		vendor = "Unknown"
	}
	product := e.Product
	if product == "" {
		product = "Unknown"
	}
	return normalize.Draft{
		Category:    types.CategoryCYBINT,
		SourceID:    e.CVEID,
		Keyword:     vendor,
		RawText:     string(raw),
		Author:      "CISA KEV",
		Summary:     fmt.Sprintf("ACTIVE EXPLOIT: %s - %s - %s", e.CVEID, product, e.ShortDescription),
		Country:     "Global",
		ThreatLevel: types.ThreatCritical,
		ThreatScore: 95,
		Confidence:  1.0,
		Time:        collected,
	}
}

func (c *CyberCollector) collectFeed(ctx context.Context, sink Sink, name, url string) error {
	fp := gofeed.NewParser()
	fp.Client = c.client()
	fp.UserAgent = c.Config.UserAgent

	feedCtx := ctx
	if c.Config.Timeout > 0 {
		var cancel context.CancelFunc
		feedCtx, cancel = context.WithTimeout(ctx, c.Config.Timeout)
		defer cancel()
	}
	feed, err := fp.ParseURLWithContext(url, feedCtx)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", url, err)
	}

	scorer := c.Scorer
	if scorer == nil {
		scorer = severity.NewVocabularyScorer()
	}

	items := feed.Items
	if c.Config.FeedLimit > 0 && len(items) > c.Config.FeedLimit {
		items = items[:c.Config.FeedLimit]
	}
	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "No Title"
		}
		body := item.Description
		if body == "" {
			body = item.Content
		}

		level, score := scorer.Score(title, body)
		d := normalize.Draft{
			Category:    types.CategoryCYBINT,
			SourceID:    link,
			Keyword:     "Cyber News",
			RawText:     normalize.Truncate(body, 2000),
			Author:      name,
			Summary:     fmt.Sprintf("[%s] %s", name, title),
			Country:     "Global",
			ThreatLevel: level,
			ThreatScore: score,
			Date:        item.Published,
		}
		if item.PublishedParsed != nil {
			d.Time = *item.PublishedParsed
		}
		if err := sink.Submit(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (c *CyberCollector) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: c.Config.Timeout}
}
