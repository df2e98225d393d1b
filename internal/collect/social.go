// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/search"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// SocialTarget narrows social search to one account or one community.
// The zero value is a broad search across platforms.
type SocialTarget struct {
	User      string
	Subreddit string
}

// Validate rejects a target naming both an account and a community.
func (t SocialTarget) Validate() error {
	if t.User != "" && t.Subreddit != "" {
		return errors.New("user and subreddit targets are mutually exclusive")
	}
	return nil
}

// Mode returns "user", "subreddit" or "broad".
func (t SocialTarget) Mode() string {
	switch {
	case t.User != "":
		return "user"
	case t.Subreddit != "":
		return "subreddit"
	default:
		return "broad"
	}
}

// Query builds the site-restricted search for kw.
func (t SocialTarget) Query(kw string) string {
	switch t.Mode() {
	case "user":
		return fmt.Sprintf("%s (site:twitter.com/%s OR site:x.com/%s)", kw, t.User, t.User)
	case "subreddit":
		return fmt.Sprintf("%s site:reddit.com/r/%s", kw, t.Subreddit)
	default:
		return kw + " (site:twitter.com OR site:x.com OR site:reddit.com OR site:t.me)"
	}
}

// Author attributes a result found under this target.
func (t SocialTarget) Author(platform string) string {
	switch t.Mode() {
	case "user":
		return "@" + t.User
	case "subreddit":
		return "r/" + t.Subreddit
	default:
		return platform
	}
}

// Platform names the social platform hosting url.
func Platform(url string) string {
	host := search.HostOf(url)
	switch {
	case onDomain(host, "reddit.com", "redd.it"):
		return "Reddit"
	case onDomain(host, "t.me", "telegram.me", "telegram.org"):
		return "Telegram"
	case onDomain(host, "twitter.com", "x.com"):
		return "X (Twitter)"
	default:
		return "Unknown"
	}
}

// onDomain reports whether host is one of domains or a subdomain of one.
func onDomain(host string, domains ...string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// SocialCollector gathers SOCMINT posts through site-restricted web search.
type SocialCollector struct {
	Searcher search.Searcher
	Target   SocialTarget
	Keywords []string
	Limit    int
}

// Name implements Collector.
func (c *SocialCollector) Name() string { return "socmint" }

// Category implements Collector.
func (c *SocialCollector) Category() types.Category { return types.CategorySOCMINT }

// Collect implements Collector.
func (c *SocialCollector) Collect(ctx context.Context, sink Sink) error {
	if err := c.Target.Validate(); err != nil {
		return err
	}
	for _, kw := range c.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		results, err := c.Searcher.Text(ctx, c.Target.Query(kw), c.Limit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sink.Fail("keyword "+kw, err)
			continue
		}
		for _, r := range results {
			if r.URL == "" {
				continue
			}
			if err := sink.Submit(ctx, c.draft(kw, r)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *SocialCollector) draft(kw string, r search.Result) normalize.Draft {
	platform := Platform(r.URL)
	text := fmt.Sprintf("[%s] %s\n%s", platform, r.Title, r.Snippet)

	keyword := kw
	for _, tag := range normalize.ExtractHashtags(r.Snippet) {
		keyword += " #" + tag
	}
	return normalize.Draft{
		Category: types.CategorySOCMINT,
		SourceID: r.URL,
		Keyword:  keyword,
		RawText:  text,
		Author:   c.Target.Author(platform),
		Summary:  r.Snippet,
		Date:     r.Date,
		Classify: true,
	}
}
