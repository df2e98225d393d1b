// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries a web search engine for news and general results.
// The OSINT and SOCMINT collectors depend only on the Searcher interface so
// tests can substitute canned results.
package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrRateLimited is returned when the engine throttles the caller. The news
// collector reacts by waiting and retrying in text mode.
var ErrRateLimited = errors.New("search rate limited")

// Result is one search hit.
type Result struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source is the publishing outlet or host.
	Source string `json:"source" yaml:"source"`

	// Date is the engine's date string, unparsed. It is often relative
	// ("3 hours ago") and is resolved by normalize.ParseDate.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Searcher runs keyword queries.
type Searcher interface {
	// News returns recent news results for query.
	News(ctx context.Context, query string, limit int) ([]Result, error)

	// Text returns general web results for query.
	Text(ctx context.Context, query string, limit int) ([]Result, error)
}

// HostOf returns the lowercased host of a URL without a leading "www.".
// It returns "" when u does not parse or has no host.
func HostOf(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
