// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/internal/brief"
	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

const kevBody = `{
  "title": "Known Exploited Vulnerabilities Catalog",
  "vulnerabilities": [
    {
      "cveID": "CVE-2024-0001",
      "vendorProject": "Acme",
      "product": "Widget Server",
      "shortDescription": "Remote code execution in the admin console.",
      "dateAdded": "2024-01-02"
    },
    {
      "cveID": "CVE-2024-0002",
      "vendorProject": "",
      "product": "",
      "shortDescription": "Path traversal.",
      "dateAdded": "2024-01-03"
    }
  ]
}`

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sec Blog</title>
    <link>https://sec.example</link>
    <description>Security news</description>
    <item>
      <title>New ransomware strain hits hospitals</title>
      <link>https://sec.example/1</link>
      <description>Operators demand payment in Monero.</description>
      <pubDate>Fri, 13 Mar 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Quarterly newsletter</title>
      <link>https://sec.example/2</link>
      <description>Product updates and events.</description>
    </item>
    <item>
      <title>Item without a link</title>
      <description>Dropped.</description>
    </item>
  </channel>
</rss>`

func cyberServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/kev.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, kevBody)
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func cyberConfig(srv *httptest.Server) types.CyberConfig {
	return types.CyberConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent"},
		KEVURL:     srv.URL + "/kev.json",
		KEVLimit:   20,
		FeedLimit:  10,
	}
}

func TestCyberCatalogRecordsAreCritical(t *testing.T) {
	srv := cyberServer(t)
	s := testStore(t)
	o := failingOracle()

	c := &CyberCollector{Config: cyberConfig(srv), SkipFeeds: true, Now: fixedNow}
	sum, err := testPipeline(s, o).Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Admitted)
	assert.Equal(t, 0, sum.Degraded)
	assert.Empty(t, o.texts, "catalog entries skip the oracle")

	got, ok, err := s.Get(context.Background(), "CVE-2024-0001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.CategoryCYBINT, got.Category)
	assert.Equal(t, types.ThreatCritical, got.ThreatLevel)
	assert.Equal(t, 95, got.ThreatScore)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "CISA KEV", got.Author)
	assert.Equal(t, "Acme", got.Keyword)
	assert.Equal(t, "Global", got.Country)
	assert.Equal(t, "ACTIVE EXPLOIT: CVE-2024-0001 - Widget Server - Remote code execution in the admin console.", got.Summary)
	assert.True(t, got.Timestamp.Equal(testNow), "stamped at collection, not dateAdded")
	assert.Contains(t, got.RawText, `"dateAdded": "2024-01-02"`)

	blank, ok, err := s.Get(context.Background(), "CVE-2024-0002")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Unknown", blank.Keyword)
	assert.Contains(t, blank.Summary, "- Unknown -")
}

func TestCyberCatalogCountsInCurrentBrief(t *testing.T) {
	srv := cyberServer(t)
	s := testStore(t)

	c := &CyberCollector{Config: cyberConfig(srv), SkipFeeds: true, Now: fixedNow}
	_, err := testPipeline(s, nil).Run(context.Background(), c)
	require.NoError(t, err)

	b, err := brief.Build(context.Background(), s, brief.Request{
		Target:   store.GlobalTarget,
		Window:   24 * time.Hour,
		GroupCap: 15,
		Now:      testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Stats.Items)
	assert.Equal(t, 2, b.Stats.Critical)
	assert.Equal(t, 1, b.Stats.AlertLevel)
}

func TestCyberCatalogLimit(t *testing.T) {
	srv := cyberServer(t)
	cfg := cyberConfig(srv)
	cfg.KEVLimit = 1

	sum, err := testPipeline(testStore(t), nil).Run(context.Background(), &CyberCollector{Config: cfg, SkipFeeds: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Admitted)
}

func TestCyberCatalogRerunSkips(t *testing.T) {
	srv := cyberServer(t)
	s := testStore(t)
	c := &CyberCollector{Config: cyberConfig(srv), SkipFeeds: true}

	_, err := testPipeline(s, nil).Run(context.Background(), c)
	require.NoError(t, err)
	sum, err := testPipeline(s, nil).Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Admitted)
	assert.Equal(t, 2, sum.Skipped)
}

func TestCyberFeedsScoreByVocabulary(t *testing.T) {
	srv := cyberServer(t)
	s := testStore(t)
	cfg := cyberConfig(srv)
	cfg.Feeds = []types.Feed{{Name: "Sec Blog", URL: srv.URL + "/feed"}}

	sum, err := testPipeline(s, nil).Run(context.Background(), &CyberCollector{Config: cfg, SkipCatalog: true})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Admitted)

	hit, ok, err := s.Get(context.Background(), "https://sec.example/1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.ThreatHigh, hit.ThreatLevel)
	assert.Equal(t, 75, hit.ThreatScore)
	assert.Equal(t, "Sec Blog", hit.Author)
	assert.Equal(t, "Cyber News", hit.Keyword)
	assert.Equal(t, "[Sec Blog] New ransomware strain hits hospitals", hit.Summary)
	assert.True(t, hit.Timestamp.Equal(time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC)))

	quiet, ok, err := s.Get(context.Background(), "https://sec.example/2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.ThreatUnknown, quiet.ThreatLevel)
	assert.Equal(t, 50, quiet.ThreatScore)
}

func TestCyberFailuresAreCountedPerUnit(t *testing.T) {
	srv := cyberServer(t)
	cfg := cyberConfig(srv)
	cfg.KEVURL = srv.URL + "/missing.json"
	cfg.Feeds = []types.Feed{
		{Name: "Broken", URL: srv.URL + "/gone"},
		{Name: "Sec Blog", URL: srv.URL + "/feed"},
	}

	sum, err := testPipeline(testStore(t), nil).Run(context.Background(), &CyberCollector{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed, "catalog and one feed")
	assert.Equal(t, 2, sum.Admitted)
}
