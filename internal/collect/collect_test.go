// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/internal/fetch"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/internal/search"
	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// --- test helpers ---

var testNow = time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(types.StoreConfig{
		DataDir: filepath.Join(t.TempDir(), "data"),
		DBName:  "test.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPipeline(g Gate, o oracle.Oracle) *Pipeline {
	return &Pipeline{
		Gate:       g,
		Oracle:     o,
		Normalizer: normalize.Normalizer{Now: fixedNow},
	}
}

// fakeOracle returns the same classification for every text and records
// what it was asked.
type fakeOracle struct {
	label types.Classification
	texts []string
}

func (f *fakeOracle) Classify(_ context.Context, text string) types.Classification {
	f.texts = append(f.texts, text)
	return f.label
}

func (f *fakeOracle) Synthesize(context.Context, oracle.Synthesis) (string, error) {
	return "", oracle.ErrDisabled
}

func (f *fakeOracle) Assess(_ context.Context, topic string) oracle.Assessment {
	return oracle.FallbackAssessment(topic)
}

// failingOracle behaves like a model that never answers.
func failingOracle() *fakeOracle {
	return &fakeOracle{label: types.FallbackClassification()}
}

type fakeSearcher struct {
	news    map[string][]search.Result
	text    map[string][]search.Result
	newsErr error
	textErr error

	newsQueries []string
	textQueries []string
}

func (f *fakeSearcher) News(_ context.Context, query string, _ int) ([]search.Result, error) {
	f.newsQueries = append(f.newsQueries, query)
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return f.news[query], nil
}

func (f *fakeSearcher) Text(_ context.Context, query string, _ int) ([]search.Result, error) {
	f.textQueries = append(f.textQueries, query)
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.text[query], nil
}

type fakeExtractor struct {
	articles map[string]fetch.Article
	calls    []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (fetch.Article, error) {
	f.calls = append(f.calls, url)
	a, ok := f.articles[url]
	if !ok {
		return fetch.Article{}, errors.New("no article")
	}
	return a, nil
}

// brokenGate fails every insert, as a full disk or locked database would.
type brokenGate struct{}

func (brokenGate) Admit(context.Context, string) (bool, error) { return true, nil }

func (brokenGate) Insert(context.Context, types.Record) (bool, error) {
	return false, errors.New("database is locked")
}

type countingRecorder struct {
	items     map[string]int
	durations map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{items: map[string]int{}, durations: map[string]int{}}
}

func (r *countingRecorder) Item(collector, outcome string) {
	r.items[collector+"/"+outcome]++
}

func (r *countingRecorder) Duration(collector string, _ time.Duration) {
	r.durations[collector]++
}

var longBody = strings.Repeat("Troop movements were reported near the border crossing. ", 5)

// --- news collection ---

func TestNewsCollectorAdmitsOnlyNewURLs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	existing := types.Record{
		Timestamp:   testNow.Add(-time.Hour),
		Category:    types.CategoryOSINT,
		SourceID:    "https://news.example/a",
		Keyword:     "border",
		RawText:     "old",
		Summary:     "old",
		Country:     types.UnknownCountry,
		ThreatLevel: types.ThreatLow,
	}
	_, err := s.Insert(ctx, existing)
	require.NoError(t, err)

	searcher := &fakeSearcher{news: map[string][]search.Result{
		"border": {
			{Title: "A", URL: "https://news.example/a", Snippet: "snippet a", Source: "Example"},
			{Title: "B", URL: "https://news.example/b", Snippet: "snippet b", Source: "Example", Date: "2026-03-14T09:00:00Z"},
		},
	}}
	extractor := &fakeExtractor{articles: map[string]fetch.Article{
		"https://news.example/b": {Title: "B", Text: longBody, Authors: []string{"Jane Roe"}},
	}}
	o := &fakeOracle{label: types.Classification{
		Summary: "Forces massing at the border.", Country: "Ukraine",
		ThreatLevel: types.ThreatHigh, ThreatScore: 80, Confidence: 0.9,
	}}

	c := &NewsCollector{Searcher: searcher, Extractor: extractor, Keywords: []string{"border"}, Limit: 5, MinTextLength: 100}
	sum, err := testPipeline(s, o).Run(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Admitted)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, []string{"https://news.example/b"}, extractor.calls, "known URL must not be fetched")
	require.Len(t, o.texts, 1)
	assert.Equal(t, strings.TrimSpace(longBody), o.texts[0])

	total, err := s.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	got, ok, err := s.Get(ctx, "https://news.example/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.CategoryOSINT, got.Category)
	assert.Equal(t, "border", got.Keyword)
	assert.Equal(t, "Jane Roe", got.Author)
	assert.Equal(t, "Ukraine", got.Country)
	assert.Equal(t, types.ThreatHigh, got.ThreatLevel)
	assert.Equal(t, 80, got.ThreatScore)
	assert.True(t, got.Timestamp.Equal(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)))
}

func TestNewsCollectorUsesSnippetForShortBodies(t *testing.T) {
	s := testStore(t)
	searcher := &fakeSearcher{news: map[string][]search.Result{
		"drone": {{Title: "T", URL: "https://news.example/c", Snippet: "short snippet"}},
	}}
	extractor := &fakeExtractor{articles: map[string]fetch.Article{
		"https://news.example/c": {Text: "tiny"},
	}}
	o := &fakeOracle{label: types.Classification{Summary: "s", ThreatLevel: types.ThreatLow, ThreatScore: 10}}

	c := &NewsCollector{Searcher: searcher, Extractor: extractor, Keywords: []string{"drone"}, MinTextLength: 100}
	_, err := testPipeline(s, o).Run(context.Background(), c)
	require.NoError(t, err)

	require.Len(t, o.texts, 1)
	assert.Equal(t, "short snippet", o.texts[0])

	got, ok, err := s.Get(context.Background(), "https://news.example/c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Web Search", got.Author)
}

func TestNewsCollectorMeasuresBodyInCharacters(t *testing.T) {
	// 40 Cyrillic letters: 80 bytes but only 40 characters.
	short := strings.Repeat("Ж", 40)
	long := strings.Repeat("Ж", 60)

	s := testStore(t)
	searcher := &fakeSearcher{news: map[string][]search.Result{
		"харків": {
			{Title: "A", URL: "https://news.example/ua-short", Snippet: "snippet a"},
			{Title: "B", URL: "https://news.example/ua-long", Snippet: "snippet b"},
		},
	}}
	extractor := &fakeExtractor{articles: map[string]fetch.Article{
		"https://news.example/ua-short": {Text: short},
		"https://news.example/ua-long":  {Text: long},
	}}
	o := &fakeOracle{label: types.Classification{Summary: "s", ThreatLevel: types.ThreatLow, ThreatScore: 10}}

	c := &NewsCollector{Searcher: searcher, Extractor: extractor, Keywords: []string{"харків"}, MinTextLength: 50}
	_, err := testPipeline(s, o).Run(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, []string{"snippet a", long}, o.texts)
}

func TestNewsCollectorFallsBackToTextSearch(t *testing.T) {
	s := testStore(t)
	searcher := &fakeSearcher{
		newsErr: search.ErrRateLimited,
		text: map[string][]search.Result{
			"missile news": {{Title: "M", URL: "https://news.example/m", Snippet: "launch reported"}},
		},
	}
	c := &NewsCollector{Searcher: searcher, Keywords: []string{"missile"}}
	sum, err := testPipeline(s, failingOracle()).Run(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, []string{"missile"}, searcher.newsQueries)
	assert.Equal(t, []string{"missile news"}, searcher.textQueries)
	assert.Equal(t, 1, sum.Admitted)
}

func TestNewsCollectorCountsFailedKeyword(t *testing.T) {
	s := testStore(t)
	searcher := &fakeSearcher{
		newsErr: search.ErrRateLimited,
		textErr: errors.New("connection reset"),
	}
	var out bytes.Buffer
	p := testPipeline(s, failingOracle())
	p.Out = &out

	c := &NewsCollector{Searcher: searcher, Keywords: []string{"alpha", " ", "beta"}}
	sum, err := p.Run(context.Background(), c)
	require.NoError(t, err, "a failed keyword does not fail the collector")

	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 0, sum.Admitted)
	assert.True(t, sum.HasFailures())
	assert.Contains(t, out.String(), "failed  keyword alpha")
	assert.Contains(t, out.String(), "failed  keyword beta")
}

func TestFailingOracleStoresFallbackLabel(t *testing.T) {
	s := testStore(t)
	searcher := &fakeSearcher{news: map[string][]search.Result{
		"ceasefire": {{Title: "C", URL: "https://news.example/ceasefire", Snippet: "talks stalled"}},
	}}
	rec := newCountingRecorder()
	p := testPipeline(s, failingOracle())
	p.Metrics = rec

	sum, err := p.Run(context.Background(), &NewsCollector{Searcher: searcher, Keywords: []string{"ceasefire"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Admitted)
	assert.Equal(t, 1, sum.Degraded)
	assert.Equal(t, 1, rec.items["osint/"+OutcomeDegraded])
	assert.Equal(t, 1, rec.durations["osint"])

	got, ok, err := s.Get(context.Background(), "https://news.example/ceasefire")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.ThreatUnknown, got.ThreatLevel)
	assert.Equal(t, 0, got.ThreatScore)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, types.FallbackSummary, got.Summary)
	assert.NotEmpty(t, got.Summary)
}

func TestDisabledOracleStoresFallbackLabel(t *testing.T) {
	s := testStore(t)
	searcher := &fakeSearcher{news: map[string][]search.Result{
		"kw": {{Title: "K", URL: "https://news.example/k", Snippet: "s"}},
	}}
	_, err := testPipeline(s, oracle.Disabled{}).Run(context.Background(), &NewsCollector{Searcher: searcher, Keywords: []string{"kw"}})
	require.NoError(t, err)

	got, ok, err := s.Get(context.Background(), "https://news.example/k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.ThreatUnknown, got.ThreatLevel)
	assert.Equal(t, types.FallbackSummary, got.Summary)
}

// --- pipeline ---

func TestSubmitRejectsEmptySourceID(t *testing.T) {
	s := testStore(t)
	sink := &runSink{p: testPipeline(s, nil), log: testPipeline(s, nil).logger()}

	err := sink.Submit(context.Background(), normalize.Draft{Category: types.CategoryOSINT})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.sum.Failed)
}

func TestSubmitCountsNormalizeFailure(t *testing.T) {
	s := testStore(t)
	sink := &runSink{p: testPipeline(s, nil), log: testPipeline(s, nil).logger()}

	err := sink.Submit(context.Background(), normalize.Draft{Category: "HUMINT", SourceID: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.sum.Failed)

	total, err := s.Total(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProgressLines(t *testing.T) {
	s := testStore(t)
	var out bytes.Buffer
	p := testPipeline(s, nil)
	p.Out = &out

	c := &MaritimeCollector{Region: MaritimeRegions["baltic"], Now: fixedNow}
	_, err := p.Run(context.Background(), c)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), c)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "new     MARITINT-Kaliningrad-20260314 [ELEVATED 55]")
	assert.Contains(t, out.String(), "skipped MARITINT-Kaliningrad-20260314")
}

func TestRunAllContinuesAfterCollectorError(t *testing.T) {
	s := testStore(t)
	collectors := []Collector{
		&SignalCollector{Path: filepath.Join(t.TempDir(), "missing.log")},
		&MaritimeCollector{Region: MaritimeRegions["black_sea"], Now: fixedNow},
	}
	run, err := RunAll(context.Background(), collectors, testPipeline(s, nil))
	require.NoError(t, err)

	assert.NotEmpty(t, run.RunID)
	require.Len(t, run.Collectors, 2)
	assert.Equal(t, 1, run.Collectors[0].Failed)
	assert.Equal(t, 2, run.Collectors[1].Admitted)

	totals := run.Totals()
	assert.Equal(t, 2, totals.Admitted)
	assert.Equal(t, 1, totals.Failed)
	assert.Equal(t, 3, totals.Total())
}

func TestRunAllAbortsOnStoreFailure(t *testing.T) {
	second := &fakeSearcher{}
	collectors := []Collector{
		&MaritimeCollector{Region: MaritimeRegions["baltic"], Now: fixedNow},
		&NewsCollector{Searcher: second, Keywords: []string{"never"}},
	}
	run, err := RunAll(context.Background(), collectors, testPipeline(brokenGate{}, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
	assert.Len(t, run.Collectors, 1)
	assert.Empty(t, second.newsQueries, "collectors after a store failure must not run")
}

func TestRunAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := RunAll(ctx, []Collector{&MaritimeCollector{Region: MaritimeRegions["baltic"]}}, testPipeline(testStore(t), nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, run.Collectors)
}
