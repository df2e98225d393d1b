// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/pkg/types"
)

const articlePage = `<!doctype html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Cable damaged in the Baltic">
<meta name="author" content="Jane Reporter">
<meta property="article:author" content="Jane Reporter">
<script>var tracking = "<p>not text</p>";</script>
</head><body>
<nav><p>Home | World | Tech</p></nav>
<article>
  <p>A subsea   cable was damaged on Tuesday.</p>
  <p>Investigators are examining a <a href="/ship">vessel</a>.</p>
  <p>   </p>
</article>
<aside><p>Related stories</p></aside>
<p class="byline"><span class="author">Tom Second</span></p>
<footer><p>Copyright</p></footer>
</body></html>`

func TestParseArticle(t *testing.T) {
	a, err := ParseArticle(strings.NewReader(articlePage))
	require.NoError(t, err)

	assert.Equal(t, "Cable damaged in the Baltic", a.Title)
	assert.Equal(t, "A subsea cable was damaged on Tuesday.\n\nInvestigators are examining a vessel.", a.Text)
	assert.Equal(t, []string{"Jane Reporter", "Tom Second"}, a.Authors)
}

func TestParseArticleFallsBackToAllParagraphs(t *testing.T) {
	a, err := ParseArticle(strings.NewReader(`<html><head><title> Plain </title></head><body><div><p>One.</p><p>Two.</p></div></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Plain", a.Title)
	assert.Equal(t, "One.\n\nTwo.", a.Text)
	assert.Empty(t, a.Authors)
}

func TestHTMLExtractorExtract(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	}))
	defer ts.Close()

	e := &HTMLExtractor{
		Client: ts.Client(),
		Config: types.FetchConfig{HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent"}},
	}
	a, err := e.Extract(context.Background(), ts.URL+"/story")
	require.NoError(t, err)
	assert.Contains(t, a.Text, "subsea cable")
}

func TestHTMLExtractorErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) }},
		{"pdf", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.7"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			e := NewHTMLExtractor(types.FetchConfig{HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second}})
			_, err := e.Extract(context.Background(), ts.URL)
			assert.Error(t, err)
		})
	}
}
