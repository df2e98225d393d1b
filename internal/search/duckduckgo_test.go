// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/pkg/types"
)

const resultPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example.com/buy">Sponsored</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fnews.example.com%2Fa&amp;rut=x">Border <b>clash</b> reported</a></h2>
  <a class="result__url" href="#">news.example.com</a>
  <span class="result__timestamp">3 hours ago</span>
  <a class="result__snippet">Troops   were seen
  near the border.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://www.other.org/b?x=1">Second story</a>
  <a class="result__snippet">Snippet two.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="javascript:void(0)">Broken</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://third.net/c">Third</a>
</div>
</body></html>`

func withDuckServer(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := duckHTMLBase
	duckHTMLBase = ts.URL
	t.Cleanup(func() { duckHTMLBase = old })

	return &DuckDuckGo{
		Client: ts.Client(),
		Config: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent"},
			MaxResults: 10,
			Region:     "wt-wt",
		},
	}
}

func TestNewsParsesResults(t *testing.T) {
	var form url.Values
	d := withDuckServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		fmt.Fprint(w, resultPage)
	})

	results, err := d.News(context.Background(), "ukraine", 10)
	require.NoError(t, err)

	assert.Equal(t, "ukraine", form.Get("q"))
	assert.Equal(t, "w", form.Get("df"))
	assert.Equal(t, "wt-wt", form.Get("kl"))

	require.Len(t, results, 3)
	assert.Equal(t, Result{
		Title:   "Border clash reported",
		URL:     "https://news.example.com/a",
		Snippet: "Troops were seen near the border.",
		Source:  "news.example.com",
		Date:    "3 hours ago",
	}, results[0])
	assert.Equal(t, "https://www.other.org/b?x=1", results[1].URL)
	assert.Equal(t, "other.org", results[1].Source, "source falls back to the host")
	assert.Equal(t, "https://third.net/c", results[2].URL)
}

func TestTextHonorsLimit(t *testing.T) {
	d := withDuckServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Empty(t, r.PostForm.Get("df"))
		fmt.Fprint(w, resultPage)
	})

	results, err := d.Text(context.Background(), "ukraine news", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRateLimited(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"429", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"202", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) }},
		{"challenge page", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><div class="anomaly-modal__modal">are you a robot</div></html>`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := withDuckServer(t, tt.handler)
			_, err := d.News(context.Background(), "x", 5)
			assert.ErrorIs(t, err, ErrRateLimited)
		})
	}
}

func TestServerErrorIsNotRateLimit(t *testing.T) {
	d := withDuckServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := d.Text(context.Background(), "x", 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestEmptyQuery(t *testing.T) {
	d := &DuckDuckGo{}
	_, err := d.News(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestResolveRedirect(t *testing.T) {
	tests := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.com%2Fx": "https://a.com/x",
		"/l/?uddg=https%3A%2F%2Fb.com":                     "https://b.com",
		"https://c.com/page":                               "https://c.com/page",
		"javascript:void(0)":                               "",
		"":                                                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, resolveRedirect(in), in)
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "reddit.com", HostOf("https://www.Reddit.com/r/osint/comments/1"))
	assert.Equal(t, "t.me", HostOf("https://t.me/channel/5"))
	assert.Equal(t, "", HostOf("not a url"))
	assert.Equal(t, "x.com", HostOf("http://x.com:8080/a"))
}
