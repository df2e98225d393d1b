// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/pkg/types"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// ollamaServer answers /api/generate with the handler's response text and
// records every request body.
func ollamaServer(t *testing.T, handler func(req generateRequest) (int, string)) (*httptest.Server, *[]generateRequest) {
	t.Helper()
	var seen []generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		seen = append(seen, req)
		status, text := handler(req)
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(generateResponse{Response: text})
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &seen
}

func testBackend(url string) *OllamaBackend {
	return NewOllamaBackend(types.OracleConfig{
		AIConfig:        types.AIConfig{Model: "test-model", MaxRetries: 2},
		Host:            url,
		MaxInputChars:   50,
		ClassifyTimeout: 2 * time.Second,
	}, nil)
}

func TestClassifySuccess(t *testing.T) {
	ts, seen := ollamaServer(t, func(generateRequest) (int, string) {
		return http.StatusOK, `{"summary":"Troop movement near border.","country":"Ukraine","threat_level":"high","threat_score":"72","confidence":0.8}`
	})

	got := testBackend(ts.URL).Classify(context.Background(), strings.Repeat("a", 500))

	assert.False(t, got.Degraded)
	assert.Equal(t, "Troop movement near border.", got.Summary)
	assert.Equal(t, "Ukraine", got.Country)
	assert.Equal(t, types.ThreatHigh, got.ThreatLevel)
	assert.Equal(t, 72, got.ThreatScore)
	assert.Equal(t, 0.8, got.Confidence)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, "json", req.Format)
	assert.False(t, req.Stream)
	assert.Contains(t, req.Prompt, "TEXT: "+strings.Repeat("a", 50)+"\n")
	assert.NotContains(t, req.Prompt, strings.Repeat("a", 51), "input is truncated")
}

func TestClassifyClampsOutOfRange(t *testing.T) {
	ts, _ := ollamaServer(t, func(generateRequest) (int, string) {
		return http.StatusOK, `{"summary":"","country":"","threat_level":"apocalyptic","threat_score":400,"confidence":-2}`
	})

	got := testBackend(ts.URL).Classify(context.Background(), "text")
	assert.False(t, got.Degraded)
	assert.Equal(t, types.ThreatUnknown, got.ThreatLevel)
	assert.Equal(t, 100, got.ThreatScore)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, types.UnknownCountry, got.Country)
	assert.NotEmpty(t, got.Summary)
}

func TestClassifyFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler func(generateRequest) (int, string)
	}{
		{"server error", func(generateRequest) (int, string) { return http.StatusInternalServerError, "" }},
		{"not json", func(generateRequest) (int, string) { return http.StatusOK, "I think it is bad." }},
		{"empty object", func(generateRequest) (int, string) { return http.StatusOK, "{}" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, seen := ollamaServer(t, tt.handler)
			got := testBackend(ts.URL).Classify(context.Background(), "text")

			assert.Equal(t, types.FallbackClassification(), got)
			assert.True(t, got.Degraded)
			assert.Len(t, *seen, 3, "one attempt plus two retries")
		})
	}
}

func TestClassifyRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts, _ := ollamaServer(t, func(generateRequest) (int, string) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return http.StatusServiceUnavailable, ""
		}
		return http.StatusOK, `{"summary":"ok","country":"Global","threat_level":"LOW","threat_score":10,"confidence":0.5}`
	})

	got := testBackend(ts.URL).Classify(context.Background(), "text")
	assert.False(t, got.Degraded)
	assert.Equal(t, types.ThreatLow, got.ThreatLevel)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClassifyUnreachableHost(t *testing.T) {
	b := testBackend("http://127.0.0.1:1")
	b.MaxRetries = 0
	got := b.Classify(context.Background(), "text")
	assert.Equal(t, types.FallbackClassification(), got)
}

func TestSynthesizeReport(t *testing.T) {
	ts, seen := ollamaServer(t, func(generateRequest) (int, string) {
		return http.StatusOK, "  1. EXECUTIVE SUMMARY\nQuiet.  "
	})

	s := Synthesis{
		Kind:          KindReport,
		Target:        "baltic",
		Timestamp:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		ItemCount:     3,
		CriticalCount: 1,
		MeanScore:     61.5,
		AlertLevel:    3,
		Blocks: []Block{
			{Label: "OSINT", Lines: []string{"[HIGH] cable cut (Finland, baltic)"}},
			{Label: "GEOINT"},
		},
	}
	out, err := testBackend(ts.URL).Synthesize(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "1. EXECUTIVE SUMMARY\nQuiet.", out)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Empty(t, req.Format)
	assert.Equal(t, 2000, req.Options.NumPredict)
	assert.Contains(t, req.Prompt, "TARGET: BALTIC")
	assert.Contains(t, req.Prompt, "AGGREGATE THREAT SCORE: 61.5/100")
	assert.Contains(t, req.Prompt, "=== OSINT INTELLIGENCE (1 items) ===")
	assert.Contains(t, req.Prompt, "Domains with no data in this run: GEOINT.")
	assert.Contains(t, req.Prompt, "NO COLLECTION")
	assert.Contains(t, req.Prompt, "Do not fabricate")
	assert.Contains(t, req.Prompt, "Do not include recommendations")
	assert.Contains(t, req.Prompt, "SOURCE of an item separate from its SUBJECT")
}

func TestSynthesizeBriefError(t *testing.T) {
	ts, _ := ollamaServer(t, func(generateRequest) (int, string) {
		return http.StatusBadGateway, ""
	})
	_, err := testBackend(ts.URL).Synthesize(context.Background(), Synthesis{Kind: KindBrief, Target: "x"})
	assert.Error(t, err)
}

func TestSynthesisContextCaps(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line")
	}
	s := Synthesis{Blocks: []Block{{Label: "CYBINT", Lines: lines}}, PerBlock: 20}
	ctx := s.Context()
	assert.Equal(t, 20, strings.Count(ctx, "line\n"))
	assert.Contains(t, ctx, "(30 items)")

	s.MaxChars = 10
	assert.Len(t, s.Context(), 10)
}

func TestAssess(t *testing.T) {
	ts, _ := ollamaServer(t, func(generateRequest) (int, string) {
		return http.StatusOK, `{"type":"event","keywords":["Taiwan","PLA"],"domains":["OSINT","SIGNALS","HUMINT"],"related_countries":["China"]}`
	})
	a := testBackend(ts.URL).Assess(context.Background(), "taiwan strait")
	assert.False(t, a.Degraded)
	assert.Equal(t, "event", a.Type)
	assert.Equal(t, []string{"Taiwan", "PLA"}, a.Keywords)
	assert.Equal(t, []string{"OSINT", "COMINT"}, a.Domains)
	assert.Equal(t, []string{"China"}, a.RelatedCountries)
}

func TestAssessFallback(t *testing.T) {
	ts, _ := ollamaServer(t, func(generateRequest) (int, string) {
		return http.StatusOK, "nope"
	})
	a := testBackend(ts.URL).Assess(context.Background(), "lazarus group")
	assert.Equal(t, FallbackAssessment("lazarus group"), a)
}

func TestDisabled(t *testing.T) {
	var o Oracle = Disabled{}
	assert.Equal(t, types.FallbackClassification(), o.Classify(context.Background(), "x"))
	_, err := o.Synthesize(context.Background(), Synthesis{})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.True(t, o.Assess(context.Background(), "x").Degraded)
}
