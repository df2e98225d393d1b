// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

func countingServer(t *testing.T, handler func(n int32, w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(atomic.AddInt32(&calls, 1), w, r)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failFirst  int32
		status     int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", 0, http.StatusOK, 3, http.StatusOK, 1},
		{"retries then 200", 2, http.StatusOK, 3, http.StatusOK, 3},
		{"exhausts retries", 100, http.StatusOK, 2, http.StatusTooManyRequests, 3},
		{"default retries", 100, http.StatusOK, 0, http.StatusTooManyRequests, 4},
		{"non-429 passes through", 0, http.StatusInternalServerError, 3, http.StatusInternalServerError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := countingServer(t, func(n int32, w http.ResponseWriter, _ *http.Request) {
				if n <= tt.failFirst {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.WriteHeader(tt.status)
			})

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetryContextCancelled(t *testing.T) {
	ts, _ := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoWithRetryResendsBody(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	ts, calls := countingServer(t, func(n int32, w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"q":1}`))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`{"q":1}`, `{"q":1}`}, bodies)
}

func TestGetJSON(t *testing.T) {
	ts, _ := countingServer(t, func(_ int32, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "intel-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"kev","count":2}`))
	})

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, GetJSON(context.Background(), ts.Client(), ts.URL, "intel-test/1.0", &out))
	assert.Equal(t, "kev", out.Name)
	assert.Equal(t, 2, out.Count)
}

func TestGetJSONStatusError(t *testing.T) {
	ts, _ := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	var out map[string]any
	err := GetJSON(context.Background(), ts.Client(), ts.URL, "", &out)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusGone, se.Status)
	assert.Equal(t, "gone", se.Body)
}

func TestGetJSONMalformed(t *testing.T) {
	ts, _ := countingServer(t, func(_ int32, w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`))
	})

	var out map[string]any
	err := GetJSON(context.Background(), ts.Client(), ts.URL, "", &out)
	assert.ErrorContains(t, err, "decoding")
}
