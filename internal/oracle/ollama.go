// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// backoffBase controls the base duration for exponential backoff between
// classification attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// OllamaBackend calls an Ollama server's /api/generate endpoint.
type OllamaBackend struct {
	Host   string
	Model  string
	APIKey string
	Client *http.Client
	Logger *zap.Logger

	MaxRetries        int
	MaxInputChars     int
	ClassifyTimeout   time.Duration
	SynthesizeTimeout time.Duration
	ReportTimeout     time.Duration
}

// NewOllamaBackend builds a backend from configuration, filling defaults
// for unset limits.
func NewOllamaBackend(cfg types.OracleConfig, logger *zap.Logger) *OllamaBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &OllamaBackend{
		Host:              strings.TrimRight(cfg.Host, "/"),
		Model:             cfg.Model,
		APIKey:            cfg.APIKey,
		Client:            &http.Client{},
		Logger:            logger,
		MaxRetries:        cfg.MaxRetries,
		MaxInputChars:     cfg.MaxInputChars,
		ClassifyTimeout:   cfg.ClassifyTimeout,
		SynthesizeTimeout: cfg.SynthesizeTimeout,
		ReportTimeout:     cfg.ReportTimeout,
	}
	if b.MaxInputChars <= 0 {
		b.MaxInputChars = 2000
	}
	if b.ClassifyTimeout <= 0 {
		b.ClassifyTimeout = 60 * time.Second
	}
	if b.SynthesizeTimeout <= 0 {
		b.SynthesizeTimeout = 120 * time.Second
	}
	if b.ReportTimeout <= 0 {
		b.ReportTimeout = 180 * time.Second
	}
	return b
}

// generateRequest is the request body for /api/generate.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format,omitempty"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// generateResponse is the non-streaming response body.
type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Classify implements Oracle.
func (o *OllamaBackend) Classify(ctx context.Context, text string) types.Classification {
	prompt, err := render(classifyPromptTmpl, struct{ Text string }{
		Text: normalize.Truncate(text, o.MaxInputChars),
	})
	if err != nil {
		o.Logger.Error("rendering classification prompt", zap.Error(err))
		return types.FallbackClassification()
	}

	req := generateRequest{
		Model:   o.Model,
		Prompt:  prompt,
		Format:  "json",
		Options: generateOptions{Temperature: 0.1},
	}

	c, err := o.classifyWithRetry(ctx, req)
	if err != nil {
		o.Logger.Warn("classification degraded to fallback", zap.Error(err))
		return types.FallbackClassification()
	}
	return c
}

// classifyWithRetry retries transport and parse failures with exponential
// backoff. Each attempt gets its own ClassifyTimeout.
func (o *OllamaBackend) classifyWithRetry(ctx context.Context, req generateRequest) (types.Classification, error) {
	var lastErr error
	for attempt := 0; attempt <= o.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return types.Classification{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := o.generate(ctx, req, o.ClassifyTimeout)
		if err == nil {
			var c types.Classification
			c, err = parseClassification(raw)
			if err == nil {
				return c, nil
			}
		}
		lastErr = err
	}
	return types.Classification{}, fmt.Errorf("after %d retries: %w", o.MaxRetries, lastErr)
}

// Synthesize implements Oracle.
func (o *OllamaBackend) Synthesize(ctx context.Context, s Synthesis) (string, error) {
	prompt, err := renderSynthesis(s)
	if err != nil {
		return "", fmt.Errorf("rendering synthesis prompt: %w", err)
	}

	timeout := o.SynthesizeTimeout
	opts := generateOptions{Temperature: 0.1}
	if s.Kind == KindReport {
		timeout = o.ReportTimeout
		opts.NumPredict = 2000
	}

	text, err := o.generate(ctx, generateRequest{Model: o.Model, Prompt: prompt, Options: opts}, timeout)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("model returned an empty %s", s.Kind)
	}
	return text, nil
}

// Assess implements Oracle.
func (o *OllamaBackend) Assess(ctx context.Context, topic string) Assessment {
	prompt, err := render(assessPromptTmpl, struct{ Topic string }{Topic: topic})
	if err != nil {
		return FallbackAssessment(topic)
	}
	raw, err := o.generate(ctx, generateRequest{
		Model:   o.Model,
		Prompt:  prompt,
		Format:  "json",
		Options: generateOptions{Temperature: 0.2},
	}, o.ClassifyTimeout)
	if err != nil {
		o.Logger.Warn("topic assessment failed", zap.String("topic", topic), zap.Error(err))
		return FallbackAssessment(topic)
	}
	a, err := parseAssessment(raw, topic)
	if err != nil {
		o.Logger.Warn("topic assessment unparseable", zap.String("topic", topic), zap.Error(err))
		return FallbackAssessment(topic)
	}
	return a
}

// generate posts one non-streaming request and returns the response text.
func (o *OllamaBackend) generate(ctx context.Context, body generateRequest, timeout time.Duration) (string, error) {
	body.Stream = false
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Host+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("model returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decoding model response: %w", err)
	}
	if gr.Error != "" {
		return "", fmt.Errorf("model error: %s", gr.Error)
	}
	return gr.Response, nil
}
