// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/severity"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// SignalCollector scans decoded radio traffic for message patterns and
// records each match as COMINT. The text comes from Path or, when Path is
// empty, from Text (a single intercept given on the command line).
type SignalCollector struct {
	Path     string
	Text     string
	Detector *severity.SignalDetector

	Now func() time.Time
}

// ManualIntercept returns a collector for one intercept typed by an operator.
func ManualIntercept(text string) *SignalCollector {
	return &SignalCollector{Text: text}
}

// Name implements Collector.
func (c *SignalCollector) Name() string { return "signals" }

// Category implements Collector.
func (c *SignalCollector) Category() types.Category { return types.CategoryCOMINT }

// Collect implements Collector. A missing log file fails the run's single
// unit of work.
func (c *SignalCollector) Collect(ctx context.Context, sink Sink) error {
	text := c.Text
	if c.Path != "" {
		data, err := os.ReadFile(c.Path)
		if err != nil {
			return fmt.Errorf("reading signal log: %w", err)
		}
		text = string(data)
	}

	detector := c.Detector
	if detector == nil {
		detector = severity.NewSignalDetector()
	}
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}

	for _, sig := range detector.Detect(text) {
		if err := sink.Submit(ctx, signalDraft(sig, now)); err != nil {
			return err
		}
	}
	return nil
}

// SignalID is the content-derived source identifier of an intercept.
func SignalID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "SIGINT-" + hex.EncodeToString(sum[:])[:16]
}

func signalDraft(sig severity.Signal, now time.Time) normalize.Draft {
	return normalize.Draft{
		Category:    types.CategoryCOMINT,
		SourceID:    SignalID(sig.Content),
		Keyword:     "HFGCS",
		RawText:     sig.Content,
		Author:      "HFGCS intercept",
		Summary:     fmt.Sprintf("Intercepted %s: %s...", sig.Type, normalize.Truncate(sig.Content, 50)),
		Country:     "Global",
		ThreatLevel: sig.Level,
		ThreatScore: sig.Score,
		Confidence:  1.0,
		Time:        now,
	}
}
