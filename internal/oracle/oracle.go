// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oracle labels text and composes narrative reports through an
// external language model. Classification never fails from the caller's
// point of view: any error yields the fixed fallback label, marked Degraded.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// ErrDisabled is returned by Synthesize when no model is configured.
var ErrDisabled = errors.New("oracle disabled")

// Oracle abstracts the language model so tests and --no-oracle runs can
// supply their own implementation.
type Oracle interface {
	// Classify labels text. It never returns an error; failures produce
	// types.FallbackClassification().
	Classify(ctx context.Context, text string) types.Classification

	// Synthesize composes a narrative from pre-aggregated blocks.
	Synthesize(ctx context.Context, s Synthesis) (string, error)

	// Assess suggests a collection plan for a topic. Failures produce
	// FallbackAssessment(topic).
	Assess(ctx context.Context, topic string) Assessment
}

// Kind selects the synthesis prompt.
type Kind string

const (
	// KindBrief is the short situation report.
	KindBrief Kind = "brief"

	// KindReport is the full multi-section assessment.
	KindReport Kind = "report"
)

// Block is one category's lines of context.
type Block struct {
	Label string
	Lines []string
}

// Synthesis is the pre-aggregated input to Synthesize.
type Synthesis struct {
	Kind          Kind
	Target        string
	Timestamp     time.Time
	ItemCount     int
	CriticalCount int
	MeanScore     float64
	AlertLevel    int
	Blocks        []Block

	// PerBlock caps the lines taken from each block (default 20).
	PerBlock int

	// MaxChars caps the rendered context (default 8000).
	MaxChars int
}

// Context renders the blocks as the text handed to the model. Blocks with
// no lines are omitted; the prompt tells the model how to report them.
func (s Synthesis) Context() string {
	perBlock := s.PerBlock
	if perBlock <= 0 {
		perBlock = 20
	}
	maxChars := s.MaxChars
	if maxChars <= 0 {
		maxChars = 8000
	}

	var b strings.Builder
	for _, blk := range s.Blocks {
		if len(blk.Lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "=== %s INTELLIGENCE (%d items) ===\n", blk.Label, len(blk.Lines))
		lines := blk.Lines
		if len(lines) > perBlock {
			lines = lines[:perBlock]
		}
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return normalize.Truncate(b.String(), maxChars)
}

// EmptyDomains lists the labels of blocks with no lines.
func (s Synthesis) EmptyDomains() []string {
	var out []string
	for _, blk := range s.Blocks {
		if len(blk.Lines) == 0 {
			out = append(out, blk.Label)
		}
	}
	return out
}

// Assessment is the model's suggested collection plan for a topic.
type Assessment struct {
	Type             string   `json:"type" yaml:"type"`
	Keywords         []string `json:"keywords" yaml:"keywords"`
	Domains          []string `json:"domains" yaml:"domains"`
	RelatedCountries []string `json:"related_countries" yaml:"related_countries"`
	Degraded         bool     `json:"degraded" yaml:"degraded"`
}

// FallbackAssessment is returned when assessment fails.
func FallbackAssessment(topic string) Assessment {
	return Assessment{
		Type:             "unknown",
		Keywords:         []string{topic},
		Domains:          []string{"OSINT", "CYBINT"},
		RelatedCountries: []string{},
		Degraded:         true,
	}
}

// Disabled is an Oracle that never calls out.
type Disabled struct{}

// Classify implements Oracle.
func (Disabled) Classify(context.Context, string) types.Classification {
	return types.FallbackClassification()
}

// Synthesize implements Oracle.
func (Disabled) Synthesize(context.Context, Synthesis) (string, error) {
	return "", ErrDisabled
}

// Assess implements Oracle.
func (Disabled) Assess(_ context.Context, topic string) Assessment {
	return FallbackAssessment(topic)
}

// parseClassification decodes the model's JSON answer. Models return
// numbers as strings often enough that score and confidence go through
// cast rather than strict typing.
func parseClassification(raw string) (types.Classification, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &m); err != nil {
		return types.Classification{}, fmt.Errorf("parsing classification JSON: %w", err)
	}
	if len(m) == 0 {
		return types.Classification{}, errors.New("empty classification object")
	}

	score, err := cast.ToFloat64E(m["threat_score"])
	if err != nil {
		score = 0
	}
	confidence, err := cast.ToFloat64E(m["confidence"])
	if err != nil {
		confidence = 0
	}

	c := types.Classification{
		Summary:     normalize.CleanText(cast.ToString(m["summary"])),
		Country:     normalize.CleanText(cast.ToString(m["country"])),
		ThreatLevel: types.ParseThreatLevel(cast.ToString(m["threat_level"])),
		ThreatScore: normalize.ClampScore(int(score + 0.5)),
		Confidence:  normalize.ClampConfidence(confidence),
	}
	if c.Summary == "" {
		c.Summary = "No summary provided."
	}
	if c.Country == "" {
		c.Country = types.UnknownCountry
	}
	return c, nil
}

func parseAssessment(raw, topic string) (Assessment, error) {
	var a Assessment
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return Assessment{}, fmt.Errorf("parsing assessment JSON: %w", err)
	}
	if a.Type == "" {
		a.Type = "unknown"
	}
	if len(a.Keywords) == 0 {
		a.Keywords = []string{topic}
	}
	var domains []string
	for _, d := range a.Domains {
		if c, err := types.ParseCategory(d); err == nil {
			domains = append(domains, string(c))
		}
	}
	if len(domains) == 0 {
		domains = []string{"OSINT", "CYBINT"}
	}
	a.Domains = domains
	if a.RelatedCountries == nil {
		a.RelatedCountries = []string{}
	}
	return a, nil
}
