// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package severity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// Signal is one flagged message structure found in intercept text.
type Signal struct {
	Type    string
	Content string
	Level   types.ThreatLevel
	Score   int
}

// Pattern is a named detector. Find returns the content of every match in
// text, in order.
type Pattern struct {
	Type  string
	Level types.ThreatLevel
	Score int
	Find  func(text string) []string
}

// SignalDetector applies its patterns in order.
type SignalDetector struct {
	Patterns []Pattern
}

// NewSignalDetector returns the detector with the two built-in emergency
// action message patterns.
func NewSignalDetector() *SignalDetector {
	return &SignalDetector{Patterns: []Pattern{SkykingPattern(), RepeatedHeaderPattern()}}
}

// Detect returns all signals found by all patterns.
func (d *SignalDetector) Detect(text string) []Signal {
	var out []Signal
	for _, p := range d.Patterns {
		for _, content := range p.Find(text) {
			out = append(out, Signal{
				Type:    p.Type,
				Content: content,
				Level:   p.Level,
				Score:   p.Score,
			})
		}
	}
	return out
}

var skykingRe = regexp.MustCompile(`(?i)SKYKING\s+SKYKING\s+Do\s+not\s+answer.*`)

// SkykingPattern flags priority broadcasts. The match runs to end of line.
func SkykingPattern() Pattern {
	return Pattern{
		Type:  "EAM-SKYKING",
		Level: types.ThreatCritical,
		Score: 90,
		Find: func(text string) []string {
			var out []string
			for _, m := range skykingRe.FindAllString(text, -1) {
				out = append(out, strings.TrimSpace(m))
			}
			return out
		},
	}
}

// eamRe captures two six-character headers and a body. The headers must be
// equal, which RE2 cannot express, so findRepeatedHeaders checks it.
var eamRe = regexp.MustCompile(`\b([A-Z0-9]{6})\s+([A-Z0-9]{6})\s+([A-Z0-9\s]{10,})\b`)

// RepeatedHeaderPattern flags messages that open with a repeated
// six-character alphanumeric header followed by a body of at least ten
// characters.
func RepeatedHeaderPattern() Pattern {
	return Pattern{
		Type:  "EAM-STANDARD",
		Level: types.ThreatHigh,
		Score: 60,
		Find:  findRepeatedHeaders,
	}
}

func findRepeatedHeaders(text string) []string {
	var out []string
	pos := 0
	for pos < len(text) {
		loc := eamRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		if start > 0 && isWordByte(text[start-1]) {
			pos = start + 1
			continue
		}
		h1 := text[pos+loc[2] : pos+loc[3]]
		h2 := text[pos+loc[4] : pos+loc[5]]
		if h1 != h2 {
			pos = start + 1
			continue
		}
		body := strings.TrimSpace(text[pos+loc[6] : pos+loc[7]])
		out = append(out, fmt.Sprintf("Header: %s | Body: %s", h1, body))
		pos += loc[1]
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
