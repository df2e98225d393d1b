// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package severity holds the heuristic scorers that assign a threat level
// without the oracle: a vocabulary scorer for security news and pattern
// detectors for intercepted signal traffic.
package severity

import (
	"strings"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// Scorer assigns a threat level and score to a set of text fields.
type Scorer interface {
	Score(fields ...string) (types.ThreatLevel, int)
}

// DefaultVocabulary is the high-threat term list used for security feeds.
var DefaultVocabulary = []string{
	"critical",
	"exploit",
	"zero-day",
	"0day",
	"ransomware",
	"breach",
	"attack",
	"malware",
	"vulnerability",
	"CVE-",
}

// VocabularyScorer escalates from a default tier to a match tier when any
// term appears in any field, case-insensitively.
type VocabularyScorer struct {
	Terms        []string
	Default      types.ThreatLevel
	DefaultScore int
	Match        types.ThreatLevel
	MatchScore   int
}

// NewVocabularyScorer returns the scorer used by the cyber feed collector:
// UNKNOWN/50 by default, HIGH/75 on a vocabulary hit.
func NewVocabularyScorer() *VocabularyScorer {
	terms := make([]string, len(DefaultVocabulary))
	copy(terms, DefaultVocabulary)
	return &VocabularyScorer{
		Terms:        terms,
		Default:      types.ThreatUnknown,
		DefaultScore: 50,
		Match:        types.ThreatHigh,
		MatchScore:   75,
	}
}

// WithTerms returns a copy of the scorer with extra terms appended.
func (v *VocabularyScorer) WithTerms(terms ...string) *VocabularyScorer {
	c := *v
	c.Terms = append(append([]string(nil), v.Terms...), terms...)
	return &c
}

// Score implements Scorer.
func (v *VocabularyScorer) Score(fields ...string) (types.ThreatLevel, int) {
	if v.Matches(fields...) {
		return v.Match, v.MatchScore
	}
	return v.Default, v.DefaultScore
}

// Matches reports whether any term occurs in any field.
func (v *VocabularyScorer) Matches(fields ...string) bool {
	for _, f := range fields {
		lf := strings.ToLower(f)
		for _, term := range v.Terms {
			if term != "" && strings.Contains(lf, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}
