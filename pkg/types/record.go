// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the intel-engine pipeline:
// the canonical intelligence record, its category and threat enumerations,
// the oracle classification result, and per-stage configuration.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Category is the intelligence discipline that produced a record.
type Category string

const (
	CategoryOSINT    Category = "OSINT"
	CategorySOCMINT  Category = "SOCMINT"
	CategoryGEOINT   Category = "GEOINT"
	CategoryCOMINT   Category = "COMINT"
	CategoryCYBINT   Category = "CYBINT"
	CategoryADSINT   Category = "ADSINT"
	CategoryMARITINT Category = "MARITINT"
)

// AllCategories returns every category in report order.
func AllCategories() []Category {
	return []Category{
		CategoryOSINT,
		CategorySOCMINT,
		CategoryGEOINT,
		CategoryCOMINT,
		CategoryCYBINT,
		CategoryADSINT,
		CategoryMARITINT,
	}
}

// ParseCategory maps user or storage input onto a Category. SIGNALS is an
// alias for COMINT. Anything outside the fixed set is an error.
func ParseCategory(s string) (Category, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "SIGNALS" {
		return CategoryCOMINT, nil
	}
	c := Category(v)
	if c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Label is the heading used in briefs and reports.
func (c Category) Label() string {
	if c == CategoryCOMINT {
		return "SIGNALS (COMINT)"
	}
	return string(c)
}

// ThreatLevel is the ordinal severity label on a record.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatElevated ThreatLevel = "ELEVATED"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
	ThreatUnknown  ThreatLevel = "UNKNOWN"
)

// ParseThreatLevel normalizes case and whitespace. Unrecognized labels
// become UNKNOWN.
func ParseThreatLevel(s string) ThreatLevel {
	switch l := ThreatLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case ThreatLow, ThreatElevated, ThreatHigh, ThreatCritical:
		return l
	default:
		return ThreatUnknown
	}
}

// Rank orders levels for filtering: UNKNOWN 0, LOW 1 ... CRITICAL 4.
func (l ThreatLevel) Rank() int {
	switch l {
	case ThreatLow:
		return 1
	case ThreatElevated:
		return 2
	case ThreatHigh:
		return 3
	case ThreatCritical:
		return 4
	default:
		return 0
	}
}

// Record is the canonical intelligence record. Every collector produces
// records of this shape and the store holds nothing else.
type Record struct {
	// ID is the store-assigned surrogate key. Zero until stored.
	ID int64 `json:"id" yaml:"id"`

	// Timestamp is the event time, or the ingestion time when the source
	// gives no usable date. Always UTC.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Category is the discipline that produced the record.
	Category Category `json:"category" yaml:"category"`

	// SourceID is the natural external key (article URL, CVE id, STAC item
	// id, composite detection key). Unique across the store.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Keyword is the collection term or tag that produced the record.
	Keyword string `json:"keyword" yaml:"keyword"`

	// RawText is the cleaned, size-capped source payload.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// Author is optional provenance: outlet, handle or community.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Summary is a short synopsis from the oracle or a deterministic string.
	Summary string `json:"summary" yaml:"summary"`

	// Country is a free-text geopolitical attribution. Defaults to "Unknown".
	Country string `json:"country" yaml:"country"`

	ThreatLevel ThreatLevel `json:"threat_level" yaml:"threat_level"`

	// ThreatScore is in [0,100].
	ThreatScore int `json:"threat_score" yaml:"threat_score"`

	// Confidence is in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// Located reports whether the record carries both coordinates.
func (r Record) Located() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Classification is the oracle's label for a piece of text. Degraded marks a
// fallback produced because the oracle could not be reached or understood.
type Classification struct {
	Summary     string      `json:"summary" yaml:"summary"`
	Country     string      `json:"country" yaml:"country"`
	ThreatLevel ThreatLevel `json:"threat_level" yaml:"threat_level"`
	ThreatScore int         `json:"threat_score" yaml:"threat_score"`
	Confidence  float64     `json:"confidence" yaml:"confidence"`
	Degraded    bool        `json:"degraded" yaml:"degraded"`
}

// FallbackSummary is the summary stored when classification fails.
const FallbackSummary = "Analysis failed due to model error."

// UnknownCountry is the default geopolitical attribution.
const UnknownCountry = "Unknown"

// FallbackClassification returns the fixed label used whenever the oracle
// fails.
func FallbackClassification() Classification {
	return Classification{
		Summary:     FallbackSummary,
		Country:     UnknownCountry,
		ThreatLevel: ThreatUnknown,
		ThreatScore: 0,
		Confidence:  0.0,
		Degraded:    true,
	}
}
