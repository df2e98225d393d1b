// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps source-specific payloads onto the canonical
// intelligence record: text cleaning, size caps, loose date parsing and
// defaulting of missing fields.
package normalize

import (
	"errors"
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kennygrant/sanitize"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/pkg/types"
)

const (
	// MaxRawText is the cap on stored raw text, in runes.
	MaxRawText = 4000

	// maxFallbackSummary bounds a summary derived from raw text.
	maxFallbackSummary = 200
)

// ErrUnknownCategory is returned for drafts outside the fixed category set.
var ErrUnknownCategory = errors.New("unknown category")

// Draft is a collector's view of one external item before normalization.
// Only Category and SourceID are required.
type Draft struct {
	Category types.Category
	SourceID string
	Keyword  string
	RawText  string
	Author   string
	Summary  string
	Country  string

	ThreatLevel types.ThreatLevel
	ThreatScore int
	Confidence  float64

	// Date is the source's own date text. Time, when set, takes precedence.
	Date string
	Time time.Time

	Latitude  *float64
	Longitude *float64

	// Classify asks the pipeline to label the draft with the oracle.
	Classify bool

	// OracleText is the bounded text sent for classification. RawText is
	// used when empty.
	OracleText string
}

// Normalizer turns drafts into records. The zero value is usable.
type Normalizer struct {
	Logger *zap.Logger
	Now    func() time.Time
}

// Normalize fills every required record field. Missing optional fields
// degrade to documented defaults; an unparseable date falls back to the
// current time with a warning.
func (n Normalizer) Normalize(d Draft) (types.Record, error) {
	if !d.Category.Valid() {
		return types.Record{}, fmt.Errorf("%w: %q", ErrUnknownCategory, d.Category)
	}
	sourceID := strings.TrimSpace(d.SourceID)
	if sourceID == "" {
		return types.Record{}, errors.New("empty source identifier")
	}

	now := time.Now().UTC()
	if n.Now != nil {
		now = n.Now().UTC()
	}

	ts := d.Time.UTC()
	if d.Time.IsZero() {
		var ok bool
		ts, ok = ParseDate(d.Date, now)
		if !ok {
			n.logger().Warn("unparseable date, using ingestion time",
				zap.String("source_id", sourceID),
				zap.String("date", d.Date))
		}
	}

	raw := Truncate(CleanText(d.RawText), MaxRawText)

	summary := CleanText(d.Summary)
	if summary == "" {
		summary = Truncate(raw, maxFallbackSummary)
	}
	if summary == "" {
		summary = "No summary available."
	}

	country := CleanText(d.Country)
	if country == "" {
		country = types.UnknownCountry
	}

	return types.Record{
		Timestamp:   ts,
		Category:    d.Category,
		SourceID:    sourceID,
		Keyword:     CleanText(d.Keyword),
		RawText:     raw,
		Author:      CleanText(d.Author),
		Summary:     summary,
		Country:     country,
		ThreatLevel: types.ParseThreatLevel(string(d.ThreatLevel)),
		ThreatScore: ClampScore(d.ThreatScore),
		Confidence:  ClampConfidence(d.Confidence),
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
	}, nil
}

func (n Normalizer) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

// CleanText strips markup and control characters, collapses whitespace runs
// to a single space and trims the result.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<>") {
		// sanitize drops newlines inside markup, which would glue words.
		s = sanitize.HTML(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
	}
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate caps s at n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ClampScore bounds a threat score to [0,100].
func ClampScore(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// ClampConfidence bounds a confidence to [0,1]. NaN becomes 0.
func ClampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

var looseLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006 15:04",
	"January 2, 2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05",
}

var agoPattern = regexp.MustCompile(`(?i)^(\d+)\s+(second|minute|hour|day|week)s?\s+ago$`)

// ParseDate accepts ISO-8601, RFC-822 style and loose human formats, plus
// "N units ago". Empty input yields now with ok=true; anything unparseable
// yields now with ok=false. Results are UTC.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC(), true
	}
	if t, err := cast.ToTimeInDefaultLocationE(s, time.UTC); err == nil && !t.IsZero() {
		return t.UTC(), true
	}
	for _, layout := range looseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	if m := agoPattern.FindStringSubmatch(s); m != nil {
		unit := map[string]time.Duration{
			"second": time.Second,
			"minute": time.Minute,
			"hour":   time.Hour,
			"day":    24 * time.Hour,
			"week":   7 * 24 * time.Hour,
		}[strings.ToLower(m[2])]
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > math.MaxInt64/int64(unit) {
			return now.UTC(), false
		}
		return now.Add(-time.Duration(n) * unit).UTC(), true
	}
	return now.UTC(), false
}

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags returns the hashtags in s without the leading '#', in
// order of first appearance.
func ExtractHashtags(s string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, m := range hashtagPattern.FindAllStringSubmatch(s, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tags = append(tags, m[1])
	}
	return tags
}
