// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package brief aggregates stored records into time-windowed, entity-scoped
// briefs: per-category text groups, severity statistics and the derived
// alert level. The groups feed narrative synthesis.
package brief

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// ErrNoIntelligence is returned when no record falls inside the window and
// entity filter. The accompanying Brief is empty, not zero-valued stats
// over nothing.
var ErrNoIntelligence = errors.New("no intelligence found")

// Default windows and group caps.
const (
	DefaultWindow      = 24 * time.Hour
	DefaultGroupCap    = 15
	DefaultReportHours = 72
	DefaultReportCap   = 20
)

// BroadTargets are report topics too general to filter by entity. A full
// report on any of them covers every record in the window.
var BroadTargets = []string{"cyber", "malware", "ransomware", "threat", store.GlobalTarget}

// IsBroad reports whether target is one of BroadTargets, ignoring case.
func IsBroad(target string) bool {
	t := strings.TrimSpace(target)
	for _, b := range BroadTargets {
		if strings.EqualFold(t, b) {
			return true
		}
	}
	return false
}

// Querier is the part of the store a brief reads.
type Querier interface {
	Window(ctx context.Context, f store.Filter) ([]types.Record, error)
}

// Request scopes one brief.
type Request struct {
	// Target is matched case-insensitively against country, summary, raw
	// text and keyword. "global" disables the match.
	Target string

	Window   time.Duration
	GroupCap int

	// Now anchors the window. Zero uses the wall clock.
	Now time.Time
}

// Group is one category's lines, oldest first.
type Group struct {
	Category types.Category
	Lines    []string

	// Total is the number of matching records before the cap.
	Total int
}

// Stats summarizes severity across all matching records.
type Stats struct {
	Items    int
	Critical int

	// MeanScore is the mean over nonzero threat scores; 0 when none.
	MeanScore  float64
	AlertLevel int
}

// Brief is the aggregation result.
type Brief struct {
	Target string
	Window time.Duration
	Since  time.Time
	Now    time.Time
	Groups []Group
	Stats  Stats
}

// Empty reports whether no record matched.
func (b Brief) Empty() bool {
	return b.Stats.Items == 0
}

// Build runs the windowed query and aggregates the result. When nothing
// matches it returns the empty Brief with ErrNoIntelligence.
func Build(ctx context.Context, q Querier, req Request) (Brief, error) {
	return build(ctx, q, req, req.Target)
}

// Report is Build for the full report: broad topics skip the entity filter
// and the window and cap default to the report values.
func Report(ctx context.Context, q Querier, req Request) (Brief, error) {
	if req.Window <= 0 {
		req.Window = DefaultReportHours * time.Hour
	}
	if req.GroupCap <= 0 {
		req.GroupCap = DefaultReportCap
	}
	filter := req.Target
	if IsBroad(filter) {
		filter = ""
	}
	return build(ctx, q, req, filter)
}

func build(ctx context.Context, q Querier, req Request, target string) (Brief, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	window := req.Window
	if window <= 0 {
		window = DefaultWindow
	}
	groupCap := req.GroupCap
	if groupCap <= 0 {
		groupCap = DefaultGroupCap
	}

	b := Brief{
		Target: strings.TrimSpace(req.Target),
		Window: window,
		Since:  now.Add(-window),
		Now:    now,
	}
	records, err := q.Window(ctx, store.Filter{Since: b.Since, Target: target})
	if err != nil {
		return b, fmt.Errorf("querying window: %w", err)
	}

	b.Groups = Groups(records, groupCap)
	b.Stats = ComputeStats(records)
	if b.Empty() {
		return b, ErrNoIntelligence
	}
	return b, nil
}

// Groups buckets records by category in category order, keeping input
// order within each bucket and at most groupCap lines. Every category has
// a group, possibly empty.
func Groups(records []types.Record, groupCap int) []Group {
	byCat := make(map[types.Category]*Group)
	var groups []Group
	for _, c := range types.AllCategories() {
		groups = append(groups, Group{Category: c})
	}
	for i := range groups {
		byCat[groups[i].Category] = &groups[i]
	}
	for _, r := range records {
		g, ok := byCat[r.Category]
		if !ok {
			continue
		}
		g.Total++
		if groupCap <= 0 || len(g.Lines) < groupCap {
			g.Lines = append(g.Lines, Line(r))
		}
	}
	return groups
}

// Line formats one record for a group: "[LEVEL] summary (country, keyword)".
func Line(r types.Record) string {
	return fmt.Sprintf("[%s] %s (%s, %s)", r.ThreatLevel, r.Summary, r.Country, r.Keyword)
}

// ComputeStats counts records and CRITICAL labels and averages the nonzero
// scores.
func ComputeStats(records []types.Record) Stats {
	s := Stats{Items: len(records)}
	var sum, n int
	for _, r := range records {
		if r.ThreatLevel == types.ThreatCritical {
			s.Critical++
		}
		if r.ThreatScore != 0 {
			sum += r.ThreatScore
			n++
		}
	}
	if n > 0 {
		s.MeanScore = float64(sum) / float64(n)
	}
	s.AlertLevel = AlertLevel(s.MeanScore, s.Critical)
	return s
}

// Synthesis converts the brief into the oracle's input.
func (b Brief) Synthesis(kind oracle.Kind, maxChars int) oracle.Synthesis {
	s := oracle.Synthesis{
		Kind:          kind,
		Target:        b.Target,
		Timestamp:     b.Now,
		ItemCount:     b.Stats.Items,
		CriticalCount: b.Stats.Critical,
		MeanScore:     b.Stats.MeanScore,
		AlertLevel:    b.Stats.AlertLevel,
		MaxChars:      maxChars,
	}
	for _, g := range b.Groups {
		s.Blocks = append(s.Blocks, oracle.Block{Label: g.Category.Label(), Lines: g.Lines})
		if len(g.Lines) > s.PerBlock {
			s.PerBlock = len(g.Lines)
		}
	}
	return s
}

// Context renders the per-category blocks as synthesis context text.
func (b Brief) Context(maxChars int) string {
	return b.Synthesis(oracle.KindBrief, maxChars).Context()
}
