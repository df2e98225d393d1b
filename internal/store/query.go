// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// GlobalTarget is the entity filter sentinel that disables entity matching.
const GlobalTarget = "global"

// Filter selects records for briefs, exports and maps. The zero value
// selects everything.
type Filter struct {
	// Since keeps records with timestamp >= Since. Zero means no bound.
	Since time.Time

	// Categories restricts to the listed categories when non-empty.
	Categories []types.Category

	// Target is a case-insensitive substring matched against country,
	// summary, raw_text and keyword (any of them). Empty or "global"
	// disables the match.
	Target string

	// MinLevel keeps records at or above this threat level when set.
	MinLevel types.ThreatLevel

	// LocatedOnly keeps records with both coordinates.
	LocatedOnly bool

	// Limit caps the result count. Zero means no cap.
	Limit int
}

// TargetActive reports whether the entity filter applies.
func (f Filter) TargetActive() bool {
	t := strings.TrimSpace(f.Target)
	return t != "" && !strings.EqualFold(t, GlobalTarget)
}

const selectColumns = `SELECT id, timestamp, category, source_id, keyword, raw_text, author,
	summary, country, threat_level, threat_score, confidence, latitude, longitude
	FROM intelligence`

// Window returns the records matching f, oldest first.
func (s *Store) Window(ctx context.Context, f Filter) ([]types.Record, error) {
	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(selectColumns)
	qb.WriteString(` WHERE 1=1`)

	if !f.Since.IsZero() {
		qb.WriteString(` AND timestamp >= ?`)
		args = append(args, formatTime(f.Since))
	}

	if len(f.Categories) > 0 {
		qb.WriteString(` AND category IN (`)
		for i, c := range f.Categories {
			if i > 0 {
				qb.WriteString(`, `)
			}
			qb.WriteString(`?`)
			args = append(args, string(c))
		}
		qb.WriteString(`)`)
	}

	if f.TargetActive() {
		// instr, not LIKE: % and _ in the target are literal.
		needle := strings.ToLower(strings.TrimSpace(f.Target))
		qb.WriteString(` AND (instr(ulower(country), ?) > 0
			OR instr(ulower(summary), ?) > 0
			OR instr(ulower(raw_text), ?) > 0
			OR instr(ulower(keyword), ?) > 0)`)
		args = append(args, needle, needle, needle, needle)
	}

	if rank := f.MinLevel.Rank(); f.MinLevel != "" && rank > 0 {
		var levels []string
		for _, l := range []types.ThreatLevel{types.ThreatLow, types.ThreatElevated, types.ThreatHigh, types.ThreatCritical} {
			if l.Rank() >= rank {
				levels = append(levels, "'"+string(l)+"'")
			}
		}
		qb.WriteString(` AND threat_level IN (` + strings.Join(levels, ", ") + `)`)
	}

	if f.LocatedOnly {
		qb.WriteString(` AND latitude IS NOT NULL AND longitude IS NOT NULL`)
	}

	qb.WriteString(` ORDER BY timestamp, id`)

	if f.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the record stored under sourceID. The bool is false when
// there is none.
func (s *Store) Get(ctx context.Context, sourceID string) (types.Record, bool, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE source_id = ?`, sourceID)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return types.Record{}, false, nil
	}
	if err != nil {
		return types.Record{}, false, err
	}
	return r, true, nil
}

// Counts returns the number of stored records per category. Categories
// with no records are present with a zero count.
func (s *Store) Counts(ctx context.Context) (map[types.Category]int, error) {
	counts := make(map[types.Category]int)
	for _, c := range types.AllCategories() {
		counts[c] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, count(*) FROM intelligence GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[types.Category(cat)] = n
	}
	return counts, rows.Err()
}

// Total returns the number of stored records.
func (s *Store) Total(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM intelligence`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.Record, error) {
	var (
		r        types.Record
		ts       string
		category string
		level    string
		lat, lon sql.NullFloat64
	)
	err := sc.Scan(&r.ID, &ts, &category, &r.SourceID, &r.Keyword, &r.RawText, &r.Author,
		&r.Summary, &r.Country, &level, &r.ThreatScore, &r.Confidence, &lat, &lon)
	if err == sql.ErrNoRows {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("scanning record: %w", err)
	}

	t, err := parseTime(ts)
	if err != nil {
		return r, fmt.Errorf("record %s: parsing timestamp %q: %w", r.SourceID, ts, err)
	}
	r.Timestamp = t
	r.Category = types.Category(category)
	r.ThreatLevel = types.ParseThreatLevel(level)
	if lat.Valid {
		v := lat.Float64
		r.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		r.Longitude = &v
	}
	return r, nil
}
