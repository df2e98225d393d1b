// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists intelligence records in SQLite. The source_id
// column is uniquely constrained; the store is the deduplication gate for
// every collector and the only source for briefs, exports and maps.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// timeLayout is the stored timestamp format. Fixed width and always UTC,
// so lexical comparison in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// driverName is go-sqlite3 with ulower registered on every connection.
// SQLite's own lower() folds ASCII only.
const driverName = "sqlite3_intel"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

// Store manages the intelligence SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at cfg.Path() and creates the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return Open(cfg.Path())
}

// Open opens the database file at path directly.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS intelligence (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			collected_at TEXT NOT NULL,
			category TEXT NOT NULL,
			source_id TEXT NOT NULL UNIQUE,
			keyword TEXT NOT NULL DEFAULT '',
			raw_text TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT 'Unknown',
			threat_level TEXT NOT NULL DEFAULT 'UNKNOWN',
			threat_score INTEGER NOT NULL DEFAULT 0 CHECK (threat_score BETWEEN 0 AND 100),
			confidence REAL NOT NULL DEFAULT 0.0 CHECK (confidence BETWEEN 0.0 AND 1.0),
			latitude REAL,
			longitude REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intelligence_timestamp ON intelligence(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_intelligence_category ON intelligence(category)`,
		`CREATE INDEX IF NOT EXISTS idx_intelligence_threat_level ON intelligence(threat_level)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Admit reports whether sourceID is not yet stored. Collectors call it
// before any expensive work on an item.
func (s *Store) Admit(ctx context.Context, sourceID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM intelligence WHERE source_id = ? LIMIT 1`, sourceID,
	).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return true, nil
	case err != nil:
		return false, fmt.Errorf("checking %s: %w", sourceID, err)
	default:
		return false, nil
	}
}

// Insert stores r in its own statement. A record whose source_id already
// exists is left untouched and Insert returns false with no error.
func (s *Store) Insert(ctx context.Context, r types.Record) (bool, error) {
	if r.Timestamp.IsZero() {
		return false, fmt.Errorf("inserting %s: timestamp is required", r.SourceID)
	}
	if !r.Category.Valid() {
		return false, fmt.Errorf("inserting %s: unknown category %q", r.SourceID, r.Category)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO intelligence (
			timestamp, collected_at, category, source_id, keyword, raw_text, author,
			summary, country, threat_level, threat_score, confidence, latitude, longitude
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO NOTHING`,
		formatTime(r.Timestamp),
		formatTime(time.Now()),
		string(r.Category),
		r.SourceID,
		r.Keyword,
		r.RawText,
		r.Author,
		r.Summary,
		r.Country,
		string(r.ThreatLevel),
		r.ThreatScore,
		r.Confidence,
		nullFloat(r.Latitude),
		nullFloat(r.Longitude),
	)
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", r.SourceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", r.SourceID, err)
	}
	return n == 1, nil
}

// Wipe deletes every record and returns how many were removed. It is the
// only delete path.
func (s *Store) Wipe(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM intelligence`)
	if err != nil {
		return 0, fmt.Errorf("wiping store: %w", err)
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
