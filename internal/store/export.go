// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// ExportFormat selects the serialization written by Export.
type ExportFormat string

const (
	FormatJSONL ExportFormat = "jsonl"
	FormatCSV   ExportFormat = "csv"
	FormatYAML  ExportFormat = "yaml"
)

// ParseExportFormat accepts jsonl (or json), csv and yaml.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch s {
	case "jsonl", "json", "":
		return FormatJSONL, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use jsonl, csv or yaml", s)
	}
}

// csvHeader is the flat column order for CSV exports.
var csvHeader = []string{
	"id", "timestamp", "category", "source_id", "keyword", "author", "summary",
	"country", "threat_level", "threat_score", "confidence", "latitude", "longitude",
	"raw_text",
}

// Export writes the records matching f to w and returns how many were written.
func (s *Store) Export(ctx context.Context, w io.Writer, format ExportFormat, f Filter) (int, error) {
	records, err := s.Window(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("querying for export: %w", err)
	}

	switch format {
	case FormatJSONL:
		err = WriteJSONL(w, records)
	case FormatCSV:
		err = WriteCSV(w, records)
	case FormatYAML:
		err = WriteYAML(w, records)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, records []types.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding %s: %w", r.SourceID, err)
		}
	}
	return nil
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.UTC().Format(time.RFC3339),
			string(r.Category),
			r.SourceID,
			r.Keyword,
			r.Author,
			r.Summary,
			r.Country,
			string(r.ThreatLevel),
			strconv.Itoa(r.ThreatScore),
			strconv.FormatFloat(r.Confidence, 'f', -1, 64),
			formatCoord(r.Latitude),
			formatCoord(r.Longitude),
			r.RawText,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.SourceID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML writes the records as a YAML sequence.
func WriteYAML(w io.Writer, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func formatCoord(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 6, 64)
}
