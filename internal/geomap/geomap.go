// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geomap projects located records onto a map: a GeoJSON feature
// collection and a self-contained Leaflet page.
package geomap

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// CategoryColors are marker colors per category.
var CategoryColors = map[types.Category]string{
	types.CategoryOSINT:    "#3b82f6",
	types.CategorySOCMINT:  "#a855f7",
	types.CategoryGEOINT:   "#22c55e",
	types.CategoryCOMINT:   "#f97316",
	types.CategoryCYBINT:   "#ef4444",
	types.CategoryADSINT:   "#06b6d4",
	types.CategoryMARITINT: "#eab308",
}

// ThreatColors are popup heading colors per threat level.
var ThreatColors = map[types.ThreatLevel]string{
	types.ThreatCritical: "#7f1d1d",
	types.ThreatHigh:     "#dc2626",
	types.ThreatElevated: "#f97316",
	types.ThreatLow:      "#16a34a",
	types.ThreatUnknown:  "#6b7280",
}

const defaultColor = "#6b7280"

// Point is one located record as drawn on the map.
type Point struct {
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
	Category   types.Category    `json:"category"`
	Level      types.ThreatLevel `json:"threat_level"`
	Score      int               `json:"threat_score"`
	Summary    string            `json:"summary"`
	Country    string            `json:"country"`
	Keyword    string            `json:"keyword"`
	Confidence float64           `json:"confidence"`
	Timestamp  time.Time         `json:"timestamp"`
	SourceID   string            `json:"source_id"`

	Color       string `json:"color"`
	ThreatColor string `json:"threat_color"`
}

// Link returns the source URL when the source identifier is one.
func (p Point) Link() string {
	if strings.HasPrefix(p.SourceID, "http://") || strings.HasPrefix(p.SourceID, "https://") {
		return p.SourceID
	}
	return ""
}

// maxPopupSummary bounds the summary shown in a popup.
const maxPopupSummary = 200

// Points keeps the records that carry both coordinates, in input order.
func Points(records []types.Record) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		if !r.Located() {
			continue
		}
		summary := r.Summary
		if rs := []rune(summary); len(rs) > maxPopupSummary {
			summary = string(rs[:maxPopupSummary]) + "..."
		}
		points = append(points, Point{
			Lat:         *r.Latitude,
			Lon:         *r.Longitude,
			Category:    r.Category,
			Level:       r.ThreatLevel,
			Score:       r.ThreatScore,
			Summary:     summary,
			Country:     r.Country,
			Keyword:     r.Keyword,
			Confidence:  r.Confidence,
			Timestamp:   r.Timestamp.UTC(),
			SourceID:    r.SourceID,
			Color:       colorOr(CategoryColors[r.Category]),
			ThreatColor: colorOr(ThreatColors[r.ThreatLevel]),
		})
	}
	return points
}

func colorOr(c string) string {
	if c == "" {
		return defaultColor
	}
	return c
}

// Center returns the mean position and a zoom level. With no points it
// returns a world view.
func Center(points []Point) (lat, lon float64, zoom int) {
	if len(points) == 0 {
		return 30, 0, 2
	}
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return lat / n, lon / n, 5
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// WriteGeoJSON writes points as a FeatureCollection. Coordinates are
// longitude first.
func WriteGeoJSON(w io.Writer, points []Point) error {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(points))}
	for _, p := range points {
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: [2]float64{p.Lon, p.Lat}},
			Properties: map[string]any{
				"category":     p.Category,
				"threat_level": p.Level,
				"threat_score": p.Score,
				"summary":      p.Summary,
				"country":      p.Country,
				"keyword":      p.Keyword,
				"confidence":   p.Confidence,
				"timestamp":    p.Timestamp.Format(time.RFC3339),
				"source_id":    p.SourceID,
				"color":        p.Color,
			},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	return nil
}
