// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Region is a named latitude/longitude box.
type Region struct {
	Key    string
	Name   string
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Center returns the midpoint of the box.
func (r Region) Center() (lat, lon float64) {
	return (r.LatMin + r.LatMax) / 2, (r.LonMin + r.LonMax) / 2
}

// Contains reports whether the point lies inside the box.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lon >= r.LonMin && lon <= r.LonMax
}

// FlightRegions are the airspace presets.
var FlightRegions = map[string]Region{
	"ukraine":       {Key: "ukraine", Name: "Ukraine", LatMin: 44.0, LatMax: 52.5, LonMin: 22.0, LonMax: 40.5},
	"taiwan":        {Key: "taiwan", Name: "Taiwan", LatMin: 21.0, LatMax: 26.0, LonMin: 116.0, LonMax: 123.0},
	"baltic":        {Key: "baltic", Name: "Baltic", LatMin: 53.0, LatMax: 60.0, LonMin: 10.0, LonMax: 30.0},
	"korea":         {Key: "korea", Name: "Korea", LatMin: 33.0, LatMax: 43.0, LonMin: 124.0, LonMax: 132.0},
	"gulf":          {Key: "gulf", Name: "Gulf", LatMin: 23.0, LatMax: 32.0, LonMin: 47.0, LonMax: 60.0},
	"mediterranean": {Key: "mediterranean", Name: "Mediterranean", LatMin: 30.0, LatMax: 42.0, LonMin: -6.0, LonMax: 36.0},
	"global":        {Key: "global", Name: "Global", LatMin: -60.0, LatMax: 70.0, LonMin: -180.0, LonMax: 180.0},
}

// MaritimeRegions are the sea-area presets.
var MaritimeRegions = map[string]Region{
	"black_sea":       {Key: "black_sea", Name: "Black Sea", LatMin: 41.0, LatMax: 47.0, LonMin: 27.0, LonMax: 42.0},
	"baltic":          {Key: "baltic", Name: "Baltic Sea", LatMin: 53.0, LatMax: 60.0, LonMin: 10.0, LonMax: 30.0},
	"south_china_sea": {Key: "south_china_sea", Name: "South China Sea", LatMin: 5.0, LatMax: 22.0, LonMin: 105.0, LonMax: 120.0},
	"persian_gulf":    {Key: "persian_gulf", Name: "Persian Gulf", LatMin: 23.0, LatMax: 30.0, LonMin: 47.0, LonMax: 60.0},
	"taiwan_strait":   {Key: "taiwan_strait", Name: "Taiwan Strait", LatMin: 22.0, LatMax: 26.0, LonMin: 116.0, LonMax: 122.0},
	"mediterranean":   {Key: "mediterranean", Name: "Mediterranean Sea", LatMin: 30.0, LatMax: 45.0, LonMin: -6.0, LonMax: 36.0},
	"arctic":          {Key: "arctic", Name: "Arctic Ocean", LatMin: 65.0, LatMax: 85.0, LonMin: -180.0, LonMax: 180.0},
}

// LookupRegion finds a preset by case-insensitive key.
func LookupRegion(presets map[string]Region, key string) (Region, error) {
	r, ok := presets[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Region{}, fmt.Errorf("unknown region %q (available: %s)", key, strings.Join(RegionKeys(presets), ", "))
	}
	return r, nil
}

// RegionKeys lists preset keys in sorted order.
func RegionKeys(presets map[string]Region) []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseBounds parses "latMin,latMax,lonMin,lonMax" into a region named name.
func ParseBounds(name, s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("bounds %q: want latMin,latMax,lonMin,lonMax", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("bounds %q: %w", s, err)
		}
		v[i] = f
	}
	r := Region{Key: "custom", Name: name, LatMin: v[0], LatMax: v[1], LonMin: v[2], LonMax: v[3]}
	if r.LatMin > r.LatMax || r.LonMin > r.LonMax {
		return Region{}, fmt.Errorf("bounds %q: minimum exceeds maximum", s)
	}
	if r.LatMin < -90 || r.LatMax > 90 || r.LonMin < -180 || r.LonMax > 180 {
		return Region{}, fmt.Errorf("bounds %q: out of range", s)
	}
	if r.Name == "" {
		r.Name = "Custom"
	}
	return r, nil
}
