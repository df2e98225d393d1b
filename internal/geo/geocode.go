// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo resolves place names to coordinates and searches the public
// satellite imagery catalog.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"github.com/pdiddy/intel-engine/internal/httputil"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// ErrLocationNotFound is returned when the geocoder has no match.
var ErrLocationNotFound = errors.New("location not found")

// Location is a geocoded place.
type Location struct {
	Query       string  `json:"query"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Geocoder resolves a free-text place name.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Location, error)
}

// Nominatim queries an OpenStreetMap Nominatim server. Its usage policy
// requires an identifying User-Agent.
type Nominatim struct {
	Client *http.Client
	Config types.GeoConfig
}

// NewNominatim returns a geocoder bounded by cfg.Timeout.
func NewNominatim(cfg types.GeoConfig) *Nominatim {
	return &Nominatim{Client: &http.Client{Timeout: cfg.Timeout}, Config: cfg}
}

type nominatimPlace struct {
	Lat         any    `json:"lat"`
	Lon         any    `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Geocoder.
func (n *Nominatim) Geocode(ctx context.Context, query string) (Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Location{}, fmt.Errorf("empty location: %w", ErrLocationNotFound)
	}
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	reqURL := strings.TrimRight(n.Config.NominatimURL, "/") + "/search?" + params.Encode()

	ua := n.Config.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	var places []nominatimPlace
	if err := httputil.GetJSON(ctx, n.Client, reqURL, ua, &places); err != nil {
		return Location{}, fmt.Errorf("geocoding %q: %w", query, err)
	}
	if len(places) == 0 {
		return Location{}, fmt.Errorf("%q: %w", query, ErrLocationNotFound)
	}

	// Nominatim returns coordinates as strings.
	lat, err := cast.ToFloat64E(places[0].Lat)
	if err != nil {
		return Location{}, fmt.Errorf("geocoding %q: bad latitude: %w", query, err)
	}
	lon, err := cast.ToFloat64E(places[0].Lon)
	if err != nil {
		return Location{}, fmt.Errorf("geocoding %q: bad longitude: %w", query, err)
	}
	return Location{Query: query, DisplayName: places[0].DisplayName, Lat: lat, Lon: lon}, nil
}
