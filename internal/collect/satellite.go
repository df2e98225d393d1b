// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/intel-engine/internal/geo"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// SceneSearcher is the imagery catalog as the satellite collector sees it.
type SceneSearcher interface {
	Search(ctx context.Context, q geo.SceneQuery) ([]geo.Scene, error)
}

// SatelliteCollector records GEOINT imagery passes over named places.
type SatelliteCollector struct {
	Geocoder  geo.Geocoder
	Catalog   SceneSearcher
	Locations []string
	Config    types.GeoConfig

	// Now anchors the search window. Nil uses the wall clock.
	Now func() time.Time
}

// Name implements Collector.
func (c *SatelliteCollector) Name() string { return "geoint" }

// Category implements Collector.
func (c *SatelliteCollector) Category() types.Category { return types.CategoryGEOINT }

// Collect implements Collector. A location that does not geocode is
// abandoned without records.
func (c *SatelliteCollector) Collect(ctx context.Context, sink Sink) error {
	for _, name := range c.Locations {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := c.collectLocation(ctx, sink, name); err != nil {
			if isFatal(ctx, err) {
				return err
			}
			sink.Fail("location "+name, err)
		}
	}
	return nil
}

func (c *SatelliteCollector) collectLocation(ctx context.Context, sink Sink, name string) error {
	loc, err := c.Geocoder.Geocode(ctx, name)
	if err != nil {
		return err
	}

	end := time.Now().UTC()
	if c.Now != nil {
		end = c.Now().UTC()
	}
	days := c.Config.DaysBack
	if days <= 0 {
		days = 7
	}
	margin := c.Config.Margin
	if margin <= 0 {
		margin = 0.1
	}

	scenes, err := c.Catalog.Search(ctx, geo.SceneQuery{
		BBox:     geo.Around(loc, margin),
		Start:    end.AddDate(0, 0, -days),
		End:      end,
		CloudMax: c.Config.CloudMax,
		Limit:    c.Config.MaxItems,
	})
	if err != nil {
		return fmt.Errorf("imagery search for %s: %w", name, err)
	}

	for _, s := range scenes {
		if strings.TrimSpace(s.ID) == "" {
			sink.Fail(name, errors.New("scene without id"))
			continue
		}
		lat, lon := loc.Lat, loc.Lon
		date := s.Datetime.Format(time.RFC3339)
		if s.Datetime.IsZero() {
			date = "unknown"
		}
		d := normalize.Draft{
			Category: types.CategoryGEOINT,
			SourceID: "STAC:" + s.ID,
			Keyword:  name,
			RawText:  string(s.Properties),
			Author:   s.Collection,
			Summary: fmt.Sprintf("Satellite Pass: Sentinel-2. Cloud Cover: %s%%. Date: %s.",
				strconv.FormatFloat(s.CloudCover, 'f', -1, 64), date),
			Country:     name,
			ThreatLevel: types.ThreatUnknown,
			Time:        s.Datetime,
			Latitude:    &lat,
			Longitude:   &lon,
		}
		if err := sink.Submit(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
