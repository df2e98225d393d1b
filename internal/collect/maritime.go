// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// FixtureAuthor marks maritime records built from the curated activity
// table rather than a live AIS feed.
const FixtureAuthor = "curated fixture (not live AIS)"

// MaritimeFixture is one entry of the curated regional activity table.
type MaritimeFixture struct {
	Name   string
	Type   string
	Lat    float64
	Lon    float64
	Detail string
}

// MaritimeFixtures holds the curated activity per sea area.
var MaritimeFixtures = map[string][]MaritimeFixture{
	"black_sea": {
		{Name: "Russian Black Sea Fleet", Type: "NAVAL ACTIVITY", Lat: 44.62, Lon: 33.52, Detail: "Sevastopol naval base activity"},
		{Name: "Turkish Straits", Type: "CHOKEPOINT", Lat: 41.01, Lon: 29.00, Detail: "Bosphorus transit monitoring"},
	},
	"south_china_sea": {
		{Name: "Spratly Islands", Type: "DISPUTED ZONE", Lat: 10.0, Lon: 114.0, Detail: "Artificial island militarization"},
		{Name: "PLA Navy Patrol", Type: "NAVAL PATROL", Lat: 15.5, Lon: 112.0, Detail: "Carrier group activity"},
	},
	"baltic": {
		{Name: "Kaliningrad", Type: "NAVAL BASE", Lat: 54.71, Lon: 20.51, Detail: "Russian Baltic Fleet"},
		{Name: "Gotland", Type: "STRATEGIC ZONE", Lat: 57.5, Lon: 18.5, Detail: "Swedish defensive perimeter"},
	},
	"persian_gulf": {
		{Name: "Strait of Hormuz", Type: "CHOKEPOINT", Lat: 26.5, Lon: 56.5, Detail: "Oil tanker transit zone"},
		{Name: "US 5th Fleet", Type: "NAVAL PRESENCE", Lat: 26.22, Lon: 50.58, Detail: "Bahrain naval base"},
	},
	"taiwan_strait": {
		{Name: "PLA Eastern Theater", Type: "NAVAL ACTIVITY", Lat: 24.5, Lon: 118.0, Detail: "Amphibious exercise zone"},
		{Name: "Taiwan Navy", Type: "DEFENSIVE PATROL", Lat: 24.0, Lon: 120.5, Detail: "ROC Navy patrol routes"},
	},
}

// Vessel is a high-value ship in the curated table.
type Vessel struct {
	MMSI string
	Name string
}

// HighValueVessels maps MMSI to vessel name.
var HighValueVessels = map[string]string{
	"367200000": "USS Gerald R. Ford (CVN-78)",
	"369970000": "USS Abraham Lincoln (CVN-72)",
	"273541000": "Admiral Kuznetsov (Russia)",
	"412000001": "Liaoning (China)",
	"412000002": "Shandong (China)",
	"232002000": "HMS Queen Elizabeth",
	"232003000": "HMS Prince of Wales",
}

// LookupVessel finds a curated vessel by exact MMSI or by case-insensitive
// name fragment. Matching is in MMSI order so results are stable.
func LookupVessel(query string) (Vessel, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Vessel{}, false
	}
	if name, ok := HighValueVessels[q]; ok {
		return Vessel{MMSI: q, Name: name}, true
	}
	mmsis := make([]string, 0, len(HighValueVessels))
	for m := range HighValueVessels {
		mmsis = append(mmsis, m)
	}
	sort.Strings(mmsis)
	upper := strings.ToUpper(q)
	for _, m := range mmsis {
		if strings.Contains(strings.ToUpper(HighValueVessels[m]), upper) {
			return Vessel{MMSI: m, Name: HighValueVessels[m]}, true
		}
	}
	return Vessel{}, false
}

// fixturesFor returns the curated entries for a region, or one generic
// monitoring entry at the region center when none apply.
func fixturesFor(r Region) []MaritimeFixture {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(r.Name))
	if r.Key != "" && r.Key != "custom" {
		key = r.Key
	}

	keys := make([]string, 0, len(MaritimeFixtures))
	for k := range MaritimeFixtures {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []MaritimeFixture
	for _, k := range keys {
		if key == "" {
			break
		}
		if strings.Contains(key, k) || strings.Contains(k, key) {
			out = append(out, MaritimeFixtures[k]...)
		}
	}
	if len(out) == 0 {
		lat, lon := r.Center()
		out = []MaritimeFixture{{
			Name:   "Maritime Zone " + r.Name,
			Type:   "MONITORING",
			Lat:    lat,
			Lon:    lon,
			Detail: "General maritime surveillance",
		}}
	}
	return out
}

// MaritimeCollector records MARITINT for a sea area from the curated
// activity table. Every record is attributed to FixtureAuthor.
type MaritimeCollector struct {
	Region Region

	// Now stamps the daily source identifier. Nil uses the wall clock.
	Now func() time.Time
}

// Name implements Collector.
func (c *MaritimeCollector) Name() string { return "maritint" }

// Category implements Collector.
func (c *MaritimeCollector) Category() types.Category { return types.CategoryMARITINT }

// Collect implements Collector.
func (c *MaritimeCollector) Collect(ctx context.Context, sink Sink) error {
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}
	for _, f := range fixturesFor(c.Region) {
		lat, lon := f.Lat, f.Lon
		d := normalize.Draft{
			Category:    types.CategoryMARITINT,
			SourceID:    fmt.Sprintf("MARITINT-%s-%s", strings.ReplaceAll(f.Name, " ", "-"), now.Format("20060102")),
			Keyword:     f.Type,
			RawText:     fmt.Sprintf("%s: %s", f.Name, f.Detail),
			Author:      FixtureAuthor,
			Summary:     fmt.Sprintf("%s | %s | %s", f.Name, f.Type, f.Detail),
			Country:     c.Region.Name,
			ThreatLevel: types.ThreatElevated,
			ThreatScore: 55,
			Confidence:  0.7,
			Time:        now,
			Latitude:    &lat,
			Longitude:   &lon,
		}
		if err := sink.Submit(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
