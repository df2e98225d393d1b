// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/pdiddy/intel-engine/internal/httputil"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// ErrAircraftNotFound is returned by TrackCallsign when no aircraft in the
// current airspace matches.
var ErrAircraftNotFound = errors.New("aircraft not found")

// MilitaryCallsignPrefixes are watched callsign prefixes.
var MilitaryCallsignPrefixes = []string{
	"RCH",    // USAF airlift
	"DUKE",   // special operations
	"EVIL",   // fighters
	"KNIFE",  // special operations
	"VIKING", // navy
	"DOOM",   // B-52
	"DEATH",  // B-1
	"BONE",   // B-1
	"GHOST",
	"SNAKE", // attack helicopters
	"ARROW",
	"NATO",
	"RRR",   // RAF tankers
	"MMF",   // French air force
	"IAM",   // Italian air force
	"GAF",   // German air force
	"FORTE", // RQ-4
	"LAGR",  // KC-135
}

// HighValueAircraft maps ICAO 24-bit addresses (upper-case hex) to known
// reconnaissance and command airframes.
var HighValueAircraft = map[string]string{
	"AE01D5": "USAF E-4B Nightwatch",
	"AE041B": "USAF RC-135V Rivet Joint",
	"AE0425": "USAF RC-135W Rivet Joint",
	"AE5420": "USAF E-6B Mercury (TACAMO)",
	"43C6C4": "RAF RC-135W Rivet Joint",
}

// Aircraft is one state vector.
type Aircraft struct {
	ICAO24    string
	Callsign  string
	Country   string
	Latitude  *float64
	Longitude *float64

	// Altitude is barometric altitude in meters; Velocity is ground speed
	// in m/s. Either may be absent.
	Altitude *float64
	Velocity *float64
}

// KnownName returns the high-value asset name for the airframe, if any.
func (a Aircraft) KnownName() (string, bool) {
	name, ok := HighValueAircraft[strings.ToUpper(a.ICAO24)]
	return name, ok
}

// MilitaryCallsign reports whether the callsign starts with a watched prefix.
func (a Aircraft) MilitaryCallsign() bool {
	cs := strings.ToUpper(a.Callsign)
	if cs == "" {
		return false
	}
	for _, p := range MilitaryCallsignPrefixes {
		if strings.HasPrefix(cs, p) {
			return true
		}
	}
	return false
}

// StateSource returns current aircraft states, optionally bounded.
type StateSource interface {
	States(ctx context.Context, bounds *Region) ([]Aircraft, error)
}

// OpenSky reads state vectors from the OpenSky Network REST API.
type OpenSky struct {
	Client *http.Client
	Config types.FlightConfig
}

// NewOpenSky returns a client bounded by cfg.Timeout.
func NewOpenSky(cfg types.FlightConfig) *OpenSky {
	return &OpenSky{Client: &http.Client{Timeout: cfg.Timeout}, Config: cfg}
}

type openSkyStates struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// States implements StateSource.
func (o *OpenSky) States(ctx context.Context, bounds *Region) ([]Aircraft, error) {
	u := strings.TrimRight(o.Config.OpenSkyURL, "/") + "/states/all"
	if bounds != nil {
		u += "?" + url.Values{
			"lamin": {fmtCoord(bounds.LatMin)},
			"lamax": {fmtCoord(bounds.LatMax)},
			"lomin": {fmtCoord(bounds.LonMin)},
			"lomax": {fmtCoord(bounds.LonMax)},
		}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if o.Config.UserAgent != "" {
		req.Header.Set("User-Agent", o.Config.UserAgent)
	}
	if o.Config.Username != "" {
		req.SetBasicAuth(o.Config.Username, o.Config.Password)
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenSky request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("OpenSky returned HTTP %d", resp.StatusCode)
	}

	var payload openSkyStates
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding OpenSky states: %w", err)
	}

	aircraft := make([]Aircraft, 0, len(payload.States))
	for _, s := range payload.States {
		if a, ok := parseState(s); ok {
			aircraft = append(aircraft, a)
		}
	}
	return aircraft, nil
}

// parseState reads the positional state vector: icao24, callsign,
// origin_country, time_position, last_contact, longitude, latitude,
// baro_altitude, on_ground, velocity, ...
func parseState(s []any) (Aircraft, bool) {
	if len(s) < 10 {
		return Aircraft{}, false
	}
	icao := strings.TrimSpace(cast.ToString(s[0]))
	if icao == "" {
		return Aircraft{}, false
	}
	return Aircraft{
		ICAO24:    icao,
		Callsign:  strings.TrimSpace(cast.ToString(s[1])),
		Country:   cast.ToString(s[2]),
		Longitude: optFloat(s[5]),
		Latitude:  optFloat(s[6]),
		Altitude:  optFloat(s[7]),
		Velocity:  optFloat(s[9]),
	}, true
}

func optFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

func fmtCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtMeasure(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*f, 'f', 0, 64)
}

// FlightCollector records ADSINT for watched aircraft inside a region.
type FlightCollector struct {
	Source StateSource
	Region Region

	// Now stamps the hourly source identifier. Nil uses the wall clock.
	Now func() time.Time
}

// Name implements Collector.
func (c *FlightCollector) Name() string { return "adsint" }

// Category implements Collector.
func (c *FlightCollector) Category() types.Category { return types.CategoryADSINT }

// Collect implements Collector.
func (c *FlightCollector) Collect(ctx context.Context, sink Sink) error {
	region := c.Region
	states, err := c.Source.States(ctx, &region)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}
	for _, a := range states {
		d, ok := flightDraft(a, now)
		if !ok {
			continue
		}
		if err := sink.Submit(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// flightDraft maps a watched aircraft. Unwatched aircraft return false.
// One record per airframe per hour.
func flightDraft(a Aircraft, now time.Time) (normalize.Draft, bool) {
	name, known := a.KnownName()
	if !known && !a.MilitaryCallsign() {
		return normalize.Draft{}, false
	}
	level, score := types.ThreatElevated, 50
	if known {
		level, score = types.ThreatHigh, 75
	} else {
		name = fmt.Sprintf("Military (%s)", a.Callsign)
	}
	keyword := a.Callsign
	if keyword == "" {
		keyword = a.ICAO24
	}
	return normalize.Draft{
		Category: types.CategoryADSINT,
		SourceID: fmt.Sprintf("ADSINT-%s-%s", a.ICAO24, now.Format("2006010215")),
		Keyword:  keyword,
		RawText:  fmt.Sprintf("ICAO: %s, Callsign: %s, Country: %s", a.ICAO24, a.Callsign, a.Country),
		Author:   "OpenSky Network",
		Summary: fmt.Sprintf("%s | Callsign: %s | Alt: %sm | Speed: %sm/s | Origin: %s",
			name, a.Callsign, fmtMeasure(a.Altitude), fmtMeasure(a.Velocity), a.Country),
		Country:     a.Country,
		ThreatLevel: level,
		ThreatScore: score,
		Confidence:  1.0,
		Time:        now,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
	}, true
}

// TrackCallsign finds the first aircraft whose callsign contains callsign,
// case-insensitively, anywhere in current airspace. Nothing is stored.
func TrackCallsign(ctx context.Context, src StateSource, callsign string) (Aircraft, error) {
	want := strings.ToUpper(strings.TrimSpace(callsign))
	if want == "" {
		return Aircraft{}, errors.New("empty callsign")
	}
	states, err := src.States(ctx, nil)
	if err != nil {
		return Aircraft{}, err
	}
	for _, a := range states {
		if a.Callsign != "" && strings.Contains(strings.ToUpper(a.Callsign), want) {
			return a, nil
		}
	}
	return Aircraft{}, fmt.Errorf("%s: %w", callsign, ErrAircraftNotFound)
}
