// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// DefaultUserAgent identifies the engine to APIs that require a contact
// string (Nominatim, OpenSky).
const DefaultUserAgent = "intel-engine/0.1 (+https://github.com/pdiddy/intel-engine)"

// BrowserUserAgent is sent to sites that reject non-browser clients
// (search result pages, news articles, RSS hosts).
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the text-analysis model.
type AIConfig struct {
	// Model is the model identifier (e.g. "llama3.2:3b").
	Model string `json:"model" yaml:"model"`

	// APIKey is sent as a bearer token when the model host sits behind a proxy.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	// DataDir holds the database, exports and rendered maps.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DBName is the database file name inside DataDir.
	DBName string `json:"db_name" yaml:"db_name"`
}

// Path returns the database file path.
func (c StoreConfig) Path() string {
	return filepath.Join(c.DataDir, c.DBName)
}

// OracleConfig holds settings for the classification and synthesis model.
type OracleConfig struct {
	AIConfig `yaml:",inline"`

	// Host is the base URL of the Ollama server.
	Host string `json:"host" yaml:"host"`

	// Enabled turns classification on. When false every record gets the
	// fallback label without a network call.
	Enabled bool `json:"enabled" yaml:"enabled"`

	ClassifyTimeout   time.Duration `json:"classify_timeout" yaml:"classify_timeout"`
	SynthesizeTimeout time.Duration `json:"synthesize_timeout" yaml:"synthesize_timeout"`
	ReportTimeout     time.Duration `json:"report_timeout" yaml:"report_timeout"`

	// MaxInputChars bounds the text submitted for classification.
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`
}

// SearchConfig holds settings for the web and social search collectors.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the number of results requested per keyword (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// FallbackDelay is the pause before the secondary search mode after a
	// rate limit (default 2s).
	FallbackDelay time.Duration `json:"fallback_delay" yaml:"fallback_delay"`

	// Region is the search engine region code (default "wt-wt").
	Region string `json:"region" yaml:"region"`
}

// FetchConfig holds settings for full-text article extraction.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinTextLength is the shortest extracted text accepted before falling
	// back to the search snippet (default 100).
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`

	// MaxBodyChars bounds the body submitted to the oracle (default 3000).
	MaxBodyChars int `json:"max_body_chars" yaml:"max_body_chars"`

	// Render selects the headless browser extractor.
	Render bool `json:"render" yaml:"render"`
}

// CyberConfig holds settings for the vulnerability catalog and security feeds.
type CyberConfig struct {
	HTTPConfig `yaml:",inline"`

	// KEVURL is the known-exploited-vulnerabilities catalog.
	KEVURL string `json:"kev_url" yaml:"kev_url"`

	// KEVLimit is the number of catalog entries considered per run (default 20).
	KEVLimit int `json:"kev_limit" yaml:"kev_limit"`

	// FeedLimit is the number of entries considered per feed (default 10).
	FeedLimit int `json:"feed_limit" yaml:"feed_limit"`

	// Feeds are the security news feeds, polled in order.
	Feeds []Feed `json:"feeds" yaml:"feeds"`
}

// Feed is one RSS or Atom source. Name is used as the record author.
type Feed struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// GeoConfig holds settings for geocoding and the imagery catalog.
type GeoConfig struct {
	HTTPConfig `yaml:",inline"`

	NominatimURL string `json:"nominatim_url" yaml:"nominatim_url"`
	STACURL      string `json:"stac_url" yaml:"stac_url"`
	Collection   string `json:"collection" yaml:"collection"`

	// Margin is the half-width in degrees of the search box around the
	// geocoded point (default 0.1).
	Margin float64 `json:"margin" yaml:"margin"`

	DaysBack int     `json:"days_back" yaml:"days_back"`
	CloudMax float64 `json:"cloud_max" yaml:"cloud_max"`
	MaxItems int     `json:"max_items" yaml:"max_items"`

	// RedisAddr enables the shared geocode cache when set (host:port).
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// CacheTTL is how long a geocode answer stays cached (default 30 days).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// FlightConfig holds settings for the live aircraft state API.
type FlightConfig struct {
	HTTPConfig `yaml:",inline"`

	OpenSkyURL string `json:"opensky_url" yaml:"opensky_url"`

	// Username and Password are optional OpenSky credentials for higher
	// rate limits.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// BriefConfig holds aggregation defaults.
type BriefConfig struct {
	// Hours is the default brief lookback (default 24).
	Hours int `json:"hours" yaml:"hours"`

	// GroupCap bounds the lines per category in a brief (default 15).
	GroupCap int `json:"group_cap" yaml:"group_cap"`

	// ReportHours is the default full-report lookback (default 72).
	ReportHours int `json:"report_hours" yaml:"report_hours"`

	// ReportCap bounds the lines per category in a full report (default 20).
	ReportCap int `json:"report_cap" yaml:"report_cap"`

	// ContextChars bounds the synthesis context (default 8000).
	ContextChars int `json:"context_chars" yaml:"context_chars"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig controls run metrics output.
type MetricsConfig struct {
	// File receives a Prometheus text exposition after each collection run.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ServeConfig holds settings for the read-only HTTP surface.
type ServeConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// SweepConfig is the collection plan run by the sweep command. A domain
// whose inputs are empty (no keywords, no locations, no signal file) is
// skipped.
type SweepConfig struct {
	// Domains lists the categories to collect, in run order.
	Domains []string `json:"domains" yaml:"domains"`

	// Keywords drive OSINT and SOCMINT.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Locations are geocoded for GEOINT.
	Locations []string `json:"locations,omitempty" yaml:"locations,omitempty"`

	FlightRegion string `json:"flight_region" yaml:"flight_region"`
	SeaRegion    string `json:"sea_region" yaml:"sea_region"`

	// SignalFile is the COMINT intercept log.
	SignalFile string `json:"signal_file,omitempty" yaml:"signal_file,omitempty"`

	// Limit is the per-keyword result count (default 10).
	Limit int `json:"limit" yaml:"limit"`
}

// Config groups all stage configurations.
type Config struct {
	Store   StoreConfig   `json:"store" yaml:"store"`
	Oracle  OracleConfig  `json:"oracle" yaml:"oracle"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Cyber   CyberConfig   `json:"cyber" yaml:"cyber"`
	Geo     GeoConfig     `json:"geo" yaml:"geo"`
	Flight  FlightConfig  `json:"flight" yaml:"flight"`
	Brief   BriefConfig   `json:"brief" yaml:"brief"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Serve   ServeConfig   `json:"serve" yaml:"serve"`
	Sweep   SweepConfig   `json:"sweep" yaml:"sweep"`
}

// DefaultFeeds is the built-in set of security news feeds.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "The Hacker News", URL: "http://feeds.feedburner.com/TheHackersNews"},
		{Name: "BleepingComputer", URL: "https://www.bleepingcomputer.com/feed/"},
		{Name: "Krebs on Security", URL: "https://krebsonsecurity.com/feed/"},
		{Name: "Dark Reading", URL: "https://www.darkreading.com/rss.xml"},
		{Name: "US-CERT Alerts", URL: "https://www.cisa.gov/uscert/ncas/alerts.xml"},
		{Name: "Threatpost", URL: "https://threatpost.com/feed/"},
		{Name: "SecurityWeek", URL: "https://feeds.feedburner.com/securityweek"},
	}
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			DataDir: "data",
			DBName:  "intel.db",
		},
		Oracle: OracleConfig{
			AIConfig: AIConfig{
				Model:      "llama3.2:3b",
				MaxRetries: 2,
			},
			Host:              "http://localhost:11434",
			Enabled:           true,
			ClassifyTimeout:   60 * time.Second,
			SynthesizeTimeout: 120 * time.Second,
			ReportTimeout:     180 * time.Second,
			MaxInputChars:     2000,
		},
		Search: SearchConfig{
			HTTPConfig:    HTTPConfig{Timeout: 20 * time.Second, UserAgent: BrowserUserAgent},
			MaxResults:    10,
			FallbackDelay: 2 * time.Second,
			Region:        "wt-wt",
		},
		Fetch: FetchConfig{
			HTTPConfig:    HTTPConfig{Timeout: 10 * time.Second, UserAgent: BrowserUserAgent},
			MinTextLength: 100,
			MaxBodyChars:  3000,
		},
		Cyber: CyberConfig{
			HTTPConfig: HTTPConfig{Timeout: 15 * time.Second, UserAgent: BrowserUserAgent},
			KEVURL:     "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json",
			KEVLimit:   20,
			FeedLimit:  10,
			Feeds:      DefaultFeeds(),
		},
		Geo: GeoConfig{
			HTTPConfig:   HTTPConfig{Timeout: 30 * time.Second, UserAgent: DefaultUserAgent},
			NominatimURL: "https://nominatim.openstreetmap.org",
			STACURL:      "https://earth-search.aws.element84.com/v1",
			Collection:   "sentinel-2-l2a",
			Margin:       0.1,
			DaysBack:     7,
			CloudMax:     50,
			MaxItems:     10,
			CacheTTL:     30 * 24 * time.Hour,
		},
		Flight: FlightConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: DefaultUserAgent},
			OpenSkyURL: "https://opensky-network.org/api",
		},
		Brief: BriefConfig{
			Hours:        24,
			GroupCap:     15,
			ReportHours:  72,
			ReportCap:    20,
			ContextChars: 8000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
		Sweep: SweepConfig{
			Domains:      []string{"OSINT", "SOCMINT", "CYBINT", "GEOINT", "ADSINT", "MARITINT", "COMINT"},
			FlightRegion: "global",
			SeaRegion:    "black_sea",
			Limit:        10,
		},
	}
}
