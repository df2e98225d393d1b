// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/collect"
	"github.com/pdiddy/intel-engine/internal/fetch"
	"github.com/pdiddy/intel-engine/internal/geo"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/internal/search"
	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

func openStore() (*store.Store, error) {
	return store.NewStore(cfg.Store)
}

func newOracle() oracle.Oracle {
	if !cfg.Oracle.Enabled {
		return oracle.Disabled{}
	}
	return oracle.NewOllamaBackend(cfg.Oracle, logger)
}

func newPipeline(s *store.Store, out io.Writer) *collect.Pipeline {
	return &collect.Pipeline{
		Gate:       s,
		Oracle:     newOracle(),
		Normalizer: normalize.Normalizer{Logger: logger},
		Logger:     logger,
		Metrics:    runMetrics,
		Out:        out,
	}
}

func newExtractor(render bool) fetch.Extractor {
	if render || cfg.Fetch.Render {
		return &fetch.BrowserExtractor{Config: cfg.Fetch}
	}
	return fetch.NewHTMLExtractor(cfg.Fetch)
}

// newGeocoder wraps Nominatim in the geocode cache: redis when
// geo.redis_addr is set and reachable, in-memory otherwise. The returned
// func releases the cache.
func newGeocoder(ctx context.Context) (geo.Geocoder, func()) {
	var (
		cache   geo.Cache = geo.NewMemoryCache()
		release           = func() {}
	)
	if addr := cfg.Geo.RedisAddr; addr != "" {
		rc, err := geo.NewRedisCache(ctx, addr)
		if err != nil {
			logger.Warn("redis geocode cache unavailable, using memory", zap.String("addr", addr), zap.Error(err))
		} else {
			cache = rc
			release = func() { _ = rc.Close() }
		}
	}
	return &geo.CachedGeocoder{
		Geocoder: geo.NewNominatim(cfg.Geo),
		Cache:    cache,
		TTL:      cfg.Geo.CacheTTL,
		Logger:   logger,
	}, release
}

func newsCollector(keywords []string, limit int, render bool) *collect.NewsCollector {
	return &collect.NewsCollector{
		Searcher:      search.NewDuckDuckGo(cfg.Search),
		Extractor:     newExtractor(render),
		Keywords:      keywords,
		Limit:         limit,
		FallbackDelay: cfg.Search.FallbackDelay,
		MinTextLength: cfg.Fetch.MinTextLength,
		MaxBodyChars:  cfg.Fetch.MaxBodyChars,
	}
}

func socialCollector(keywords []string, target collect.SocialTarget, limit int) *collect.SocialCollector {
	return &collect.SocialCollector{
		Searcher: search.NewDuckDuckGo(cfg.Search),
		Target:   target,
		Keywords: keywords,
		Limit:    limit,
	}
}

func satelliteCollector(g geo.Geocoder, locations []string) *collect.SatelliteCollector {
	catalog := geo.NewCatalog(cfg.Geo)
	catalog.Logger = logger
	return &collect.SatelliteCollector{
		Geocoder:  g,
		Catalog:   catalog,
		Locations: locations,
		Config:    cfg.Geo,
	}
}

// resolveRegion picks explicit bounds over a preset name.
func resolveRegion(presets map[string]collect.Region, name, bounds string) (collect.Region, error) {
	if bounds != "" {
		return collect.ParseBounds("Custom", bounds)
	}
	return collect.LookupRegion(presets, name)
}

// sweepCollectors builds the collectors of plan in domain order. Domains
// without inputs are skipped with a warning.
func sweepCollectors(g geo.Geocoder, plan types.SweepConfig) ([]collect.Collector, error) {
	limit := plan.Limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	var out []collect.Collector
	for _, d := range plan.Domains {
		cat, err := types.ParseCategory(d)
		if err != nil {
			return nil, err
		}
		switch cat {
		case types.CategoryOSINT:
			if len(plan.Keywords) == 0 {
				logger.Warn("sweep: no keywords, skipping", zap.String("domain", string(cat)))
				continue
			}
			out = append(out, newsCollector(plan.Keywords, limit, false))
		case types.CategorySOCMINT:
			if len(plan.Keywords) == 0 {
				logger.Warn("sweep: no keywords, skipping", zap.String("domain", string(cat)))
				continue
			}
			out = append(out, socialCollector(plan.Keywords, collect.SocialTarget{}, limit))
		case types.CategoryCYBINT:
			out = append(out, &collect.CyberCollector{Config: cfg.Cyber})
		case types.CategoryGEOINT:
			if len(plan.Locations) == 0 {
				logger.Warn("sweep: no locations, skipping", zap.String("domain", string(cat)))
				continue
			}
			out = append(out, satelliteCollector(g, plan.Locations))
		case types.CategoryADSINT:
			r, err := collect.LookupRegion(collect.FlightRegions, plan.FlightRegion)
			if err != nil {
				return nil, err
			}
			out = append(out, &collect.FlightCollector{Source: collect.NewOpenSky(cfg.Flight), Region: r})
		case types.CategoryMARITINT:
			r, err := collect.LookupRegion(collect.MaritimeRegions, plan.SeaRegion)
			if err != nil {
				return nil, err
			}
			out = append(out, &collect.MaritimeCollector{Region: r})
		case types.CategoryCOMINT:
			if plan.SignalFile == "" {
				logger.Warn("sweep: no signal file, skipping", zap.String("domain", string(cat)))
				continue
			}
			out = append(out, &collect.SignalCollector{Path: plan.SignalFile})
		}
	}
	return out, nil
}

// runCollectors executes collectors against the store, prints one line
// per collector, and records metrics. Per-item failures make the command
// exit non-zero after the whole batch has run.
func runCollectors(cmd *cobra.Command, collectors ...collect.Collector) error {
	if len(collectors) == 0 {
		return fmt.Errorf("nothing to collect")
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	run, runErr := collect.RunAll(ctx, collectors, newPipeline(s, out))

	for _, sum := range run.Collectors {
		printSummary(out, sum)
	}
	if len(run.Collectors) > 1 {
		printSummary(out, run.Totals())
	}
	finishMetrics(ctx, s)

	if runErr != nil {
		return runErr
	}
	if t := run.Totals(); t.HasFailures() {
		return fmt.Errorf("%d item(s) failed", t.Failed)
	}
	return nil
}

func printSummary(w io.Writer, s collect.Summary) {
	fmt.Fprintf(w, "%-9s %d new, %d skipped, %d failed", s.Collector+":", s.Admitted, s.Skipped, s.Failed)
	if s.Degraded > 0 {
		fmt.Fprintf(w, " (%d unclassified)", s.Degraded)
	}
	fmt.Fprintf(w, " in %s\n", s.Duration.Round(time.Millisecond))
}

// finishMetrics refreshes the store gauges and writes --metrics-file.
// Metric failures are logged, never returned.
func finishMetrics(ctx context.Context, s *store.Store) {
	runMetrics.RunFinished(time.Now())
	if counts, err := s.Counts(ctx); err == nil {
		runMetrics.SetCounts(counts)
	} else {
		logger.Warn("counting records", zap.Error(err))
	}
	if path := cfg.Metrics.File; path != "" {
		if err := runMetrics.WriteToTextfile(path); err != nil {
			logger.Warn("writing metrics", zap.Error(err))
		}
	}
}

// splitList flattens comma-separated values and drops blanks.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
