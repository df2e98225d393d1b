// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/geomap"
	"github.com/pdiddy/intel-engine/internal/store"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Render located records as a map",
	Long: `Map writes the located records of the last --hours as a standalone
Leaflet page (html) or as GeoJSON. Markers are colored by category; with
--heat a threat-score heat layer is drawn instead. The output defaults to
<data_dir>/maps/map_<target>.<ext>; "-" writes to stdout.`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().String("format", "html", "output format: html or geojson")
	mapCmd.Flags().String("target", store.GlobalTarget, "entity filter, or global")
	mapCmd.Flags().Int("hours", 72, "lookback window; 0 for all records")
	mapCmd.Flags().Bool("heat", false, "draw a heat layer instead of markers")
	mapCmd.Flags().StringP("output", "o", "", "output path")

	rootCmd.AddCommand(mapCmd)
}

type mapOptions struct {
	Target string
	Hours  int
	Format string
	Heat   bool
}

func runMap(cmd *cobra.Command, args []string) error {
	var opts mapOptions
	opts.Format, _ = cmd.Flags().GetString("format")
	opts.Target, _ = cmd.Flags().GetString("target")
	opts.Hours, _ = cmd.Flags().GetInt("hours")
	opts.Heat, _ = cmd.Flags().GetBool("heat")
	if opts.Format != "html" && opts.Format != "geojson" {
		return fmt.Errorf("unsupported format %q: use html or geojson", opts.Format)
	}

	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		name := strings.ToLower(strings.ReplaceAll(opts.Target, " ", "_"))
		path = filepath.Join(cfg.Store.DataDir, "maps", fmt.Sprintf("map_%s.%s", name, opts.Format))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating maps directory: %w", err)
		}
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := writeMap(cmd.Context(), s, path, opts)
	if err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Map of %d located items written to %s\n", n, path)
	}
	return nil
}

// writeMap renders the located records selected by opts to path ("-" for
// stdout) and returns how many were drawn.
func writeMap(ctx context.Context, s *store.Store, path string, opts mapOptions) (int, error) {
	f := store.Filter{Target: opts.Target, LocatedOnly: true}
	if opts.Hours > 0 {
		f.Since = time.Now().UTC().Add(-time.Duration(opts.Hours) * time.Hour)
	}
	records, err := s.Window(ctx, f)
	if err != nil {
		return 0, err
	}
	points := geomap.Points(records)

	render := func(w *os.File) error {
		if opts.Format == "geojson" {
			return geomap.WriteGeoJSON(w, points)
		}
		return geomap.WriteHTML(w, points, geomap.Options{Title: mapTitle(opts), Heat: opts.Heat})
	}
	if path == "-" {
		return len(points), render(os.Stdout)
	}
	return len(points), writeFile(path, render)
}

func mapTitle(opts mapOptions) string {
	target := opts.Target
	if target == "" || strings.EqualFold(target, store.GlobalTarget) {
		target = "Global"
	}
	if opts.Hours > 0 {
		return fmt.Sprintf("%s, last %dh", target, opts.Hours)
	}
	return target
}
