// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var geointCmd = &cobra.Command{
	Use:   "geoint [locations...]",
	Short: "Record satellite imagery passes over places",
	Long: `GEOINT geocodes each location and searches the STAC catalog for recent
low-cloud scenes around it. A location that does not geocode produces no
records. With --locate the locations are only geocoded and printed.`,
	RunE: runGEOINT,
}

func init() {
	geointCmd.Flags().Int("days", 0, "lookback in days (default geo.days_back)")
	geointCmd.Flags().Float64("cloud-max", 0, "maximum cloud cover percent (default geo.cloud_max)")
	geointCmd.Flags().Bool("locate", false, "geocode only; store nothing")

	rootCmd.AddCommand(geointCmd)
}

func runGEOINT(cmd *cobra.Command, args []string) error {
	locations := splitList(args)
	if len(locations) == 0 {
		return fmt.Errorf("provide one or more locations")
	}
	if n, _ := cmd.Flags().GetInt("days"); n > 0 {
		cfg.Geo.DaysBack = n
	}
	if c, _ := cmd.Flags().GetFloat64("cloud-max"); c > 0 {
		cfg.Geo.CloudMax = c
	}

	g, release := newGeocoder(cmd.Context())
	defer release()

	if locate, _ := cmd.Flags().GetBool("locate"); locate {
		out := cmd.OutOrStdout()
		for _, name := range locations {
			loc, err := g.Geocode(cmd.Context(), name)
			if err != nil {
				fmt.Fprintf(out, "failed  %s: %v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "%s: %.4f, %.4f (%s)\n", name, loc.Lat, loc.Lon, loc.DisplayName)
		}
		return nil
	}

	return runCollectors(cmd, satelliteCollector(g, locations))
}
