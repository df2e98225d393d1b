// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/collect"
)

var adsintCmd = &cobra.Command{
	Use:   "adsint",
	Short: "Record watched aircraft in an airspace",
	Long: `ADSINT reads live aircraft states for a region from OpenSky and stores the
aircraft on the high-value list or flying a military callsign. Each
airframe is stored at most once per hour. With --track a callsign is
looked up worldwide and printed without storing.

Regions: ` + strings.Join(collect.RegionKeys(collect.FlightRegions), ", "),
	RunE: runADSINT,
}

func init() {
	adsintCmd.Flags().String("region", "global", "airspace preset")
	adsintCmd.Flags().String("bounds", "", "explicit box latMin,latMax,lonMin,lonMax")
	adsintCmd.Flags().String("track", "", "look up one callsign; store nothing")

	rootCmd.AddCommand(adsintCmd)
}

func runADSINT(cmd *cobra.Command, args []string) error {
	src := collect.NewOpenSky(cfg.Flight)

	if cs, _ := cmd.Flags().GetString("track"); cs != "" {
		a, err := collect.TrackCallsign(cmd.Context(), src, cs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) origin %s\n", a.Callsign, a.ICAO24, a.Country)
		if a.Latitude != nil && a.Longitude != nil {
			fmt.Fprintf(out, "  position %.4f, %.4f\n", *a.Latitude, *a.Longitude)
		}
		if name, ok := a.KnownName(); ok {
			fmt.Fprintf(out, "  high-value asset: %s\n", name)
		}
		return nil
	}

	name, _ := cmd.Flags().GetString("region")
	bounds, _ := cmd.Flags().GetString("bounds")
	region, err := resolveRegion(collect.FlightRegions, name, bounds)
	if err != nil {
		return err
	}
	return runCollectors(cmd, &collect.FlightCollector{Source: src, Region: region})
}
