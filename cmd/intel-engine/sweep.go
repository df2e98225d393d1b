// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the configured collection plan",
	Long: `Sweep runs every domain listed in sweep.domains, in order, under one run
id. Keywords, locations, regions and the signal log come from the sweep
section of the config file and may be overridden with flags. A domain
without inputs is skipped; a failing collector does not stop the others.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringSlice("domains", nil, "categories to collect (default sweep.domains)")
	sweepCmd.Flags().StringSlice("keywords", nil, "keywords for OSINT and SOCMINT")
	sweepCmd.Flags().StringSlice("locations", nil, "places for GEOINT")
	sweepCmd.Flags().String("flight-region", "", "airspace preset for ADSINT")
	sweepCmd.Flags().String("sea-region", "", "sea area preset for MARITINT")
	sweepCmd.Flags().String("signal-file", "", "intercept log for COMINT")
	sweepCmd.Flags().Int("limit", 0, "results per keyword")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	plan := cfg.Sweep
	f := cmd.Flags()
	if v, _ := f.GetStringSlice("domains"); len(v) > 0 {
		plan.Domains = v
	}
	if v, _ := f.GetStringSlice("keywords"); len(v) > 0 {
		plan.Keywords = v
	}
	if v, _ := f.GetStringSlice("locations"); len(v) > 0 {
		plan.Locations = v
	}
	if v, _ := f.GetString("flight-region"); v != "" {
		plan.FlightRegion = v
	}
	if v, _ := f.GetString("sea-region"); v != "" {
		plan.SeaRegion = v
	}
	if v, _ := f.GetString("signal-file"); v != "" {
		plan.SignalFile = v
	}
	if v, _ := f.GetInt("limit"); v > 0 {
		plan.Limit = v
	}

	g, release := newGeocoder(cmd.Context())
	defer release()

	collectors, err := sweepCollectors(g, plan)
	if err != nil {
		return err
	}
	return runCollectors(cmd, collectors...)
}
