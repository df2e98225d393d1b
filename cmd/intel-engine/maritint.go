// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/collect"
)

var maritintCmd = &cobra.Command{
	Use:   "maritint",
	Short: "Record vessels of interest in a sea area",
	Long: `MARITINT stores the curated vessel and facility list for a sea area. The
data is a labeled fixture, not live AIS. With --vessel the high-value
vessel table is searched and nothing is stored.

Regions: ` + strings.Join(collect.RegionKeys(collect.MaritimeRegions), ", "),
	RunE: runMARITINT,
}

func init() {
	maritintCmd.Flags().String("region", "black_sea", "sea area preset")
	maritintCmd.Flags().String("bounds", "", "explicit box latMin,latMax,lonMin,lonMax")
	maritintCmd.Flags().String("vessel", "", "look up a vessel by name or MMSI; store nothing")

	rootCmd.AddCommand(maritintCmd)
}

func runMARITINT(cmd *cobra.Command, args []string) error {
	if q, _ := cmd.Flags().GetString("vessel"); q != "" {
		v, ok := collect.LookupVessel(q)
		if !ok {
			return fmt.Errorf("no high-value vessel matches %q", q)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (MMSI %s)\n", v.Name, v.MMSI)
		return nil
	}

	name, _ := cmd.Flags().GetString("region")
	bounds, _ := cmd.Flags().GetString("bounds")
	region, err := resolveRegion(collect.MaritimeRegions, name, bounds)
	if err != nil {
		return err
	}
	return runCollectors(cmd, &collect.MaritimeCollector{Region: region})
}
