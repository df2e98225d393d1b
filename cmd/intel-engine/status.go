// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/brief"
	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// recentItems is how many of the newest records status lists.
const recentItems = 5

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts and the overall alert level",
	Long: `Status prints the number of stored records per category, the alert level
computed over the whole store, and the most recent records.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	counts, err := s.Counts(ctx)
	if err != nil {
		return err
	}
	records, err := s.Window(ctx, store.Filter{})
	if err != nil {
		return err
	}
	stats := brief.ComputeStats(records)

	fmt.Fprintf(out, "Database:    %s\n", s.Path())
	fmt.Fprintf(out, "Items:       %d | Critical: %d | Mean score: %.1f/100\n", stats.Items, stats.Critical, stats.MeanScore)
	fmt.Fprintf(out, "Alert level: %d (%s)\n\n", stats.AlertLevel, brief.AlertLabel(stats.AlertLevel))

	for _, c := range types.AllCategories() {
		fmt.Fprintf(out, "  %-17s %d\n", c.Label(), counts[c])
	}

	if len(records) > 0 {
		fmt.Fprintln(out, "\nRecent activity:")
		recent := records
		if len(recent) > recentItems {
			recent = recent[len(recent)-recentItems:]
		}
		for i := len(recent) - 1; i >= 0; i-- {
			r := recent[i]
			fmt.Fprintf(out, "  [%s] %s\n", r.Category, normalize.Truncate(r.Summary, 60))
		}
	}

	runMetrics.SetCounts(counts)
	runMetrics.SetAlertLevel(stats.AlertLevel)
	if path := cfg.Metrics.File; path != "" {
		return runMetrics.WriteToTextfile(path)
	}
	return nil
}
