// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/brief"
	"github.com/pdiddy/intel-engine/internal/collect"
	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// sweepKeywords is how many assessed keywords drive a report sweep.
const sweepKeywords = 2

var reportCmd = &cobra.Command{
	Use:   "report <target>",
	Short: "Produce a full assessment on a target",
	Long: `Report builds a long-form assessment over the last --hours (default 72).
With --sweep the model first assesses the target to choose keywords and
collection domains, and a fresh collection runs before aggregation.
Broad topics (cyber, malware, ransomware, threat, global) cover every
record in the window.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Int("hours", 0, "lookback window (default brief.report_hours)")
	reportCmd.Flags().Bool("sweep", false, "assess the target and collect before reporting")
	reportCmd.Flags().Int("limit", 20, "results per keyword during the sweep")
	reportCmd.Flags().String("html", "", "also write the report as HTML to this path")
	reportCmd.Flags().String("map", "", "also write a map of located records to this path")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	target := strings.TrimSpace(args[0])
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	hours, _ := cmd.Flags().GetInt("hours")
	if hours <= 0 {
		hours = cfg.Brief.ReportHours
	}

	if sweep, _ := cmd.Flags().GetBool("sweep"); sweep {
		limit, _ := cmd.Flags().GetInt("limit")
		if err := reportSweep(cmd, target, limit); err != nil {
			return err
		}
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := brief.Report(ctx, s, brief.Request{
		Target:   target,
		Window:   time.Duration(hours) * time.Hour,
		GroupCap: cfg.Brief.ReportCap,
	})
	if errors.Is(err, brief.ErrNoIntelligence) {
		fmt.Fprintf(out, "No intelligence found for %q in the last %d hours. Try --sweep.\n", target, hours)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Synthesizing %d items...\n\n", b.Stats.Items)
	narrative := synthesize(ctx, b, oracle.KindReport)
	runMetrics.SetAlertLevel(b.Stats.AlertLevel)
	if err := brief.Render(out, b, "ASSESSMENT", narrative); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("html"); path != "" {
		if err := writeFile(path, func(f *os.File) error {
			return brief.RenderHTML(f, b, "Assessment", narrative)
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", path)
	}

	if path, _ := cmd.Flags().GetString("map"); path != "" {
		mapTarget := target
		if brief.IsBroad(target) {
			mapTarget = ""
		}
		n, err := writeMap(ctx, s, path, mapOptions{Target: mapTarget, Hours: hours, Format: "html"})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Map of %d located items written to %s\n", n, path)
	}
	return nil
}

// reportSweep collects for target along the model's assessment. Item
// failures are reported and the report goes on; a store failure or
// cancellation stops it.
func reportSweep(cmd *cobra.Command, target string, limit int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a := newOracle().Assess(ctx, target)
	fmt.Fprintf(out, "Type:     %s\n", a.Type)
	fmt.Fprintf(out, "Keywords: %s\n", strings.Join(a.Keywords, ", "))
	fmt.Fprintf(out, "Domains:  %s\n\n", strings.Join(a.Domains, ", "))

	plan := sweepPlan(a, target, limit)
	g, release := newGeocoder(ctx)
	defer release()
	collectors, err := sweepCollectors(g, plan)
	if err != nil {
		return err
	}
	if len(collectors) == 0 {
		return nil
	}

	err = runCollectors(cmd, collectors...)
	switch {
	case err == nil:
	case errors.Is(err, collect.ErrStore), ctx.Err() != nil:
		return err
	default:
		logger.Warn("sweep incomplete", zap.String("target", target), zap.Error(err))
	}
	fmt.Fprintln(out)
	return nil
}

// sweepPlan turns an assessment into a collection plan. Only place-like
// targets are geocoded; unknown domain names are dropped.
func sweepPlan(a oracle.Assessment, target string, limit int) types.SweepConfig {
	keywords := a.Keywords
	if len(keywords) == 0 {
		keywords = []string{target}
	}
	if len(keywords) > sweepKeywords {
		keywords = keywords[:sweepKeywords]
	}

	plan := types.SweepConfig{
		Keywords:     keywords,
		FlightRegion: cfg.Sweep.FlightRegion,
		SeaRegion:    cfg.Sweep.SeaRegion,
		SignalFile:   cfg.Sweep.SignalFile,
		Limit:        limit,
	}
	switch a.Type {
	case "country", "region", "event":
		plan.Locations = []string{target}
	}
	for _, d := range a.Domains {
		cat, err := types.ParseCategory(d)
		if err != nil {
			logger.Debug("dropping assessed domain", zap.String("domain", d))
			continue
		}
		plan.Domains = append(plan.Domains, string(cat))
	}
	return plan
}

// writeFile creates path and hands it to write, closing it either way.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
