// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/brief"
	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/internal/store"
)

var briefCmd = &cobra.Command{
	Use:   "brief [target]",
	Short: "Summarize recent intelligence on a target",
	Long: `Brief gathers the records of the last --hours that mention the target
(country, summary, raw text or keyword), groups them by category, computes
the alert level and asks the model for a short situation report. The
target "global" (the default) covers every record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrief,
}

func init() {
	briefCmd.Flags().Int("hours", 0, "lookback window (default brief.hours)")

	rootCmd.AddCommand(briefCmd)
}

func runBrief(cmd *cobra.Command, args []string) error {
	target := store.GlobalTarget
	if len(args) == 1 {
		target = args[0]
	}
	hours, _ := cmd.Flags().GetInt("hours")
	if hours <= 0 {
		hours = cfg.Brief.Hours
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	b, err := brief.Build(cmd.Context(), s, brief.Request{
		Target:   target,
		Window:   time.Duration(hours) * time.Hour,
		GroupCap: cfg.Brief.GroupCap,
	})
	if errors.Is(err, brief.ErrNoIntelligence) {
		fmt.Fprintf(out, "No intelligence found for %s in the last %d hours.\n", target, hours)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Synthesizing %d items...\n\n", b.Stats.Items)
	narrative := synthesize(cmd.Context(), b, oracle.KindBrief)
	runMetrics.SetAlertLevel(b.Stats.AlertLevel)
	return brief.Render(out, b, "SITREP", narrative)
}

// synthesize asks the model for a narrative. A failed or disabled model
// leaves the rendered brief without one.
func synthesize(ctx context.Context, b brief.Brief, kind oracle.Kind) string {
	text, err := newOracle().Synthesize(ctx, b.Synthesis(kind, cfg.Brief.ContextChars))
	if err != nil {
		if !errors.Is(err, oracle.ErrDisabled) {
			logger.Warn("synthesis failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		return fmt.Sprintf("Synthesis unavailable: %v", err)
	}
	return text
}
