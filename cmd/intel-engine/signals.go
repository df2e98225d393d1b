// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/collect"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Detect priority broadcasts in an intercept log",
	Long: `Signals scans an HF intercept log (--file) or text given on the command
line (--text) for SKYKING priority broadcasts and repeated-header
emergency action messages. Each detected message is stored once.`,
	RunE: runSignals,
}

func init() {
	signalsCmd.Flags().String("file", "", "intercept log to scan")
	signalsCmd.Flags().String("text", "", "intercept text to scan")
	signalsCmd.MarkFlagsMutuallyExclusive("file", "text")
	signalsCmd.MarkFlagsOneRequired("file", "text")

	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	if text, _ := cmd.Flags().GetString("text"); text != "" {
		return runCollectors(cmd, collect.ManualIntercept(text))
	}
	path, _ := cmd.Flags().GetString("file")
	return runCollectors(cmd, &collect.SignalCollector{Path: path})
}
