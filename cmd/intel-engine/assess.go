// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var assessCmd = &cobra.Command{
	Use:   "assess <topic>",
	Short: "Ask the model for a collection plan",
	Long: `Assess classifies a topic (country, threat actor, event, ...) and
suggests search keywords, collection domains and related countries. When
the model is unavailable the plan falls back to the topic itself over
OSINT and CYBINT.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().Bool("json", false, "output as JSON instead of YAML")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	a := newOracle().Assess(cmd.Context(), topic)

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(a)
}
