// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var osintCmd = &cobra.Command{
	Use:   "osint [keywords...]",
	Short: "Collect web news for keywords",
	Long: `OSINT searches the news index for each keyword, extracts the full article
text of every result not already stored, classifies it and stores it.
When the news search is rate limited the text search is tried once with
"<keyword> news".`,
	RunE: runOSINT,
}

func init() {
	osintCmd.Flags().Int("limit", 0, "results per keyword (default search.max_results)")
	osintCmd.Flags().Bool("render", false, "render pages in headless Chrome before extraction")

	rootCmd.AddCommand(osintCmd)
}

func runOSINT(cmd *cobra.Command, args []string) error {
	keywords := splitList(args)
	if len(keywords) == 0 {
		return fmt.Errorf("provide one or more keywords")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	render, _ := cmd.Flags().GetBool("render")

	return runCollectors(cmd, newsCollector(keywords, limit, render))
}
