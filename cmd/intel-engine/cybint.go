// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/collect"
)

var cybintCmd = &cobra.Command{
	Use:   "cybint",
	Short: "Collect exploited vulnerabilities and security news",
	Long: `CYBINT reads the CISA known-exploited-vulnerabilities catalog and the
configured security feeds. Catalog entries are stored as CRITICAL without
classification; feed entries are scored by threat vocabulary.`,
	RunE: runCYBINT,
}

func init() {
	cybintCmd.Flags().Bool("kev-only", false, "read only the vulnerability catalog")
	cybintCmd.Flags().Bool("feeds-only", false, "read only the news feeds")
	cybintCmd.Flags().Int("kev-limit", 0, "catalog entries per run (default cyber.kev_limit)")
	cybintCmd.Flags().Int("feed-limit", 0, "entries per feed (default cyber.feed_limit)")
	cybintCmd.MarkFlagsMutuallyExclusive("kev-only", "feeds-only")

	rootCmd.AddCommand(cybintCmd)
}

func runCYBINT(cmd *cobra.Command, args []string) error {
	c := &collect.CyberCollector{Config: cfg.Cyber}
	c.SkipFeeds, _ = cmd.Flags().GetBool("kev-only")
	c.SkipCatalog, _ = cmd.Flags().GetBool("feeds-only")
	if n, _ := cmd.Flags().GetInt("kev-limit"); n > 0 {
		c.Config.KEVLimit = n
	}
	if n, _ := cmd.Flags().GetInt("feed-limit"); n > 0 {
		c.Config.FeedLimit = n
	}
	return runCollectors(cmd, c)
}
