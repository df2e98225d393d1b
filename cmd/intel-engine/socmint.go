// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/collect"
)

var socmintCmd = &cobra.Command{
	Use:   "socmint [keywords...]",
	Short: "Collect social posts for keywords",
	Long: `SOCMINT runs site-restricted searches over X, Reddit and Telegram. With
--user the search is limited to one X account; with --subreddit to one
community. The two are mutually exclusive.`,
	RunE: runSOCMINT,
}

func init() {
	socmintCmd.Flags().String("user", "", "X handle to monitor (without @)")
	socmintCmd.Flags().String("subreddit", "", "subreddit to monitor (without r/)")
	socmintCmd.Flags().Int("limit", 0, "results per keyword (default search.max_results)")
	socmintCmd.MarkFlagsMutuallyExclusive("user", "subreddit")

	rootCmd.AddCommand(socmintCmd)
}

func runSOCMINT(cmd *cobra.Command, args []string) error {
	keywords := splitList(args)
	if len(keywords) == 0 {
		return fmt.Errorf("provide one or more keywords")
	}
	user, _ := cmd.Flags().GetString("user")
	sub, _ := cmd.Flags().GetString("subreddit")
	target := collect.SocialTarget{User: user, Subreddit: sub}
	if err := target.Validate(); err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	return runCollectors(cmd, socialCollector(keywords, target, limit))
}
