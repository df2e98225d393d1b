// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored record",
	Long: `Reset empties the store. It is the only way records are removed and it
refuses to run without --yes.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("yes", false, "confirm deletion of all records")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("reset deletes every record in %s; rerun with --yes", cfg.Store.Path())
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.Wipe(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records from %s\n", n, s.Path())
	return nil
}
