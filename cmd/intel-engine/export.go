// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intel-engine/internal/store"
	"github.com/pdiddy/intel-engine/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records",
	Long: `Export writes records as JSON lines, CSV or YAML, oldest first. Without
--output the file goes to <data_dir>/export_<timestamp>.<format>; "-"
writes to stdout.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "jsonl", "output format: jsonl, csv or yaml")
	exportCmd.Flags().StringP("output", "o", "", "output path")
	exportCmd.Flags().Int("hours", 0, "only records from the last N hours")
	exportCmd.Flags().StringSlice("category", nil, "only these categories")
	exportCmd.Flags().String("target", "", "only records mentioning this entity")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := store.ParseExportFormat(formatName)
	if err != nil {
		return err
	}

	var f store.Filter
	if hours, _ := cmd.Flags().GetInt("hours"); hours > 0 {
		f.Since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}
	cats, _ := cmd.Flags().GetStringSlice("category")
	for _, c := range cats {
		cat, err := types.ParseCategory(c)
		if err != nil {
			return err
		}
		f.Categories = append(f.Categories, cat)
	}
	f.Target, _ = cmd.Flags().GetString("target")

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	path, _ := cmd.Flags().GetString("output")
	if path == "-" {
		_, err := s.Export(cmd.Context(), os.Stdout, format, f)
		return err
	}
	if path == "" {
		path = filepath.Join(cfg.Store.DataDir, fmt.Sprintf("export_%s.%s", time.Now().UTC().Format("20060102_150405"), format))
	}

	var n int
	if err := writeFile(path, func(w *os.File) error {
		var err error
		n, err = s.Export(cmd.Context(), w, format, f)
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, path)
	return nil
}
