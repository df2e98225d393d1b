// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the intel-engine CLI.
//
// Collection commands (osint, socmint, cybint, geoint, adsint, maritint,
// signals, sweep) write to the store; brief, report, status, export, map
// and serve read from it.
package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/config"
	"github.com/pdiddy/intel-engine/internal/logging"
	"github.com/pdiddy/intel-engine/internal/metrics"
	"github.com/pdiddy/intel-engine/internal/secrets"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per credential.
const secretsDir = ".secrets/"

var (
	// cfg is the resolved configuration, set before any command runs.
	cfg types.Config

	logger = zap.NewNop()

	// runMetrics collects item outcomes for --metrics-file and serve.
	runMetrics = metrics.New()
)

// rootCmd is the base command for the intel-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "intel-engine",
	Short: "Multi-source intelligence collection and briefing",
	Long: `intel-engine pulls items from web and social search, security feeds,
vulnerability catalogs, flight states, vessel fixtures, satellite metadata
and local signal logs into one SQLite store. Every item is normalized,
deduplicated by its source identifier and optionally classified by a local
Ollama model.

The store then feeds windowed briefs with an alert level, long-form
reports, exports, maps and a read-only HTTP API.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./intel-engine.yaml or ~/.config/intel-engine/intel-engine.yaml)")
	pf.String("data-dir", "", "directory holding the database (overrides store.data_dir)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("no-oracle", false, "skip classification and synthesis; store fallback labels")
	pf.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	_ = viper.BindPFlag("store.data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("metrics.file", pf.Lookup("metrics-file"))
}

// setup resolves configuration, credentials and the logger.
func setup(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	used, err := config.Init(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	l, err := logging.New(loaded.Log)
	if err != nil {
		return err
	}
	logger = l
	if used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}

	s, err := secrets.Load(secretsDir, logger)
	if err != nil {
		return err
	}
	secrets.Apply(&loaded, s)
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Info("loaded secrets", zap.Strings("keys", keys))
	}

	if noOracle, _ := cmd.Flags().GetBool("no-oracle"); noOracle {
		loaded.Oracle.Enabled = false
	}
	cfg = loaded
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
