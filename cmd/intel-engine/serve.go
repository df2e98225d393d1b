// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/intel-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store read-only over HTTP",
	Long: `Serve exposes the store until interrupted:

  GET /healthz        liveness
  GET /api/records    records (hours, category, target, limit)
  GET /api/brief      current brief (target, hours)
  GET /api/status     counts per category
  GET /map.geojson    located records as GeoJSON
  GET /map            located records on a Leaflet map
  GET /metrics        Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default serve.addr)")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &server.Server{
		Store:   s,
		Metrics: runMetrics,
		Logger:  logger,
		Brief:   cfg.Brief,
	}
	return srv.ListenAndServe(cmd.Context(), cfg.Serve.Addr)
}
