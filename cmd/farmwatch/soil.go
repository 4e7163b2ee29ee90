package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"farmwatch/internal/config"
	"farmwatch/internal/render"
	"farmwatch/internal/soil"
)

var (
	soilNode     int
	soilEndpoint string
)

var soilCmd = &cobra.Command{
	Use:   "soil",
	Short: "Look up the readings of one soil node",
	Long:  "soil fetches the current node readings once, logs the classified display and prints the reading as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if soilEndpoint != "" {
			cfg.Soil.Source = config.SoilSourceHTTP
			cfg.Soil.Endpoint = soilEndpoint
		}
		if soilNode < 1 {
			return fmt.Errorf("node must be 1 or greater")
		}
		logger := newLogger(cfg)

		monitor := soil.NewMonitor(soil.NewSource(cfg.Soil, logger), render.NewLogSink(logger), logger)
		reading, err := monitor.SelectNode(cmd.Context(), soilNode-1)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reading)
	},
}

func init() {
	soilCmd.Flags().IntVar(&soilNode, "node", 1, "Node number (1-based)")
	soilCmd.Flags().StringVar(&soilEndpoint, "endpoint", "", "Fetch from this HTTP endpoint instead of the configured source")
}
