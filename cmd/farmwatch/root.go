package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"farmwatch/internal/config"
	"farmwatch/internal/logging"
)

var (
	configPath string
	schemaPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "farmwatch",
	Short: "Farm drone and soil monitoring simulator",
	Long:  "farmwatch simulates an NDVI survey drone and the soil sensor nodes of a farm dashboard.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/farmwatch.yaml", "Path to configuration YAML (empty for built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schemas/farmwatch.cue", "Path to CUE schema file (empty to skip validation)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(soilCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// loadConfig reads the configured file, or the defaults when no path is set.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return config.Load(configPath, schemaPath)
}

func levelFor(cfg *config.Config) string {
	if logLevel != "" {
		return logLevel
	}
	if cfg != nil {
		return cfg.LogLevel
	}
	return "info"
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(levelFor(cfg))
	slog.SetDefault(logger)
	return logger
}
