package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"farmwatch/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayColor     bool
	replaySession   string
	replayField     string
	replayChannels  []string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a telemetry log file",
	Long:  "replay feeds telemetry rows from a JSONL log back into GreptimeDB, MQTT or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		writer, cleanup, err := newWriters(writerOptions{
			PrintOnly:  replayPrintOnly,
			Color:      replayColor,
			MQTTPrefix: "farmwatch",
		}, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		stats, err := sim.ReplayLogFile(ctx, replayInput, writer, sim.ReplayOptions{
			Speed: replaySpeed,
			Filter: sim.ReplayFilter{
				Session:  replaySession,
				Field:    replayField,
				Channels: replayChannels,
			},
		})
		logger.Info("replay finished", "input", replayInput, "read", stats.Read, "written", stats.Written)
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to telemetry log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to GreptimeDB or MQTT")
	replayCmd.Flags().BoolVar(&replayColor, "color", false, "Colorize STDOUT telemetry")
	replayCmd.Flags().StringVar(&replaySession, "session", "", "Only replay rows of this session id")
	replayCmd.Flags().StringVar(&replayField, "field", "", "Only replay rows recorded over this field (north, south, east, west)")
	replayCmd.Flags().StringSliceVar(&replayChannels, "channel", nil, "Only replay these channels (signal, battery, data, altitude)")
	_ = replayCmd.MarkFlagRequired("input")
}
