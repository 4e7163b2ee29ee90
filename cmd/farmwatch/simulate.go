package main

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"farmwatch/internal/admin"
	"farmwatch/internal/config"
	"farmwatch/internal/logging"
	"farmwatch/internal/render"
	"farmwatch/internal/sim"
	"farmwatch/internal/soil"
)

var (
	simPrintOnly   bool
	simLogFile     string
	simAdminAddr   string
	simNoTUI       bool
	simColor       bool
	simAutoConnect bool
	simMQTTPrefix  string
	simAppLog      string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the drone and soil dashboard simulator",
	Long:  "simulate runs the drone station and soil monitor, serving commands over HTTP and drawing the dashboard in the terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		useTUI := !simNoTUI && term.IsTerminal(int(os.Stdout.Fd()))
		logger, closeLog, err := simulationLogger(cfg, useTUI)
		if err != nil {
			return err
		}
		defer closeLog()

		writer, cleanup, err := newWriters(writerOptions{
			PrintOnly:  simPrintOnly,
			Quiet:      useTUI,
			Color:      simColor,
			LogFile:    simLogFile,
			MQTTPrefix: simMQTTPrefix,
		}, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger)

		display := render.NewRecorder()
		sinks := render.Multi{display}
		var (
			station *sim.Station
			monitor *soil.Monitor
			tui     *render.TUI
		)
		if useTUI {
			tui = render.NewTUI("farmwatch", dashboardActions(ctx, cfg, &station, &monitor))
			sinks = append(sinks, tui)
		} else {
			sinks = append(sinks, render.NewLogSink(logger))
		}

		station = sim.NewStation(sim.Options{
			Config: cfg,
			Sink:   sinks,
			Writer: writer,
			Logger: logger,
			Rand:   seededRand(cfg.Seed),
		})
		monitor = soil.NewMonitor(soil.NewSource(cfg.Soil, logger), sinks, logger)
		monitor.Start(ctx, cfg.Soil.RefreshInterval)
		go func() {
			_, _ = monitor.SelectNode(ctx, 0)
		}()

		srv := admin.NewServer(station, monitor, display, logger)
		go func() {
			if err := srv.Start(simAdminAddr); err != nil {
				logger.Error("admin server failed", "err", err)
				stop()
			}
		}()

		if simAutoConnect {
			_ = station.Connect("", "")
		}

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin shutdown", "err", err)
		}
		monitor.Stop()
		station.Close()
		if tui != nil {
			_ = tui.Close()
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to GreptimeDB or MQTT")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry logs (JSONL); missions and captures go to .missions and .captures")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Listen address of the command API")
	simulateCmd.Flags().BoolVar(&simNoTUI, "no-tui", false, "Log display updates instead of drawing the terminal dashboard")
	simulateCmd.Flags().BoolVar(&simColor, "color", true, "Colorize STDOUT telemetry")
	simulateCmd.Flags().BoolVar(&simAutoConnect, "connect", false, "Connect to the configured drone address on start")
	simulateCmd.Flags().StringVar(&simMQTTPrefix, "mqtt-prefix", "farmwatch", "Topic prefix when MQTT_BROKER is set")
	simulateCmd.Flags().StringVar(&simAppLog, "app-log", "", "Write application logs to this file (defaults to discarding them while the TUI runs)")
}

// simulationLogger keeps application logs off the terminal while the TUI
// owns it.
func simulationLogger(cfg *config.Config, useTUI bool) (*slog.Logger, func(), error) {
	level := levelFor(cfg)
	switch {
	case simAppLog != "":
		f, err := os.OpenFile(simAppLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		logger := logging.NewWithWriter(f, level)
		slog.SetDefault(logger)
		return logger, func() { _ = f.Close() }, nil
	case useTUI:
		logger := logging.NewWithWriter(io.Discard, level)
		slog.SetDefault(logger)
		return logger, func() {}, nil
	default:
		return newLogger(cfg), func() {}, nil
	}
}

func seededRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// dashboardActions binds TUI keys to station and soil commands. The
// pointers are filled in before the program can deliver a key press.
func dashboardActions(ctx context.Context, cfg *config.Config, station **sim.Station, monitor **soil.Monitor) []render.Action {
	return []render.Action{
		{Key: "c", Help: "connect", Prompt: "Drone address:", Default: cfg.Drone.Address, Run: func(in string) {
			_ = (*station).Connect(in, "")
		}},
		{Key: "t", Help: "test link", Run: func(string) {
			_ = (*station).TestConnection(ctx, "", "")
		}},
		{Key: "d", Help: "disconnect", Run: func(string) { (*station).Disconnect() }},
		{Key: "s", Help: "start mission", Run: func(string) { _ = (*station).StartMission() }},
		{Key: "p", Help: "pause", Run: func(string) { _ = (*station).PauseMission() }},
		{Key: "r", Help: "resume", Run: func(string) { _ = (*station).ResumeMission() }},
		{Key: "x", Help: "reset mission", Run: func(string) { _ = (*station).ResetMission() }},
		{Key: "e", Help: "emergency stop", Confirm: "Activate emergency stop?", Run: func(string) {
			_ = (*station).EmergencyStop(true)
		}},
		{Key: "f", Help: "field", Prompt: "Field (north, south, east, west):", Run: func(in string) {
			_ = (*station).SelectField(in)
		}},
		{Key: "m", Help: "flight mode", Prompt: "Mode (manual, auto, grid, follow):", Run: func(in string) {
			_ = (*station).SelectFlightMode(in)
		}},
		{Key: "+", Help: "zoom in", Run: func(string) { _ = (*station).ZoomIn() }},
		{Key: "-", Help: "zoom out", Run: func(string) { _ = (*station).ZoomOut() }},
		{Key: "0", Help: "reset view", Run: func(string) { _ = (*station).ResetView() }},
		{Key: "k", Help: "capture", Run: func(string) { _, _ = (*station).CaptureSnapshot() }},
		{Key: "u", Help: "refresh", Run: func(string) {
			_ = (*station).Refresh()
			_ = (*monitor).Refresh(ctx)
		}},
		{Key: "n", Help: "soil node", Prompt: "Node number:", Default: "1", Run: func(in string) {
			n, err := strconv.Atoi(in)
			if err != nil {
				n = 0
			}
			_, _ = (*monitor).SelectNode(ctx, n-1)
		}},
		{Key: "g", Help: "time range", Prompt: "Range (realtime, day, week, month):", Default: "realtime", Run: func(in string) {
			_ = (*monitor).ChangeTimeRange(in)
		}},
	}
}
