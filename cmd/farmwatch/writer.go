package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"farmwatch/internal/sim"
)

type writerOptions struct {
	PrintOnly  bool // never write to GreptimeDB
	Quiet      bool // no stdout writer, the terminal belongs to the TUI
	Color      bool
	LogFile    string
	MQTTPrefix string
}

// newWriters sets up the telemetry writers from flags and env vars.
// It returns the writer and a cleanup function closing every resource.
func newWriters(opts writerOptions, logger *slog.Logger) (sim.TelemetryWriter, func(), error) {
	var writers []sim.TelemetryWriter
	cleanup := func() {}

	base, err := baseWriter(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	if base != nil {
		writers = append(writers, base)
	}

	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".missions", opts.LogFile+".captures")
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, fw)
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" && !opts.PrintOnly {
		clientID := os.Getenv("MQTT_CLIENT_ID")
		if clientID == "" {
			clientID = "farmwatch-" + uuid.NewString()[:8]
		}
		mw, err := sim.NewMQTTWriter(broker, clientID, opts.MQTTPrefix, logger)
		if err != nil {
			closeAll(writers)
			return nil, nil, err
		}
		writers = append(writers, mw)
	}

	switch len(writers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		w := writers[0]
		return w, func() { closeAll(writers) }, nil
	default:
		mw := sim.NewMultiWriter(writers...)
		return mw, func() { _ = mw.Close() }, nil
	}
}

// baseWriter chooses GreptimeDB when configured, else STDOUT.
func baseWriter(opts writerOptions, logger *slog.Logger) (sim.TelemetryWriter, error) {
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if opts.PrintOnly || endpoint == "" {
		if opts.Quiet {
			return nil, nil
		}
		if opts.Color {
			return sim.NewStdoutWriter(true), nil
		}
		return sim.NewJSONStdoutWriter(), nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return sim.NewGreptimeDBWriter(endpoint, database, logger)
}

type closer interface {
	Close() error
}

func closeAll(writers []sim.TelemetryWriter) {
	for _, w := range writers {
		if c, ok := w.(closer); ok {
			_ = c.Close()
		}
	}
}
