// Writer implementation printing telemetry to STDOUT
package sim

import (
	"fmt"
	"io"
	"os"
	"time"

	"farmwatch/internal/status"
	"farmwatch/internal/telemetry"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
	colorCyan   = "\x1b[36m"
	colorGray   = "\x1b[90m"
)

func levelANSI(l status.Level) string {
	switch l {
	case status.Good:
		return colorGreen
	case status.Warning:
		return colorYellow
	default:
		return colorRed
	}
}

// StdoutWriter prints human-readable telemetry lines. Without colour it
// falls back to JSON lines.
type StdoutWriter struct {
	out      io.Writer
	colorize bool
	json     *JSONStdoutWriter
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(colorize bool) *StdoutWriter {
	return &StdoutWriter{out: os.Stdout, colorize: colorize}
}

func (w *StdoutWriter) fallback() *JSONStdoutWriter {
	if w.json == nil {
		w.json = &JSONStdoutWriter{out: w.out}
	}
	return w.json
}

// Write outputs a single telemetry row.
func (w *StdoutWriter) Write(row telemetry.TelemetryRow) error {
	if !w.colorize {
		return w.fallback().Write(row)
	}
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %sfield=%s%s signal=%s%.0f%%%s batt=%s%.1f%%%s %salt=%.0fm%s %sndvi=%.2f%s %shealth=%.0f%%%s %sarea=%.1fha%s %sflight=%s%s %smission=%s %.0f%%%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.Field, colorReset,
		levelANSI(status.Classify(status.Signal, row.Signal)), row.Signal, colorReset,
		levelANSI(status.Classify(status.Battery, row.Battery)), row.Battery, colorReset,
		colorCyan, row.Altitude, colorReset,
		colorGreen, row.NDVI, colorReset,
		levelANSI(status.Classify(status.Progress, row.Health)), row.Health, colorReset,
		colorYellow, row.AreaCovered, colorReset,
		colorGray, telemetry.FlightTime(row.FlightTime), colorReset,
		colorBlue, row.MissionState, row.MissionProgress, colorReset,
	)
	return err
}

// WriteMissionEvent prints a mission event line.
func (w *StdoutWriter) WriteMissionEvent(row telemetry.MissionEventRow) error {
	if !w.colorize {
		return w.fallback().WriteMissionEvent(row)
	}
	_, err := fmt.Fprintf(w.out, "%s[%s]%s %sMISSION%s %s %s -> %s (%.0f%%)\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorCyan, colorReset, row.Event, row.From, row.To, row.Progress)
	return err
}
