package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"farmwatch/internal/telemetry"
)

// JSONStdoutWriter prints telemetry, mission events and captures as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a telemetry row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.TelemetryRow) error {
	return w.emit(row)
}

// WriteBatch outputs multiple telemetry rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteMissionEvent outputs a mission event in JSON format.
func (w *JSONStdoutWriter) WriteMissionEvent(row telemetry.MissionEventRow) error {
	return w.emit(row)
}

// WriteCapture outputs a map capture in JSON format.
func (w *JSONStdoutWriter) WriteCapture(row telemetry.CaptureRow) error {
	return w.emit(row)
}
