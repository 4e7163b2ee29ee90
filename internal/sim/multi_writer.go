package sim

import (
	"errors"
	"io"

	"farmwatch/internal/telemetry"
)

// MultiWriter fan-outs telemetry, mission and capture rows to multiple writers.
// Mission events and captures only reach writers implementing the matching
// interface.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends a telemetry row to all writers.
func (mw *MultiWriter) Write(row telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple telemetry rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteMissionEvent sends a mission event to all mission event writers.
func (mw *MultiWriter) WriteMissionEvent(row telemetry.MissionEventRow) error {
	var errs []error
	for _, w := range mw.writers {
		if ew, ok := w.(MissionEventWriter); ok {
			if err := ew.WriteMissionEvent(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteCapture sends a capture to all capture writers.
func (mw *MultiWriter) WriteCapture(row telemetry.CaptureRow) error {
	var errs []error
	for _, w := range mw.writers {
		if cw, ok := w.(CaptureWriter); ok {
			if err := cw.WriteCapture(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
