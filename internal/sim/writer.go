package sim

import (
	"farmwatch/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TelemetryRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.TelemetryRow) error
}

// MissionEventWriter records mission lifecycle transitions.
type MissionEventWriter interface {
	WriteMissionEvent(telemetry.MissionEventRow) error
}

// CaptureWriter records map captures.
type CaptureWriter interface {
	WriteCapture(telemetry.CaptureRow) error
}
