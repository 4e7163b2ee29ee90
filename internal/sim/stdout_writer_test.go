package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"farmwatch/internal/telemetry"
)

func TestStdoutWriterJSONFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &StdoutWriter{out: buf}
	row := telemetry.TelemetryRow{SessionID: "s1", Field: "north", Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &StdoutWriter{out: buf, colorize: true}
	row := telemetry.TelemetryRow{Field: "north", Signal: 91, Battery: 25, NDVI: 0.7, FlightTime: 75, MissionState: "active", Timestamp: time.Unix(0, 0)}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "field=north") || !strings.Contains(out, "01:15") {
		t.Fatalf("unexpected line %q", out)
	}
	if !strings.Contains(out, colorRed+"25.0%") {
		t.Fatalf("expected critical battery in red: %q", out)
	}

	buf.Reset()
	if err := w.WriteMissionEvent(telemetry.MissionEventRow{Event: telemetry.EventPaused, From: "active", To: "paused"}); err != nil {
		t.Fatalf("mission event failed: %v", err)
	}
	if !strings.Contains(buf.String(), "MISSION") {
		t.Fatalf("unexpected mission line %q", buf.String())
	}
}
