package render

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"farmwatch/internal/status"
)

func TestRecorderIgnoresUnknownElements(t *testing.T) {
	r := NewRecorder()
	r.SetValue("no-such-element", "x")
	r.SetStatus("no-such-element", status.Critical)
	r.SetProgress("no-such-element", 12)
	d := r.Snapshot()
	if len(d.Values) != 0 || len(d.Statuses) != 0 || len(d.Progress) != 0 {
		t.Fatalf("unknown element recorded: %+v", d)
	}
}

func TestRecorderKeepsLatest(t *testing.T) {
	r := NewRecorder()
	r.SetValue(BatteryValue, "85%")
	r.SetValue(BatteryValue, "84%")
	r.SetStatus(BatteryStatus, status.Warning)
	r.SetProgress(BatteryBar, 84.4)
	if r.Value(BatteryValue) != "84%" {
		t.Fatalf("expected latest value, got %q", r.Value(BatteryValue))
	}
	if l, ok := r.Status(BatteryStatus); !ok || l != status.Warning {
		t.Fatalf("unexpected status %v %v", l, ok)
	}
	if r.Progress(BatteryBar) != 84.4 {
		t.Fatalf("unexpected progress %f", r.Progress(BatteryBar))
	}
}

func TestRecorderBoundsNotices(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < maxNotices+10; i++ {
		Notifyf(r, Info, "notice %d", i)
	}
	n := r.Notices()
	if len(n) != maxNotices {
		t.Fatalf("expected %d notices, got %d", maxNotices, len(n))
	}
	last, _ := r.LastNotice()
	if last.Message != "notice 59" {
		t.Fatalf("unexpected last notice %q", last.Message)
	}
}

func TestMultiAndLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRecorder()
	m := Multi{r, NewLogSink(logger)}
	m.SetValue(SignalValue, "91%")
	m.Notify(Warning, "Connect drone first")
	if r.Value(SignalValue) != "91%" {
		t.Fatalf("multi did not forward value")
	}
	out := buf.String()
	if !strings.Contains(out, "signal-value") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
