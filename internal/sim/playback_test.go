package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"farmwatch/internal/telemetry"
)

type collectWriter struct{ rows []telemetry.TelemetryRow }

func (c *collectWriter) Write(r telemetry.TelemetryRow) error {
	c.rows = append(c.rows, r)
	return nil
}

type batchCollectWriter struct {
	collectWriter
	batches []int
}

func (b *batchCollectWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	b.batches = append(b.batches, len(rows))
	b.rows = append(b.rows, rows...)
	return nil
}

func encodeRows(t *testing.T, rows []telemetry.TelemetryRow) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.TelemetryRow{
		{SessionID: "s1", FlightTime: 1, Timestamp: time.Unix(0, 0)},
		{SessionID: "s1", FlightTime: 2, Timestamp: time.Unix(1, 0)},
	}
	cw := &collectWriter{}
	stats, err := ReplayLog(context.Background(), encodeRows(t, rows), cw, ReplayOptions{})
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if stats.Read != 2 || stats.Written != 2 || len(cw.rows) != len(rows) {
		t.Fatalf("unexpected stats %+v with %d rows", stats, len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].FlightTime != r.FlightTime {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogFilters(t *testing.T) {
	rows := []telemetry.TelemetryRow{
		{SessionID: "s1", Field: "north", Channel: TaskSignal, Signal: 80},
		{SessionID: "s1", Field: "north", Channel: TaskData, NDVI: 0.7},
		{SessionID: "s1", Field: "south", Channel: TaskData, NDVI: 0.6},
		{SessionID: "s2", Field: "north", Channel: TaskData, NDVI: 0.5},
		{SessionID: "s1", Field: "north", Channel: TaskBattery, Battery: 84.7},
	}
	tests := []struct {
		name   string
		filter ReplayFilter
		want   int
	}{
		{"all", ReplayFilter{}, 5},
		{"session", ReplayFilter{Session: "s1"}, 4},
		{"field", ReplayFilter{Field: "north"}, 4},
		{"channel", ReplayFilter{Channels: []string{TaskData}}, 3},
		{"combined", ReplayFilter{Session: "s1", Field: "north", Channels: []string{TaskData, TaskBattery}}, 2},
		{"no match", ReplayFilter{Field: "west"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cw := &collectWriter{}
			stats, err := ReplayLog(context.Background(), encodeRows(t, rows), cw, ReplayOptions{Filter: tt.filter})
			if err != nil {
				t.Fatalf("ReplayLog: %v", err)
			}
			if stats.Read != len(rows) || stats.Written != tt.want || len(cw.rows) != tt.want {
				t.Fatalf("expected %d rows, got stats %+v rows %d", tt.want, stats, len(cw.rows))
			}
		})
	}
}

func TestReplayLogBatchesWithoutDelay(t *testing.T) {
	rows := make([]telemetry.TelemetryRow, replayBatchSize+10)
	for i := range rows {
		rows[i] = telemetry.TelemetryRow{SessionID: "s1", FlightTime: i, Timestamp: time.Unix(int64(i), 0)}
	}
	bw := &batchCollectWriter{}
	stats, err := ReplayLog(context.Background(), encodeRows(t, rows), bw, ReplayOptions{})
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(bw.batches) != 2 || bw.batches[0] != replayBatchSize || bw.batches[1] != 10 {
		t.Fatalf("unexpected batches %v", bw.batches)
	}
	if stats.Written != len(rows) || bw.rows[len(rows)-1].FlightTime != len(rows)-1 {
		t.Fatalf("rows lost in batching: %+v", stats)
	}
}

func TestReplayLogDecodeError(t *testing.T) {
	in := strings.NewReader(`{"session_id":"s1"}` + "\n" + `{not json}` + "\n")
	cw := &collectWriter{}
	stats, err := ReplayLog(context.Background(), in, cw, ReplayOptions{})
	if err == nil || !strings.Contains(err.Error(), "decode row 2") {
		t.Fatalf("expected decode error on row 2, got %v", err)
	}
	if stats.Written != 1 {
		t.Fatalf("expected the first row to be written, got %+v", stats)
	}
}

func TestReplayLogCancelled(t *testing.T) {
	rows := []telemetry.TelemetryRow{
		{Timestamp: time.Unix(0, 0)},
		{Timestamp: time.Unix(3600, 0)},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cw := &collectWriter{}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := ReplayLog(ctx, encodeRows(t, rows), cw, ReplayOptions{Speed: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(cw.rows) != 1 {
		t.Fatalf("expected one row before cancel, got %d", len(cw.rows))
	}
}
