package sim

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"farmwatch/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func newMockGreptimeWriter(m *mockGreptimeClient) *GreptimeDBWriter {
	return &GreptimeDBWriter{
		client:         m,
		telemetryTable: "farm_drone_telemetry",
		missionTable:   "farm_mission_events",
		timeout:        time.Second,
	}
}

func TestGreptimeWriterTelemetry(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newMockGreptimeWriter(m)
	w.logger = testLogger()
	row := telemetry.TelemetryRow{SessionID: "s1", MissionID: "m1", Field: "north", Channel: "data", Battery: 84.7, FlightTime: 12, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteBatch([]telemetry.TelemetryRow{row, row}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	rows := m.table.GetRows()
	if len(rows.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows.Rows))
	}
	if got := rows.Rows[0].Values[0].GetStringValue(); got != "s1" {
		t.Fatalf("session_id = %s, want s1", got)
	}
	if got := rows.Rows[0].Values[5].GetF64Value(); got != 84.7 {
		t.Fatalf("battery = %f, want 84.7", got)
	}
	if rows.Schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("session_id should be a tag column")
	}
}

func TestGreptimeWriterMissionEvent(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newMockGreptimeWriter(m)
	w.logger = testLogger()
	ev := telemetry.MissionEventRow{SessionID: "s1", MissionID: "m1", Event: telemetry.EventCompleted, From: "active", To: "complete", Progress: 100, Timestamp: time.Unix(0, 0).UTC()}
	if err := w.WriteMissionEvent(ev); err != nil {
		t.Fatalf("WriteMissionEvent: %v", err)
	}
	if got := m.table.GetRows().Rows[0].Values[2].GetStringValue(); got != telemetry.EventCompleted {
		t.Fatalf("event = %s, want %s", got, telemetry.EventCompleted)
	}
}

func TestSplitEndpoint(t *testing.T) {
	host, port, err := splitEndpoint("greptime.local:4101")
	if err != nil || host != "greptime.local" || port != 4101 {
		t.Fatalf("unexpected split %s %d %v", host, port, err)
	}
	host, port, _ = splitEndpoint("localhost")
	if host != "localhost" || port != defaultGreptimePort {
		t.Fatalf("unexpected default split %s %d", host, port)
	}
	if _, _, err := splitEndpoint("host:abc"); err == nil {
		t.Fatalf("expected invalid port error")
	}
}
