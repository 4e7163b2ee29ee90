package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"farmwatch/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes telemetry and mission events to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client         greptimeClient
	telemetryTable string
	missionTable   string
	timeout        time.Duration
	logger         *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port) and writes to database.
func NewGreptimeDBWriter(endpoint, database string, logger *slog.Logger) (*GreptimeDBWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:         client,
		telemetryTable: telemetry.TelemetryTableName,
		missionTable:   telemetry.MissionEventTableName,
		timeout:        5 * time.Second,
		logger:         logger.With("component", "greptime"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptime port %q: %w", portStr, err)
	}
	return host, port, nil
}

// Write inserts a single telemetry row.
func (w *GreptimeDBWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch inserts multiple telemetry rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.telemetryTable)
	if err != nil {
		return err
	}
	for _, tag := range []string{"session_id", "mission_id", "field", "channel"} {
		if err := tbl.AddTagColumn(tag, types.STRING); err != nil {
			return err
		}
	}
	for _, f := range []string{"signal", "battery", "altitude", "ndvi", "health"} {
		if err := tbl.AddFieldColumn(f, types.FLOAT64); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("flight_time_s", types.INT64); err != nil {
		return err
	}
	for _, f := range []string{"area_covered_ha", "lat", "lon", "mission_progress"} {
		if err := tbl.AddFieldColumn(f, types.FLOAT64); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("mission_state", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(
			r.SessionID, r.MissionID, r.Field, r.Channel,
			r.Signal, r.Battery, r.Altitude, r.NDVI, r.Health,
			int64(r.FlightTime),
			r.AreaCovered, r.Lat, r.Lon, r.MissionProgress,
			r.MissionState,
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteMissionEvent inserts a mission lifecycle event.
func (w *GreptimeDBWriter) WriteMissionEvent(row telemetry.MissionEventRow) error {
	tbl, err := table.New(w.missionTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("session_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("mission_id", types.STRING); err != nil {
		return err
	}
	for _, f := range []string{"event", "from_state", "to_state"} {
		if err := tbl.AddFieldColumn(f, types.STRING); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("progress", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(row.SessionID, row.MissionID, row.Event, row.From, row.To, row.Progress, row.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, 1)
}

func (w *GreptimeDBWriter) write(tbl *table.Table, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger.Error("greptime write failed", "err", err)
		return err
	}
	w.logger.Debug("greptime rows written", "rows", n)
	return nil
}
