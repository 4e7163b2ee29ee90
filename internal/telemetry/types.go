// Telemetry structs with greptime tags
package telemetry

import (
	"fmt"
	"os"
	"time"
)

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FlightTime counts elapsed flight seconds.
type FlightTime int

// String renders the flight time as mm:ss.
func (f FlightTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(f)/60, int(f)%60)
}

// Snapshot is the most recently generated value of every telemetry channel.
type Snapshot struct {
	Signal      float64    `json:"signal"`
	Battery     float64    `json:"battery"`
	Altitude    float64    `json:"altitude"`
	NDVI        float64    `json:"ndvi"`
	Health      float64    `json:"health"`
	FlightTime  FlightTime `json:"flight_time"`
	AreaCovered float64    `json:"area_covered"`
	Coordinates Position   `json:"coordinates"`
}

// TelemetryRow represents one telemetry record for GreptimeDB.
type TelemetryRow struct {
	SessionID       string    `json:"session_id"` // TAG
	MissionID       string    `json:"mission_id"` // TAG
	Field           string    `json:"field"`      // TAG
	Channel         string    `json:"channel"`    // TAG, the task group that produced the row
	Signal          float64   `json:"signal"`
	Battery         float64   `json:"battery"`
	Altitude        float64   `json:"altitude"`
	NDVI            float64   `json:"ndvi"`
	Health          float64   `json:"health"`
	FlightTime      int       `json:"flight_time_s"`
	AreaCovered     float64   `json:"area_covered_ha"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	MissionProgress float64   `json:"mission_progress"`
	MissionState    string    `json:"mission_state"`
	Timestamp       time.Time `json:"ts"` // TIME INDEX
}

// NewTelemetryRow flattens a snapshot into a row.
func NewTelemetryRow(s Snapshot, progress float64, ts time.Time) TelemetryRow {
	return TelemetryRow{
		Signal:          s.Signal,
		Battery:         s.Battery,
		Altitude:        s.Altitude,
		NDVI:            s.NDVI,
		Health:          s.Health,
		FlightTime:      int(s.FlightTime),
		AreaCovered:     s.AreaCovered,
		Lat:             s.Coordinates.Lat,
		Lon:             s.Coordinates.Lon,
		MissionProgress: progress,
		Timestamp:       ts,
	}
}

// TelemetryTableName holds the table name used when writing to GreptimeDB.
// It defaults to "farm_drone_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TelemetryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "farm_drone_telemetry"
}()

func (TelemetryRow) TableName() string {
	return TelemetryTableName
}

// MissionEventRow records one mission lifecycle transition.
type MissionEventRow struct {
	SessionID string    `json:"session_id"`
	MissionID string    `json:"mission_id"`
	Event     string    `json:"event"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Progress  float64   `json:"progress"`
	Timestamp time.Time `json:"ts"`
}

// MissionEventTableName is the GreptimeDB table for mission events.
var MissionEventTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_MISSION_TABLE"); env != "" {
		return env
	}
	return "farm_mission_events"
}()

func (MissionEventRow) TableName() string {
	return MissionEventTableName
}

// Mission event names.
const (
	EventConnected  = "connected"
	EventStarted    = "started"
	EventPaused     = "paused"
	EventResumed    = "resumed"
	EventCompleted  = "completed"
	EventStopped    = "emergency_stop"
	EventReset      = "reset"
	EventDisconnect = "disconnected"
)

// CaptureRow is a map snapshot taken by the operator.
type CaptureRow struct {
	CaptureID string    `json:"capture_id"`
	SessionID string    `json:"session_id"`
	Field     string    `json:"field"`
	Zoom      int       `json:"zoom"`
	Snapshot  Snapshot  `json:"snapshot"`
	Progress  float64   `json:"progress"`
	Timestamp time.Time `json:"ts"`
}
