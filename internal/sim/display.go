package sim

import (
	"fmt"
	"strconv"

	"farmwatch/internal/drone"
	"farmwatch/internal/render"
	"farmwatch/internal/status"
	"farmwatch/internal/telemetry"
)

func zoomText(scale int) string {
	return "1:" + strconv.Itoa(scale)
}

func (s *Station) renderSignal() {
	v := s.snap.Signal
	s.sink.SetValue(render.SignalValue, fmt.Sprintf("%d%%", int(v)))
	s.sink.SetValue(render.SignalStatus, status.SignalLabel(v))
	s.sink.SetStatus(render.SignalStatus, status.Classify(status.Signal, v))
	s.sink.SetProgress(render.SignalBar, v)
	s.sink.SetStatus(render.SignalBar, status.Classify(status.Signal, v))
}

func (s *Station) renderBattery() {
	v := s.snap.Battery
	s.sink.SetValue(render.BatteryValue, fmt.Sprintf("%d%%", int(v)))
	s.sink.SetValue(render.BatteryStatus, status.BatteryLabel(v))
	s.sink.SetStatus(render.BatteryStatus, status.Classify(status.Battery, v))
	s.sink.SetProgress(render.BatteryBar, v)
	s.sink.SetStatus(render.BatteryBar, status.Classify(status.Battery, v))
}

func (s *Station) renderAltitude() {
	s.sink.SetValue(render.DroneAltitude, fmt.Sprintf("%dm", int(s.snap.Altitude)))
}

func (s *Station) renderArea() {
	s.sink.SetValue(render.AreaCovered, fmt.Sprintf("%.1f ha", s.snap.AreaCovered))
	pct := 0.0
	if s.field.AreaHa > 0 {
		pct = s.snap.AreaCovered / s.field.AreaHa * 100
	}
	s.sink.SetProgress(render.AreaBar, pct)
}

// renderSurvey draws the data-tick channels.
func (s *Station) renderSurvey() {
	s.sink.SetValue(render.FlightTime, s.snap.FlightTime.String())
	s.sink.SetProgress(render.FlightBar, telemetry.FlightBar(s.snap.FlightTime))
	s.renderArea()
	s.sink.SetValue(render.AvgNDVI, fmt.Sprintf("%.2f", s.snap.NDVI))
	s.sink.SetProgress(render.NDVIBar, s.snap.NDVI*100)
	s.sink.SetValue(render.HealthScore, fmt.Sprintf("%d%%", int(s.snap.Health)))
	s.sink.SetProgress(render.HealthBar, s.snap.Health)
	s.sink.SetStatus(render.HealthBar, status.Classify(status.Progress, s.snap.Health))
}

func (s *Station) renderCoordinates(p telemetry.Position) {
	s.sink.SetValue(render.MapCoordinates, fmt.Sprintf("Lat: %.6f°, Lng: %.6f°", p.Lat, p.Lon))
}

func (s *Station) renderSnapshot() {
	s.renderSignal()
	s.renderBattery()
	s.renderAltitude()
	s.renderSurvey()
	s.renderCoordinates(s.snap.Coordinates)
	s.renderSidebar()
}

func missionLevel(m drone.MissionState) status.Level {
	switch m {
	case drone.Active, drone.Complete:
		return status.Good
	case drone.Stopped:
		return status.Critical
	default:
		return status.Warning
	}
}

func (s *Station) renderMission() {
	m := s.life.Mission()
	p := s.life.Progress()
	s.sink.SetValue(render.MissionStatus, m.Label())
	s.sink.SetStatus(render.MissionStatus, missionLevel(m))
	s.sink.SetProgress(render.MissionBar, p)
	s.sink.SetValue(render.MissionProgress, fmt.Sprintf("%d%%", int(p)))
	s.sink.SetProgress(render.MissionProgressBar, p)
	s.sink.SetStatus(render.MissionProgressBar, status.Classify(status.Progress, p))
}

func (s *Station) renderSidebar() {
	b, sig := s.snap.Battery, s.snap.Signal
	s.sink.SetValue(render.SidebarBattery, fmt.Sprintf("%d%%", int(b)))
	s.sink.SetStatus(render.SidebarBatteryDot, status.Classify(status.SidebarBattery, b))
	s.sink.SetValue(render.SidebarSignal, fmt.Sprintf("%d%%", int(sig)))
	s.sink.SetStatus(render.SidebarSignalDot, status.Classify(status.SidebarSignal, sig))
}

// renderSystem draws the header text: ready, connected or mission active.
func (s *Station) renderSystem() {
	switch {
	case s.life.MissionActive():
		s.sink.SetValue(render.SystemStatusText, "Mission Active")
		s.sink.SetStatus(render.SystemStatusDot, status.Good)
	case s.life.Connected():
		s.sink.SetValue(render.SystemStatusText, "Drone Connected")
		s.sink.SetStatus(render.SystemStatusDot, status.Good)
	default:
		s.sink.SetValue(render.SystemStatusText, "System Ready")
		s.sink.SetStatus(render.SystemStatusDot, status.Warning)
	}
	if s.life.Connected() {
		s.sink.SetStatus(render.ConnectionDot, status.Good)
	} else {
		s.sink.SetStatus(render.ConnectionDot, status.Critical)
	}
}

// renderOffline resets every drone element to its disconnected state.
func (s *Station) renderOffline() {
	s.sink.SetValue(render.ConnectionValue, "Disconnected")
	s.sink.SetValue(render.ConnectionStatus, "Offline")
	s.sink.SetStatus(render.ConnectionStatus, status.Critical)
	s.sink.SetProgress(render.ConnectionBar, 0)
	s.sink.SetValue(render.DroneStatus, "Offline")
	for _, id := range []string{render.SignalValue, render.BatteryValue, render.SidebarBattery, render.SidebarSignal} {
		s.sink.SetValue(id, "0%")
	}
	for _, id := range []string{render.SignalBar, render.BatteryBar, render.FlightBar, render.AreaBar, render.NDVIBar, render.HealthBar} {
		s.sink.SetProgress(id, 0)
	}
	s.sink.SetValue(render.SignalStatus, "--")
	s.sink.SetValue(render.BatteryStatus, "--")
	s.sink.SetValue(render.FlightTime, telemetry.FlightTime(0).String())
	s.sink.SetValue(render.AreaCovered, "0.0 ha")
	s.sink.SetValue(render.AvgNDVI, "--")
	s.sink.SetValue(render.HealthScore, "--")
	s.sink.SetValue(render.DroneAltitude, "--")
	s.renderMission()
	s.renderSystem()
}
