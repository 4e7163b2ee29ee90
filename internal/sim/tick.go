package sim

import (
	"context"

	"farmwatch/internal/drone"
	"farmwatch/internal/render"
	"farmwatch/internal/schedule"
	"farmwatch/internal/telemetry"
)

func (s *Station) telemetryTasks() []schedule.Task {
	iv := s.cfg.Intervals
	return []schedule.Task{
		{Name: TaskSignal, Interval: iv.Signal, Run: s.signalTick},
		{Name: TaskBattery, Interval: iv.Battery, Run: s.batteryTick},
		{Name: TaskData, Interval: iv.Data, Run: s.dataTick},
		{Name: TaskAltitude, Interval: iv.Altitude, Run: s.altitudeTick},
	}
}

func (s *Station) missionTask() schedule.Task {
	return schedule.Task{Name: TaskMission, Interval: s.cfg.Intervals.Mission, Run: s.missionTick}
}

// Tick handlers run with s.mu held. Each one re-checks the connection so a
// tick that raced with Disconnect does nothing.

func (s *Station) signalTick(ctx context.Context) {
	if !s.life.Connected() {
		return
	}
	s.snap.Signal = s.gen.Signal()
	s.renderSignal()
	s.renderSidebar()
	s.emit(TaskSignal)
}

func (s *Station) batteryTick(ctx context.Context) {
	if !s.life.Connected() {
		return
	}
	s.snap.Battery = s.gen.Battery(s.snap.Battery)
	s.renderBattery()
	s.renderSidebar()
	s.emit(TaskBattery)
}

func (s *Station) dataTick(ctx context.Context) {
	if !s.life.Connected() {
		return
	}
	s.snap.FlightTime = s.gen.FlightTime(s.snap.FlightTime)
	if s.life.MissionActive() {
		s.snap.AreaCovered = s.gen.AreaCovered(s.snap.AreaCovered, s.life.Progress(), s.field.AreaHa)
	}
	s.snap.NDVI = s.gen.NDVI()
	s.snap.Health = s.gen.Health(s.snap.NDVI)
	s.snap.Coordinates = s.gen.Coordinates()

	s.renderSurvey()
	s.renderCoordinates(s.snap.Coordinates)
	s.sink.SetValue(render.LastUpdate, s.now().Format("15:04"))
	s.emit(TaskData)
}

func (s *Station) altitudeTick(ctx context.Context) {
	if !s.life.Connected() {
		return
	}
	s.snap.Altitude = s.gen.Altitude(s.snap.Altitude)
	s.renderAltitude()
	s.emit(TaskAltitude)
}

func (s *Station) missionTick(ctx context.Context) {
	if !s.life.MissionActive() {
		return
	}
	completed := s.life.Advance(s.gen.MissionProgress(s.life.Progress()))
	s.renderMission()
	if !completed {
		return
	}
	s.sched.StopTask(TaskMission)
	s.renderSystem()
	s.sink.Notify(render.Success, "Mission completed successfully!")
	s.recordEvent(telemetry.EventCompleted, drone.Active.String(), s.life.Mission().String())
	s.logger.Info("mission complete", "session", s.sessionID, "mission", s.missionID)
}

// emit writes the current snapshot tagged with the channel that changed.
func (s *Station) emit(channel string) {
	if s.writer == nil {
		return
	}
	row := telemetry.NewTelemetryRow(s.snap, s.life.Progress(), s.now().UTC())
	row.SessionID = s.sessionID
	row.MissionID = s.missionID
	row.Field = s.field.Name
	row.Channel = channel
	row.MissionState = s.life.Mission().String()
	if err := s.writer.Write(row); err != nil {
		s.logger.Warn("telemetry write failed", "channel", channel, "err", err)
	}
}
