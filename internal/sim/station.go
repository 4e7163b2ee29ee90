// Station orchestrating the drone lifecycle, telemetry tasks and the dashboard
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"farmwatch/internal/config"
	"farmwatch/internal/drone"
	"farmwatch/internal/render"
	"farmwatch/internal/schedule"
	"farmwatch/internal/status"
	"farmwatch/internal/telemetry"
)

// Task group names.
const (
	TaskSignal   = "signal"
	TaskBattery  = "battery"
	TaskData     = "data"
	TaskAltitude = "altitude"
	TaskMission  = "mission"
)

var (
	// ErrUnknownOption is returned for unknown fields, flight modes or transports.
	ErrUnknownOption = errors.New("unknown option")
	// ErrZoomLimit is returned when zooming in past the minimum scale.
	ErrZoomLimit = errors.New("maximum zoom level reached")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("station closed")
)

// timerFunc runs f after d and returns a function that cancels it.
type timerFunc func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Options configures a Station.
type Options struct {
	Config *config.Config
	Sink   render.Sink
	Writer TelemetryWriter // optional
	Logger *slog.Logger
	Rand   *rand.Rand
	Now    func() time.Time
}

// Status is a point-in-time view of the station.
type Status struct {
	Connection string             `json:"connection"`
	Mission    string             `json:"mission"`
	Progress   float64            `json:"progress"`
	Address    string             `json:"address,omitempty"`
	Transport  string             `json:"transport,omitempty"`
	Field      config.Field       `json:"field"`
	FlightMode config.FlightMode  `json:"flight_mode"`
	Zoom       int                `json:"zoom"`
	SessionID  string             `json:"session_id,omitempty"`
	MissionID  string             `json:"mission_id,omitempty"`
	Telemetry  telemetry.Snapshot `json:"telemetry"`
	Tasks      []string           `json:"tasks"`
}

// Station runs one simulated drone. Every command and every task tick runs
// under mu, so generation, assignment and rendering happen as one step.
type Station struct {
	mu     sync.Mutex
	cfg    *config.Config
	life   *drone.Lifecycle
	sched  *schedule.Scheduler
	gen    *telemetry.Generator
	sink   render.Sink
	writer TelemetryWriter
	logger *slog.Logger
	now    func() time.Time
	after  timerFunc

	ctx    context.Context
	cancel context.CancelFunc

	snap          telemetry.Snapshot
	field         config.Field
	mode          config.FlightMode
	zoom          int
	sessionID     string
	missionID     string
	cancelConnect func() bool
	closed        bool
}

// NewStation creates a disconnected station and draws the initial dashboard.
func NewStation(opts Options) *Station {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sink := opts.Sink
	if sink == nil {
		sink = render.NewLogSink(logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Station{
		cfg:    cfg,
		life:   drone.NewLifecycle(),
		gen:    telemetry.NewGenerator(telemetry.Position{Lat: cfg.Origin.Lat, Lon: cfg.Origin.Lon}, rng, now),
		sink:   sink,
		writer: opts.Writer,
		logger: logger.With("component", "station"),
		now:    now,
		after:  afterFunc,
		ctx:    ctx,
		cancel: cancel,
		zoom:   cfg.Zoom.Default,
	}
	s.sched = schedule.New(&s.mu, logger)
	if len(cfg.Fields) > 0 {
		s.field = cfg.Fields[0]
	}
	if len(cfg.FlightModes) > 0 {
		s.mode = cfg.FlightModes[0]
	}

	s.mu.Lock()
	s.renderOffline()
	s.sink.SetValue(render.FieldName, s.field.Label)
	s.sink.SetValue(render.FlightMode, s.mode.Label)
	s.sink.SetValue(render.ZoomLevel, zoomText(s.zoom))
	s.renderCoordinates(s.gen.Origin())
	s.sink.Notify(render.Success, "NDVI Dashboard initialized")
	s.mu.Unlock()
	return s
}

func (s *Station) notConnected(op string) error {
	return &drone.TransitionError{Op: op, Conn: s.life.Connection(), Mission: s.life.Mission(), Reason: "drone not connected"}
}

func (s *Station) resolveLink(address, transport string) (string, string, error) {
	if address == "" {
		address = s.cfg.Drone.Address
	}
	if transport == "" {
		transport = s.cfg.Drone.Transport
	}
	if !s.cfg.SupportsTransport(transport) {
		return "", "", fmt.Errorf("transport %q: %w", transport, ErrUnknownOption)
	}
	return address, transport, nil
}

// Connect starts connecting to the drone. The link comes up after the
// configured connect delay.
func (s *Station) Connect(address, transport string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	address, transport, err := s.resolveLink(address, transport)
	if err != nil {
		s.sink.Notify(render.Warning, err.Error())
		return err
	}
	attempt, err := s.life.Connect(address, transport)
	if err != nil {
		var te *drone.TransitionError
		if errors.As(err, &te) {
			s.sink.Notify(render.Warning, "Drone "+te.Reason)
		}
		return err
	}
	s.logger.Info("connecting", "address", address, "transport", transport)
	render.Notifyf(s.sink, render.Info, "Connecting to drone at %s via %s...", address, transport)
	s.sink.SetValue(render.ConnectionValue, "Connecting")
	s.sink.SetValue(render.ConnectionStatus, "Connecting")
	s.sink.SetStatus(render.ConnectionStatus, status.Warning)
	s.sink.SetProgress(render.ConnectionBar, 50)
	s.cancelConnect = s.after(s.cfg.Drone.ConnectDelay, func() { s.completeConnect(attempt) })
	return nil
}

func (s *Station) completeConnect(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.life.CompleteConnect(attempt) {
		return
	}
	s.cancelConnect = nil
	s.sessionID = uuid.NewString()
	s.missionID = ""
	s.snap = s.gen.Initial()
	s.logger.Info("drone connected", "session", s.sessionID, "address", s.life.Address())

	s.sink.SetValue(render.ConnectionValue, "Connected")
	s.sink.SetValue(render.ConnectionStatus, "Connected")
	s.sink.SetStatus(render.ConnectionStatus, status.Good)
	s.sink.SetProgress(render.ConnectionBar, 100)
	s.sink.SetValue(render.DroneStatus, "Connected")
	s.renderSnapshot()
	s.renderMission()
	s.renderSystem()
	s.sink.Notify(render.Success, "Drone connected successfully!")
	s.recordEvent(telemetry.EventConnected, drone.Disconnected.String(), drone.Connected.String())

	s.sched.Restart(s.ctx, s.telemetryTasks()...)
}

// TestConnection checks the link without connecting.
func (s *Station) TestConnection(ctx context.Context, address, transport string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	address, transport, err := s.resolveLink(address, transport)
	if err != nil {
		s.sink.Notify(render.Warning, err.Error())
		s.mu.Unlock()
		return err
	}
	render.Notifyf(s.sink, render.Info, "Testing connection to %s via %s...", address, transport)
	delay := s.cfg.Drone.TestDelay
	s.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.Notify(render.Success, "Connection test successful!")
	return nil
}

// Disconnect drops the link from any state, stops every task and resets
// the mission.
func (s *Station) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	prev := s.life.Connection()
	if s.cancelConnect != nil {
		s.cancelConnect()
		s.cancelConnect = nil
	}
	s.life.Disconnect()
	s.sched.Stop()
	if prev == drone.Disconnected {
		return
	}
	s.recordEvent(telemetry.EventDisconnect, prev.String(), drone.Disconnected.String())
	s.logger.Info("drone disconnected", "session", s.sessionID)
	s.snap = telemetry.Snapshot{}
	s.missionID = ""
	s.renderOffline()
	s.sink.Notify(render.Info, "Drone disconnected")
}

// StartMission begins a mission from Idle or Stopped.
func (s *Station) StartMission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev := s.life.Mission()
	if err := s.life.StartMission(); err != nil {
		s.warnRejected(err)
		return err
	}
	s.missionID = uuid.NewString()
	s.sched.Start(s.ctx, s.missionTask())
	s.renderMission()
	s.renderSystem()
	s.sink.Notify(render.Success, "Mission started successfully")
	s.recordEvent(telemetry.EventStarted, prev.String(), drone.Active.String())
	return nil
}

// PauseMission halts mission progress. It does nothing while disconnected.
func (s *Station) PauseMission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.life.Connected() {
		return nil
	}
	if err := s.life.PauseMission(); err != nil {
		s.warnRejected(err)
		return err
	}
	s.sched.StopTask(TaskMission)
	s.renderMission()
	s.renderSystem()
	s.sink.Notify(render.Warning, "Mission paused")
	s.recordEvent(telemetry.EventPaused, drone.Active.String(), drone.Paused.String())
	return nil
}

// ResumeMission continues a paused mission.
func (s *Station) ResumeMission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.life.ResumeMission(); err != nil {
		s.warnRejected(err)
		return err
	}
	s.sched.Start(s.ctx, s.missionTask())
	s.renderMission()
	s.renderSystem()
	s.sink.Notify(render.Info, "Mission resumed")
	s.recordEvent(telemetry.EventResumed, drone.Paused.String(), drone.Active.String())
	return nil
}

// ResetMission returns a finished mission to Idle.
func (s *Station) ResetMission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev := s.life.Mission()
	if err := s.life.ResetMission(); err != nil {
		s.warnRejected(err)
		return err
	}
	s.renderMission()
	s.sink.Notify(render.Info, "Mission reset")
	s.recordEvent(telemetry.EventReset, prev.String(), drone.Idle.String())
	s.missionID = ""
	return nil
}

// EmergencyStop aborts the mission, clears progress and area covered.
// confirmed must be true.
func (s *Station) EmergencyStop(confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev := s.life.Mission()
	if err := s.life.EmergencyStop(confirmed); err != nil {
		if errors.Is(err, drone.ErrNotConfirmed) {
			s.sink.Notify(render.Warning, "Emergency stop requires confirmation")
		} else {
			s.warnRejected(err)
		}
		return err
	}
	s.sched.StopTask(TaskMission)
	s.snap.AreaCovered = 0
	s.renderArea()
	s.renderMission()
	s.renderSystem()
	s.sink.Notify(render.Error, "Emergency stop activated!")
	s.recordEvent(telemetry.EventStopped, prev.String(), drone.Stopped.String())
	s.logger.Warn("emergency stop", "session", s.sessionID, "mission", s.missionID)
	return nil
}

// SelectField switches the surveyed field and resets the area covered.
func (s *Station) SelectField(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	f, ok := s.cfg.Field(name)
	if !ok {
		err := fmt.Errorf("field %q: %w", name, ErrUnknownOption)
		s.sink.Notify(render.Warning, err.Error())
		return err
	}
	s.field = f
	s.snap.AreaCovered = 0
	s.sink.SetValue(render.FieldName, f.Label)
	s.renderArea()
	render.Notifyf(s.sink, render.Info, "Switched to %s", f.Label)
	return nil
}

// SelectFlightMode switches the flight pattern.
func (s *Station) SelectFlightMode(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	m, ok := s.cfg.FlightMode(name)
	if !ok {
		err := fmt.Errorf("flight mode %q: %w", name, ErrUnknownOption)
		s.sink.Notify(render.Warning, err.Error())
		return err
	}
	s.mode = m
	s.sink.SetValue(render.FlightMode, m.Label)
	render.Notifyf(s.sink, render.Info, "Flight mode changed to %s", m.Label)
	return nil
}

// ZoomIn decreases the map scale by one step down to the minimum.
func (s *Station) ZoomIn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.life.Connected() {
		s.sink.Notify(render.Warning, "Connect drone first")
		return s.notConnected("zoom in")
	}
	next := s.zoom - s.cfg.Zoom.Step
	if next < s.cfg.Zoom.Min {
		s.sink.Notify(render.Warning, "Maximum zoom level reached")
		return ErrZoomLimit
	}
	s.zoom = next
	s.sink.SetValue(render.ZoomLevel, zoomText(s.zoom))
	render.Notifyf(s.sink, render.Info, "Zoomed in to %s", zoomText(s.zoom))
	return nil
}

// ZoomOut increases the map scale by one step.
func (s *Station) ZoomOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.life.Connected() {
		s.sink.Notify(render.Warning, "Connect drone first")
		return s.notConnected("zoom out")
	}
	s.zoom += s.cfg.Zoom.Step
	s.sink.SetValue(render.ZoomLevel, zoomText(s.zoom))
	render.Notifyf(s.sink, render.Info, "Zoomed out to %s", zoomText(s.zoom))
	return nil
}

// ResetView restores the default map scale.
func (s *Station) ResetView() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.life.Connected() {
		s.sink.Notify(render.Warning, "Connect drone first")
		return s.notConnected("reset view")
	}
	s.zoom = s.cfg.Zoom.Default
	s.sink.SetValue(render.ZoomLevel, zoomText(s.zoom))
	s.sink.Notify(render.Info, "View reset to default")
	return nil
}

// CaptureSnapshot records the current map view and telemetry.
func (s *Station) CaptureSnapshot() (telemetry.CaptureRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return telemetry.CaptureRow{}, ErrClosed
	}
	if !s.life.Connected() {
		s.sink.Notify(render.Warning, "Connect drone first")
		return telemetry.CaptureRow{}, s.notConnected("capture")
	}
	row := telemetry.CaptureRow{
		CaptureID: uuid.NewString(),
		SessionID: s.sessionID,
		Field:     s.field.Name,
		Zoom:      s.zoom,
		Snapshot:  s.snap,
		Progress:  s.life.Progress(),
		Timestamp: s.now().UTC(),
	}
	if cw, ok := s.writer.(CaptureWriter); ok {
		if err := cw.WriteCapture(row); err != nil {
			s.logger.Warn("capture write failed", "capture", row.CaptureID, "err", err)
			s.sink.Notify(render.Error, "Map snapshot could not be saved")
			return row, err
		}
	}
	s.sink.Notify(render.Success, "Map snapshot saved")
	return row, nil
}

// Refresh runs an immediate data update.
func (s *Station) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.life.Connected() {
		s.sink.Notify(render.Warning, "Connect drone to refresh data")
		return s.notConnected("refresh")
	}
	s.dataTick(s.ctx)
	s.sink.Notify(render.Success, "Data refreshed")
	return nil
}

// Status returns the current state of the station.
func (s *Station) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Connection: s.life.Connection().String(),
		Mission:    s.life.Mission().String(),
		Progress:   s.life.Progress(),
		Address:    s.life.Address(),
		Transport:  s.life.Transport(),
		Field:      s.field,
		FlightMode: s.mode,
		Zoom:       s.zoom,
		SessionID:  s.sessionID,
		MissionID:  s.missionID,
		Telemetry:  s.snap,
		Tasks:      s.sched.Names(),
	}
}

// Close drops the link, cancels every task and pending connection and
// rejects later commands with ErrClosed. It is safe to call more than once.
func (s *Station) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancelConnect != nil {
		s.cancelConnect()
		s.cancelConnect = nil
	}
	s.life.Disconnect()
	s.sched.Stop()
	s.cancel()
	s.mu.Unlock()
	s.sched.Wait()
}

func (s *Station) warnRejected(err error) {
	var te *drone.TransitionError
	if errors.As(err, &te) && te.Conn != drone.Connected {
		s.sink.Notify(render.Warning, "Please connect drone first")
		return
	}
	s.sink.Notify(render.Warning, err.Error())
}

func (s *Station) recordEvent(event, from, to string) {
	ew, ok := s.writer.(MissionEventWriter)
	if !ok {
		return
	}
	row := telemetry.MissionEventRow{
		SessionID: s.sessionID,
		MissionID: s.missionID,
		Event:     event,
		From:      from,
		To:        to,
		Progress:  s.life.Progress(),
		Timestamp: s.now().UTC(),
	}
	if err := ew.WriteMissionEvent(row); err != nil {
		s.logger.Warn("mission event write failed", "event", event, "err", err)
	}
}
