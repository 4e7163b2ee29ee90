// Package drone models the connection and mission lifecycle of a single
// drone. It is a pure state machine: timing is owned by the caller.
package drone

import (
	"errors"
	"fmt"
)

// ConnectionState is the link state between the station and the drone.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MissionState is only meaningful while Connected.
type MissionState int

const (
	Idle MissionState = iota
	Active
	Paused
	Complete
	Stopped
)

func (s MissionState) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Complete:
		return "complete"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Label is the operator-facing mission text.
func (s MissionState) Label() string {
	switch s {
	case Active:
		return "Mission Active"
	case Paused:
		return "Mission Paused"
	case Complete:
		return "Mission Complete"
	case Stopped:
		return "Emergency Stop"
	default:
		return "Idle"
	}
}

var (
	// ErrInvalidTransition is returned for commands not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotConfirmed is returned when a destructive command lacks confirmation.
	ErrNotConfirmed = errors.New("confirmation required")
)

// TransitionError describes a rejected command.
type TransitionError struct {
	Op      string
	Conn    ConnectionState
	Mission MissionState
	Reason  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s (connection=%s mission=%s)", e.Op, e.Reason, e.Conn, e.Mission)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Lifecycle holds connection and mission state. It is not safe for
// concurrent use; the station serialises access.
type Lifecycle struct {
	conn      ConnectionState
	mission   MissionState
	progress  float64
	attempt   uint64
	address   string
	transport string
}

// NewLifecycle returns a disconnected lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

func (l *Lifecycle) reject(op, reason string) error {
	return &TransitionError{Op: op, Conn: l.conn, Mission: l.mission, Reason: reason}
}

// Connect begins a connection attempt and returns its id. The attempt is
// finished with CompleteConnect once the simulated link is up.
func (l *Lifecycle) Connect(address, transport string) (uint64, error) {
	switch l.conn {
	case Connecting:
		return 0, l.reject("connect", "already connecting")
	case Connected:
		return 0, l.reject("connect", "already connected")
	}
	if address == "" {
		return 0, l.reject("connect", "address required")
	}
	l.attempt++
	l.conn = Connecting
	l.address = address
	l.transport = transport
	return l.attempt, nil
}

// CompleteConnect promotes the given attempt to Connected. It reports false
// when the attempt was superseded by a disconnect or a newer attempt.
func (l *Lifecycle) CompleteConnect(attempt uint64) bool {
	if l.conn != Connecting || attempt != l.attempt {
		return false
	}
	l.conn = Connected
	l.mission = Idle
	l.progress = 0
	return true
}

// Disconnect drops the link from any state and resets the mission.
func (l *Lifecycle) Disconnect() {
	l.attempt++
	l.conn = Disconnected
	l.mission = Idle
	l.progress = 0
}

// StartMission activates a mission from Idle or Stopped.
func (l *Lifecycle) StartMission() error {
	if l.conn != Connected {
		return l.reject("start mission", "drone not connected")
	}
	switch l.mission {
	case Idle:
	case Stopped:
		l.progress = 0
	default:
		return l.reject("start mission", "mission already "+l.mission.String())
	}
	l.mission = Active
	return nil
}

// PauseMission halts an active mission. It is a no-op while disconnected.
func (l *Lifecycle) PauseMission() error {
	if l.conn != Connected {
		return nil
	}
	if l.mission != Active {
		return l.reject("pause mission", "no active mission")
	}
	l.mission = Paused
	return nil
}

// ResumeMission continues a paused mission.
func (l *Lifecycle) ResumeMission() error {
	if l.conn != Connected || l.mission != Paused {
		return l.reject("resume mission", "no paused mission")
	}
	l.mission = Active
	return nil
}

// ResetMission returns a completed or stopped mission to Idle.
func (l *Lifecycle) ResetMission() error {
	if l.conn != Connected {
		return l.reject("reset mission", "drone not connected")
	}
	if l.mission != Complete && l.mission != Stopped {
		return l.reject("reset mission", "mission not finished")
	}
	l.mission = Idle
	l.progress = 0
	return nil
}

// EmergencyStop aborts any mission. It requires explicit confirmation.
func (l *Lifecycle) EmergencyStop(confirmed bool) error {
	if l.conn != Connected {
		return l.reject("emergency stop", "drone not connected")
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	l.mission = Stopped
	l.progress = 0
	return nil
}

// Advance sets the mission progress while Active. Progress never decreases
// and is clamped to 100. It reports true exactly once, on the call that
// completes the mission.
func (l *Lifecycle) Advance(progress float64) bool {
	if l.conn != Connected || l.mission != Active {
		return false
	}
	if progress > 100 {
		progress = 100
	}
	if progress > l.progress {
		l.progress = progress
	}
	if l.progress >= 100 {
		l.mission = Complete
		return true
	}
	return false
}

func (l *Lifecycle) Connection() ConnectionState { return l.conn }
func (l *Lifecycle) Mission() MissionState       { return l.mission }
func (l *Lifecycle) Progress() float64           { return l.progress }
func (l *Lifecycle) Connected() bool             { return l.conn == Connected }
func (l *Lifecycle) Address() string             { return l.address }
func (l *Lifecycle) Transport() string           { return l.transport }

// MissionActive reports whether mission ticks should run.
func (l *Lifecycle) MissionActive() bool {
	return l.conn == Connected && l.mission == Active
}
