// Package render defines the display surface the station draws on and the
// sinks that implement it.
package render

import (
	"fmt"
	"log/slog"

	"farmwatch/internal/status"
)

// NoticeKind is the severity of a transient notification.
type NoticeKind string

const (
	Success NoticeKind = "success"
	Info    NoticeKind = "info"
	Warning NoticeKind = "warning"
	Error   NoticeKind = "error"
)

// Sink receives display updates keyed by element id. Implementations
// ignore ids they do not know.
type Sink interface {
	SetValue(id, text string)
	SetStatus(id string, level status.Level)
	SetProgress(id string, pct float64)
	Notify(kind NoticeKind, msg string)
}

// Notifyf formats and sends a notification.
func Notifyf(s Sink, kind NoticeKind, format string, args ...any) {
	s.Notify(kind, fmt.Sprintf(format, args...))
}

// Multi fans display updates out to several sinks.
type Multi []Sink

func (m Multi) SetValue(id, text string) {
	for _, s := range m {
		s.SetValue(id, text)
	}
}

func (m Multi) SetStatus(id string, level status.Level) {
	for _, s := range m {
		s.SetStatus(id, level)
	}
}

func (m Multi) SetProgress(id string, pct float64) {
	for _, s := range m {
		s.SetProgress(id, pct)
	}
}

func (m Multi) Notify(kind NoticeKind, msg string) {
	for _, s := range m {
		s.Notify(kind, msg)
	}
}

// LogSink writes notifications to a logger and element updates at debug level.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a sink logging to logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

func (l *LogSink) SetValue(id, text string) {
	if Known(id) {
		l.Logger.Debug("display value", "element", id, "value", text)
	}
}

func (l *LogSink) SetStatus(id string, level status.Level) {
	if Known(id) {
		l.Logger.Debug("display status", "element", id, "status", level.String())
	}
}

func (l *LogSink) SetProgress(id string, pct float64) {
	if Known(id) {
		l.Logger.Debug("display progress", "element", id, "pct", pct)
	}
}

func (l *LogSink) Notify(kind NoticeKind, msg string) {
	switch kind {
	case Error:
		l.Logger.Error(msg, "notice", string(kind))
	case Warning:
		l.Logger.Warn(msg, "notice", string(kind))
	default:
		l.Logger.Info(msg, "notice", string(kind))
	}
}
