package render

import (
	"sync"
	"time"

	"farmwatch/internal/status"
)

const maxNotices = 50

// Notice is a recorded notification.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Time    time.Time  `json:"time"`
}

// Display is a point-in-time copy of everything a Recorder has seen.
type Display struct {
	Values   map[string]string       `json:"values"`
	Statuses map[string]status.Level `json:"statuses"`
	Progress map[string]float64      `json:"progress"`
	Notices  []Notice                `json:"notices"`
}

// Recorder keeps the latest state of every element. It is safe for
// concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	now      func() time.Time
	values   map[string]string
	statuses map[string]status.Level
	progress map[string]float64
	notices  []Notice
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		now:      time.Now,
		values:   make(map[string]string),
		statuses: make(map[string]status.Level),
		progress: make(map[string]float64),
	}
}

func (r *Recorder) SetValue(id, text string) {
	if !Known(id) {
		return
	}
	r.mu.Lock()
	r.values[id] = text
	r.mu.Unlock()
}

func (r *Recorder) SetStatus(id string, level status.Level) {
	if !Known(id) {
		return
	}
	r.mu.Lock()
	r.statuses[id] = level
	r.mu.Unlock()
}

func (r *Recorder) SetProgress(id string, pct float64) {
	if !Known(id) {
		return
	}
	r.mu.Lock()
	r.progress[id] = pct
	r.mu.Unlock()
}

func (r *Recorder) Notify(kind NoticeKind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Kind: kind, Message: msg, Time: r.now()})
	if len(r.notices) > maxNotices {
		r.notices = r.notices[len(r.notices)-maxNotices:]
	}
}

// Value returns the text of an element.
func (r *Recorder) Value(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[id]
}

// Status returns the status of an element and whether one was set.
func (r *Recorder) Status(id string) (status.Level, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.statuses[id]
	return l, ok
}

// Progress returns the bar percentage of an element.
func (r *Recorder) Progress(id string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress[id]
}

// Notices returns the recorded notifications, oldest first.
func (r *Recorder) Notices() []Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Notice(nil), r.notices...)
}

// LastNotice returns the most recent notification.
func (r *Recorder) LastNotice() (Notice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Snapshot copies the current display.
func (r *Recorder) Snapshot() Display {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d := Display{
		Values:   make(map[string]string, len(r.values)),
		Statuses: make(map[string]status.Level, len(r.statuses)),
		Progress: make(map[string]float64, len(r.progress)),
		Notices:  append([]Notice(nil), r.notices...),
	}
	for k, v := range r.values {
		d.Values[k] = v
	}
	for k, v := range r.statuses {
		d.Statuses[k] = v
	}
	for k, v := range r.progress {
		d.Progress[k] = v
	}
	return d
}
