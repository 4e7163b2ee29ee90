// Package schedule runs named repeating tasks, each on its own cadence.
//
// Every task runs in its own goroutine driven by a ticker. When a locker is
// supplied, each firing acquires it before running, and Stop is expected to
// be called with the locker held: a task that was already waiting for the
// lock observes the stop and returns without running.
package schedule

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Task is one repeating unit of work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

type running struct {
	task   Task
	active atomic.Bool
	cancel context.CancelFunc
}

// Scheduler owns a set of named tasks.
type Scheduler struct {
	locker sync.Locker
	logger *slog.Logger

	mu    sync.Mutex
	tasks map[string]*running
	wg    sync.WaitGroup
}

// New creates a scheduler. locker may be nil.
func New(locker sync.Locker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		locker: locker,
		logger: logger,
		tasks:  make(map[string]*running),
	}
}

// Start launches the given tasks. A running task with the same name is
// stopped first, so starting twice never duplicates a task.
func (s *Scheduler) Start(ctx context.Context, tasks ...Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.Interval <= 0 || t.Run == nil {
			s.logger.Warn("skipping invalid task", "task", t.Name, "interval", t.Interval)
			continue
		}
		s.stopLocked(t.Name)
		tctx, cancel := context.WithCancel(ctx)
		r := &running{task: t, cancel: cancel}
		r.active.Store(true)
		s.tasks[t.Name] = r
		s.wg.Add(1)
		go s.loop(tctx, r)
		s.logger.Debug("task started", "task", t.Name, "interval", t.Interval)
	}
}

// Restart clears every task and then starts the given ones.
func (s *Scheduler) Restart(ctx context.Context, tasks ...Task) {
	s.Stop()
	s.Start(ctx, tasks...)
}

// StopTask cancels a single task. Unknown names are ignored.
func (s *Scheduler) StopTask(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(name)
}

// Stop cancels every task. It is safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.tasks {
		s.stopLocked(name)
	}
}

func (s *Scheduler) stopLocked(name string) {
	r, ok := s.tasks[name]
	if !ok {
		return
	}
	r.active.Store(false)
	r.cancel()
	delete(s.tasks, name)
	s.logger.Debug("task stopped", "task", name)
}

// Running reports whether a task with the given name is scheduled.
func (s *Scheduler) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Names returns the scheduled task names in sorted order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wait blocks until every task goroutine has exited. Do not call it while
// holding the locker.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, r *running) {
	defer s.wg.Done()
	ticker := time.NewTicker(r.task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, r)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, r *running) {
	if s.locker != nil {
		s.locker.Lock()
		defer s.locker.Unlock()
	}
	if !r.active.Load() || ctx.Err() != nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("task panicked", "task", r.task.Name, "panic", p)
		}
	}()
	r.task.Run(ctx)
}
