package soil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"farmwatch/internal/render"
	"farmwatch/internal/schedule"
	"farmwatch/internal/status"
)

const placeholder = "--"

// TimeRange selects the history window of the soil charts.
type TimeRange string

const (
	RealTime  TimeRange = "realtime"
	LastDay   TimeRange = "day"
	LastWeek  TimeRange = "week"
	LastMonth TimeRange = "month"
)

var timeRangeText = map[TimeRange]string{
	RealTime:  "real-time",
	LastDay:   "last 24 hours",
	LastWeek:  "last week",
	LastMonth: "last month",
}

// Text returns the operator-facing description of the range.
func (r TimeRange) Text() string {
	if t, ok := timeRangeText[r]; ok {
		return t
	}
	return string(r)
}

// ErrUnknownTimeRange is returned for unsupported ranges.
var ErrUnknownTimeRange = errors.New("unknown time range")

// ParseTimeRange validates a time range name.
func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(s)
	if _, ok := timeRangeText[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeRange, s)
	}
	return r, nil
}

const refreshTask = "soil-refresh"

// Monitor shows the readings of one selected node. Fetches happen outside
// the monitor lock; results are applied under it.
type Monitor struct {
	mu        sync.Mutex
	source    Source
	sink      render.Sink
	logger    *slog.Logger
	now       func() time.Time
	sched     *schedule.Scheduler
	selected  int
	seq       uint64
	last      map[int]NodeReading
	timeRange TimeRange
}

// NewMonitor creates a monitor with node 1 selected.
func NewMonitor(source Source, sink render.Sink, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:    source,
		sink:      sink,
		logger:    logger.With("component", "soil"),
		now:       time.Now,
		sched:     schedule.New(nil, logger),
		selected:  1,
		last:      make(map[int]NodeReading),
		timeRange: RealTime,
	}
}

// SelectNode selects node id index+1 and displays its readings.
func (m *Monitor) SelectNode(ctx context.Context, index int) (NodeReading, error) {
	nodeID := index + 1
	m.mu.Lock()
	m.selected = nodeID
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	readings, err := m.source.Readings(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		// A newer selection or refresh owns the display; answer the
		// caller from this fetch without redrawing.
		if err != nil {
			return NodeReading{}, err
		}
		return lookup(readings, index)
	}
	if err != nil {
		m.logger.Warn("soil fetch failed", "node", nodeID, "err", err)
		m.showFallback(nodeID)
		render.Notifyf(m.sink, render.Warning, "Unable to load soil data for Node %d", nodeID)
		return NodeReading{}, err
	}
	m.store(readings)
	r, ok := m.last[nodeID]
	if !ok || index < 0 {
		m.showPlaceholders(nodeID)
		render.Notifyf(m.sink, render.Warning, "No data for Node %d", nodeID)
		return NodeReading{}, fmt.Errorf("node %d: %w", nodeID, ErrNodeNotFound)
	}
	m.show(r)
	render.Notifyf(m.sink, render.Info, "Viewing data from Node %d", nodeID)
	return r, nil
}

func lookup(readings []NodeReading, index int) (NodeReading, error) {
	if index >= 0 {
		for _, r := range readings {
			if r.NodeID == index+1 {
				return r, nil
			}
		}
	}
	return NodeReading{}, fmt.Errorf("node %d: %w", index+1, ErrNodeNotFound)
}

// Refresh refetches all nodes and redraws the selected one.
func (m *Monitor) Refresh(ctx context.Context) error {
	return m.refresh(ctx, true)
}

func (m *Monitor) refresh(ctx context.Context, announce bool) error {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	readings, err := m.source.Readings(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return ctx.Err()
	}
	if err != nil {
		m.logger.Warn("soil refresh failed", "err", err)
		m.showFallback(m.selected)
		m.sink.Notify(render.Warning, "Soil data refresh failed, showing last known values")
		return err
	}
	m.store(readings)
	if r, ok := m.last[m.selected]; ok {
		m.show(r)
	} else {
		m.showPlaceholders(m.selected)
	}
	if announce {
		m.sink.Notify(render.Success, "Soil data refreshed successfully")
	}
	return nil
}

// ChangeTimeRange switches the history window.
func (m *Monitor) ChangeTimeRange(name string) error {
	r, err := ParseTimeRange(name)
	if err != nil {
		m.sink.Notify(render.Warning, err.Error())
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeRange = r
	m.sink.SetValue(render.SoilTimeRange, r.Text())
	render.Notifyf(m.sink, render.Info, "Showing data for %s", r.Text())
	return nil
}

// Start refreshes the readings every interval until Stop.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	m.sched.Start(ctx, schedule.Task{
		Name:     refreshTask,
		Interval: interval,
		Run: func(ctx context.Context) {
			_ = m.refresh(ctx, false)
		},
	})
}

// Stop cancels the periodic refresh and waits for it to exit.
func (m *Monitor) Stop() {
	m.sched.Stop()
	m.sched.Wait()
}

// Selected returns the selected node id.
func (m *Monitor) Selected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// TimeRange returns the active history window.
func (m *Monitor) TimeRange() TimeRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeRange
}

// Last returns the last known reading of a node.
func (m *Monitor) Last(nodeID int) (NodeReading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.last[nodeID]
	return r, ok
}

func (m *Monitor) store(readings []NodeReading) {
	for _, r := range readings {
		m.last[r.NodeID] = r
	}
	m.sink.SetValue(render.SoilLastUpdate, m.now().Format("15:04:05"))
}

func (m *Monitor) showFallback(nodeID int) {
	if r, ok := m.last[nodeID]; ok {
		m.show(r)
		return
	}
	m.showPlaceholders(nodeID)
}

func (m *Monitor) show(r NodeReading) {
	s := m.sink
	s.SetValue(render.SoilNode, fmt.Sprintf("Node %d", r.NodeID))

	s.SetValue(render.SoilPHValue, strconv.FormatFloat(r.PH, 'f', 1, 64))
	s.SetStatus(render.SoilPHStatus, status.Classify(status.PH, r.PH))
	s.SetProgress(render.SoilPHBar, clampPct(r.PH*10))

	s.SetValue(render.SoilTempValue, strconv.FormatFloat(r.Temperature, 'f', -1, 64)+"°C")
	s.SetStatus(render.SoilTempStatus, status.Classify(status.Temperature, r.Temperature))
	s.SetProgress(render.SoilTempBar, clampPct(r.Temperature/60*100))

	s.SetValue(render.SoilECValue, strconv.FormatFloat(r.EC, 'f', 1, 64)+" dS/m")
	s.SetStatus(render.SoilECStatus, status.Classify(status.EC, r.EC))

	s.SetValue(render.SoilHumidityValue, strconv.FormatFloat(r.Humidity, 'f', -1, 64)+"%")
	s.SetStatus(render.SoilHumidityStat, status.Classify(status.Humidity, r.Humidity))

	if r.Moisture != nil {
		s.SetValue(render.SoilMoistureValue, strconv.FormatFloat(*r.Moisture, 'f', -1, 64)+"%")
		s.SetStatus(render.SoilMoistureStat, status.Classify(status.Moisture, *r.Moisture))
		s.SetProgress(render.SoilMoistureBar, clampPct(*r.Moisture))
	} else {
		s.SetValue(render.SoilMoistureValue, placeholder)
	}
	if r.Nitrogen != "" {
		s.SetValue(render.SoilNitrogenValue, r.Nitrogen)
		s.SetStatus(render.SoilNitrogenStat, status.ClassifyNitrogen(r.Nitrogen))
	} else {
		s.SetValue(render.SoilNitrogenValue, placeholder)
	}
}

func (m *Monitor) showPlaceholders(nodeID int) {
	s := m.sink
	s.SetValue(render.SoilNode, fmt.Sprintf("Node %d", nodeID))
	for _, id := range []string{
		render.SoilPHValue, render.SoilTempValue, render.SoilECValue,
		render.SoilHumidityValue, render.SoilMoistureValue, render.SoilNitrogenValue,
	} {
		s.SetValue(id, placeholder)
	}
	for _, id := range []string{render.SoilPHBar, render.SoilTempBar, render.SoilMoistureBar} {
		s.SetProgress(id, 0)
	}
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
