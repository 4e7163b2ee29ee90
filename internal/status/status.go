// Package status classifies readings into good, warning and critical levels.
package status

import (
	"fmt"
	"strings"
)

// Level is the health classification of a reading.
type Level int

const (
	Good Level = iota
	Warning
	Critical
)

func (l Level) String() string {
	switch l {
	case Good:
		return "good"
	case Warning:
		return "warning"
	default:
		return "critical"
	}
}

// Label is the human readable text shown next to a classified value.
func (l Level) Label() string {
	switch l {
	case Good:
		return "Good"
	case Warning:
		return "Moderate"
	default:
		return "Critical"
	}
}

// MarshalText encodes the level as its lower case name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses good/warning/moderate/critical.
func (l *Level) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "good":
		*l = Good
	case "warning", "moderate":
		*l = Warning
	case "critical":
		*l = Critical
	default:
		return fmt.Errorf("unknown status level %q", b)
	}
	return nil
}

// Channel names a classified quantity.
type Channel string

const (
	Battery        Channel = "battery"
	Signal         Channel = "signal"
	Progress       Channel = "progress"
	SidebarBattery Channel = "sidebar-battery"
	SidebarSignal  Channel = "sidebar-signal"
	PH             Channel = "ph"
	Temperature    Channel = "temperature"
	EC             Channel = "ec"
	Humidity       Channel = "humidity"
	Moisture       Channel = "moisture"
)

type rule interface {
	classify(v float64) Level
}

// floor classifies by lower bounds. With inclusive set a value equal to a
// bound belongs to the higher level.
type floor struct {
	good, warning float64
	inclusive     bool
}

func (f floor) classify(v float64) Level {
	above := func(bound float64) bool {
		if f.inclusive {
			return v >= bound
		}
		return v > bound
	}
	switch {
	case above(f.good):
		return Good
	case above(f.warning):
		return Warning
	default:
		return Critical
	}
}

// band classifies by closed ranges around an optimum.
type band struct {
	goodMin, goodMax float64
	warnMin, warnMax float64
}

func (b band) classify(v float64) Level {
	switch {
	case v >= b.goodMin && v <= b.goodMax:
		return Good
	case v >= b.warnMin && v <= b.warnMax:
		return Warning
	default:
		return Critical
	}
}

var thresholds = map[Channel]rule{
	Battery:        floor{good: 60, warning: 30, inclusive: true},
	Signal:         floor{good: 70, warning: 40},
	Progress:       floor{good: 70, warning: 40},
	SidebarBattery: floor{good: 50, warning: 20},
	SidebarSignal:  floor{good: 70, warning: 40},
	PH:             band{goodMin: 6, goodMax: 7, warnMin: 5.5, warnMax: 7.5},
	Temperature:    band{goodMin: 25, goodMax: 35, warnMin: 20, warnMax: 40},
	EC:             band{goodMin: 0.8, goodMax: 2.0, warnMin: 0.4, warnMax: 3.0},
	Humidity:       band{goodMin: 40, goodMax: 70, warnMin: 30, warnMax: 80},
	Moisture:       floor{good: 45, warning: 30, inclusive: true},
}

// Classify maps a reading to a level using the channel's thresholds.
// Channels without their own thresholds are treated as progress bars.
func Classify(ch Channel, v float64) Level {
	r, ok := thresholds[ch]
	if !ok {
		r = thresholds[Progress]
	}
	return r.classify(v)
}

// Known reports whether ch has its own thresholds.
func Known(ch Channel) bool {
	_, ok := thresholds[ch]
	return ok
}

// ClassifyNitrogen maps a categorical nitrogen reading.
func ClassifyNitrogen(v string) Level {
	switch strings.ToLower(v) {
	case "high", "adequate":
		return Good
	case "medium":
		return Warning
	default:
		return Critical
	}
}

// SignalLabel is the signal quality text: Excellent above 85, Good above 70.
func SignalLabel(v float64) string {
	switch {
	case v > 85:
		return "Excellent"
	case v > 70:
		return "Good"
	default:
		return "Moderate"
	}
}

// BatteryLabel is the battery text: Good above 60, Moderate above 30, else Low.
func BatteryLabel(v float64) string {
	switch {
	case v > 60:
		return "Good"
	case v > 30:
		return "Moderate"
	default:
		return "Low"
	}
}
