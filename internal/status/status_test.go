package status

import (
	"encoding/json"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		ch   Channel
		v    float64
		want Level
	}{
		{Battery, 100, Good},
		{Battery, 60, Good},
		{Battery, 59.9, Warning},
		{Battery, 30, Warning},
		{Battery, 29.9, Critical},
		{Battery, 15, Critical},
		{Signal, 70.1, Good},
		{Signal, 70, Warning},
		{Signal, 40.1, Warning},
		{Signal, 40, Critical},
		{Progress, 71, Good},
		{Progress, 41, Warning},
		{Progress, 0, Critical},
		{SidebarBattery, 51, Good},
		{SidebarBattery, 50, Warning},
		{SidebarBattery, 20, Critical},
		{PH, 6, Good},
		{PH, 6.4, Good},
		{PH, 7, Good},
		{PH, 5.6, Warning},
		{PH, 8, Critical},
		{Temperature, 30, Good},
		{Temperature, 25, Good},
		{Temperature, 38, Warning},
		{Temperature, 45, Critical},
		{EC, 1.2, Good},
		{EC, 0.5, Warning},
		{EC, 4, Critical},
		{Humidity, 42, Good},
		{Humidity, 35, Warning},
		{Humidity, 10, Critical},
		{Moisture, 45, Good},
		{Moisture, 38, Warning},
		{Moisture, 29, Critical},
	}
	for _, c := range cases {
		if got := Classify(c.ch, c.v); got != c.want {
			t.Errorf("Classify(%s, %v)=%s, want %s", c.ch, c.v, got, c.want)
		}
	}
}

func TestClassifyUnknownChannelUsesProgress(t *testing.T) {
	if Known("ndvi") {
		t.Fatalf("ndvi should not have its own thresholds")
	}
	if got := Classify("ndvi", 80); got != Good {
		t.Fatalf("expected progress thresholds, got %s", got)
	}
	if got := Classify("ndvi", 40); got != Critical {
		t.Fatalf("expected progress thresholds, got %s", got)
	}
}

func TestClassifyNitrogen(t *testing.T) {
	cases := map[string]Level{"High": Good, "adequate": Good, "Medium": Warning, "Low": Critical, "": Critical}
	for in, want := range cases {
		if got := ClassifyNitrogen(in); got != want {
			t.Errorf("ClassifyNitrogen(%q)=%s, want %s", in, got, want)
		}
	}
}

func TestLabels(t *testing.T) {
	if SignalLabel(90) != "Excellent" || SignalLabel(80) != "Good" || SignalLabel(70) != "Moderate" {
		t.Fatalf("unexpected signal labels")
	}
	if BatteryLabel(61) != "Good" || BatteryLabel(45) != "Moderate" || BatteryLabel(30) != "Low" {
		t.Fatalf("unexpected battery labels")
	}
	if Warning.Label() != "Moderate" || Good.Label() != "Good" || Critical.Label() != "Critical" {
		t.Fatalf("unexpected level labels")
	}
}

func TestLevelJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Level{"a": Warning})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":"warning"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var l Level
	if err := l.UnmarshalText([]byte("moderate")); err != nil || l != Warning {
		t.Fatalf("unmarshal moderate: %v %s", err, l)
	}
	if err := l.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
