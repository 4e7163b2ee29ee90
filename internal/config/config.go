// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Drone holds the connection parameters offered to the operator.
type Drone struct {
	Address      string        `yaml:"address"`
	Transport    string        `yaml:"transport"`
	Transports   []string      `yaml:"transports"`
	ConnectDelay time.Duration `yaml:"connect_delay"`
	TestDelay    time.Duration `yaml:"test_delay"`
}

// Intervals are the polling cadences of the telemetry task groups.
type Intervals struct {
	Signal   time.Duration `yaml:"signal"`
	Battery  time.Duration `yaml:"battery"`
	Data     time.Duration `yaml:"data"`
	Altitude time.Duration `yaml:"altitude"`
	Mission  time.Duration `yaml:"mission"`
}

// Origin is the map position the drone hovers around.
type Origin struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Field is a selectable survey area.
type Field struct {
	Name   string  `yaml:"name"`
	Label  string  `yaml:"label"`
	AreaHa float64 `yaml:"area_ha"`
}

// FlightMode is a selectable flight pattern.
type FlightMode struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Zoom controls the map scale denominator (1:N).
type Zoom struct {
	Default int `yaml:"default"`
	Step    int `yaml:"step"`
	Min     int `yaml:"min"`
}

// SoilNode is one row of the static soil profile table.
type SoilNode struct {
	ID          int     `yaml:"id"`
	PH          float64 `yaml:"ph"`
	Temperature float64 `yaml:"temperature"`
	EC          float64 `yaml:"ec"`
	Humidity    float64 `yaml:"humidity"`
	Moisture    float64 `yaml:"moisture"`
	Nitrogen    string  `yaml:"nitrogen"`
}

// Soil selects and tunes the soil node data source.
type Soil struct {
	Source          string        `yaml:"source"` // static or http
	Endpoint        string        `yaml:"endpoint"`
	Timeout         time.Duration `yaml:"timeout"`
	RatePerMinute   int           `yaml:"rate_per_minute"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Nodes           []SoilNode    `yaml:"nodes"`
}

// Config is the root configuration for the farm dashboard simulator.
type Config struct {
	Drone       Drone        `yaml:"drone"`
	Intervals   Intervals    `yaml:"intervals"`
	Origin      Origin       `yaml:"origin"`
	Fields      []Field      `yaml:"fields"`
	FlightModes []FlightMode `yaml:"flight_modes"`
	Zoom        Zoom         `yaml:"zoom"`
	Soil        Soil         `yaml:"soil"`
	Seed        int64        `yaml:"seed"`
	LogLevel    string       `yaml:"log_level"`
}

const (
	SoilSourceStatic = "static"
	SoilSourceHTTP   = "http"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load loads YAML config and validates it against a CUE schema.
// An empty schema path skips validation.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	slog.Info("loaded configuration", "path", configPath, "fields", len(cfg.Fields), "soil_source", cfg.Soil.Source)

	return &cfg, nil
}

// ApplyEnv overrides values from FARMWATCH_SEED and SOIL_ENDPOINT.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FARMWATCH_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = seed
		}
	}
	if v := os.Getenv("SOIL_ENDPOINT"); v != "" {
		c.Soil.Endpoint = v
		c.Soil.Source = SoilSourceHTTP
	}
}

// ApplyDefaults fills unset values with the dashboard's stock settings.
func (c *Config) ApplyDefaults() {
	if c.Drone.Address == "" {
		c.Drone.Address = "192.168.1.1"
	}
	if len(c.Drone.Transports) == 0 {
		c.Drone.Transports = []string{"udp", "tcp", "serial"}
	}
	if c.Drone.Transport == "" {
		c.Drone.Transport = c.Drone.Transports[0]
	}
	if c.Drone.ConnectDelay <= 0 {
		c.Drone.ConnectDelay = 2 * time.Second
	}
	if c.Drone.TestDelay <= 0 {
		c.Drone.TestDelay = 1500 * time.Millisecond
	}

	setDuration(&c.Intervals.Signal, 3*time.Second)
	setDuration(&c.Intervals.Battery, 5*time.Second)
	setDuration(&c.Intervals.Data, 2*time.Second)
	setDuration(&c.Intervals.Altitude, 3*time.Second)
	setDuration(&c.Intervals.Mission, time.Second)

	if c.Origin.Lat == 0 && c.Origin.Lon == 0 {
		c.Origin = Origin{Lat: 14.599512, Lon: 120.984222}
	}
	if len(c.Fields) == 0 {
		c.Fields = []Field{
			{Name: "north", Label: "North Field", AreaHa: 25.3},
			{Name: "south", Label: "South Field", AreaHa: 25.3},
			{Name: "east", Label: "East Field", AreaHa: 25.3},
			{Name: "west", Label: "West Field", AreaHa: 25.3},
		}
	}
	for i := range c.Fields {
		if c.Fields[i].Label == "" {
			c.Fields[i].Label = c.Fields[i].Name
		}
	}
	if len(c.FlightModes) == 0 {
		c.FlightModes = []FlightMode{
			{Name: "manual", Label: "Manual Control"},
			{Name: "auto", Label: "Auto Mission"},
			{Name: "grid", Label: "Grid Scan Pattern"},
			{Name: "follow", Label: "Follow Path"},
		}
	}
	if c.Zoom.Default <= 0 {
		c.Zoom.Default = 500
	}
	if c.Zoom.Step <= 0 {
		c.Zoom.Step = 100
	}
	if c.Zoom.Min <= 0 {
		c.Zoom.Min = 100
	}

	if c.Soil.Source == "" {
		c.Soil.Source = SoilSourceStatic
	}
	if c.Soil.Endpoint == "" {
		c.Soil.Endpoint = "http://127.0.0.1:5000/api/soil"
	}
	setDuration(&c.Soil.Timeout, 5*time.Second)
	setDuration(&c.Soil.RefreshInterval, 30*time.Second)
	if c.Soil.RatePerMinute <= 0 {
		c.Soil.RatePerMinute = 30
	}
	if len(c.Soil.Nodes) == 0 {
		c.Soil.Nodes = []SoilNode{
			{ID: 1, PH: 6.4, Temperature: 30, EC: 1.2, Humidity: 42, Moisture: 42, Nitrogen: "Low"},
			{ID: 2, PH: 6.8, Temperature: 28, EC: 1.1, Humidity: 38, Moisture: 38, Nitrogen: "Medium"},
			{ID: 3, PH: 6.2, Temperature: 32, EC: 1.4, Humidity: 45, Moisture: 45, Nitrogen: "Low"},
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Field returns the field with the given name.
func (c *Config) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FlightMode returns the flight mode with the given name.
func (c *Config) FlightMode(name string) (FlightMode, bool) {
	for _, m := range c.FlightModes {
		if m.Name == name {
			return m, true
		}
	}
	return FlightMode{}, false
}

// SupportsTransport reports whether t is one of the configured transports.
func (c *Config) SupportsTransport(t string) bool {
	for _, s := range c.Drone.Transports {
		if s == t {
			return true
		}
	}
	return false
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}
