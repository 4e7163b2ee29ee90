// Package soil looks up soil sensor node readings and renders the selected
// node on the dashboard.
package soil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"farmwatch/internal/config"
)

// NodeReading is one node's readings. Moisture and Nitrogen are only
// provided by the static profile table.
type NodeReading struct {
	NodeID      int      `json:"node_id"`
	PH          float64  `json:"ph"`
	Temperature float64  `json:"temperature"`
	EC          float64  `json:"ec"`
	Humidity    float64  `json:"humidity"`
	Moisture    *float64 `json:"moisture,omitempty"`
	Nitrogen    string   `json:"nitrogen,omitempty"`
}

// Source provides the current readings of every node.
type Source interface {
	Readings(ctx context.Context) ([]NodeReading, error)
}

var (
	// ErrFetch marks failures to obtain readings from a source.
	ErrFetch = errors.New("soil fetch failed")
	// ErrNodeNotFound is returned when a selected node has no reading.
	ErrNodeNotFound = errors.New("soil node not found")
)

// FetchError wraps the cause of a failed fetch.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFetch, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// StaticSource serves a fixed table of node profiles.
type StaticSource struct {
	nodes []NodeReading
}

// NewStaticSource builds a source from configured node profiles.
func NewStaticSource(nodes []config.SoilNode) *StaticSource {
	s := &StaticSource{nodes: make([]NodeReading, 0, len(nodes))}
	for _, n := range nodes {
		r := NodeReading{
			NodeID:      n.ID,
			PH:          n.PH,
			Temperature: n.Temperature,
			EC:          n.EC,
			Humidity:    n.Humidity,
			Nitrogen:    n.Nitrogen,
		}
		if n.Moisture > 0 {
			m := n.Moisture
			r.Moisture = &m
		}
		s.nodes = append(s.nodes, r)
	}
	return s
}

// Readings returns a copy of the table.
func (s *StaticSource) Readings(ctx context.Context) ([]NodeReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: "static", Err: err}
	}
	return append([]NodeReading(nil), s.nodes...), nil
}

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	Endpoint      string
	Timeout       time.Duration // default 5s
	RatePerMinute int           // default 30
}

// HTTPSource fetches readings with a GET to a JSON endpoint.
type HTTPSource struct {
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewHTTPSource creates a rate limited HTTP source.
func NewHTTPSource(cfg HTTPConfig, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	perMinute := cfg.RatePerMinute
	if perMinute == 0 {
		perMinute = 30
	}
	return &HTTPSource{
		endpoint:    cfg.Endpoint,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:      logger.With("component", "soil_http"),
	}
}

// Readings fetches the current readings of every node.
func (s *HTTPSource) Readings(ctx context.Context) ([]NodeReading, error) {
	readings, err := s.fetch(ctx)
	if err != nil {
		return nil, &FetchError{Source: s.endpoint, Err: err}
	}
	return readings, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]NodeReading, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	var readings []NodeReading
	if err := json.Unmarshal(body, &readings); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	s.logger.Debug("soil readings fetched", "count", len(readings))
	return readings, nil
}

// NewSource builds the source selected by the soil configuration.
func NewSource(cfg config.Soil, logger *slog.Logger) Source {
	if cfg.Source == config.SoilSourceHTTP {
		return NewHTTPSource(HTTPConfig{
			Endpoint:      cfg.Endpoint,
			Timeout:       cfg.Timeout,
			RatePerMinute: cfg.RatePerMinute,
		}, logger)
	}
	return NewStaticSource(cfg.Nodes)
}
