package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"farmwatch/internal/config"
	"farmwatch/internal/render"
	"farmwatch/internal/sim"
	"farmwatch/internal/soil"
)

type failingSource struct{}

func (failingSource) Readings(ctx context.Context) ([]soil.NodeReading, error) {
	return nil, &soil.FetchError{Source: "test", Err: io.ErrUnexpectedEOF}
}

func newTestServer(t *testing.T, source soil.Source) (*Server, *sim.Station) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Drone.ConnectDelay = time.Millisecond
	cfg.Drone.TestDelay = time.Millisecond
	cfg.Intervals = config.Intervals{Signal: time.Hour, Battery: time.Hour, Data: time.Hour, Altitude: time.Hour, Mission: time.Hour}

	rec := render.NewRecorder()
	station := sim.NewStation(sim.Options{
		Config: cfg,
		Sink:   rec,
		Logger: logger,
		Rand:   rand.New(rand.NewSource(7)),
	})
	t.Cleanup(station.Close)
	if source == nil {
		source = soil.NewStaticSource(cfg.Soil.Nodes)
	}
	monitor := soil.NewMonitor(source, rec, logger)
	return NewServer(station, monitor, rec, logger), station
}

func do(t *testing.T, srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) sim.Status {
	t.Helper()
	var st sim.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st
}

func waitConnected(t *testing.T, station *sim.Station) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if station.Status().Connection == "connected" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("station did not connect")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestConnectAndMission(t *testing.T) {
	srv, station := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/mission/start", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while disconnected, got %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/drone/connect", strings.NewReader(`{"address":"10.1.1.1","transport":"tcp"}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if st := decodeStatus(t, w); st.Connection != "connecting" || st.Address != "10.1.1.1" {
		t.Fatalf("unexpected status %+v", st)
	}
	waitConnected(t, station)

	w = do(t, srv, http.MethodPost, "/drone/connect", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 when already connected, got %d", w.Code)
	}

	w = do(t, srv, http.MethodPost, "/mission/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if st := decodeStatus(t, w); st.Mission != "active" || st.MissionID == "" {
		t.Fatalf("unexpected status %+v", st)
	}

	w = do(t, srv, http.MethodPost, "/mission/emergency-stop", nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428 without confirmation, got %d", w.Code)
	}
	w = do(t, srv, http.MethodPost, "/mission/emergency-stop?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if st := decodeStatus(t, w); st.Mission != "stopped" || st.Progress != 0 {
		t.Fatalf("unexpected status %+v", st)
	}

	w = do(t, srv, http.MethodPost, "/drone/disconnect", nil)
	if st := decodeStatus(t, w); st.Connection != "disconnected" || st.Mission != "idle" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestUnknownConnectTransport(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodPost, "/drone/connect?transport=smoke", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w = do(t, srv, http.MethodPost, "/drone/connect", strings.NewReader("{"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestFieldModeAndMap(t *testing.T) {
	srv, station := newTestServer(t, nil)

	if w := do(t, srv, http.MethodPost, "/field/nowhere", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w := do(t, srv, http.MethodPost, "/field/east", nil)
	if st := decodeStatus(t, w); st.Field.Name != "east" {
		t.Fatalf("field not switched: %+v", st.Field)
	}
	w = do(t, srv, http.MethodPost, "/flight-mode/follow", nil)
	if st := decodeStatus(t, w); st.FlightMode.Label != "Follow Path" {
		t.Fatalf("mode not switched: %+v", st.FlightMode)
	}

	if w := do(t, srv, http.MethodPost, "/map/zoom-in", nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while disconnected, got %d", w.Code)
	}
	do(t, srv, http.MethodPost, "/drone/connect", nil)
	waitConnected(t, station)

	w = do(t, srv, http.MethodPost, "/map/zoom-in", nil)
	if st := decodeStatus(t, w); st.Zoom != 400 {
		t.Fatalf("expected zoom 400, got %d", st.Zoom)
	}
	w = do(t, srv, http.MethodPost, "/map/capture", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	w = do(t, srv, http.MethodPost, "/map/reset", nil)
	if st := decodeStatus(t, w); st.Zoom != 500 {
		t.Fatalf("expected zoom 500, got %d", st.Zoom)
	}
}

func TestDisplay(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/display", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var d render.Display
	if err := json.NewDecoder(w.Body).Decode(&d); err != nil {
		t.Fatalf("decode display: %v", err)
	}
	if d.Values[render.SystemStatusText] != "System Ready" {
		t.Fatalf("unexpected system text %q", d.Values[render.SystemStatusText])
	}
}

func TestSoilRoutes(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/soil/nodes/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var r soil.NodeReading
	if err := json.NewDecoder(w.Body).Decode(&r); err != nil {
		t.Fatalf("decode reading: %v", err)
	}
	if r.NodeID != 2 {
		t.Fatalf("expected node 2, got %d", r.NodeID)
	}

	if w := do(t, srv, http.MethodGet, "/soil/nodes/9", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodGet, "/soil/nodes/x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/soil/time-range/week", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/soil/time-range/decade", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSoilFetchFailure(t *testing.T) {
	srv, _ := newTestServer(t, failingSource{})
	if w := do(t, srv, http.MethodGet, "/soil/nodes/0", nil); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/soil/refresh", nil); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := do(t, srv, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "North Field") {
		t.Fatalf("unexpected index page: %d", w.Code)
	}
}
