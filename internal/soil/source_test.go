package soil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"farmwatch/internal/config"
)

func TestHTTPSourceDecodesReadings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"node_id":1,"ph":6.4,"temperature":30,"ec":1.2,"humidity":42},{"node_id":2,"ph":7.9,"temperature":18,"ec":0.2,"humidity":85}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPConfig{Endpoint: srv.URL, RatePerMinute: 6000}, nil)
	readings, err := src.Readings(context.Background())
	if err != nil {
		t.Fatalf("Readings: %v", err)
	}
	if len(readings) != 2 || readings[0].NodeID != 1 || readings[0].PH != 6.4 || readings[1].Humidity != 85 {
		t.Fatalf("unexpected readings %+v", readings)
	}
	if readings[0].Moisture != nil {
		t.Fatalf("endpoint readings should not carry moisture")
	}
}

func TestHTTPSourceFailuresWrapErrFetch(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewHTTPSource(HTTPConfig{Endpoint: srv.URL, RatePerMinute: 6000}, nil).Readings(context.Background())
			if !errors.Is(err, ErrFetch) {
				t.Fatalf("expected ErrFetch, got %v", err)
			}
			var fe *FetchError
			if !errors.As(err, &fe) || fe.Source != srv.URL {
				t.Fatalf("expected FetchError for %s, got %v", srv.URL, err)
			}
		})
	}
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	if _, err := NewHTTPSource(HTTPConfig{Endpoint: url}, nil).Readings(context.Background()); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestStaticSourceFromConfig(t *testing.T) {
	src := NewSource(config.Default().Soil, nil)
	readings, err := src.Readings(context.Background())
	if err != nil {
		t.Fatalf("Readings: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(readings))
	}
	if readings[1].Nitrogen != "Medium" || readings[1].Moisture == nil || *readings[1].Moisture != 38 {
		t.Fatalf("unexpected node 2 %+v", readings[1])
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Readings(ctx); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch on cancelled context, got %v", err)
	}
}
