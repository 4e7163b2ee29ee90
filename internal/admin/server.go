// Package admin exposes the station commands and displays over HTTP.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"farmwatch/internal/drone"
	"farmwatch/internal/render"
	"farmwatch/internal/sim"
	"farmwatch/internal/soil"
)

//go:embed templates/index.html
var content embed.FS

// Server serves the command API and a read-only status page.
type Server struct {
	station *sim.Station
	soil    *soil.Monitor
	display *render.Recorder
	logger  *slog.Logger
	tpl     *template.Template
	router  chi.Router
	server  *http.Server
}

// NewServer wires the routes. soil and display may be nil.
func NewServer(station *sim.Station, monitor *soil.Monitor, display *render.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		station: station,
		soil:    monitor,
		display: display,
		logger:  logger.With("component", "admin"),
		tpl:     template.Must(template.New("index.html").ParseFS(content, "templates/index.html")),
		router:  chi.NewRouter(),
	}
	s.routes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/telemetry", s.handleTelemetry)
	r.Get("/display", s.handleDisplay)

	r.Route("/drone", func(r chi.Router) {
		r.Post("/connect", s.handleConnect)
		r.Post("/test", s.handleTestConnection)
		r.Post("/disconnect", s.handleDisconnect)
	})
	r.Route("/mission", func(r chi.Router) {
		r.Post("/start", s.command(s.station.StartMission))
		r.Post("/pause", s.command(s.station.PauseMission))
		r.Post("/resume", s.command(s.station.ResumeMission))
		r.Post("/reset", s.command(s.station.ResetMission))
		r.Post("/emergency-stop", s.handleEmergencyStop)
	})
	r.Post("/field/{name}", s.handleField)
	r.Post("/flight-mode/{mode}", s.handleFlightMode)
	r.Route("/map", func(r chi.Router) {
		r.Post("/zoom-in", s.command(s.station.ZoomIn))
		r.Post("/zoom-out", s.command(s.station.ZoomOut))
		r.Post("/reset", s.command(s.station.ResetView))
		r.Post("/capture", s.handleCapture)
	})
	r.Post("/refresh", s.command(s.station.Refresh))

	r.Route("/soil", func(r chi.Router) {
		r.Get("/nodes/{index}", s.handleSoilNode)
		r.Post("/refresh", s.handleSoilRefresh)
		r.Post("/time-range/{range}", s.handleTimeRange)
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.server.Addr = addr
	s.logger.Info("admin server listening", "addr", addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, drone.ErrNotConfirmed):
		code = http.StatusPreconditionRequired
	case errors.Is(err, drone.ErrInvalidTransition), errors.Is(err, sim.ErrZoomLimit):
		code = http.StatusConflict
	case errors.Is(err, sim.ErrUnknownOption), errors.Is(err, soil.ErrUnknownTimeRange):
		code = http.StatusBadRequest
	case errors.Is(err, soil.ErrNodeNotFound):
		code = http.StatusNotFound
	case errors.Is(err, soil.ErrFetch):
		code = http.StatusBadGateway
	case errors.Is(err, sim.ErrClosed):
		code = http.StatusServiceUnavailable
	}
	s.respondJSON(w, code, map[string]string{"error": err.Error()})
}

// command adapts a station command that only reports an error.
func (s *Server) command(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, s.station.Status())
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status  sim.Status
		Notices []render.Notice
	}{Status: s.station.Status()}
	if s.display != nil {
		data.Notices = s.display.Notices()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.station.Status())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.station.Status().Telemetry)
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	if s.display == nil {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "display not recorded"})
		return
	}
	s.respondJSON(w, http.StatusOK, s.display.Snapshot())
}

type linkRequest struct {
	Address   string `json:"address"`
	Transport string `json:"transport"`
}

// decodeLink reads the target from a JSON body or the query string.
func decodeLink(r *http.Request) (linkRequest, error) {
	req := linkRequest{
		Address:   r.URL.Query().Get("address"),
		Transport: r.URL.Query().Get("transport"),
	}
	if r.Body == nil {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLink(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.station.Connect(req.Address, req.Transport); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, s.station.Status())
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLink(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.station.TestConnection(r.Context(), req.Address, req.Transport); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.station.Disconnect()
	s.respondJSON(w, http.StatusOK, s.station.Status())
}

func (s *Server) handleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	s.command(func() error { return s.station.EmergencyStop(confirmed) })(w, r)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.command(func() error { return s.station.SelectField(name) })(w, r)
}

func (s *Server) handleFlightMode(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")
	s.command(func() error { return s.station.SelectFlightMode(mode) })(w, r)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	row, err := s.station.CaptureSnapshot()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, row)
}

func (s *Server) soilEnabled(w http.ResponseWriter) bool {
	if s.soil == nil {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "soil monitor disabled"})
		return false
	}
	return true
}

func (s *Server) handleSoilNode(w http.ResponseWriter, r *http.Request) {
	if !s.soilEnabled(w) {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid node index"})
		return
	}
	reading, err := s.soil.SelectNode(r.Context(), index)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reading)
}

func (s *Server) handleSoilRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.soilEnabled(w) {
		return
	}
	if err := s.soil.Refresh(r.Context()); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleTimeRange(w http.ResponseWriter, r *http.Request) {
	if !s.soilEnabled(w) {
		return
	}
	if err := s.soil.ChangeTimeRange(chi.URLParam(r, "range")); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"time_range": s.soil.TimeRange().Text()})
}
